package token

import "realtime_chat_service/pkg/config"

// 這個變數會在測試時被覆蓋
var (
	GenerateJWTFunc = GenerateJWT
	ParseJWTFunc    = ParseJWT
)

// GenerateJWTWrapper issue a token signed for the chat service
func GenerateJWTWrapper(memberID, sessionID, role string) (string, error) {
	return GenerateJWTFunc(memberID, sessionID, role, config.EnvConfig.ChatService)
}

// ParseJWTWrapper 讓 middleware test mock使用這個包裝函數
func ParseJWTWrapper(t string) (*Claims, error) {
	return ParseJWTFunc(t)
}
