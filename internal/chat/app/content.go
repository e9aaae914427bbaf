package app

import (
	"regexp"
	"strings"

	"realtime_chat_service/internal/chat/domain"

	"github.com/samber/lo"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// effectiveContent content, or the legacy msg field when content is empty
func effectiveContent(req *domain.ChatMessageRequest) string {
	return lo.CoalesceOrEmpty(req.Content, req.Msg)
}

func extractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	return lo.Uniq(lo.Map(matches, func(m []string, _ int) string { return m[1] }))
}

// responderMentions mentions naming a configured automated responder
func responderMentions(mentions, responders []string) []string {
	return lo.Filter(mentions, func(m string, _ int) bool {
		return lo.Contains(responders, m)
	})
}

func isUploadKey(id, prefix string) bool {
	return prefix != "" && strings.HasPrefix(id, prefix)
}

// filenameFromKey public/chat/files/a/b.png -> b.png
func filenameFromKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
