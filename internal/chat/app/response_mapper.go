package app

import (
	"context"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// FileURLSigner presigned download urls (minio)
type FileURLSigner interface {
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ResponseMapper durable message -> client response
type ResponseMapper struct {
	users      repository.UserRepository
	files      repository.FileRepository
	signer     FileURLSigner
	presignTTL time.Duration
}

// NewResponseMapper signer may be nil, urls are then left empty
func NewResponseMapper(users repository.UserRepository, files repository.FileRepository, signer FileURLSigner, presignTTL time.Duration) *ResponseMapper {
	return &ResponseMapper{users: users, files: files, signer: signer, presignTTL: presignTTL}
}

// ToResponse sender / file already resolved by the caller, either may be nil
func (m *ResponseMapper) ToResponse(ctx context.Context, msg *domain.ChatMessage, sender *domain.UserProfile, file *domain.FileRecord) domain.MessageResponse {
	resp := domain.MessageResponse{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Content:   msg.Content,
		Type:      msg.Type,
		Timestamp: domain.ToMillis(msg.Timestamp),
		Mentions:  msg.Mentions,
		Reactions: msg.Reactions,
		Readers:   msg.Readers,
		Metadata:  msg.Metadata,
	}
	if resp.Reactions == nil {
		resp.Reactions = map[string][]string{}
	}
	if resp.Readers == nil {
		resp.Readers = []string{}
	}

	switch {
	case sender != nil:
		resp.Sender = &domain.SenderSummary{
			ID:           sender.ID,
			Name:         sender.Name,
			Email:        sender.Email,
			ProfileImage: m.sign(ctx, sender.ProfileImage),
		}
	case msg.SenderID != "":
		resp.Sender = &domain.SenderSummary{ID: msg.SenderID}
	}

	if file != nil {
		resp.File = &domain.FileSummary{
			ID:       file.ID,
			Filename: file.OriginalName,
			MimeType: file.MimeType,
			Size:     file.Size,
			URL:      m.sign(ctx, file.Path),
		}
	}
	return resp
}

// MapBatch lookups are cached per call; a failed lookup degrades the entry, never the batch
func (m *ResponseMapper) MapBatch(ctx context.Context, msgs []domain.ChatMessage) []domain.MessageResponse {
	users := map[string]*domain.UserProfile{}
	files := map[string]*domain.FileRecord{}

	out := make([]domain.MessageResponse, 0, len(msgs))
	for i := range msgs {
		msg := &msgs[i]

		var sender *domain.UserProfile
		if msg.SenderID != "" {
			u, ok := users[msg.SenderID]
			if !ok {
				var err error
				u, err = m.users.FindByID(ctx, msg.SenderID)
				if err != nil {
					logger.Log.Debug("sender lookup failed", zap.String("userID", msg.SenderID), zap.Error(err))
				}
				users[msg.SenderID] = u
			}
			sender = u
		}

		var file *domain.FileRecord
		if msg.Type == domain.MessageTypeFile && msg.FileID != "" {
			f, ok := files[msg.FileID]
			if !ok {
				var err error
				f, err = m.files.FindByID(ctx, msg.FileID)
				if err != nil {
					logger.Log.Debug("file lookup failed", zap.String("fileID", msg.FileID), zap.Error(err))
				}
				files[msg.FileID] = f
			}
			file = f
		}

		out = append(out, m.ToResponse(ctx, msg, sender, file))
	}
	return out
}

func (m *ResponseMapper) sign(ctx context.Context, key string) string {
	if key == "" || m.signer == nil {
		return ""
	}
	url, err := m.signer.PresignGetURL(ctx, key, m.presignTTL)
	if err != nil {
		logger.Log.Warn("presign failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}
