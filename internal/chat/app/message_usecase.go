package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/moderation"
	"realtime_chat_service/internal/chat/repository"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Client connection sending a message; identity is fixed at handshake
type Client interface {
	UserID() string
	SessionID() string
	SendEvent(event string, data interface{}) error
}

// SendMessageConfig pipeline tuning
type SendMessageConfig struct {
	MaxActions       int
	Window           time.Duration
	RateLimitTimeout time.Duration
	UploadKeyPrefix  string
	ResponderNames   []string
	InstanceID       string
}

// SendMessageDeps collaborators of SendMessageUseCase; Responder and Events may be nil
type SendMessageDeps struct {
	Gate        *SessionGate
	Limiter     repository.RateLimiter
	Moderator   moderation.Filter
	Rooms       *RoomUseCase
	Users       repository.UserRepository
	Files       repository.FileRepository
	Messages    repository.MessageRepository
	History     repository.HistoryStore
	Broadcaster repository.RoomBroadcaster
	Sessions    repository.SessionRepository
	Responder   repository.ResponderQueue
	Events      repository.MessageEventPublisher
	Mapper      *ResponseMapper
	Metrics     *PipelineMetrics
	Background  *BackgroundRunner
}

// SendMessageUseCase 負責處理聊天訊息
// Received -> SessionChecked -> RateChecked -> AccessChecked -> ContentChecked -> TypeValidated -> Persisted -> Broadcast -> Done
type SendMessageUseCase struct {
	SendMessageDeps
	cfg SendMessageConfig
}

// NewSendMessageUseCase init create message use case
func NewSendMessageUseCase(deps SendMessageDeps, cfg SendMessageConfig) *SendMessageUseCase {
	return &SendMessageUseCase{SendMessageDeps: deps, cfg: cfg}
}

// metric label before the requested type is known to be valid
const noMessageType = "none"

type sendRun struct {
	client  Client
	userID  string
	roomID  string
	msgType string
	start   time.Time
}

// Execute run one message through the pipeline.
// Every abandoned run sends exactly one error event to client.
func (uc *SendMessageUseCase) Execute(ctx context.Context, client Client, req *domain.ChatMessageRequest) *domain.IngestResult {
	run := &sendRun{client: client, userID: client.UserID(), msgType: noMessageType, start: time.Now()}

	// Received
	if req == nil || strings.TrimSpace(req.Room) == "" {
		return uc.abandon(run, domain.ReasonNullData, errprocess.New(errprocess.MessageError, "message data is missing"))
	}
	run.roomID = req.Room
	requested := domain.MessageType(lo.CoalesceOrEmpty(req.Type, string(domain.MessageTypeText)))
	if requested.Valid() {
		run.msgType = string(requested)
	}

	if run.userID == "" {
		return uc.abandon(run, domain.ReasonSessionNull, errprocess.New(errprocess.SessionExpired, "session not found, please log in again"))
	}

	// SessionChecked
	if res := uc.Gate.Validate(ctx, run.userID, client.SessionID()); !res.Valid {
		logger.Log.Debug("session rejected", zap.String("userID", run.userID), zap.String("reason", res.Reason))
		return uc.abandon(run, domain.ReasonSessionExpired, errprocess.New(errprocess.SessionExpired, "session expired, please log in again"))
	}

	// RateChecked
	if rate := uc.checkRate(ctx, run.userID); !rate.Allowed {
		res := uc.abandon(run, domain.ReasonRateLimitExceeded,
			errprocess.New(errprocess.RateLimitExceeded, "too many messages, please slow down").WithRetryAfter(rate.RetryAfterSeconds))
		res.RetryAfter = rate.RetryAfterSeconds
		return res
	}

	// AccessChecked
	sender, err := uc.Users.FindByID(ctx, run.userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			logger.Log.Error("sender lookup failed", zap.String("userID", run.userID), zap.Error(err))
		}
		return uc.abandon(run, domain.ReasonUserNotFound, errprocess.New(errprocess.MessageError, "user not found"))
	}
	if err := uc.Rooms.CheckAccess(ctx, run.roomID, run.userID); err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) && !errors.Is(err, domain.ErrRoomAccessDenied) {
			logger.Log.Error("room lookup failed", zap.String("roomID", run.roomID), zap.Error(err))
		}
		return uc.abandon(run, domain.ReasonRoomAccessDenied, errprocess.New(errprocess.MessageError, "no access to this room"))
	}

	// ContentChecked
	content := effectiveContent(req)
	if uc.Moderator.ContainsViolation(content) {
		return uc.abandon(run, domain.ReasonContentRejected, errprocess.New(errprocess.MessageRejected, "message contains banned content"))
	}

	// TypeValidated
	msgType := requested
	if !msgType.Valid() {
		return uc.abandon(run, domain.ReasonInvalidType, errprocess.New(errprocess.MessageError, "unsupported message type"))
	}

	msg := &domain.ChatMessage{
		RoomID:   run.roomID,
		SenderID: run.userID,
		Type:     msgType,
		Content:  strings.TrimSpace(content),
		Readers:  []string{},
	}

	var file *domain.FileRecord
	switch msgType {
	case domain.MessageTypeText:
		if msg.Content == "" {
			logger.Log.Debug("empty text message ignored", zap.String("userID", run.userID), zap.String("roomID", run.roomID))
			uc.Metrics.ignored(run.msgType)
			return &domain.IngestResult{State: domain.StateIgnored}
		}
	case domain.MessageTypeFile:
		var reason domain.AbandonReason
		file, reason = uc.resolveFile(ctx, run.userID, req.FileData)
		if reason != "" {
			return uc.abandon(run, reason, fileError(reason))
		}
		msg.FileID = file.ID
		msg.Metadata = map[string]interface{}{
			domain.MetaFileType:     file.MimeType,
			domain.MetaFileSize:     file.Size,
			domain.MetaOriginalName: file.OriginalName,
		}
	}
	msg.Mentions = extractMentions(msg.Content)

	// Persisted
	if err := uc.Messages.Append(ctx, msg); err != nil {
		logger.Log.Error("message persist failed",
			zap.String("userID", run.userID),
			zap.String("roomID", run.roomID),
			zap.Error(err))
		return uc.abandon(run, domain.ReasonStorageError, errprocess.New(errprocess.MessageError, "failed to send message"))
	}

	resp := uc.Mapper.ToResponse(ctx, msg, sender, file)
	if err := uc.History.Append(ctx, run.roomID, resp); err != nil {
		logger.Log.Warn("history append failed", zap.String("roomID", run.roomID), zap.String("messageID", msg.ID), zap.Error(err))
	}

	// Broadcast
	uc.broadcast(ctx, resp)

	// Done
	uc.Metrics.sent(run.msgType, run.start)
	uc.afterSend(msg, client.SessionID())

	return &domain.IngestResult{State: domain.StateDone, Message: &resp}
}

// checkRate a limiter error or timeout is a rejection for the whole window
func (uc *SendMessageUseCase) checkRate(ctx context.Context, userID string) domain.RateLimitCheckResult {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.RateLimitTimeout)
	defer cancel()

	res, err := uc.Limiter.CheckAndConsume(ctx, userID, uc.cfg.MaxActions, uc.cfg.Window)
	if err != nil {
		logger.Log.Warn("rate limiter unavailable, rejecting", zap.String("userID", userID), zap.Error(err))
		return domain.RateLimitCheckResult{RetryAfterSeconds: int64((uc.cfg.Window + time.Second - 1) / time.Second)}
	}
	return res
}

// resolveFile returns the owned record or the abandon reason
func (uc *SendMessageUseCase) resolveFile(ctx context.Context, userID string, fd *domain.FileData) (*domain.FileRecord, domain.AbandonReason) {
	if fd == nil || strings.TrimSpace(fd.ID) == "" {
		return nil, domain.ReasonInvalidFile
	}

	rec, err := uc.Files.FindByID(ctx, fd.ID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrFileNotFound) && isUploadKey(fd.ID, uc.cfg.UploadKeyPrefix):
		// uploaded straight to storage without registering metadata
		name := filenameFromKey(fd.ID)
		rec = &domain.FileRecord{
			ID:           fd.ID,
			Filename:     name,
			OriginalName: lo.CoalesceOrEmpty(fd.OriginalName, name),
			MimeType:     lo.CoalesceOrEmpty(fd.MimeType, "application/octet-stream"),
			Size:         fd.Size,
			Path:         fd.ID,
			UserID:       userID,
		}
		if err := uc.Files.Create(ctx, rec); err != nil {
			logger.Log.Error("file record materialize failed", zap.String("fileID", fd.ID), zap.Error(err))
			return nil, domain.ReasonStorageError
		}
		logger.Log.Info("file record materialized from upload key", zap.String("fileID", fd.ID), zap.String("userID", userID))
	case errors.Is(err, domain.ErrFileNotFound):
		return nil, domain.ReasonFileNotFound
	default:
		logger.Log.Error("file lookup failed", zap.String("fileID", fd.ID), zap.Error(err))
		return nil, domain.ReasonStorageError
	}

	if rec.UserID != userID {
		return nil, domain.ReasonForbidden
	}
	return rec, ""
}

func fileError(reason domain.AbandonReason) *errprocess.ChatError {
	switch reason {
	case domain.ReasonInvalidFile:
		return errprocess.New(errprocess.MessageError, "invalid file data")
	case domain.ReasonFileNotFound:
		return errprocess.New(errprocess.MessageError, "file not found")
	case domain.ReasonForbidden:
		return errprocess.New(errprocess.MessageError, "no access to this file")
	default:
		return errprocess.New(errprocess.MessageError, "failed to send message")
	}
}

// broadcast once persisted the message stays sent; a lost push is recovered through history
func (uc *SendMessageUseCase) broadcast(ctx context.Context, resp domain.MessageResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Error("marshal broadcast payload failed", zap.String("messageID", resp.ID), zap.Error(err))
		return
	}

	evt := domain.RoomEvent{
		Event:   domain.EventMessage,
		RoomID:  resp.RoomID,
		Payload: payload,
		Origin:  uc.cfg.InstanceID,
	}
	if err := uc.Broadcaster.Publish(ctx, resp.RoomID, evt); err != nil {
		logger.Log.Error("broadcast failed", zap.String("roomID", resp.RoomID), zap.String("messageID", resp.ID), zap.Error(err))
	}
}

func (uc *SendMessageUseCase) afterSend(msg *domain.ChatMessage, sessionID string) {
	if uc.Responder != nil {
		if names := responderMentions(msg.Mentions, uc.cfg.ResponderNames); len(names) > 0 {
			job := domain.MentionJob{
				MessageID:  msg.ID,
				RoomID:     msg.RoomID,
				SenderID:   msg.SenderID,
				Content:    msg.Content,
				Responders: names,
			}
			uc.Background.Go("responder", func(ctx context.Context) error {
				return uc.Responder.Dispatch(ctx, job)
			})
		}
	}

	userID := msg.SenderID
	uc.Background.Go("last_activity", func(ctx context.Context) error {
		return uc.Sessions.UpdateLastActivity(ctx, userID, sessionID)
	})

	if uc.Events != nil {
		evt := domain.MessageCreatedEvent{
			MessageID: msg.ID,
			RoomID:    msg.RoomID,
			SenderID:  msg.SenderID,
			Type:      msg.Type,
			Timestamp: domain.ToMillis(msg.Timestamp),
			Mentions:  msg.Mentions,
			Instance:  uc.cfg.InstanceID,
		}
		uc.Background.Go("message_created", func(ctx context.Context) error {
			return uc.Events.PublishCreated(ctx, evt)
		})
	}
}

func (uc *SendMessageUseCase) abandon(run *sendRun, reason domain.AbandonReason, chatErr *errprocess.ChatError) *domain.IngestResult {
	// 策略拒絕 / 輸入錯誤走 warn, storage 錯誤已在發生處記 error
	logger.Log.Warn("message abandoned",
		zap.String("reason", string(reason)),
		zap.String("userID", run.userID),
		zap.String("roomID", run.roomID))

	uc.Metrics.abandoned(reason, run.msgType, run.start)

	if err := run.client.SendEvent(domain.EventError, chatErr); err != nil {
		logger.Log.Warn("send error event failed", zap.String("userID", run.userID), zap.Error(err))
	}
	return &domain.IngestResult{State: domain.StateAbandoned, Reason: reason}
}
