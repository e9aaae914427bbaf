package app

import (
	"context"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// MessageLoader history pages, room window first, durable store on a miss
type MessageLoader struct {
	history    repository.HistoryStore
	msgRepo    repository.MessageRepository
	mapper     *ResponseMapper
	background *BackgroundRunner
	batchSize  int
	maxLimit   int
	now        func() time.Time
}

// NewMessageLoader create MessageLoader
func NewMessageLoader(
	history repository.HistoryStore,
	msgRepo repository.MessageRepository,
	mapper *ResponseMapper,
	background *BackgroundRunner,
	batchSize, maxLimit int,
) *MessageLoader {
	return &MessageLoader{
		history:    history,
		msgRepo:    msgRepo,
		mapper:     mapper,
		background: background,
		batchSize:  batchSize,
		maxLimit:   maxLimit,
		now:        time.Now,
	}
}

// Load up to limit messages strictly older than before (unix ms, 0 = now), oldest first.
// Failures yield an empty page.
// A page served from the cache window reports HasMore only for the window itself; HasMore=false
// there does not mean the room has no older history, the next call with an earlier before falls
// through to the durable store.
func (l *MessageLoader) Load(ctx context.Context, roomID string, before int64, limit int, requester string) domain.HistoryPage {
	limit = l.clampLimit(limit)
	if before <= 0 {
		before = l.now().UnixMilli()
	}

	page, err := l.load(ctx, roomID, before, limit)
	if err != nil {
		logger.Log.Error("load history failed", zap.String("roomID", roomID), zap.Int64("before", before), zap.Error(err))
		return domain.EmptyPage()
	}

	l.markRead(page.Messages, requester)
	return page
}

func (l *MessageLoader) clampLimit(limit int) int {
	if limit <= 0 {
		limit = l.batchSize
	}
	if limit > l.maxLimit {
		limit = l.maxLimit
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

func (l *MessageLoader) load(ctx context.Context, roomID string, before int64, limit int) (domain.HistoryPage, error) {
	cached, err := l.history.GetAll(ctx, roomID)
	if err != nil {
		return domain.HistoryPage{}, err
	}

	// the window is capacity bounded, filtering it whole is fine
	older := lo.Filter(cached, func(m domain.MessageResponse, _ int) bool {
		return m.Timestamp < before
	})
	if len(older) > 0 {
		start := 0
		if len(older) > limit {
			start = len(older) - limit
		}
		return domain.HistoryPage{Messages: older[start:], HasMore: len(older) > limit}, nil
	}

	msgs, hasMore, err := l.msgRepo.FindBefore(ctx, roomID, time.UnixMilli(before), limit)
	if err != nil {
		return domain.HistoryPage{}, err
	}

	// newest first -> chronological
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return domain.HistoryPage{Messages: l.mapper.MapBatch(ctx, msgs), HasMore: hasMore}, nil
}

func (l *MessageLoader) markRead(msgs []domain.MessageResponse, requester string) {
	if requester == "" || len(msgs) == 0 {
		return
	}
	ids := lo.Map(msgs, func(m domain.MessageResponse, _ int) string { return m.ID })
	l.background.Go("mark_read", func(ctx context.Context) error {
		return l.msgRepo.MarkRead(ctx, ids, requester)
	})
}

// CountRecent messages in the room since (unix ms)
func (l *MessageLoader) CountRecent(ctx context.Context, roomID string, since int64) (int64, error) {
	return l.msgRepo.CountRecentByRoom(ctx, roomID, time.UnixMilli(since))
}
