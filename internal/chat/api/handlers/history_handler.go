package handlers

import (
	"context"
	"errors"

	"realtime_chat_service/internal/chat/domain"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RoomAccessChecker membership check
type RoomAccessChecker interface {
	CheckAccess(ctx context.Context, roomID, userID string) error
}

// HistoryLoader paginated room history
type HistoryLoader interface {
	Load(ctx context.Context, roomID string, before int64, limit int, requester string) domain.HistoryPage
	CountRecent(ctx context.Context, roomID string, since int64) (int64, error)
}

// HistoryHandler room history over http
type HistoryHandler struct {
	rooms    RoomAccessChecker
	loader   HistoryLoader
	validate *validator.Validate
}

// NewHistoryHandler create HistoryHandler
func NewHistoryHandler(rooms RoomAccessChecker, loader HistoryLoader) *HistoryHandler {
	return &HistoryHandler{rooms: rooms, loader: loader, validate: validator.New()}
}

type historyQuery struct {
	Before int64 `query:"before" validate:"gte=0"`
	Limit  int   `query:"limit" validate:"gte=0"`
}

type recentQuery struct {
	Since int64 `query:"since" validate:"required,gt=0"`
}

// RecentCount response of CountRecent
type RecentCount struct {
	RoomID string `json:"roomId"`
	Count  int64  `json:"count"`
}

// GetMessages room history page
// @Summary Load room history
// @Description Messages strictly older than before, oldest first
// @Tags Rooms
// @Produce json
// @Param roomId path string true "Room ID"
// @Param before query int false "Cursor, unix ms (default now)"
// @Param limit query int false "Page size (default 30, max 100)"
// @Success 200 {object} domain.HistoryPage
// @Failure 400 {object} errprocess.ChatError
// @Failure 403 {object} errprocess.ChatError
// @Security ApiKeyAuth
// @Router /rooms/{roomId}/messages [get]
func (h *HistoryHandler) GetMessages(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	var q historyQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	if err := h.validate.Struct(q); err != nil {
		return badRequest(c, "invalid query")
	}

	memberID, _ := c.Locals(middlewares.TokenMemberID).(string)
	if denied, err := h.denied(c, roomID, memberID); denied {
		return err
	}

	page := h.loader.Load(c.UserContext(), roomID, q.Before, q.Limit, memberID)
	return c.JSON(page)
}

// CountRecent number of messages since a point in time
// @Summary Count recent room messages
// @Tags Rooms
// @Produce json
// @Param roomId path string true "Room ID"
// @Param since query int true "unix ms"
// @Success 200 {object} RecentCount
// @Failure 400 {object} errprocess.ChatError
// @Failure 403 {object} errprocess.ChatError
// @Security ApiKeyAuth
// @Router /rooms/{roomId}/messages/recent [get]
func (h *HistoryHandler) CountRecent(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	var q recentQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	if err := h.validate.Struct(q); err != nil {
		return badRequest(c, "since is required")
	}

	memberID, _ := c.Locals(middlewares.TokenMemberID).(string)
	if denied, err := h.denied(c, roomID, memberID); denied {
		return err
	}

	count, err := h.loader.CountRecent(c.UserContext(), roomID, q.Since)
	if err != nil {
		logger.Log.Error("count recent failed", zap.String("roomID", roomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errprocess.New(errprocess.MessageError, "count failed"))
	}
	return c.JSON(RecentCount{RoomID: roomID, Count: count})
}

// denied writes the error response when memberID may not read roomID
func (h *HistoryHandler) denied(c *fiber.Ctx, roomID, memberID string) (bool, error) {
	err := h.rooms.CheckAccess(c.UserContext(), roomID, memberID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrRoomAccessDenied):
		return true, c.Status(fiber.StatusForbidden).JSON(errprocess.New(errprocess.MessageError, "no access to this room"))
	default:
		logger.Log.Error("room access check failed", zap.String("roomID", roomID), zap.Error(err))
		return true, c.Status(fiber.StatusInternalServerError).JSON(errprocess.New(errprocess.MessageError, "room lookup failed"))
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errprocess.New(errprocess.MessageError, msg))
}
