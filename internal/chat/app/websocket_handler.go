package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"realtime_chat_service/internal/chat/domain"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const pingInterval = 30 * time.Second

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	roomUC    *RoomUseCase
	messageUC *SendMessageUseCase
	loader    *MessageLoader
	hub       *RoomHub
	metrics   *PipelineMetrics
	validate  *validator.Validate
	inflight  sync.WaitGroup
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	roomUC *RoomUseCase,
	messageUC *SendMessageUseCase,
	loader *MessageLoader,
	hub *RoomHub,
	metrics *PipelineMetrics,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		roomUC:    roomUC,
		messageUC: messageUC,
		loader:    loader,
		hub:       hub,
		metrics:   metrics,
		validate:  validator.New(),
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	sessionID, _ := conn.Locals(middlewares.TokenSessionID).(string)
	client := newWSClient(conn, memberID, sessionID, pingInterval)

	logger.Log.Info("websocket connected", zap.String("userID", memberID))
	h.metrics.ConnectionOpened()

	ctxClose, cancel := context.WithCancel(ctx)

	defer func() {
		cancel()
		h.hub.LeaveAll(client)
		// late room events and in flight sends get errClientClosed from here on
		client.close()
		h.metrics.ConnectionClosed()
		logger.Log.Info("websocket close", zap.String("userID", memberID))
		conn.Close()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Debug("websocket close frame", zap.String("userID", memberID), zap.Int("code", code))
		return nil
	})

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Debug("received pong", zap.String("userID", memberID))
		return nil
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("connection closed", zap.String("userID", memberID))
			} else {
				logger.Log.Warn("websocket read failed", zap.String("userID", memberID), zap.Error(err))
			}
			return
		}

		if mt != websocket.TextMessage {
			h.sendError(client, "unsupported frame type")
			continue
		}
		h.Dispatch(ctxClose, client, message)
	}
}

// Dispatch route one inbound envelope. chatMessage runs on its own goroutine.
func (h *ChatWebsocketHandler) Dispatch(ctx context.Context, client Client, raw []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.sendError(client, "invalid payload")
		return
	}

	switch req.Event {
	case domain.EventJoinRoom:
		var r domain.RoomRequest
		if err := h.decode(req.Data, &r); err != nil {
			h.sendError(client, "roomId is required")
			return
		}
		if err := h.roomUC.CheckAccess(ctx, r.RoomID, client.UserID()); err != nil {
			h.logAccessError(client, r.RoomID, err)
			h.sendError(client, "no access to this room")
			return
		}
		h.hub.Join(r.RoomID, client)
		h.send(client, domain.EventJoinRoomSuccess, map[string]string{"roomId": r.RoomID})

	case domain.EventLeaveRoom:
		var r domain.RoomRequest
		if err := h.decode(req.Data, &r); err != nil {
			h.sendError(client, "roomId is required")
			return
		}
		h.hub.Leave(r.RoomID, client)

	case domain.EventChatMessage:
		// undecodable payloads go through the pipeline as missing data
		var m *domain.ChatMessageRequest
		if len(req.Data) > 0 {
			var decoded domain.ChatMessageRequest
			if err := json.Unmarshal(req.Data, &decoded); err == nil {
				m = &decoded
			}
		}
		// a send the client already issued completes even if the socket drops
		sendCtx := context.WithoutCancel(ctx)
		h.inflight.Add(1)
		go func() {
			defer h.inflight.Done()
			h.messageUC.Execute(sendCtx, client, m)
		}()

	case domain.EventFetchPrevious:
		var r domain.FetchMessagesRequest
		if err := h.decode(req.Data, &r); err != nil {
			h.sendError(client, "invalid history request")
			return
		}
		if err := h.roomUC.CheckAccess(ctx, r.RoomID, client.UserID()); err != nil {
			h.logAccessError(client, r.RoomID, err)
			h.sendError(client, "no access to this room")
			return
		}
		page := h.loader.Load(ctx, r.RoomID, r.Before, r.Limit, client.UserID())
		h.send(client, domain.EventPreviousLoaded, domain.PreviousMessagesLoaded{RoomID: r.RoomID, HistoryPage: page})

	default:
		h.sendError(client, "unknown event")
	}
}

// Wait in flight chatMessage tasks
func (h *ChatWebsocketHandler) Wait() {
	h.inflight.Wait()
}

func (h *ChatWebsocketHandler) decode(data json.RawMessage, out interface{}) error {
	if len(data) == 0 {
		return errors.New("empty data")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return h.validate.Struct(out)
}

func (h *ChatWebsocketHandler) logAccessError(client Client, roomID string, err error) {
	if errors.Is(err, domain.ErrRoomNotFound) || errors.Is(err, domain.ErrRoomAccessDenied) {
		logger.Log.Debug("room access denied", zap.String("userID", client.UserID()), zap.String("roomID", roomID))
		return
	}
	logger.Log.Error("room access check failed", zap.String("roomID", roomID), zap.Error(err))
}

// send - 發送 JSON 給前端
func (h *ChatWebsocketHandler) send(client Client, event string, data interface{}) {
	if err := client.SendEvent(event, data); err != nil {
		logger.Log.Warn("write message error", zap.String("userID", client.UserID()), zap.String("event", event), zap.Error(err))
	}
}

func (h *ChatWebsocketHandler) sendError(client Client, msg string) {
	h.send(client, domain.EventError, errprocess.New(errprocess.MessageError, msg))
}
