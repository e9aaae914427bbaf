package app

import (
	"context"
	"testing"

	"realtime_chat_service/internal/chat/domain"
	errprocess "realtime_chat_service/pkg/err"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dispatchHarness struct {
	*pipelineHarness
	lh  *loaderHarness
	hub *RoomHub
	ws  *ChatWebsocketHandler
}

func newDispatchHarness(t *testing.T) *dispatchHarness {
	h := newPipelineHarness(t)
	lh := newLoaderHarness()
	hub := NewRoomHub(h.broadcaster)
	return &dispatchHarness{
		pipelineHarness: h,
		lh:              lh,
		hub:             hub,
		ws:              NewChatWebsocketHandler(h.uc.Rooms, h.uc, lh.loader, hub, h.metrics),
	}
}

func (d *dispatchHarness) memberOf(roomID string) {
	d.rooms.On("FindByID", mock.Anything, roomID).
		Return(&domain.ChatRoom{ID: roomID, Participants: []string{testUser}}, nil)
}

func TestDispatch_RejectsBadEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "hello"},
		{name: "unknown event", raw: `{"event":"dance","data":{}}`},
		{name: "join without room", raw: `{"event":"joinRoom","data":{}}`},
		{name: "fetch with negative limit", raw: `{"event":"fetchPreviousMessages","data":{"roomId":"r1","limit":-1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatchHarness(t)

			d.ws.Dispatch(context.Background(), d.client, []byte(tt.raw))

			events := d.client.Events()
			require.Len(t, events, 1)
			assert.Equal(t, domain.EventError, events[0].Event)
			assert.Equal(t, errprocess.MessageError, events[0].Data.(*errprocess.ChatError).Code)
		})
	}
}

func TestDispatch_JoinAndLeaveRoom(t *testing.T) {
	d := newDispatchHarness(t)
	d.memberOf(testRoom)

	d.ws.Dispatch(context.Background(), d.client, []byte(`{"event":"joinRoom","data":{"roomId":"room-1"}}`))

	events := d.client.EventsNamed(domain.EventJoinRoomSuccess)
	require.Len(t, events, 1)
	assert.Equal(t, map[string]string{"roomId": testRoom}, events[0].Data)
	assert.Equal(t, 1, d.hub.Members(testRoom))

	d.ws.Dispatch(context.Background(), d.client, []byte(`{"event":"leaveRoom","data":{"roomId":"room-1"}}`))
	assert.Equal(t, 0, d.hub.Members(testRoom))
}

func TestDispatch_JoinDenied(t *testing.T) {
	d := newDispatchHarness(t)
	d.rooms.On("FindByID", mock.Anything, "secret").
		Return(&domain.ChatRoom{ID: "secret", Participants: []string{"u9"}}, nil)

	d.ws.Dispatch(context.Background(), d.client, []byte(`{"event":"joinRoom","data":{"roomId":"secret"}}`))

	assert.Len(t, d.client.EventsNamed(domain.EventError), 1)
	assert.Equal(t, 0, d.hub.Members("secret"))
}

func TestDispatch_FetchPreviousMessages(t *testing.T) {
	d := newDispatchHarness(t)
	d.memberOf(testRoom)
	d.lh.history.On("GetAll", mock.Anything, testRoom).Return(cachedAt(1000, 2000), nil)
	d.lh.messages.On("MarkRead", mock.Anything, mock.Anything, testUser).Return(nil)

	d.ws.Dispatch(context.Background(), d.client,
		[]byte(`{"event":"fetchPreviousMessages","data":{"roomId":"room-1","before":2500,"limit":10}}`))
	d.lh.background.Wait()

	events := d.client.EventsNamed(domain.EventPreviousLoaded)
	require.Len(t, events, 1)
	loaded := events[0].Data.(domain.PreviousMessagesLoaded)
	assert.Equal(t, testRoom, loaded.RoomID)
	assert.Equal(t, []string{idAt(1000), idAt(2000)}, ids(loaded.Messages))
	assert.False(t, loaded.HasMore)
}

func TestDispatch_ChatMessageWithBadDataIsNullData(t *testing.T) {
	tests := []string{
		`{"event":"chatMessage"}`,
		`{"event":"chatMessage","data":42}`,
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			d := newDispatchHarness(t)

			d.ws.Dispatch(context.Background(), d.client, []byte(raw))
			d.ws.Wait()

			events := d.client.EventsNamed(domain.EventError)
			require.Len(t, events, 1)
			assert.Equal(t, errprocess.MessageError, events[0].Data.(*errprocess.ChatError).Code)
			assert.Equal(t, float64(1), d.errorCount(domain.ReasonNullData))
		})
	}
}

func TestDispatch_ChatMessageSurvivesCancelledConnection(t *testing.T) {
	d := newDispatchHarness(t)
	d.passGates()
	d.moderator.On("ContainsViolation", "bye").Return(false)
	d.expectPersist()
	d.expectDelivery()

	ctx, cancel := context.WithCancel(context.Background())
	d.ws.Dispatch(ctx, d.client, []byte(`{"event":"chatMessage","data":{"room":"room-1","content":"bye"}}`))
	cancel()
	d.ws.Wait()
	d.background.Wait()

	d.messages.AssertExpectations(t)
	d.broadcaster.AssertExpectations(t)
}
