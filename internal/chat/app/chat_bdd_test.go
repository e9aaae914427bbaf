package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/moderation"
	"realtime_chat_service/internal/chat/repository"
	errprocess "realtime_chat_service/pkg/err"

	"github.com/alicebob/miniredis/v2"
	"github.com/cucumber/godog"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

func TestChatFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeChatPipelineScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

const deliveryWait = 2 * time.Second

// memoryRooms RoomRepository backed by a map
type memoryRooms struct {
	mu    sync.RWMutex
	rooms map[string]*domain.ChatRoom
}

func (r *memoryRooms) Create(_ context.Context, room *domain.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
	return nil
}

func (r *memoryRooms) FindByID(_ context.Context, roomID string) (*domain.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// memoryUsers UserRepository backed by a map
type memoryUsers struct {
	mu    sync.RWMutex
	users map[string]*domain.UserProfile
}

func (r *memoryUsers) FindByID(_ context.Context, userID string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// memoryMessages MessageRepository keeping every message in insertion order
type memoryMessages struct {
	mu   sync.Mutex
	msgs []domain.ChatMessage
	last time.Time
}

func (s *memoryMessages) Append(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UTC().Truncate(time.Millisecond)
	if !ts.After(s.last) {
		ts = s.last.Add(time.Millisecond)
	}
	s.last = ts

	msg.ID = fmt.Sprintf("m%d", len(s.msgs)+1)
	msg.Timestamp = ts
	s.msgs = append(s.msgs, *msg)
	return nil
}

func (s *memoryMessages) FindBefore(_ context.Context, roomID string, before time.Time, limit int) ([]domain.ChatMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	older := lo.Filter(s.msgs, func(m domain.ChatMessage, _ int) bool {
		return m.RoomID == roomID && !m.IsDeleted && m.Timestamp.Before(before)
	})
	sort.Slice(older, func(i, j int) bool { return older[i].Timestamp.After(older[j].Timestamp) })
	if len(older) > limit {
		return older[:limit], true, nil
	}
	return older, false, nil
}

func (s *memoryMessages) CountRecentByRoom(_ context.Context, roomID string, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(lo.CountBy(s.msgs, func(m domain.ChatMessage) bool {
		return m.RoomID == roomID && !m.Timestamp.Before(since)
	})), nil
}

func (s *memoryMessages) MarkRead(context.Context, []string, string) error { return nil }

func (s *memoryMessages) EnsureIndexes(context.Context) error { return nil }

func (s *memoryMessages) count(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.CountBy(s.msgs, func(m domain.ChatMessage) bool { return m.RoomID == roomID })
}

// chatInstance one chat service process
type chatInstance struct {
	client     *redis.Client
	hub        *RoomHub
	ws         *ChatWebsocketHandler
	background *BackgroundRunner
}

type chatWorld struct {
	ctx    context.Context
	cancel context.CancelFunc
	mr     *miniredis.Miniredis
	admin  *redis.Client

	rooms    *memoryRooms
	users    *memoryUsers
	messages *memoryMessages
	sessions repository.SessionRepository

	instances map[string]*chatInstance
	clients   map[string]*fakeClient
	homes     map[string]*chatInstance
	lastPage  *domain.PreviousMessagesLoaded
}

func (w *chatWorld) setup(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return ctx, err
	}
	w.mr = mr
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.rooms = &memoryRooms{rooms: map[string]*domain.ChatRoom{}}
	w.users = &memoryUsers{users: map[string]*domain.UserProfile{}}
	w.messages = &memoryMessages{}
	w.instances = map[string]*chatInstance{}
	w.clients = map[string]*fakeClient{}
	w.homes = map[string]*chatInstance{}

	w.admin = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	w.sessions = repository.NewSessionRepository(w.admin)
	return ctx, nil
}

func (w *chatWorld) teardown(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
	for _, inst := range w.instances {
		inst.ws.Wait()
		inst.background.Wait()
	}
	w.cancel()
	for _, inst := range w.instances {
		_ = inst.client.Close()
	}
	_ = w.admin.Close()
	w.mr.Close()
	return ctx, err
}

// instance each instance has its own redis connections and hub
func (w *chatWorld) instance(name string) (*chatInstance, error) {
	if inst, ok := w.instances[name]; ok {
		return inst, nil
	}

	client := redis.NewClient(&redis.Options{Addr: w.mr.Addr()})
	pubsub := repository.NewRedisPubSub(client)
	history := repository.NewRedisHistoryStore(client, 50, time.Hour)

	moderator, err := moderation.NewModerator([]string{"badword"})
	if err != nil {
		return nil, err
	}

	metrics := NewPipelineMetrics(prometheus.NewRegistry())
	background := NewBackgroundRunner(time.Second)
	mapper := NewResponseMapper(w.users, nil, nil, time.Hour)
	roomUC := NewRoomUseCase(w.rooms)

	uc := NewSendMessageUseCase(SendMessageDeps{
		Gate:        NewSessionGate(w.sessions, time.Second),
		Limiter:     repository.NewRedisRateLimiter(client),
		Moderator:   moderator,
		Rooms:       roomUC,
		Users:       w.users,
		Messages:    w.messages,
		History:     history,
		Broadcaster: pubsub,
		Sessions:    w.sessions,
		Mapper:      mapper,
		Metrics:     metrics,
		Background:  background,
	}, SendMessageConfig{
		MaxActions:       3,
		Window:           time.Minute,
		RateLimitTimeout: time.Second,
		UploadKeyPrefix:  "chat/files/",
		InstanceID:       name,
	})

	hub := NewRoomHub(pubsub)
	if err := hub.Run(w.ctx); err != nil {
		return nil, err
	}

	loader := NewMessageLoader(history, w.messages, mapper, background, 20, 100)
	inst := &chatInstance{
		client:     client,
		hub:        hub,
		ws:         NewChatWebsocketHandler(roomUC, uc, loader, hub, metrics),
		background: background,
	}
	w.instances[name] = inst
	return inst, nil
}

func (w *chatWorld) member(name string) (*fakeClient, *chatInstance, error) {
	c, ok := w.clients[name]
	if !ok {
		return nil, nil, fmt.Errorf("%s has not logged in", name)
	}
	return c, w.homes[name], nil
}

func (w *chatWorld) dispatch(name, event string, data interface{}) error {
	c, inst, err := w.member(name)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(domain.WSRequest{Event: event, Data: payload})
	if err != nil {
		return err
	}
	inst.ws.Dispatch(w.ctx, c, raw)
	inst.ws.Wait()
	return nil
}

func (w *chatWorld) roomHasMembers(roomID, members string) error {
	return w.rooms.Create(w.ctx, &domain.ChatRoom{
		ID:           roomID,
		Name:         roomID,
		Participants: strings.Split(members, ","),
		CreatedAt:    time.Now(),
	})
}

func (w *chatWorld) loggedInOn(name, instanceName string) error {
	inst, err := w.instance(instanceName)
	if err != nil {
		return err
	}

	sessionID := "sess-" + name
	if err := w.sessions.Save(w.ctx, domain.Session{
		SessionID: sessionID,
		UserID:    name,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}, time.Hour); err != nil {
		return err
	}

	w.users.mu.Lock()
	w.users.users[name] = &domain.UserProfile{ID: name, Name: strings.ToUpper(name[:1]) + name[1:]}
	w.users.mu.Unlock()

	w.clients[name] = newFakeClient(name, sessionID)
	w.homes[name] = inst
	return nil
}

func (w *chatWorld) joins(name, roomID string) error {
	if err := w.dispatch(name, domain.EventJoinRoom, domain.RoomRequest{RoomID: roomID}); err != nil {
		return err
	}
	c, _, _ := w.member(name)
	if len(c.EventsNamed(domain.EventJoinRoomSuccess)) == 0 {
		return fmt.Errorf("%s could not join %s: %v", name, roomID, c.Events())
	}
	return nil
}

func (w *chatWorld) sends(name, roomID, content string) error {
	return w.dispatch(name, domain.EventChatMessage, domain.ChatMessageRequest{Room: roomID, Content: content})
}

func (w *chatWorld) sendsMany(name, roomID string, n int) error {
	for i := 1; i <= n; i++ {
		if err := w.sends(name, roomID, fmt.Sprintf("burst %d", i)); err != nil {
			return err
		}
	}
	return nil
}

func (w *chatWorld) sessionRotated(name string) error {
	return w.sessions.Save(w.ctx, domain.Session{
		SessionID: "sess-other-device",
		UserID:    name,
		ExpiresAt: time.Now().Add(time.Hour),
	}, time.Hour)
}

func deliveredContents(c *fakeClient) []string {
	var out []string
	for _, e := range c.EventsNamed(domain.EventMessage) {
		if m, err := decodeMessage(e.Data); err == nil {
			out = append(out, m.Content)
		}
	}
	return out
}

func (w *chatWorld) receives(name, content string) error {
	c, _, err := w.member(name)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(deliveryWait)
	for time.Now().Before(deadline) {
		if lo.Contains(deliveredContents(c), content) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	// give a duplicate time to show up
	time.Sleep(100 * time.Millisecond)

	if n := lo.Count(deliveredContents(c), content); n != 1 {
		return fmt.Errorf("%s received %q %d times, want exactly once", name, content, n)
	}
	return nil
}

func (w *chatWorld) receivesNothing(name string) error {
	c, _, err := w.member(name)
	if err != nil {
		return err
	}
	time.Sleep(200 * time.Millisecond)
	if got := deliveredContents(c); len(got) > 0 {
		return fmt.Errorf("%s unexpectedly received %v", name, got)
	}
	return nil
}

func (w *chatWorld) receivesError(name, code string) error {
	c, _, err := w.member(name)
	if err != nil {
		return err
	}
	for _, e := range c.EventsNamed(domain.EventError) {
		if chatErr, ok := e.Data.(*errprocess.ChatError); ok && string(chatErr.Code) == code {
			return nil
		}
	}
	return fmt.Errorf("%s did not receive error %s, got %v", name, code, c.Events())
}

func (w *chatWorld) roomMessageCount(roomID string, want int) error {
	if got := w.messages.count(roomID); got != want {
		return fmt.Errorf("room %s has %d stored messages, want %d", roomID, got, want)
	}
	return nil
}

func (w *chatWorld) fetchesLatest(name, roomID string, limit int) error {
	// before defaults to now, keep the newest message strictly older
	time.Sleep(5 * time.Millisecond)
	if err := w.dispatch(name, domain.EventFetchPrevious, domain.FetchMessagesRequest{RoomID: roomID, Limit: limit}); err != nil {
		return err
	}
	c, _, _ := w.member(name)
	events := c.EventsNamed(domain.EventPreviousLoaded)
	if len(events) == 0 {
		return fmt.Errorf("%s got no %s event", name, domain.EventPreviousLoaded)
	}
	page, ok := events[len(events)-1].Data.(domain.PreviousMessagesLoaded)
	if !ok {
		return fmt.Errorf("unexpected payload %T", events[len(events)-1].Data)
	}
	w.lastPage = &page
	return nil
}

func (w *chatWorld) pageIs(contents string) error {
	if w.lastPage == nil {
		return fmt.Errorf("no history page loaded")
	}
	got := lo.Map(w.lastPage.Messages, func(m domain.MessageResponse, _ int) string { return m.Content })
	want := strings.Split(contents, ",")
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("history page %v, want %v", got, want)
	}
	if !w.lastPage.HasMore {
		return fmt.Errorf("history page should report more messages")
	}
	return nil
}

// InitializeChatPipelineScenario 每個 scenario 一個獨立的 redis 與 instances
func InitializeChatPipelineScenario(sc *godog.ScenarioContext) {
	w := &chatWorld{}
	sc.Before(w.setup)
	sc.After(w.teardown)

	sc.Step(`^聊天室 "([^"]*)" 有成員 "([^"]*)"$`, w.roomHasMembers)
	sc.Step(`^"([^"]*)" 已登入 instance "([^"]*)"$`, w.loggedInOn)
	sc.Step(`^"([^"]*)" 加入聊天室 "([^"]*)"$`, w.joins)
	sc.Step(`^"([^"]*)" 在 "([^"]*)" 發送訊息 "([^"]*)"$`, w.sends)
	sc.Step(`^"([^"]*)" 在 "([^"]*)" 連續發送 (\d+) 則訊息$`, w.sendsMany)
	sc.Step(`^"([^"]*)" 的 session 已在其他裝置輪替$`, w.sessionRotated)
	sc.Step(`^"([^"]*)" 應該收到訊息 "([^"]*)"$`, w.receives)
	sc.Step(`^"([^"]*)" 不應該收到任何訊息$`, w.receivesNothing)
	sc.Step(`^"([^"]*)" 應該收到錯誤 "([^"]*)"$`, w.receivesError)
	sc.Step(`^聊天室 "([^"]*)" 的訊息總數為 (\d+)$`, w.roomMessageCount)
	sc.Step(`^"([^"]*)" 查詢 "([^"]*)" 最近 (\d+) 則訊息$`, w.fetchesLatest)
	sc.Step(`^查詢結果應該依序為 "([^"]*)" 且還有更多$`, w.pageIs)
}
