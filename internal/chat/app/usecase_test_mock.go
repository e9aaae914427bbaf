package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"realtime_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository Mock SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

// Save moke save session
func (m *MockSessionRepository) Save(ctx context.Context, s domain.Session, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

// ValidateSession moke validate session
func (m *MockSessionRepository) ValidateSession(ctx context.Context, userID, sessionID string) (domain.SessionValidationResult, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(domain.SessionValidationResult), args.Error(1)
}

// UpdateLastActivity moke touch session
func (m *MockSessionRepository) UpdateLastActivity(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

// MockRateLimiter Mock RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

// CheckAndConsume moke rate check
func (m *MockRateLimiter) CheckAndConsume(ctx context.Context, identity string, maxActions int, window time.Duration) (domain.RateLimitCheckResult, error) {
	args := m.Called(ctx, identity, maxActions, window)
	return args.Get(0).(domain.RateLimitCheckResult), args.Error(1)
}

// MockModerator Mock moderation.Filter
type MockModerator struct {
	mock.Mock
}

// ContainsViolation moke banned word check
func (m *MockModerator) ContainsViolation(text string) bool {
	args := m.Called(text)
	return args.Bool(0)
}

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// Create moke create room
func (m *MockRoomRepository) Create(ctx context.Context, room *domain.ChatRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

// FindByID moke find room by room id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// FindByID moke find member
func (m *MockUserRepository) FindByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.UserProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockFileRepository Mock FileRepository
type MockFileRepository struct {
	mock.Mock
}

// AutoMigrate moke migrate
func (m *MockFileRepository) AutoMigrate() error {
	return m.Called().Error(0)
}

// Create moke create file record
func (m *MockFileRepository) Create(ctx context.Context, f *domain.FileRecord) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

// FindByID moke find file record
func (m *MockFileRepository) FindByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.FileRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Append moke insert msg
func (m *MockMessageRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindBefore moke page query
func (m *MockMessageRepository) FindBefore(ctx context.Context, roomID string, before time.Time, limit int) ([]domain.ChatMessage, bool, error) {
	args := m.Called(ctx, roomID, before, limit)
	var msgs []domain.ChatMessage
	if args.Get(0) != nil {
		msgs = args.Get(0).([]domain.ChatMessage)
	}
	return msgs, args.Bool(1), args.Error(2)
}

// CountRecentByRoom moke count
func (m *MockMessageRepository) CountRecentByRoom(ctx context.Context, roomID string, since time.Time) (int64, error) {
	args := m.Called(ctx, roomID, since)
	return args.Get(0).(int64), args.Error(1)
}

// MarkRead moke mark read
func (m *MockMessageRepository) MarkRead(ctx context.Context, messageIDs []string, userID string) error {
	args := m.Called(ctx, messageIDs, userID)
	return args.Error(0)
}

// EnsureIndexes moke index creation
func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockHistoryStore Mock HistoryStore
type MockHistoryStore struct {
	mock.Mock
}

// Append moke push to window
func (m *MockHistoryStore) Append(ctx context.Context, roomID string, msg domain.MessageResponse) error {
	args := m.Called(ctx, roomID, msg)
	return args.Error(0)
}

// GetLast moke read tail
func (m *MockHistoryStore) GetLast(ctx context.Context, roomID string, limit int) ([]domain.MessageResponse, error) {
	args := m.Called(ctx, roomID, limit)
	var out []domain.MessageResponse
	if args.Get(0) != nil {
		out = args.Get(0).([]domain.MessageResponse)
	}
	return out, args.Error(1)
}

// GetAll moke read window
func (m *MockHistoryStore) GetAll(ctx context.Context, roomID string) ([]domain.MessageResponse, error) {
	args := m.Called(ctx, roomID)
	var out []domain.MessageResponse
	if args.Get(0) != nil {
		out = args.Get(0).([]domain.MessageResponse)
	}
	return out, args.Error(1)
}

// Size moke window size
func (m *MockHistoryStore) Size(ctx context.Context, roomID string) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

// MockBroadcaster Mock RoomBroadcaster
type MockBroadcaster struct {
	mock.Mock
}

// Publish moke publish room event
func (m *MockBroadcaster) Publish(ctx context.Context, roomID string, evt domain.RoomEvent) error {
	args := m.Called(ctx, roomID, evt)
	return args.Error(0)
}

// Subscribe moke subscribe
func (m *MockBroadcaster) Subscribe(ctx context.Context, handler func(evt domain.RoomEvent)) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

// MockResponderQueue Mock ResponderQueue
type MockResponderQueue struct {
	mock.Mock
}

// Dispatch moke queue mention job
func (m *MockResponderQueue) Dispatch(ctx context.Context, job domain.MentionJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockEventPublisher Mock MessageEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// PublishCreated moke message.created
func (m *MockEventPublisher) PublishCreated(ctx context.Context, evt domain.MessageCreatedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// MockURLSigner Mock FileURLSigner
type MockURLSigner struct {
	mock.Mock
}

// PresignGetURL moke presign
func (m *MockURLSigner) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

// sentEvent event captured by fakeClient
type sentEvent struct {
	Event string
	Data  interface{}
}

// fakeClient Client recording every event it is sent
type fakeClient struct {
	userID    string
	sessionID string

	mu     sync.Mutex
	events []sentEvent
}

func newFakeClient(userID, sessionID string) *fakeClient {
	return &fakeClient{userID: userID, sessionID: sessionID}
}

func (c *fakeClient) UserID() string    { return c.userID }
func (c *fakeClient) SessionID() string { return c.sessionID }

func (c *fakeClient) SendEvent(event string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, sentEvent{Event: event, Data: data})
	return nil
}

func (c *fakeClient) Events() []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentEvent(nil), c.events...)
}

// EventsNamed events with the given name
func (c *fakeClient) EventsNamed(name string) []sentEvent {
	var out []sentEvent
	for _, e := range c.Events() {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// decodeMessage room event payload delivered by RoomHub
func decodeMessage(data interface{}) (domain.MessageResponse, error) {
	var resp domain.MessageResponse
	raw, ok := data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			return resp, err
		}
		raw = b
	}
	err := json.Unmarshal(raw, &resp)
	return resp, err
}
