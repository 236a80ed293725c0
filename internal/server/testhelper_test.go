package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/stockdeck/internal/app"
	"github.com/bobmcallan/stockdeck/internal/cache"
	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/interfaces"
	"github.com/bobmcallan/stockdeck/internal/models"
	"github.com/bobmcallan/stockdeck/internal/services/activity"
	"github.com/bobmcallan/stockdeck/internal/services/profile"
	"github.com/bobmcallan/stockdeck/internal/services/stockdata"
)

// memoryStorage implements interfaces.StorageManager over in-memory maps so
// handler tests run without a database.
type memoryStorage struct {
	internal *memoryInternalStore
	profiles *memoryProfileStore
	activity *memoryActivityStore
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		internal: &memoryInternalStore{
			users:    map[string]*models.InternalUser{},
			userKV:   map[string]*models.UserKeyValue{},
			systemKV: map[string]string{},
		},
		profiles: &memoryProfileStore{profiles: map[string]*models.UserProfile{}},
		activity: &memoryActivityStore{},
	}
}

func (m *memoryStorage) InternalStore() interfaces.InternalStore { return m.internal }
func (m *memoryStorage) ProfileStore() interfaces.ProfileStore   { return m.profiles }
func (m *memoryStorage) ActivityStore() interfaces.ActivityStore { return m.activity }
func (m *memoryStorage) Close() error                            { return nil }

type memoryInternalStore struct {
	mu       sync.Mutex
	users    map[string]*models.InternalUser
	userKV   map[string]*models.UserKeyValue
	systemKV map[string]string
}

func (s *memoryInternalStore) GetUser(ctx context.Context, userID string) (*models.InternalUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	copied := *user
	return &copied, nil
}

func (s *memoryInternalStore) GetUserByEmail(ctx context.Context, email string) (*models.InternalUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, errors.New("user not found")
}

func (s *memoryInternalStore) SaveUser(ctx context.Context, user *models.InternalUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.UserID] = &copied
	return nil
}

func (s *memoryInternalStore) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

func (s *memoryInternalStore) ListUsers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memoryInternalStore) GetUserKV(ctx context.Context, userID, key string) (*models.UserKeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, ok := s.userKV[userID+"_"+key]
	if !ok {
		return nil, errors.New("key not found")
	}
	copied := *kv
	return &copied, nil
}

func (s *memoryInternalStore) SetUserKV(ctx context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userKV[userID+"_"+key] = &models.UserKeyValue{
		UserID:   userID,
		Key:      key,
		Value:    value,
		DateTime: time.Now().UTC(),
	}
	return nil
}

func (s *memoryInternalStore) DeleteUserKV(ctx context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userKV, userID+"_"+key)
	return nil
}

func (s *memoryInternalStore) ListUserKV(ctx context.Context, userID string) ([]*models.UserKeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UserKeyValue
	for _, kv := range s.userKV {
		if kv.UserID == userID {
			copied := *kv
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memoryInternalStore) GetSystemKV(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.systemKV[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (s *memoryInternalStore) SetSystemKV(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemKV[key] = value
	return nil
}

func (s *memoryInternalStore) Close() error { return nil }

type memoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func (s *memoryProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (s *memoryProfileStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.UID] = &copied
	return nil
}

type memoryActivityStore struct {
	mu      sync.Mutex
	records []*models.ActivityRecord
	saveErr error
}

func (s *memoryActivityStore) SaveActivity(ctx context.Context, record *models.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *record
	if copied.ID == "" {
		copied.ID = fmt.Sprintf("act_%06d", len(s.records))
	}
	if copied.DateTime.IsZero() {
		copied.DateTime = time.Now().UTC()
	}
	s.records = append(s.records, &copied)
	return nil
}

func (s *memoryActivityStore) ListActivity(ctx context.Context, userID string, limit int) ([]*models.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ActivityRecord
	for _, record := range s.records {
		if record.UserID == userID {
			copied := *record
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// all returns every stored record in insertion order, for assertions.
func (s *memoryActivityStore) all() []*models.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ActivityRecord, len(s.records))
	copy(out, s.records)
	return out
}

// stubMarketClient implements interfaces.MarketDataClient for testing.
// The default behavior is a provider outage, which drives every symbol
// down the synthetic path.
type stubMarketClient struct {
	mu        sync.Mutex
	bulkCalls int
	histCalls int
	bulk      func(ctx context.Context, symbols []string, query models.ProviderQuery) (map[string]*models.RawSeries, error)
	history   func(ctx context.Context, symbol string, query models.ProviderQuery) (*models.RawSeries, error)
}

func (c *stubMarketClient) DownloadBulk(ctx context.Context, symbols []string, query models.ProviderQuery) (map[string]*models.RawSeries, error) {
	c.mu.Lock()
	c.bulkCalls++
	c.mu.Unlock()
	if c.bulk != nil {
		return c.bulk(ctx, symbols, query)
	}
	return nil, errors.New("provider unavailable")
}

func (c *stubMarketClient) History(ctx context.Context, symbol string, query models.ProviderQuery) (*models.RawSeries, error) {
	c.mu.Lock()
	c.histCalls++
	c.mu.Unlock()
	if c.history != nil {
		return c.history(ctx, symbol, query)
	}
	return nil, errors.New("provider unavailable")
}

func (c *stubMarketClient) calls() (bulk, hist int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bulkCalls, c.histCalls
}

// newTestServer builds a server over in-memory storage with a stubbed
// market client. Real service implementations sit in between, so handler
// tests exercise the same code paths as production requests.
func newTestServer() *Server {
	return newTestServerWithClient(&stubMarketClient{})
}

func newTestServerWithClient(client interfaces.MarketDataClient) *Server {
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	storage := newMemoryStorage()

	a := &app.App{
		Config:      cfg,
		Logger:      logger,
		Storage:     storage,
		YahooClient: client,
		StockData:   stockdata.NewService(client, logger),
		Profile:     profile.NewService(storage, logger),
		Activity:    activity.NewService(storage, logger),
		StockCache:  cache.New(),
		StartupTime: time.Now(),
	}
	return &Server{app: a, logger: logger}
}

// memStorage extracts the in-memory storage backing a test server.
func memStorage(t *testing.T, srv *Server) *memoryStorage {
	t.Helper()
	storage, ok := srv.app.Storage.(*memoryStorage)
	if !ok {
		t.Fatalf("test server storage is %T, not memoryStorage", srv.app.Storage)
	}
	return storage
}

// userRequestContext attaches an authenticated user context, standing in
// for what authMiddleware does on real requests.
func userRequestContext(ctx context.Context, userID, email, name string) context.Context {
	return common.WithUserContext(ctx, &common.UserContext{UserID: userID, Email: email, Name: name})
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

// decodeResponse unmarshals a recorded JSON response body.
func decodeResponse(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("failed to decode response %q: %v", body, err)
	}
}
