package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/logs"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// memStore is an in-memory storage.Store. Methods not overridden here panic
// through the nil embedded interface.
type memStore struct {
	storage.Store

	mu       sync.Mutex
	nextID   int64
	users    map[int64]models.User
	perms    map[int64]map[models.Module]models.Permission
	clients  map[int64]models.Client
	orders   map[int64]models.ServiceOrder
	messages []models.ChatMessage
	activity []models.ActivityEntry
	// referenced marks user ids that cannot be deleted.
	referenced map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[int64]models.User),
		perms:      make(map[int64]map[models.Module]models.Permission),
		clients:    make(map[int64]models.Client),
		orders:     make(map[int64]models.ServiceOrder),
		referenced: make(map[int64]bool),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUser(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memStore) FindByUsernameOrEmail(_ context.Context, identifier string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memStore) FindByResetToken(_ context.Context, token string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetToken != "" && u.ResetToken == token {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *memStore) ListUsers(_ context.Context, _ models.Page) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) UpdateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return models.User{}, storage.ErrNotFound
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) SetResetToken(_ context.Context, id int64, token string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = &expiry
	m.users[id] = u
	return nil
}

func (m *memStore) SetPassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = hash
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
	u.Active = true
	m.users[id] = u
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	if m.referenced[id] {
		return storage.ErrReferenced
	}
	delete(m.users, id)
	delete(m.perms, id)
	return nil
}

func (m *memStore) FindPermission(_ context.Context, userID int64, module models.Module) (models.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[userID][module]
	if !ok {
		return models.Permission{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ListPermissions(_ context.Context, userID int64) ([]models.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Permission
	for _, p := range m.perms[userID] {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) ListAllPermissions(_ context.Context) ([]models.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Permission
	for _, rows := range m.perms {
		for _, p := range rows {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) EnsureDefaultPermissions(_ context.Context, userID int64, modules []models.Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perms[userID] == nil {
		m.perms[userID] = make(map[models.Module]models.Permission)
	}
	for _, mod := range modules {
		if _, ok := m.perms[userID][mod]; !ok {
			m.perms[userID][mod] = models.DefaultPermission(userID, mod)
		}
	}
	return nil
}

func (m *memStore) UpsertPermission(_ context.Context, p models.Permission) (models.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.UserID]; !ok {
		return models.Permission{}, storage.ErrInvalidReference
	}
	if m.perms[p.UserID] == nil {
		m.perms[p.UserID] = make(map[models.Module]models.Permission)
	}
	p.UpdatedAt = time.Now()
	m.perms[p.UserID][p.Module] = p
	return p, nil
}

func (m *memStore) grant(userID int64, module models.Module, read, write, del bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perms[userID] == nil {
		m.perms[userID] = make(map[models.Module]models.Permission)
	}
	m.perms[userID][module] = models.Permission{UserID: userID, Module: module, CanRead: read, CanWrite: write, CanDelete: del}
}

func (m *memStore) CreateClient(_ context.Context, c models.Client) (models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.clients[c.ID] = c
	return c, nil
}

func (m *memStore) GetClient(_ context.Context, id int64) (models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return models.Client{}, storage.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListClients(_ context.Context, f storage.ClientFilter) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Client
	for id := int64(1); id <= m.nextID; id++ {
		c, ok := m.clients[id]
		if !ok {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) UpdateClient(_ context.Context, c models.Client) (models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; !ok {
		return models.Client{}, storage.ErrNotFound
	}
	m.clients[c.ID] = c
	return c, nil
}

func (m *memStore) DeleteClient(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *memStore) CreateServiceOrder(_ context.Context, o models.ServiceOrder) (models.ServiceOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[o.ClientID]; !ok {
		return models.ServiceOrder{}, storage.ErrInvalidReference
	}
	o.ID = m.id()
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) GetServiceOrder(_ context.Context, id int64) (models.ServiceOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.ServiceOrder{}, storage.ErrNotFound
	}
	return o, nil
}

func (m *memStore) UpdateServiceOrder(_ context.Context, o models.ServiceOrder) (models.ServiceOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return models.ServiceOrder{}, storage.ErrNotFound
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) CreateMessage(_ context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	msg.Sender = m.users[msg.SenderID].Username
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memStore) ListMessages(_ context.Context, _ models.Page) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ChatMessage(nil), m.messages...), nil
}

func (m *memStore) RecordActivity(_ context.Context, e models.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	m.activity = append(m.activity, e)
	return nil
}

func (m *memStore) ListActivity(_ context.Context, f storage.ActivityFilter) ([]models.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActivityEntry
	for _, e := range m.activity {
		if f.UserID != 0 && e.UserID != f.UserID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) addUser(t *testing.T, username string, role models.Role, password string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := m.CreateUser(context.Background(), models.User{
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		Active:       true,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// capturedReset records notifier calls.
type capturedReset struct {
	mu     sync.Mutex
	tokens map[int64]string
}

func (c *capturedReset) PasswordReset(_ context.Context, user models.User, token string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = make(map[int64]string)
	}
	c.tokens[user.ID] = token
	return nil
}

func (c *capturedReset) token(id int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[id]
}

// testEnv wires every handler onto one router the way the server does.
type testEnv struct {
	store    *memStore
	gate     *access.Gate
	notifier *capturedReset
	router   *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logs.Discard()
	store := newMemStore()
	gate := access.New(access.Config{}, store, log)
	notifier := &capturedReset{}
	rec := NewRecorder(store, log)

	root := mux.NewRouter()
	protected := root.NewRoute().Subrouter()
	protected.Use(injectIdentity(store))

	NewAuthHandler(AuthOptions{Store: store, Tokens: auth.NewTokenManager("secret", "test", time.Hour), Notifier: notifier, Recorder: rec, Log: log}).Register(root, protected)
	NewUserHandler(store, notifier, time.Hour, rec, log).Register(protected, gate)
	NewPermissionHandler(store, store, gate, rec, log).Register(protected)
	NewClientHandler(store, rec, log).Register(protected, gate)
	NewServiceOrderHandler(store, rec, log).Register(protected, gate)
	NewChatHandler(store, rec, log).Register(protected, gate)
	NewActivityHandler(store, log).Register(protected, gate)

	return &testEnv{store: store, gate: gate, notifier: notifier, router: root}
}

// injectIdentity stands in for bearer authentication: X-User-ID selects the caller.
func injectIdentity(store *memStore) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, _ := strconv.ParseInt(raw, 10, 64)
			u, err := store.GetUser(r.Context(), id)
			if err == nil {
				r = r.WithContext(auth.ContextWithIdentity(r.Context(), auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (e *testEnv) do(t *testing.T, method, path string, as int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if as != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(as, 10))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func accessSubject(u models.User) access.Subject {
	return access.SubjectFor(auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role})
}

func (m *memStore) activityFor(userID int64) []models.ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActivityEntry
	for _, e := range m.activity {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}
