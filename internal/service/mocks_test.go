package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-contacts-api/internal/model"
)

// memStore is an in-memory UserStore for tests. It counts lookups so cache
// behaviour can be asserted.
type memStore struct {
	mu                  sync.Mutex
	users               map[int64]model.User
	nextID              int64
	findByUsernameCalls int
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]model.User{}, nextID: 1}
}

func (s *memStore) add(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID
		s.nextID++
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) usernameLookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByUsernameCalls
}

func (s *memStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findByUsernameCalls++
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memStore) FindByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.User{}, model.ErrEmailTaken
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return model.User{}, model.ErrUsernameTaken
		}
	}
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) SetConfirmed(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.Confirmed = true
			s.users[id] = u
			return nil
		}
	}
	return model.ErrUserNotFound
}

func (s *memStore) SetPasswordHash(_ context.Context, email string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.PasswordHash = passwordHash
			s.users[id] = u
			return nil
		}
	}
	return model.ErrUserNotFound
}

func (s *memStore) SetAvatar(_ context.Context, email string, avatarURL string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.Avatar = &avatarURL
			s.users[id] = u
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

// memCache is an in-memory SnapshotCache honoring TTL expiry.
type memCache struct {
	mu      sync.Mutex
	entries map[string]memCacheEntry
}

type memCacheEntry struct {
	value     string
	expiresAt time.Time
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]memCacheEntry{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *memCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memCacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// recordingMailer captures dispatched mail so async sends can be awaited.
type sentMail struct {
	Email string
	Token string
}

type recordingMailer struct {
	confirmations chan sentMail
	resets        chan sentMail
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		confirmations: make(chan sentMail, 8),
		resets:        make(chan sentMail, 8),
	}
}

func (m *recordingMailer) SendConfirmation(_ context.Context, email, _, _, token string) error {
	m.confirmations <- sentMail{Email: email, Token: token}
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, email, _, _, token string) error {
	m.resets <- sentMail{Email: email, Token: token}
	return nil
}

// memAvatarStorage records stored objects and returns deterministic URLs.
type memAvatarStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemAvatarStorage() *memAvatarStorage {
	return &memAvatarStorage{objects: map[string][]byte{}}
}

func (s *memAvatarStorage) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "https://storage.test/" + key, nil
}
