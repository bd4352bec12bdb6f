package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shabikihub/shabiki/internal/app/domain/chat"
	"github.com/shabikihub/shabiki/internal/app/domain/meme"
	"github.com/shabikihub/shabiki/internal/app/domain/trend"
	"github.com/shabikihub/shabiki/internal/app/domain/user"
	"github.com/shabikihub/shabiki/internal/app/storage"
)

const (
	defaultMemeLimit = 50
	defaultChatLimit = 100
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development; production deployments select the Supabase store instead.
type Store struct {
	mu sync.RWMutex

	users       map[string]user.User
	usernames   map[string]string
	memes       []meme.Meme
	memeIndex   map[string]int
	messages    []chat.Message
	generation  generationState
	rotation    rotationState
	trendsCache []trend.Topic

	now func() time.Time
}

type generationState struct {
	day         string
	globalCount int
	guestsUsed  map[string]int
}

type rotationState struct {
	day   string
	used  map[int]bool
	calls int
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.MemeStore = (*Store)(nil)
var _ storage.ChatStore = (*Store)(nil)
var _ storage.MetaStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]user.User),
		usernames: make(map[string]string),
		memeIndex: make(map[string]int),
		now:       time.Now,
	}
}

// WithClock overrides the store clock. Intended for tests that need to
// control day rollover and timestamps without sleeping.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// UserStore implementation ----------------------------------------------------

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) CreateUser(_ context.Context, input user.NewUser) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernames[input.Username]; exists {
		return user.User{}, fmt.Errorf("username %q already taken", input.Username)
	}

	u := user.User{
		ID:       uuid.New().String(),
		Username: input.Username,
		Password: input.Password,
	}
	s.users[u.ID] = u
	s.usernames[u.Username] = u.ID
	return u, nil
}

// MemeStore implementation ----------------------------------------------------

func (s *Store) ListMemes(_ context.Context, limit int) ([]meme.Meme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = defaultMemeLimit
	}

	// Memes are appended in creation order, so newest-first is a reverse walk.
	n := len(s.memes)
	if limit > n {
		limit = n
	}
	result := make([]meme.Meme, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, s.memes[i])
	}
	return result, nil
}

func (s *Store) CreateMeme(_ context.Context, input meme.NewMeme) (meme.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	likes := input.Likes
	if likes < 0 {
		likes = 0
	}
	m := meme.Meme{
		ID:        uuid.New().String(),
		ImageURL:  input.ImageURL,
		Caption:   input.Caption,
		Likes:     likes,
		CreatedAt: s.now().UTC(),
	}
	s.memeIndex[m.ID] = len(s.memes)
	s.memes = append(s.memes, m)
	return m, nil
}

func (s *Store) LikeMeme(_ context.Context, id string) (meme.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.memeIndex[id]
	if !ok {
		return meme.Meme{}, storage.ErrNotFound
	}
	s.memes[idx].Likes++
	return s.memes[idx], nil
}

// ChatStore implementation ----------------------------------------------------

func (s *Store) ListChatMessages(_ context.Context, limit int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = defaultChatLimit
	}

	// The last N messages, preserved in ascending timestamp order.
	n := len(s.messages)
	start := n - limit
	if start < 0 {
		start = 0
	}
	return append([]chat.Message(nil), s.messages[start:]...), nil
}

func (s *Store) CreateChatMessage(_ context.Context, input chat.NewMessage) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := chat.Message{
		ID:        uuid.New().String(),
		User:      input.User,
		Message:   input.Message,
		Timestamp: s.now().UTC(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

// MetaStore implementation ----------------------------------------------------

// ReserveGeneration performs the daily limit check and the reservation in one
// critical section so concurrent requests cannot both pass the check.
func (s *Store) ReserveGeneration(_ context.Context, day, guestID string, globalLimit, guestLimit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollGenerationLocked(day)

	if s.generation.globalCount >= globalLimit {
		return storage.ErrGlobalLimitReached
	}
	if s.generation.guestsUsed[guestID] >= guestLimit {
		return storage.ErrGuestLimitReached
	}

	s.generation.globalCount++
	s.generation.guestsUsed[guestID]++
	return nil
}

func (s *Store) GenerationStatus(_ context.Context, day, guestID string) (storage.GenerationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollGenerationLocked(day)

	return storage.GenerationStatus{
		Day:         day,
		GlobalCount: s.generation.globalCount,
		GuestCount:  s.generation.guestsUsed[guestID],
	}, nil
}

func (s *Store) NextAssetIndex(_ context.Context, day string, poolSize int) (int, error) {
	if poolSize <= 0 {
		return 0, fmt.Errorf("pool size must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rotation.day != day {
		s.rotation = rotationState{day: day, used: make(map[int]bool)}
	}

	calls := s.rotation.calls
	s.rotation.calls++

	// First unused index in ascending order; once the pool is exhausted for
	// the day, fall back to round-robin on the call counter.
	if len(s.rotation.used) < poolSize {
		for i := 0; i < poolSize; i++ {
			if !s.rotation.used[i] {
				s.rotation.used[i] = true
				return i, nil
			}
		}
	}
	return calls % poolSize, nil
}

func (s *Store) rollGenerationLocked(day string) {
	if s.generation.day != day {
		s.generation = generationState{day: day, guestsUsed: make(map[string]int)}
	}
}

// TrendingTopics returns the cached topics, or ErrNotFound before the first
// refresh.
func (s *Store) TrendingTopics(_ context.Context) ([]trend.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.trendsCache == nil {
		return nil, storage.ErrNotFound
	}
	return append([]trend.Topic(nil), s.trendsCache...), nil
}

func (s *Store) SetTrendingTopics(_ context.Context, topics []trend.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trendsCache = append([]trend.Topic(nil), topics...)
	return nil
}
