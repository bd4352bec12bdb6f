package storage

import (
	"context"

	"github.com/shabikihub/shabiki/internal/app/domain/chat"
	"github.com/shabikihub/shabiki/internal/app/domain/meme"
	"github.com/shabikihub/shabiki/internal/app/domain/trend"
	"github.com/shabikihub/shabiki/internal/app/domain/user"
)

// UserStore persists user records.
type UserStore interface {
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	CreateUser(ctx context.Context, input user.NewUser) (user.User, error)
}

// MemeStore persists meme records. ListMemes returns newest-first, truncated
// to limit (50 when limit <= 0). LikeMeme increments likes by exactly one and
// must not lose updates under concurrent calls for the same id.
type MemeStore interface {
	ListMemes(ctx context.Context, limit int) ([]meme.Meme, error)
	CreateMeme(ctx context.Context, input meme.NewMeme) (meme.Meme, error)
	LikeMeme(ctx context.Context, id string) (meme.Meme, error)
}

// ChatStore persists chat messages. ListChatMessages returns the most recent
// limit messages (100 when limit <= 0) in ascending timestamp order.
type ChatStore interface {
	ListChatMessages(ctx context.Context, limit int) ([]chat.Message, error)
	CreateChatMessage(ctx context.Context, input chat.NewMessage) (chat.Message, error)
}

// GenerationStatus reports the daily generation counters for one guest.
type GenerationStatus struct {
	Day         string
	GlobalCount int
	GuestCount  int
}

// MetaStore persists the day-keyed quota and rotation documents plus the
// trends cache. ReserveGeneration checks both limits and consumes one unit in
// a single atomic step; callers never read-modify-write the counters. All
// day-scoped operations reset state lazily when the stored day no longer
// matches the day argument.
type MetaStore interface {
	ReserveGeneration(ctx context.Context, day, guestID string, globalLimit, guestLimit int) error
	GenerationStatus(ctx context.Context, day, guestID string) (GenerationStatus, error)
	NextAssetIndex(ctx context.Context, day string, poolSize int) (int, error)

	TrendingTopics(ctx context.Context) ([]trend.Topic, error)
	SetTrendingTopics(ctx context.Context, topics []trend.Topic) error
}
