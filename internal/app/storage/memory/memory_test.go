package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shabikihub/shabiki/internal/app/domain/chat"
	"github.com/shabikihub/shabiki/internal/app/domain/meme"
	"github.com/shabikihub/shabiki/internal/app/domain/trend"
	"github.com/shabikihub/shabiki/internal/app/domain/user"
	"github.com/shabikihub/shabiki/internal/app/storage"
)

func TestUserLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateUser(ctx, user.NewUser{Username: "wanjiku", Password: "hashed"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byID, err := s.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if byID.Username != "wanjiku" {
		t.Fatalf("unexpected user %+v", byID)
	}

	byName, err := s.GetUserByUsername(ctx, "wanjiku")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("expected same user, got %+v", byName)
	}

	if _, err := s.CreateUser(ctx, user.NewUser{Username: "wanjiku", Password: "other"}); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}
	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMemesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, caption := range []string{"A", "B", "C"} {
		if _, err := s.CreateMeme(ctx, meme.NewMeme{ImageURL: "/a.png", Caption: caption}); err != nil {
			t.Fatalf("CreateMeme: %v", err)
		}
	}

	got, err := s.ListMemes(ctx, 2)
	if err != nil {
		t.Fatalf("ListMemes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 memes, got %d", len(got))
	}
	if got[0].Caption != "C" || got[1].Caption != "B" {
		t.Fatalf("expected [C B], got [%s %s]", got[0].Caption, got[1].Caption)
	}
}

func TestLikeMeme(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateMeme(ctx, meme.NewMeme{ImageURL: "/a.png", Caption: "test"})
	if err != nil {
		t.Fatalf("CreateMeme: %v", err)
	}

	updated, err := s.LikeMeme(ctx, created.ID)
	if err != nil {
		t.Fatalf("LikeMeme: %v", err)
	}
	if updated.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", updated.Likes)
	}

	if _, err := s.LikeMeme(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLikeMemeConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateMeme(ctx, meme.NewMeme{ImageURL: "/a.png", Caption: "test"})
	if err != nil {
		t.Fatalf("CreateMeme: %v", err)
	}

	const likes = 50
	var wg sync.WaitGroup
	for i := 0; i < likes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.LikeMeme(ctx, created.ID); err != nil {
				t.Errorf("LikeMeme: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.ListMemes(ctx, 1)
	if err != nil {
		t.Fatalf("ListMemes: %v", err)
	}
	if got[0].Likes != likes {
		t.Fatalf("expected %d likes, got %d", likes, got[0].Likes)
	}
}

func TestListChatMessagesWindow(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three", "four"} {
		if _, err := s.CreateChatMessage(ctx, chat.NewMessage{User: "fan", Message: text}); err != nil {
			t.Fatalf("CreateChatMessage: %v", err)
		}
	}

	got, err := s.ListChatMessages(ctx, 2)
	if err != nil {
		t.Fatalf("ListChatMessages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Message != "three" || got[1].Message != "four" {
		t.Fatalf("expected the last two in ascending order, got [%s %s]", got[0].Message, got[1].Message)
	}
}

func TestReserveGenerationLimits(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := "2026-02-01"

	if err := s.ReserveGeneration(ctx, day, "guest-1", 10, 1); err != nil {
		t.Fatalf("first reservation: %v", err)
	}
	if err := s.ReserveGeneration(ctx, day, "guest-1", 10, 1); !errors.Is(err, storage.ErrGuestLimitReached) {
		t.Fatalf("expected ErrGuestLimitReached, got %v", err)
	}

	// Nine more guests exhaust the global budget of ten.
	for i := 0; i < 9; i++ {
		guest := string(rune('a' + i))
		if err := s.ReserveGeneration(ctx, day, guest, 10, 1); err != nil {
			t.Fatalf("reservation for %s: %v", guest, err)
		}
	}
	if err := s.ReserveGeneration(ctx, day, "guest-11", 10, 1); !errors.Is(err, storage.ErrGlobalLimitReached) {
		t.Fatalf("expected ErrGlobalLimitReached, got %v", err)
	}
}

func TestReserveGenerationDayRollover(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.ReserveGeneration(ctx, "2026-02-01", "guest-1", 10, 1); err != nil {
		t.Fatalf("day one reservation: %v", err)
	}
	if err := s.ReserveGeneration(ctx, "2026-02-02", "guest-1", 10, 1); err != nil {
		t.Fatalf("expected a fresh budget on the next day, got %v", err)
	}

	status, err := s.GenerationStatus(ctx, "2026-02-02", "guest-1")
	if err != nil {
		t.Fatalf("GenerationStatus: %v", err)
	}
	if status.GlobalCount != 1 || status.GuestCount != 1 {
		t.Fatalf("expected fresh day counters 1/1, got %d/%d", status.GlobalCount, status.GuestCount)
	}
}

func TestNextAssetIndexRotation(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := "2026-02-01"

	// First pass hands out every index in ascending order.
	for want := 0; want < 3; want++ {
		got, err := s.NextAssetIndex(ctx, day, 3)
		if err != nil {
			t.Fatalf("NextAssetIndex: %v", err)
		}
		if got != want {
			t.Fatalf("call %d: expected index %d, got %d", want+1, want, got)
		}
	}

}

func TestNextAssetIndexRoundRobinSequence(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := "2026-02-01"

	for i := 0; i < 3; i++ {
		if _, err := s.NextAssetIndex(ctx, day, 3); err != nil {
			t.Fatalf("NextAssetIndex: %v", err)
		}
	}
	for _, want := range []int{0, 1, 2, 0} {
		got, err := s.NextAssetIndex(ctx, day, 3)
		if err != nil {
			t.Fatalf("NextAssetIndex: %v", err)
		}
		if got != want {
			t.Fatalf("expected round-robin index %d, got %d", want, got)
		}
	}
}

func TestNextAssetIndexNewDayResets(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.NextAssetIndex(ctx, "2026-02-01", 3); err != nil {
			t.Fatalf("NextAssetIndex: %v", err)
		}
	}

	got, err := s.NextAssetIndex(ctx, "2026-02-02", 3)
	if err != nil {
		t.Fatalf("NextAssetIndex: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected index 0 on a fresh day, got %d", got)
	}
}

func TestTrendingTopicsCache(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.TrendingTopics(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first refresh, got %v", err)
	}

	topics := []trend.Topic{{ID: "1", Topic: "Arsenal", SearchVolume: "200K+", Description: "Trending on Google"}}
	if err := s.SetTrendingTopics(ctx, topics); err != nil {
		t.Fatalf("SetTrendingTopics: %v", err)
	}

	got, err := s.TrendingTopics(ctx)
	if err != nil {
		t.Fatalf("TrendingTopics: %v", err)
	}
	if len(got) != 1 || got[0].Topic != "Arsenal" {
		t.Fatalf("unexpected cached topics: %+v", got)
	}
}

func TestWithClockControlsTimestamps(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return fixed })
	ctx := context.Background()

	msg, err := s.CreateChatMessage(ctx, chat.NewMessage{User: "fan", Message: "hello"})
	if err != nil {
		t.Fatalf("CreateChatMessage: %v", err)
	}
	if !msg.Timestamp.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, msg.Timestamp)
	}
}
