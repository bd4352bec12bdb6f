package memes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shabikihub/shabiki/internal/app/domain/meme"
	"github.com/shabikihub/shabiki/internal/app/services/quota"
	"github.com/shabikihub/shabiki/internal/app/storage"
	"github.com/shabikihub/shabiki/internal/app/storage/memory"
)

type stubCaptions struct {
	caption string
	topics  []string
}

func (s *stubCaptions) MemeCaption(_ context.Context, topic string) string {
	s.topics = append(s.topics, topic)
	return s.caption
}

type failingMemeStore struct {
	storage.MemeStore
}

func (failingMemeStore) CreateMeme(context.Context, meme.NewMeme) (meme.Meme, error) {
	return meme.Meme{}, fmt.Errorf("backend unavailable")
}

func newService(store storage.MemeStore, meta storage.MetaStore, captions CaptionGenerator, limits quota.Limits) *Service {
	tracker := quota.New(meta, limits, len(DefaultAssetPool), nil)
	return New(store, tracker, captions, nil, nil)
}

func TestGenerateUsesDefaultTopic(t *testing.T) {
	mem := memory.New()
	captions := &stubCaptions{caption: "fire caption"}
	svc := newService(mem, mem, captions, quota.Limits{Global: 10, PerGuest: 5})

	created, err := svc.Generate(context.Background(), "guest-1", "  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if created.Caption != "fire caption" {
		t.Fatalf("expected stub caption, got %q", created.Caption)
	}
	if len(captions.topics) != 1 || captions.topics[0] != DefaultTopic {
		t.Fatalf("expected default topic %q, got %v", DefaultTopic, captions.topics)
	}
}

func TestGenerateRotatesAssets(t *testing.T) {
	mem := memory.New()
	svc := newService(mem, mem, &stubCaptions{caption: "c"}, quota.Limits{Global: 10, PerGuest: 10})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		created, err := svc.Generate(ctx, "guest-1", "derby")
		if err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
		if created.ImageURL != DefaultAssetPool[i] {
			t.Fatalf("call %d: expected asset %s, got %s", i, DefaultAssetPool[i], created.ImageURL)
		}
	}
}

func TestGenerateGuestLimit(t *testing.T) {
	mem := memory.New()
	svc := newService(mem, mem, &stubCaptions{caption: "c"}, quota.Limits{Global: 10, PerGuest: 1})
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "guest-1", ""); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	if _, err := svc.Generate(ctx, "guest-1", ""); !errors.Is(err, storage.ErrGuestLimitReached) {
		t.Fatalf("expected ErrGuestLimitReached, got %v", err)
	}
}

func TestGenerateEmptyGuestSharesAnonymousBudget(t *testing.T) {
	mem := memory.New()
	svc := newService(mem, mem, &stubCaptions{caption: "c"}, quota.Limits{Global: 10, PerGuest: 1})
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "", ""); err != nil {
		t.Fatalf("anonymous generation: %v", err)
	}
	// A blank-padded header lands on the same anonymous identity.
	if _, err := svc.Generate(ctx, "   ", ""); !errors.Is(err, storage.ErrGuestLimitReached) {
		t.Fatalf("expected shared anonymous budget, got %v", err)
	}
}

func TestGenerateKeepsReservationOnStoreFailure(t *testing.T) {
	mem := memory.New()
	svc := newService(failingMemeStore{}, mem, &stubCaptions{caption: "c"}, quota.Limits{Global: 10, PerGuest: 1})
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "guest-1", ""); err == nil {
		t.Fatal("expected store failure")
	}

	// The consumed slot stays consumed; the retry hits the guest limit.
	if _, err := svc.Generate(ctx, "guest-1", ""); !errors.Is(err, storage.ErrGuestLimitReached) {
		t.Fatalf("expected ErrGuestLimitReached after failed attempt, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	mem := memory.New()
	svc := newService(mem, mem, &stubCaptions{caption: "c"}, quota.Limits{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, meme.NewMeme{ImageURL: "", Caption: "x"}); err == nil {
		t.Fatal("expected error for missing imageUrl")
	}
	if _, err := svc.Create(ctx, meme.NewMeme{ImageURL: "/a.png", Caption: "  "}); err == nil {
		t.Fatal("expected error for missing caption")
	}

	created, err := svc.Create(ctx, meme.NewMeme{ImageURL: " /a.png ", Caption: " lol "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ImageURL != "/a.png" || created.Caption != "lol" {
		t.Fatalf("expected trimmed fields, got %+v", created)
	}
}

func TestStatusNormalizesGuest(t *testing.T) {
	mem := memory.New()
	svc := newService(mem, mem, &stubCaptions{caption: "c"}, quota.Limits{Global: 10, PerGuest: 1})
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	status, err := svc.Status(ctx, "")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.UserCount != 1 {
		t.Fatalf("expected anonymous usage visible in status, got %d", status.UserCount)
	}
}
