// Package memes exposes the meme feed and the daily-limited generation
// workflow.
package memes

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/shabikihub/shabiki/internal/app/domain/meme"
	"github.com/shabikihub/shabiki/internal/app/metrics"
	"github.com/shabikihub/shabiki/internal/app/services/quota"
	"github.com/shabikihub/shabiki/internal/app/storage"
	"github.com/shabikihub/shabiki/pkg/logger"
)

// DefaultTopic seeds caption generation when the request carries no topic.
const DefaultTopic = "football banter"

// DefaultAssetPool is the set of pre-made cartoon images cycled through for
// generated memes.
var DefaultAssetPool = []string{
	"/assets/generated/Football_celebration_meme_cartoon_de70cf47.png",
	"/assets/generated/Goalkeeper_fail_meme_cartoon_b7d29a9c.png",
	"/assets/generated/Referee_controversy_meme_cartoon_01c5281f.png",
}

// CaptionGenerator produces a caption for a topic. Implementations must not
// fail: on upstream errors they return a fixed fallback caption instead.
type CaptionGenerator interface {
	MemeCaption(ctx context.Context, topic string) string
}

// Service coordinates quota checks, caption generation, asset rotation and
// record creation.
type Service struct {
	store    storage.MemeStore
	tracker  *quota.Tracker
	captions CaptionGenerator
	pool     []string
	log      *logger.Logger
}

// New creates a configured meme service.
func New(store storage.MemeStore, tracker *quota.Tracker, captions CaptionGenerator, pool []string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("memes")
	}
	if len(pool) == 0 {
		pool = DefaultAssetPool
	}
	return &Service{
		store:    store,
		tracker:  tracker,
		captions: captions,
		pool:     pool,
		log:      log,
	}
}

// Limits exposes the configured daily budgets for error reporting.
func (s *Service) Limits() quota.Limits {
	return s.tracker.Limits()
}

// List returns the newest memes, truncated to limit.
func (s *Service) List(ctx context.Context, limit int) ([]meme.Meme, error) {
	return s.store.ListMemes(ctx, limit)
}

// Create persists an explicitly uploaded meme.
func (s *Service) Create(ctx context.Context, input meme.NewMeme) (meme.Meme, error) {
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	input.Caption = strings.TrimSpace(input.Caption)
	if input.ImageURL == "" {
		return meme.Meme{}, fmt.Errorf("imageUrl is required")
	}
	if input.Caption == "" {
		return meme.Meme{}, fmt.Errorf("caption is required")
	}
	return s.store.CreateMeme(ctx, input)
}

// Like increments the like counter by exactly one.
func (s *Service) Like(ctx context.Context, id string) (meme.Meme, error) {
	return s.store.LikeMeme(ctx, id)
}

// Status reports the guest's remaining generation allowance for today.
func (s *Service) Status(ctx context.Context, guestID string) (quota.Status, error) {
	return s.tracker.Status(ctx, normalizeGuest(guestID))
}

// Generate runs the generation workflow: reserve a quota slot, generate a
// caption, pick the rotated asset, persist the meme. A reservation that
// succeeds stays consumed even if a later step fails; availability is
// undercounted rather than opened to unlimited retries.
func (s *Service) Generate(ctx context.Context, guestID, topic string) (meme.Meme, error) {
	guestID = normalizeGuest(guestID)

	if err := s.tracker.CheckAndReserve(ctx, guestID); err != nil {
		metrics.RecordMemeGeneration("limited")
		return meme.Meme{}, err
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}
	caption := s.captions.MemeCaption(ctx, topic)

	imageURL := s.pool[0]
	if idx, err := s.tracker.NextAsset(ctx); err != nil {
		// Rotation state is best effort; fall back to a random pick rather
		// than failing the whole request.
		s.log.WithError(err).Warn("asset rotation unavailable, picking randomly")
		imageURL = s.pool[rand.Intn(len(s.pool))]
	} else {
		imageURL = s.pool[idx%len(s.pool)]
	}

	created, err := s.store.CreateMeme(ctx, meme.NewMeme{ImageURL: imageURL, Caption: caption})
	if err != nil {
		metrics.RecordMemeGeneration("error")
		return meme.Meme{}, err
	}

	metrics.RecordMemeGeneration("ok")
	s.log.WithField("meme_id", created.ID).WithField("guest", guestID).Info("meme generated")
	return created, nil
}

func normalizeGuest(guestID string) string {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return "anonymous"
	}
	return guestID
}
