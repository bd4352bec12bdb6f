// Package supabase implements the storage interfaces on top of the Supabase
// PostgREST API. Counter updates (likes, quota reservation, rotation) are
// delegated to database functions so they stay atomic across processes.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
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

	trendsDocID = "trendingTopics"
)

// Config holds Supabase connection configuration.
type Config struct {
	URL        string
	ServiceKey string
}

// ConfigFromEnv returns config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		URL:        os.Getenv("SUPABASE_URL"),
		ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
	}
}

// Store talks to the Supabase REST API. It implements every storage
// interface so the whole application can run against one backend handle.
type Store struct {
	config Config
	client *http.Client
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.MemeStore = (*Store)(nil)
var _ storage.ChatStore = (*Store)(nil)
var _ storage.MetaStore = (*Store)(nil)

// New creates a Supabase store.
func New(config Config) (*Store, error) {
	if config.URL == "" || config.ServiceKey == "" {
		return nil, fmt.Errorf("supabase URL and service key are required")
	}
	return &Store{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Row shapes ------------------------------------------------------------------

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type memeRow struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"image_url"`
	Caption   string    `json:"caption"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

type chatRow struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (r userRow) domain() user.User {
	return user.User{ID: r.ID, Username: r.Username, Password: r.Password}
}

func (r memeRow) domain() meme.Meme {
	return meme.Meme{ID: r.ID, ImageURL: r.ImageURL, Caption: r.Caption, Likes: r.Likes, CreatedAt: r.CreatedAt}
}

func (r chatRow) domain() chat.Message {
	return chat.Message{ID: r.ID, User: r.User, Message: r.Message, Timestamp: r.Timestamp}
}

// UserStore implementation ----------------------------------------------------

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	filter := "id=eq." + url.QueryEscape(id)
	if err := s.getOne(ctx, "users", filter, &row); err != nil {
		return user.User{}, err
	}
	return row.domain(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var row userRow
	filter := "username=eq." + url.QueryEscape(username)
	if err := s.getOne(ctx, "users", filter, &row); err != nil {
		return user.User{}, err
	}
	return row.domain(), nil
}

func (s *Store) CreateUser(ctx context.Context, input user.NewUser) (user.User, error) {
	row := userRow{
		ID:       uuid.New().String(),
		Username: input.Username,
		Password: input.Password,
	}
	var created userRow
	if err := s.insert(ctx, "users", row, &created); err != nil {
		return user.User{}, err
	}
	return created.domain(), nil
}

// MemeStore implementation ----------------------------------------------------

func (s *Store) ListMemes(ctx context.Context, limit int) ([]meme.Meme, error) {
	if limit <= 0 {
		limit = defaultMemeLimit
	}

	var rows []memeRow
	filter := fmt.Sprintf("order=created_at.desc&limit=%d", limit)
	if err := s.getList(ctx, "memes", filter, &rows); err != nil {
		return nil, err
	}
	result := make([]meme.Meme, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.domain())
	}
	return result, nil
}

func (s *Store) CreateMeme(ctx context.Context, input meme.NewMeme) (meme.Meme, error) {
	likes := input.Likes
	if likes < 0 {
		likes = 0
	}

	// created_at is filled by the table default so the database clock stays
	// the single source of ordering.
	payload := struct {
		ID       string `json:"id"`
		ImageURL string `json:"image_url"`
		Caption  string `json:"caption"`
		Likes    int    `json:"likes"`
	}{
		ID:       uuid.New().String(),
		ImageURL: input.ImageURL,
		Caption:  input.Caption,
		Likes:    likes,
	}

	var created memeRow
	if err := s.insert(ctx, "memes", payload, &created); err != nil {
		return meme.Meme{}, err
	}
	return created.domain(), nil
}

func (s *Store) LikeMeme(ctx context.Context, id string) (meme.Meme, error) {
	raw, err := s.rpc(ctx, "like_meme", map[string]any{"p_meme_id": id})
	if err != nil {
		return meme.Meme{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return meme.Meme{}, storage.ErrNotFound
	}

	var row memeRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return meme.Meme{}, fmt.Errorf("decode like_meme result: %w", err)
	}
	return row.domain(), nil
}

// ChatStore implementation ----------------------------------------------------

func (s *Store) ListChatMessages(ctx context.Context, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = defaultChatLimit
	}

	// Fetch the most recent window newest-first, then flip it so callers see
	// ascending timestamps.
	var rows []chatRow
	filter := fmt.Sprintf("order=timestamp.desc&limit=%d", limit)
	if err := s.getList(ctx, "chat_messages", filter, &rows); err != nil {
		return nil, err
	}
	result := make([]chat.Message, len(rows))
	for i, row := range rows {
		result[len(rows)-1-i] = row.domain()
	}
	return result, nil
}

func (s *Store) CreateChatMessage(ctx context.Context, input chat.NewMessage) (chat.Message, error) {
	payload := struct {
		ID      string `json:"id"`
		User    string `json:"user"`
		Message string `json:"message"`
	}{
		ID:      uuid.New().String(),
		User:    input.User,
		Message: input.Message,
	}

	var created chatRow
	if err := s.insert(ctx, "chat_messages", payload, &created); err != nil {
		return chat.Message{}, err
	}
	return created.domain(), nil
}

// MetaStore implementation ----------------------------------------------------

func (s *Store) ReserveGeneration(ctx context.Context, day, guestID string, globalLimit, guestLimit int) error {
	raw, err := s.rpc(ctx, "reserve_generation", map[string]any{
		"p_day":          day,
		"p_guest":        guestID,
		"p_global_limit": globalLimit,
		"p_guest_limit":  guestLimit,
	})
	if err != nil {
		return err
	}

	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		return fmt.Errorf("decode reserve_generation result: %w", err)
	}
	switch status {
	case "allowed":
		return nil
	case "global_limit":
		return storage.ErrGlobalLimitReached
	case "guest_limit":
		return storage.ErrGuestLimitReached
	default:
		return fmt.Errorf("unexpected reservation status %q", status)
	}
}

func (s *Store) GenerationStatus(ctx context.Context, day, guestID string) (storage.GenerationStatus, error) {
	raw, err := s.rpc(ctx, "generation_status", map[string]any{
		"p_day":   day,
		"p_guest": guestID,
	})
	if err != nil {
		return storage.GenerationStatus{}, err
	}

	var result struct {
		GlobalCount int `json:"global_count"`
		GuestCount  int `json:"guest_count"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return storage.GenerationStatus{}, fmt.Errorf("decode generation_status result: %w", err)
	}
	return storage.GenerationStatus{
		Day:         day,
		GlobalCount: result.GlobalCount,
		GuestCount:  result.GuestCount,
	}, nil
}

func (s *Store) NextAssetIndex(ctx context.Context, day string, poolSize int) (int, error) {
	if poolSize <= 0 {
		return 0, fmt.Errorf("pool size must be positive")
	}

	raw, err := s.rpc(ctx, "next_asset_index", map[string]any{
		"p_day":       day,
		"p_pool_size": poolSize,
	})
	if err != nil {
		return 0, err
	}

	var idx int
	if err := json.Unmarshal(raw, &idx); err != nil {
		return 0, fmt.Errorf("decode next_asset_index result: %w", err)
	}
	return idx, nil
}

func (s *Store) TrendingTopics(ctx context.Context) ([]trend.Topic, error) {
	var row struct {
		ID   string          `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	filter := "id=eq." + trendsDocID
	if err := s.getOne(ctx, "meta", filter, &row); err != nil {
		return nil, err
	}

	var doc struct {
		Items []trend.Topic `json:"items"`
	}
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode trends cache: %w", err)
	}
	return doc.Items, nil
}

func (s *Store) SetTrendingTopics(ctx context.Context, topics []trend.Topic) error {
	data, err := json.Marshal(map[string]any{
		"items":       topics,
		"refreshedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal trends cache: %w", err)
	}

	payload := struct {
		ID   string          `json:"id"`
		Data json.RawMessage `json:"data"`
	}{ID: trendsDocID, Data: data}

	return s.upsert(ctx, "meta", payload)
}

// HTTP plumbing ---------------------------------------------------------------

func (s *Store) restURL(table string) string {
	return fmt.Sprintf("%s/rest/v1/%s", s.config.URL, table)
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.config.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+s.config.ServiceKey)
	req.Header.Set("Content-Type", "application/json")
}

// getOne fetches exactly one row; a missing row maps to storage.ErrNotFound.
func (s *Store) getOne(ctx context.Context, table, filter string, out any) error {
	reqURL := s.restURL(table) + "?" + filter + "&limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotAcceptable || resp.StatusCode == http.StatusNotFound {
		return storage.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return restError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s row: %w", table, err)
	}
	return nil
}

func (s *Store) getList(ctx context.Context, table, filter string, out any) error {
	reqURL := s.restURL(table)
	if filter != "" {
		reqURL += "?" + filter
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return restError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}

// insert creates a row and decodes the stored representation, so database
// defaults (timestamps) come back to the caller.
func (s *Store) insert(ctx context.Context, table string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s row: %w", table, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.restURL(table), bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "return=representation")
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return restError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode created %s row: %w", table, err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, table string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s row: %w", table, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.restURL(table), bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return restError(resp)
	}
	return nil
}

// rpc calls a database function and returns its raw JSON result.
func (s *Store) rpc(ctx context.Context, function string, params map[string]any) (json.RawMessage, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc params: %w", err)
	}

	rpcURL := fmt.Sprintf("%s/rest/v1/rpc/%s", s.config.URL, function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rpcURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("supabase rpc %s: %s", function, string(body))
	}
	return body, nil
}

func restError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("supabase error (status %d): %s", resp.StatusCode, string(body))
}
