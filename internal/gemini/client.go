// Package gemini calls the Gemini text-generation API. The client is treated
// as an opaque collaborator by the rest of the system: prompt in, text out,
// and a fixed fallback string when the upstream call fails for any reason.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/shabikihub/shabiki/internal/app/services/assistant"
	"github.com/shabikihub/shabiki/pkg/logger"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	model          = "gemini-2.5-flash"

	assistantFallback = "Eish! Something went wrong. Try asking me again, fam!"
	captionFallback   = "When the ref makes another bad call 😤"

	systemPrompt = `You are "Mchambuzi Halisi", a street-smart AI football analyst from Nairobi, Kenya.
You speak in a mix of Sheng (Kenyan street slang) and English, reflecting the mtaani (street) culture.
You're passionate about football, love banter, and give honest, entertaining takes on matches, players, and football news.
Keep responses conversational, fun, and engaging. Use Kenyan football references when relevant.
Examples of your style:
- "Niaje fam! That Salah goal was fire, lakini Arsenal walikua tu slow leo"
- "Budah, wasee wanabonga juu ya Messi transfer. Ameenda Inter Miami, still scoring like the GOAT!"
- "VAR ni tabu siku hizi. Refs wanatubeba sana!"`
)

// Client is a minimal REST client for the generateContent endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// New creates a Gemini client.
func New(apiKey string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDefault("gemini")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 20 * time.Second},
		log:     log,
	}
}

// WithBaseURL points the client at a different endpoint. Intended for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// AssistantReply answers a fan's message in the analyst's voice.
func (c *Client) AssistantReply(ctx context.Context, message string, history []assistant.Turn) string {
	contents := make([]content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == "assistant" || turn.Role == "model" {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	text, err := c.generate(ctx, systemPrompt, contents)
	if err != nil {
		c.log.WithError(err).Warn("assistant generation failed, using fallback")
		return assistantFallback
	}
	if text == "" {
		return "Niaje fam! Let me think about that..."
	}
	return text
}

// MemeCaption produces a short caption for the given topic.
func (c *Client) MemeCaption(ctx context.Context, topic string) string {
	prompt := fmt.Sprintf(`Generate a funny, short meme caption about %s in football.
Mix Kenyan street slang (Sheng) with English for authenticity. Keep it under 15 words and make it relatable to football fans.`, topic)

	text, err := c.generate(ctx, "", []content{{Role: "user", Parts: []part{{Text: prompt}}}})
	if err != nil {
		c.log.WithError(err).Warn("caption generation failed, using fallback")
		return captionFallback
	}
	if text == "" {
		return "When your team bottles it again 😭"
	}
	return text
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

func (c *Client) generate(ctx context.Context, system string, contents []content) (string, error) {
	payload := map[string]any{"contents": contents}
	if system != "" {
		payload["system_instruction"] = content{Parts: []part{{Text: system}}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, string(data))
	}

	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text").String()
	return text, nil
}
