// Package backboard is a client for the Backboard memory API. Each guest
// stay gets isolated memory via metadata (guest_id, room_id) on every
// entry.
package backboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/novahotels/concierge/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://app.backboard.io/api"
	defaultTimeout    = 15 * time.Second

	defaultAssistantName = "Nova Concierge"
)

// Config holds configuration for the Backboard client.
// Required fields:
// - APIKey: Your Backboard API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Backboard API (default: "https://app.backboard.io/api")
// - AssistantID: An existing assistant to attach memories to; resolved or
//   created lazily when empty
type Config struct {
	APIKey      string
	APIBaseURL  string
	AssistantID string
}

// Client implements the MemoryStore interface against the Backboard API.
// One Client is shared by every session's goroutines; the lazily resolved
// assistant id is the only mutable field and is guarded by assistantMu.
type Client struct {
	apiKey     string
	apiBaseURL string
	httpClient *http.Client
	logger     *zap.Logger

	assistantMu sync.Mutex
	assistantID string
}

// Ensure Client implements the MemoryStore interface
var _ repositories.MemoryStore = (*Client)(nil)

// ValidateConfig validates the Backboard Config.
func ValidateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("backboard API key is required")
	}
	return nil
}

// NewClient creates a new Backboard memory client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
		logger.Info("Using default API base URL", zap.String("apiBaseURL", apiBaseURL))
	}
	apiBaseURL = strings.TrimRight(apiBaseURL, "/")

	return &Client{
		apiKey:      config.APIKey,
		apiBaseURL:  apiBaseURL,
		assistantID: config.AssistantID,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      logger,
	}, nil
}

// NewConfigFromEnv creates a Config from environment variables.
func NewConfigFromEnv() Config {
	return Config{
		APIKey:      os.Getenv("BACKBOARD_API_KEY"),
		APIBaseURL:  os.Getenv("BACKBOARD_API_BASE"),
		AssistantID: os.Getenv("BACKBOARD_ASSISTANT_ID"),
	}
}

type memoryEntry struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

type memoriesResponse struct {
	Data     []memoryEntry `json:"data"`
	Memories []memoryEntry `json:"memories"`
}

type assistantsResponse struct {
	Assistants []struct {
		AssistantID string `json:"assistant_id"`
		ID          string `json:"id"`
	} `json:"assistants"`
}

// Add appends a memory entry for this guest's stay.
func (c *Client) Add(ctx context.Context, guestID, roomNumber, content string) error {
	assistantID, err := c.resolveAssistantID(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(memoryEntry{
		Content: content,
		Metadata: map[string]string{
			"guest_id": guestID,
			"room_id":  roomNumber,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal memory entry: %w", err)
	}

	path := fmt.Sprintf("/assistants/%s/memories", assistantID)
	if _, err := c.do(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("failed to add memory: %w", err)
	}

	c.logger.Debug("Memory entry added",
		zap.String("guestID", guestID),
		zap.String("roomNumber", roomNumber))
	return nil
}

// ForGuest returns this guest's memories, newest first.
func (c *Client) ForGuest(ctx context.Context, guestID string) ([]string, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range all {
		if m.GuestID == guestID {
			out = append(out, m.Content)
		}
	}
	return out, nil
}

// ForRoom returns memories from all guests who stayed in the room.
func (c *Client) ForRoom(ctx context.Context, roomNumber string) ([]repositories.RoomMemory, error) {
	assistantID, err := c.resolveAssistantID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.fetchMemories(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	var out []repositories.RoomMemory
	for _, e := range entries {
		if e.Metadata["room_id"] == roomNumber && e.Content != "" {
			out = append(out, repositories.RoomMemory{
				GuestID: e.Metadata["guest_id"],
				Content: e.Content,
			})
		}
	}
	return out, nil
}

// All returns every memory entry with guest attribution.
func (c *Client) All(ctx context.Context) ([]repositories.RoomMemory, error) {
	assistantID, err := c.resolveAssistantID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.fetchMemories(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	var out []repositories.RoomMemory
	for _, e := range entries {
		if e.Metadata["guest_id"] != "" && e.Content != "" {
			out = append(out, repositories.RoomMemory{
				GuestID: e.Metadata["guest_id"],
				Content: e.Content,
			})
		}
	}
	return out, nil
}

func (c *Client) fetchMemories(ctx context.Context, assistantID string) ([]memoryEntry, error) {
	path := fmt.Sprintf("/assistants/%s/memories", assistantID)
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch memories: %w", err)
	}
	var resp memoriesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode memories response: %w", err)
	}
	if len(resp.Data) > 0 {
		return resp.Data, nil
	}
	return resp.Memories, nil
}

// resolveAssistantID returns the configured assistant, or looks up the
// account's first assistant, creating one when none exists. The whole
// resolve path holds assistantMu so concurrent callers that miss the
// cache cannot each create an assistant and split the memory feed.
func (c *Client) resolveAssistantID(ctx context.Context) (string, error) {
	c.assistantMu.Lock()
	defer c.assistantMu.Unlock()

	if c.assistantID != "" {
		return c.assistantID, nil
	}

	data, err := c.do(ctx, http.MethodGet, "/assistants", nil)
	if err == nil {
		var resp assistantsResponse
		if err := json.Unmarshal(data, &resp); err == nil && len(resp.Assistants) > 0 {
			id := resp.Assistants[0].AssistantID
			if id == "" {
				id = resp.Assistants[0].ID
			}
			if id != "" {
				c.assistantID = id
				return id, nil
			}
		}
	}

	body, _ := json.Marshal(map[string]string{"name": defaultAssistantName})
	data, err = c.do(ctx, http.MethodPost, "/assistants", body)
	if err != nil {
		return "", fmt.Errorf("failed to create assistant: %w", err)
	}
	var created struct {
		AssistantID string `json:"assistant_id"`
		ID          string `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to decode assistant response: %w", err)
	}
	id := created.AssistantID
	if id == "" {
		id = created.ID
	}
	if id == "" {
		return "", fmt.Errorf("assistant response missing id")
	}
	c.assistantID = id
	c.logger.Info("Created Backboard assistant", zap.String("assistantID", id))
	return id, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.apiBaseURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backboard API returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
