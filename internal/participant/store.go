package participant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cargo-console/internal/bay"
	"cargo-console/internal/shipbay"
)

// Store is the remote home of a participant's arena.
type Store interface {
	Load(ctx context.Context, roomID, userID int) (bay.Arena, error)
	Save(ctx context.Context, roomID, userID int, arena bay.Arena) error
}

// StatusError is a non-2xx answer from the console API.
type StatusError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("console API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("console API returned %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// HTTPStore talks to the ship bay REST endpoints with a bearer token.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPStore(baseURL, token string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (s *HTTPStore) Load(ctx context.Context, roomID, userID int) (bay.Arena, error) {
	endpoint := s.baseURL + "/api/ship-bays/" + url.PathEscape(strconv.Itoa(roomID)) + "/" + url.PathEscape(strconv.Itoa(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var record shipbay.Record
	if err := s.do(req, &record); err != nil {
		return nil, fmt.Errorf("failed to load ship bays: %w", err)
	}

	arena, err := bay.DecodeArena(record.Arena)
	if err != nil {
		return nil, fmt.Errorf("failed to load ship bays: %w", err)
	}
	return arena, nil
}

func (s *HTTPStore) Save(ctx context.Context, roomID, userID int, arena bay.Arena) error {
	encoded, err := arena.Encode()
	if err != nil {
		return err
	}

	body, err := json.Marshal(shipbay.SaveRequest{Arena: encoded, UserID: userID, RoomID: roomID})
	if err != nil {
		return fmt.Errorf("failed to encode save request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/ship-bays", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := s.do(req, nil); err != nil {
		return fmt.Errorf("failed to save ship bays: %w", err)
	}
	return nil
}

func (s *HTTPStore) do(req *http.Request, out any) error {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body) == nil {
			statusErr.Type = body.Error
			statusErr.Message = body.Message
		}
		return statusErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
