package facility

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/models"
)

var ErrUnexpectedStatus = errors.New("unexpected facility response status")

// SessionReport summarises a finished session for the facility.
type SessionReport struct {
	SessionID     string           `json:"session_id"`
	RoomType      string           `json:"room_type"`
	Rule          int              `json:"rule"`
	Level         int              `json:"level"`
	Score         int              `json:"score"`
	Reason        string           `json:"reason"`
	Players       []*models.Player `json:"players"`
	Team          *models.Team     `json:"team,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	EndedAt       time.Time        `json:"ended_at"`
	Events        []models.Event   `json:"events"`
	BookRoomUntil *time.Time       `json:"book_room_until,omitempty"`
}

// Client talks to the facility service. Calls are best effort; callers log
// failures and carry on.
type Client interface {
	ReportSession(ctx context.Context, report SessionReport) error
	UpcomingSession(ctx context.Context) (bool, error)
	NotifyAvailable(ctx context.Context) error
}

// HTTPClient is the facility REST API for one game room.
type HTTPClient struct {
	base   string
	roomID string
	http   *http.Client
}

func NewHTTPClient(baseURL, roomID string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		base:   strings.TrimRight(baseURL, "/"),
		roomID: roomID,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) endpoint(name string) string {
	return fmt.Sprintf("%s/api/game-room/%s/%s", c.base, url.PathEscape(c.roomID), name)
}

func (c *HTTPClient) do(ctx context.Context, method, name string, body any, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(name), payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("facility %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, name, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("facility %s: decode: %w", name, err)
		}
	}
	return nil
}

func (c *HTTPClient) ReportSession(ctx context.Context, report SessionReport) error {
	return c.do(ctx, http.MethodPost, "session-report", report, nil)
}

// UpcomingSession asks whether another session is booked right after the
// current one.
func (c *HTTPClient) UpcomingSession(ctx context.Context) (bool, error) {
	var out struct {
		Upcoming bool `json:"upcoming"`
	}
	if err := c.do(ctx, http.MethodGet, "upcoming-session", nil, &out); err != nil {
		return false, err
	}
	return out.Upcoming, nil
}

func (c *HTTPClient) NotifyAvailable(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "available", map[string]string{"status": "available"}, nil)
}

// Nop is used when no facility is configured.
type Nop struct{}

func (Nop) ReportSession(context.Context, SessionReport) error { return nil }
func (Nop) UpcomingSession(context.Context) (bool, error)      { return false, nil }
func (Nop) NotifyAvailable(context.Context) error              { return nil }

// New returns the HTTP client, or Nop when baseURL is empty.
func New(baseURL, roomID string, timeout time.Duration) Client {
	if baseURL == "" {
		return Nop{}
	}
	return NewHTTPClient(baseURL, roomID, timeout)
}
