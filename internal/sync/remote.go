package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/example/tmtvocab/pkg/models"
)

// HTTPRemoteStore talks to the cloud progress endpoint. The remote keeps
// one snapshot per user; write granularity is the whole snapshot.
type HTTPRemoteStore struct {
	baseURL string
	token   string
	client  *http.Client
}

// snapshotPayload is the wire shape of a stored snapshot
type snapshotPayload struct {
	UserID    string                     `json:"user_id"`
	Progress  map[string]models.Progress `json:"progress_data"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// NewHTTPRemoteStore builds a client from SYNC_ENDPOINT and SYNC_TOKEN.
// Returns an error when the endpoint is not configured, in which case the
// caller runs local-only.
func NewHTTPRemoteStore() (*HTTPRemoteStore, error) {
	baseURL := os.Getenv("SYNC_ENDPOINT")
	if baseURL == "" {
		return nil, fmt.Errorf("SYNC_ENDPOINT environment variable is not set")
	}

	return &HTTPRemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   os.Getenv("SYNC_TOKEN"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Pull fetches the user's snapshot. A 404 means no remote record exists
// yet and is not an error.
func (s *HTTPRemoteStore) Pull(ctx context.Context, userID string) (map[string]models.Progress, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.progressURL(userID), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %v", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to pull progress: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("remote store returned status %d", resp.StatusCode)
	}

	var payload snapshotPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("failed to decode remote snapshot: %v", err)
	}
	if payload.Progress == nil {
		return nil, false, nil
	}

	// Strict-schema boundary: clamp every inbound record before anyone
	// merges it.
	now := time.Now()
	for id, p := range payload.Progress {
		p.Normalize(id, now)
		payload.Progress[id] = p
	}

	return payload.Progress, true, nil
}

// Push upserts the user's full snapshot
func (s *HTTPRemoteStore) Push(ctx context.Context, userID string, snapshot map[string]models.Progress) error {
	payload := snapshotPayload{
		UserID:    userID,
		Progress:  snapshot,
		UpdatedAt: time.Now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.progressURL(userID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push progress: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("remote store returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *HTTPRemoteStore) progressURL(userID string) string {
	return s.baseURL + "/progress/" + userID
}

func (s *HTTPRemoteStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
