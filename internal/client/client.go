package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookwatch/internal/books"
	"bookwatch/internal/logging"
	"bookwatch/internal/services"
	"bookwatch/internal/status"
)

const userAgent = "Bookwatch-Go/0.1.0"

// Client provides access to the collaborator API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets the logger used for response warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "client") }
}

// New creates an API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "client", "new", "api base url required", nil)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// MonitoredBooks is the monitored-entity book list.
type MonitoredBooks struct {
	Books         []books.Row `json:"books"`
	LastCheckedAt string      `json:"last_checked_at"`
}

// SearchBooks queries the metadata catalog.
func (c *Client) SearchBooks(ctx context.Context, query string) ([]books.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "client", "search books", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	var payload struct {
		Books []books.Record `json:"books"`
	}
	if err := c.do(ctx, "search books", http.MethodGet, "/api/search", params, nil, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Books {
		payload.Books[i].SynthesizeID()
	}
	return payload.Books, nil
}

// SearchReleases lists release candidates for a provider book.
func (c *Client) SearchReleases(ctx context.Context, provider, bookID string, contentType books.ContentType, languages []string) ([]books.Release, error) {
	params := url.Values{}
	params.Set("provider", provider)
	params.Set("book_id", bookID)
	params.Set("content_type", string(contentType))
	if len(languages) > 0 {
		params.Set("languages", strings.Join(languages, ","))
	}
	var payload struct {
		Releases []books.Release `json:"releases"`
	}
	if err := c.do(ctx, "search releases", http.MethodGet, "/api/releases", params, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Releases, nil
}

// QueueDownload starts a download. The server records the queued attempt itself.
func (c *Client) QueueDownload(ctx context.Context, book books.Record, release books.Release, contentType books.ContentType, entityID string) error {
	body := map[string]any{
		"book":         book,
		"release":      release,
		"content_type": contentType,
	}
	if entityID != "" {
		body["monitored_entity_id"] = entityID
	}
	return c.do(ctx, "queue download", http.MethodPost, "/api/releases/download", nil, body, nil)
}

// RecordAttempt appends to the attempt history of an entity, or to the global
// history when the attempt carries no entity.
func (c *Client) RecordAttempt(ctx context.Context, attempt books.Attempt) error {
	path := "/api/attempts"
	if attempt.EntityID != "" {
		path = "/api/monitored/" + url.PathEscape(attempt.EntityID) + "/attempts"
	}
	body := map[string]any{
		"provider":     attempt.Provider,
		"book_id":      attempt.BookID,
		"content_type": attempt.ContentType,
		"status":       attempt.Status,
	}
	if len(attempt.Extra) > 0 {
		body["extra"] = attempt.Extra
	}
	return c.do(ctx, "record attempt", http.MethodPost, path, nil, body, nil)
}

// ScanFiles triggers a filesystem scan for an entity and returns the matches.
func (c *Client) ScanFiles(ctx context.Context, entityID string) ([]books.MatchedFile, error) {
	var payload struct {
		Files []books.MatchedFile `json:"files"`
	}
	path := "/api/monitored/" + url.PathEscape(entityID) + "/files/scan"
	if err := c.do(ctx, "scan files", http.MethodPost, path, nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Files, nil
}

// ListMonitoredBooks returns the books tracked for an entity.
func (c *Client) ListMonitoredBooks(ctx context.Context, entityID string) (MonitoredBooks, error) {
	var payload MonitoredBooks
	path := "/api/monitored/" + url.PathEscape(entityID) + "/books"
	if err := c.do(ctx, "list monitored books", http.MethodGet, path, nil, nil, &payload); err != nil {
		return MonitoredBooks{}, err
	}
	return payload, nil
}

// PollStatus fetches the bucketed download status snapshot. Malformed entries
// are dropped with a warning so one bad record does not hide the rest.
func (c *Client) PollStatus(ctx context.Context) (status.Snapshot, error) {
	var payload json.RawMessage
	if err := c.do(ctx, "poll status", http.MethodGet, "/api/status", nil, nil, &payload); err != nil {
		return nil, err
	}
	snapshot, skipped, err := status.DecodeSnapshot(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "client", "poll status", "decode response", err)
	}
	if len(skipped) > 0 {
		logging.WarnWithContext(c.logger, "skipped malformed status entries", "status_entries_skipped",
			logging.Int("skipped_count", len(skipped)),
			logging.String("skipped", strings.Join(skipped, ",")),
			logging.String(logging.FieldErrorHint, "inspect the collaborator /api/status payload"),
			logging.String(logging.FieldImpact, "skipped downloads are not correlated this poll"),
		)
	}
	return snapshot, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, params url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "client", operation, "encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return services.Wrap(services.ErrValidation, "client", operation, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.ErrTransport
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "client", operation, fmt.Sprintf("latency=%v", latency.Round(time.Millisecond)), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		marker := services.ErrTransport
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		message := fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)
		if text := strings.TrimSpace(string(snippet)); text != "" {
			message += ": " + text
		}
		return services.Wrap(marker, "client", operation, message, nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransport, "client", operation, "decode response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
