package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vBaggio/qronis/internal/events"
	"github.com/vBaggio/qronis/internal/models"
)

// ErrNoContent is returned when the backend answers 204, e.g. when no time
// entry is currently running.
var ErrNoContent = errors.New("no content")

// APIError carries the backend's structured error payload.
type APIError struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// Client handles HTTP communication with the Qronis backend. Every
// authenticated request carries the bearer token supplied by tokenSource;
// a 401 on any of them is broadcast on the expired bus so the session
// store can tear itself down without the transport knowing about it.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource func() string
	expired     *events.Bus
}

func NewClient(baseURL string, tokenSource func() string, expired *events.Bus) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokenSource: tokenSource,
		expired:     expired,
	}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
}

// ProjectQuery narrows and pages the project listing.
type ProjectQuery struct {
	Page int
	Size int
	Sort string
	Name string
}

// EntryPatch updates selected fields of a time entry. Nil fields are left
// untouched by the backend.
type EntryPatch struct {
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	ProjectID   *uuid.UUID `json:"projectId,omitempty"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login response did not include a token")
	}
	return resp.Token, nil
}

// Register creates an account plus tenant and returns a bearer token.
func (c *Client) Register(ctx context.Context, input RegisterInput) (string, error) {
	var resp authResponse
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/register", input, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("register response did not include a token")
	}
	return resp.Token, nil
}

// Me fetches the profile behind the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListProjects returns one page of the tenant's projects.
func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) (*models.Page[models.Project], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}
	if q.Sort != "" {
		query.Set("sort", q.Sort)
	}
	if q.Name != "" {
		query.Set("name", q.Name)
	}

	var page models.Page[models.Project]
	if err := c.do(ctx, http.MethodGet, "/api/projects", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+id.String(), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var project models.Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/api/projects", nil, body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) RenameProject(ctx context.Context, id uuid.UUID, name string) (*models.Project, error) {
	var project models.Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id.String(), nil, body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+id.String(), nil, nil, nil)
}

// ActiveEntry returns the running time entry, or nil when none is active.
func (c *Client) ActiveEntry(ctx context.Context) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := c.do(ctx, http.MethodGet, "/api/time-entries/active", nil, nil, &entry)
	if errors.Is(err, ErrNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// StartEntry starts tracking against a project. The server assigns the
// authoritative start timestamp.
func (c *Client) StartEntry(ctx context.Context, projectID uuid.UUID, description string) (*models.TimeEntry, error) {
	body := map[string]string{
		"projectId":   projectID.String(),
		"description": description,
	}
	var entry models.TimeEntry
	if err := c.do(ctx, http.MethodPost, "/api/time-entries/start", nil, body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// StopEntry stops whatever entry is active server-side.
func (c *Client) StopEntry(ctx context.Context) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := c.do(ctx, http.MethodPut, "/api/time-entries/stop", nil, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns the user's time-entry history, newest first.
func (c *Client) ListEntries(ctx context.Context) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	if err := c.do(ctx, http.MethodGet, "/api/time-entries", nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) PatchEntry(ctx context.Context, id uuid.UUID, patch EntryPatch) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := c.do(ctx, http.MethodPatch, "/api/time-entries/"+id.String(), nil, patch, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/time-entries/"+id.String(), nil, nil, nil)
}

// do performs an authenticated request. A 401 response publishes the
// session-expired signal before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.send(ctx, method, path, query, body, out, true)
}

// doPublic performs an unauthenticated request (login/register). A 401
// here means bad credentials, not an expired session, so no signal is
// raised.
func (c *Client) doPublic(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, path, nil, body, out, false)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		// Plain success for calls expecting no body (deletes); a signal
		// for calls that distinguish "nothing there" (active entry).
		if out == nil {
			return nil
		}
		return ErrNoContent
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		c.expired.Publish()
	}

	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		// Best effort; keep the status-based message on malformed bodies.
		json.Unmarshal(data, apiErr)
		apiErr.Status = resp.StatusCode
	}
	return apiErr
}
