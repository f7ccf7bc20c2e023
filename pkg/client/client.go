// Package client is a Go client for the RuangPena API. It keeps the bearer
// token in a SessionStore so a session survives between processes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotLoggedIn is returned by authenticated calls without a session.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ruangpena: %d %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client calls the API on behalf of the session held in its store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
// A nil store keeps the session in a file at DefaultSessionPath.
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	if store == nil {
		store = defaultSessionStore()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the stored session, or nil when logged out.
func (c *Client) Session() (*Session, error) {
	return c.store.Load()
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	return c.authenticate(ctx, "/api/auth/register", in)
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*User, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, path, "", body, &session); err != nil {
		return nil, err
	}
	if err := c.store.Save(&session); err != nil {
		return nil, err
	}
	return session.User, nil
}

// Logout forgets the session. Tokens are not revoked server side.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// ForgotPassword asks for a verification code to be sent to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password using a verification code.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"email":           email,
		"code":            code,
		"newPassword":     newPassword,
		"confirmPassword": newPassword,
	}, nil)
}

// Me fetches the logged in account and refreshes the stored copy.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.authed(ctx, http.MethodGet, "/api/user/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, c.updateStoredUser(&user)
}

// UpdateProfile changes the display name.
func (c *Client) UpdateProfile(ctx context.Context, name string) (*User, error) {
	var user User
	if err := c.authed(ctx, http.MethodPut, "/api/user/profile", map[string]string{"name": name}, &user); err != nil {
		return nil, err
	}
	return &user, c.updateStoredUser(&user)
}

// ChangePassword replaces the password of the logged in account.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.authed(ctx, http.MethodPut, "/api/user/change-password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	}, nil)
}

// DeleteAccount removes the account and clears the session.
func (c *Client) DeleteAccount(ctx context.Context, password string) error {
	if err := c.authed(ctx, http.MethodDelete, "/api/user/delete", map[string]string{"password": password}, nil); err != nil {
		return err
	}
	return c.store.Clear()
}

// ListJournals returns the caller's journals.
func (c *Client) ListJournals(ctx context.Context, opts ListOptions) ([]Journal, error) {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	path := "/api/journal"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var journals []Journal
	if err := c.authed(ctx, http.MethodGet, path, nil, &journals); err != nil {
		return nil, err
	}
	return journals, nil
}

// Stats returns journal counts per type.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.authed(ctx, http.MethodGet, "/api/journal/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetJournal fetches one journal.
func (c *Client) GetJournal(ctx context.Context, id string) (*Journal, error) {
	var journal Journal
	if err := c.authed(ctx, http.MethodGet, "/api/journal/"+url.PathEscape(id), nil, &journal); err != nil {
		return nil, err
	}
	return &journal, nil
}

// CreateJournal stores a new journal.
func (c *Client) CreateJournal(ctx context.Context, in NewJournal) (*Journal, error) {
	var journal Journal
	if err := c.authed(ctx, http.MethodPost, "/api/journal", in, &journal); err != nil {
		return nil, err
	}
	return &journal, nil
}

// UpdateJournal applies changes to a journal.
func (c *Client) UpdateJournal(ctx context.Context, id string, changes JournalChanges) (*Journal, error) {
	var journal Journal
	if err := c.authed(ctx, http.MethodPut, "/api/journal/"+url.PathEscape(id), changes, &journal); err != nil {
		return nil, err
	}
	return &journal, nil
}

// DeleteJournal removes a journal.
func (c *Client) DeleteJournal(ctx context.Context, id string) error {
	return c.authed(ctx, http.MethodDelete, "/api/journal/"+url.PathEscape(id), nil, nil)
}

func (c *Client) updateStoredUser(user *User) error {
	session, err := c.store.Load()
	if err != nil || session == nil {
		return err
	}
	session.User = user
	return c.store.Save(session)
}

// authed sends the stored token. A 401 means the session is no longer
// usable, so it is cleared.
func (c *Client) authed(ctx context.Context, method, path string, body, out interface{}) error {
	session, err := c.store.Load()
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotLoggedIn
	}

	err = c.do(ctx, method, path, session.Token, body, out)
	if StatusCode(err) == http.StatusUnauthorized {
		if clearErr := c.store.Clear(); clearErr != nil {
			return errors.Join(err, clearErr)
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
