package board

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"kanban-todo/domain"
)

const sessionCookie = "auth-token"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the domain error taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status == http.StatusBadRequest:
		return domain.ErrValidation
	case e.Status == http.StatusUnauthorized, e.Status >= 300 && e.Status < 400:
		return domain.ErrUnauthorized
	case e.Status >= 500:
		return domain.ErrStorage
	}
	return nil
}

// Client talks to the task API over HTTP and implements TaskService.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a client that never follows the login redirect, so an
// expired session surfaces as ErrUnauthorized.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.Token})
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, decodeAPIError(resp.StatusCode, data)
	}
	if out != nil {
		if err := sonic.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

func decodeAPIError(status int, data []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if err := sonic.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}

// List fetches every task in creation order.
func (c *Client) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if _, err := c.do(ctx, http.MethodGet, "/api/todos", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create adds a task.
func (c *Client) Create(ctx context.Context, content string, status domain.Status) (domain.Task, error) {
	req := struct {
		Content string        `json:"content"`
		Status  domain.Status `json:"status,omitempty"`
	}{content, status}
	var created domain.Task
	_, err := c.do(ctx, http.MethodPost, "/api/todos", req, &created)
	return created, err
}

// Update applies patch to the task with the given id.
func (c *Client) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	var updated domain.Task
	_, err := c.do(ctx, http.MethodPut, "/api/todos/"+url.PathEscape(id), patch, &updated)
	return updated, err
}

// Delete removes the task with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, nil)
	return err
}

// Login exchanges credentials for a session token and keeps it on the
// client. With authentication disabled the token is empty.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	creds := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/login", creds, nil)
	if err != nil {
		return "", err
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie {
			c.Token = ck.Value
			return ck.Value, nil
		}
	}
	return "", nil
}
