// Package client talks to the Echelon HTTP API on behalf of a signed-in user.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"echelon-backend/internal/models"
)

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d %s): %s", e.Status, e.Code, e.Message)
}

type Client struct {
	httpClient *resty.Client
}

// New returns a client for the API at baseURL that authenticates with token.
func New(baseURL, token string) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "echelon-cli/1.0").
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)
	if token != "" {
		httpClient.SetAuthToken(token)
	}
	return &Client{httpClient: httpClient}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.httpClient.R().SetContext(ctx)
}

// Send posts a message to the chat proxy. Error answers from the proxy come
// back as a response with Error set; only transport and decoding failures
// return an error.
func (c *Client) Send(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	httpResp, err := c.request(ctx).SetBody(req).Post("/api/v1/ai-chat")
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	var out models.ChatResponse
	if err := json.Unmarshal(httpResp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode chat response (%d): %w", httpResp.StatusCode(), err)
	}
	return &out, nil
}

// CurrentPrincipal returns the token's principal, or nil when the API
// rejects the token.
func (c *Client) CurrentPrincipal(ctx context.Context) (*models.Principal, error) {
	var p models.Principal
	httpResp, err := c.request(ctx).SetResult(&p).Get("/api/v1/me")
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	if httpResp.StatusCode() == http.StatusUnauthorized {
		return nil, nil
	}
	if httpResp.IsError() {
		return nil, apiError(httpResp)
	}
	return &p, nil
}

// ListByOwner lists the caller's conversations, newest first. The API scopes
// by the bearer token; ownerID is not sent.
func (c *Client) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Conversation, error) {
	var out struct {
		Conversations []*models.Conversation `json:"conversations"`
	}
	httpResp, err := c.request(ctx).SetResult(&out).Get("/api/v1/conversations")
	if err := check(httpResp, err, "list conversations"); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *Client) Create(ctx context.Context, conv *models.Conversation) error {
	httpResp, err := c.request(ctx).
		SetBody(models.CreateConversationRequest{Title: conv.Title}).
		SetResult(conv).
		Post("/api/v1/conversations")
	return check(httpResp, err, "create conversation")
}

func (c *Client) UpdateMessages(ctx context.Context, id, ownerID uuid.UUID, messages []models.Message) error {
	httpResp, err := c.request(ctx).
		SetPathParam("id", id.String()).
		SetBody(models.UpdateMessagesRequest{Messages: messages}).
		Put("/api/v1/conversations/{id}/messages")
	return check(httpResp, err, "update messages")
}

func (c *Client) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	httpResp, err := c.request(ctx).
		SetPathParam("id", id.String()).
		Delete("/api/v1/conversations/{id}")
	return check(httpResp, err, "delete conversation")
}

func (c *Client) ListTasks(ctx context.Context, filter, sortBy string) (*models.TaskList, error) {
	var out models.TaskList
	req := c.request(ctx).SetResult(&out)
	if filter != "" {
		req.SetQueryParam("filter", filter)
	}
	if sortBy != "" {
		req.SetQueryParam("sort", sortBy)
	}
	httpResp, err := req.Get("/api/v1/tasks")
	if err := check(httpResp, err, "list tasks"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, task models.TaskRequest) (*models.Task, error) {
	var out models.Task
	httpResp, err := c.request(ctx).SetBody(task).SetResult(&out).Post("/api/v1/tasks")
	if err := check(httpResp, err, "create task"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var out models.Task
	httpResp, err := c.request(ctx).
		SetPathParam("id", id.String()).
		SetResult(&out).
		Post("/api/v1/tasks/{id}/toggle")
	if err := check(httpResp, err, "toggle task"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	httpResp, err := c.request(ctx).
		SetPathParam("id", id.String()).
		Delete("/api/v1/tasks/{id}")
	return check(httpResp, err, "delete task")
}

func (c *Client) Analytics(ctx context.Context, rangeLabel string) (*models.Analytics, error) {
	var out models.Analytics
	req := c.request(ctx).SetResult(&out)
	if rangeLabel != "" {
		req.SetQueryParam("range", rangeLabel)
	}
	httpResp, err := req.Get("/api/v1/analytics")
	if err := check(httpResp, err, "analytics"); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(httpResp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	if httpResp.IsError() {
		return fmt.Errorf("%s: %w", op, apiError(httpResp))
	}
	return nil
}

func apiError(httpResp *resty.Response) *Error {
	out := &Error{Status: httpResp.StatusCode(), Message: strings.TrimSpace(httpResp.String())}
	var envelope models.ErrorResponse
	if err := json.Unmarshal(httpResp.Body(), &envelope); err == nil && envelope.Error.Message != "" {
		out.Code = envelope.Error.Code
		out.Message = envelope.Error.Message
	}
	return out
}
