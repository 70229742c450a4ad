package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echelon-backend/internal/assistant"
	"echelon-backend/internal/models"
)

var (
	_ assistant.ChatClient        = (*Client)(nil)
	_ assistant.ConversationStore = (*Client)(nil)
	_ assistant.Session           = (*Client)(nil)
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "tok")
}

func TestClient_SendSuccess(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ai-chat", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Message)
		assert.Len(t, req.ConversationHistory, 1)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"hi there"}`))
	})

	resp, err := c.Send(context.Background(), models.ChatRequest{
		Message:             "hello",
		ConversationHistory: []models.ChatMessage{{Role: models.RoleUser, Content: "hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Response)
}

func TestClient_SendStructuredErrorIsNotTransportError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Rate limit reached","code":"UPSTREAM_ERROR"}`))
	})

	resp, err := c.Send(context.Background(), models.ChatRequest{Message: "hello"})

	require.NoError(t, err)
	assert.Empty(t, resp.Response)
	assert.Equal(t, "Rate limit reached", resp.Error)
}

func TestClient_SendUndecodableBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := c.Send(context.Background(), models.ChatRequest{Message: "hello"})

	assert.Error(t, err)
}

func TestClient_SendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL, "").Send(context.Background(), models.ChatRequest{Message: "hello"})

	assert.Error(t, err)
}

func TestClient_CurrentPrincipal(t *testing.T) {
	id := uuid.New()
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Principal{ID: id, Email: "me@example.com"})
	})

	p, err := c.CurrentPrincipal(context.Background())

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, id, p.ID)
}

func TestClient_CurrentPrincipalUnauthorized(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid token"}}`))
	})

	p, err := c.CurrentPrincipal(context.Background())

	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestClient_ConversationRoundTrip(t *testing.T) {
	convID := uuid.New()
	var updated models.UpdateMessagesRequest
	deleted := false

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/conversations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"conversations":[{"id":"` + convID.String() + `","title":"t","messages":[]}]}`))
		case http.MethodPost:
			var req models.CreateConversationRequest
			json.NewDecoder(r.Body).Decode(&req)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.Conversation{ID: convID, Title: req.Title, Messages: []models.Message{}})
		}
	})
	mux.HandleFunc("/api/v1/conversations/"+convID.String()+"/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		json.NewDecoder(r.Body).Decode(&updated)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/v1/conversations/"+convID.String(), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = true
		w.Write([]byte(`{}`))
	})
	c := newServer(t, mux.ServeHTTP)
	ctx := context.Background()

	list, err := c.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, convID, list[0].ID)

	conv := &models.Conversation{Title: "Conversation 1/2/2024"}
	require.NoError(t, c.Create(ctx, conv))
	assert.Equal(t, convID, conv.ID)

	msgs := []models.Message{{ID: "1", Role: models.RoleUser, Content: "hi", Timestamp: "2024-01-02T00:00:00Z"}}
	require.NoError(t, c.UpdateMessages(ctx, convID, uuid.New(), msgs))
	assert.Equal(t, msgs, updated.Messages)

	require.NoError(t, c.Delete(ctx, convID, uuid.New()))
	assert.True(t, deleted)
}

func TestClient_APIErrorEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":"CONFIGURATION_ERROR","message":"store is not configured"}}`))
	})

	_, err := c.ListTasks(context.Background(), "pending", "priority")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "CONFIGURATION_ERROR", apiErr.Code)
	assert.Equal(t, "store is not configured", apiErr.Message)
}

func TestClient_TasksAndAnalytics(t *testing.T) {
	taskID := uuid.New()
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/v1/tasks" && r.Method == http.MethodGet:
			assert.Equal(t, "completed", r.URL.Query().Get("filter"))
			w.Write([]byte(`{"tasks":[],"completed_count":2,"pending_count":5}`))
		case r.URL.Path == "/api/v1/tasks" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"` + taskID.String() + `","title":"Write","status":"pending"}`))
		case r.URL.Path == "/api/v1/tasks/"+taskID.String()+"/toggle":
			w.Write([]byte(`{"id":"` + taskID.String() + `","status":"completed"}`))
		case r.URL.Path == "/api/v1/tasks/"+taskID.String() && r.Method == http.MethodDelete:
			w.Write([]byte(`{"message":"Task deleted"}`))
		case r.URL.Path == "/api/v1/analytics":
			assert.Equal(t, "30d", r.URL.Query().Get("range"))
			w.Write([]byte(`{"range":"30d","tasks_created":7,"completion_rate":0.5}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	list, err := c.ListTasks(ctx, "completed", "")
	require.NoError(t, err)
	assert.Equal(t, 5, list.PendingCount)

	task, err := c.CreateTask(ctx, models.TaskRequest{Title: "Write"})
	require.NoError(t, err)
	assert.Equal(t, taskID, task.ID)

	task, err = c.ToggleTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)

	require.NoError(t, c.DeleteTask(ctx, taskID))

	a, err := c.Analytics(ctx, "30d")
	require.NoError(t, err)
	assert.Equal(t, 7, a.TasksCreated)
}
