package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echelon-backend/internal/middleware"
	"echelon-backend/internal/models"
)

type fakeAuth struct {
	tokens map[string]uuid.UUID
}

func (a fakeAuth) ParsePrincipal(token string) (*models.Principal, error) {
	id, ok := a.tokens[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &models.Principal{ID: id}, nil
}

type fakeFeed struct {
	mu       sync.Mutex
	channels map[string]chan string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{channels: map[string]chan string{}}
}

func (f *fakeFeed) Listen(ctx context.Context, channel string) <-chan string {
	out := make(chan string)
	f.mu.Lock()
	f.channels[channel] = out
	f.mu.Unlock()
	return out
}

func (f *fakeFeed) publish(t *testing.T, channel, payload string) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		_, ok := f.channels[channel]
		return ok
	}, time.Second, 10*time.Millisecond)

	f.mu.Lock()
	ch := f.channels[channel]
	f.mu.Unlock()
	ch <- payload
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func TestHub_RejectsMissingOrBadToken(t *testing.T) {
	hub := NewHub(newFakeFeed(), fakeAuth{tokens: map[string]uuid.UUID{}})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	for _, token := range []string{"", "forged"} {
		_, resp, err := gws.DefaultDialer.Dial(wsURL(srv, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestHub_ForwardsUserEvents(t *testing.T) {
	userID := uuid.New()
	feed := newFakeFeed()
	hub := NewHub(feed, fakeAuth{tokens: map[string]uuid.UUID{"good": userID}})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(userID) == 1 }, time.Second, 10*time.Millisecond)

	feed.publish(t, models.UserUpdatesChannel(userID), `{"type":"conversation_updated"}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"conversation_updated"}`, string(data))
}

func TestHub_UnregistersOnClose(t *testing.T) {
	userID := uuid.New()
	hub := NewHub(newFakeFeed(), fakeAuth{tokens: map[string]uuid.UUID{"good": userID}})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Connections(userID) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connections(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_UnconfiguredAuthRejectsEmptyKeyToken(t *testing.T) {
	victim := uuid.New()
	hub := NewHub(newFakeFeed(), middleware.NewJWTAuth(""))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": victim.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(""))
	require.NoError(t, err)

	_, resp, err := gws.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, hub.Connections(victim))
}
