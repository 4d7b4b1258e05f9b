package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/travelnest-backend/internal/services"
)

type chanFeed struct {
	ch      chan services.AdminEvent
	unsubCh chan struct{}
}

func newChanFeed() *chanFeed {
	return &chanFeed{ch: make(chan services.AdminEvent, 4), unsubCh: make(chan struct{})}
}

func (f *chanFeed) Subscribe() (<-chan services.AdminEvent, func()) {
	var once sync.Once
	return f.ch, func() { once.Do(func() { close(f.unsubCh) }) }
}

func dialEvents(t *testing.T, h *Handler, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.AdminEvents))
	t.Cleanup(srv.Close)

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
}

func TestAdminEventsStream(t *testing.T) {
	h, _ := newTestHandler()
	feed := newChanFeed()
	h.Events = feed
	h.AllowedOrigins = []string{"https://admin.travelnest.in"}

	conn, _, err := dialEvents(t, h, "https://admin.travelnest.in")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var hello connectedEvent
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)

	feed.ch <- services.AdminEvent{Type: services.EventInquiryCreated, Reference: "TN-0000BEEF", Name: "Priya"}
	var ev services.AdminEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, services.EventInquiryCreated, ev.Type)
	assert.Equal(t, "TN-0000BEEF", ev.Reference)

	require.NoError(t, conn.Close())
	select {
	case <-feed.unsubCh:
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not unsubscribed after the client left")
	}
}

func TestAdminEventsRejectsForeignOrigin(t *testing.T) {
	h, _ := newTestHandler()
	h.Events = newChanFeed()
	h.AllowedOrigins = []string{"https://admin.travelnest.in"}

	_, resp, err := dialEvents(t, h, "https://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminEventsDisabled(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.AdminEvents(rec, httptest.NewRequest(http.MethodGet, "/api/admin/events", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Live updates are not enabled", decodeBody(t, rec)["error"])
}

func TestCheckOrigin(t *testing.T) {
	h, _ := newTestHandler()
	h.AllowedOrigins = []string{"https://admin.travelnest.in"}

	r := httptest.NewRequest(http.MethodGet, "/api/admin/events", nil)
	assert.True(t, h.checkOrigin(r), "non-browser clients send no origin")

	r.Header.Set("Origin", "HTTPS://ADMIN.TRAVELNEST.IN")
	assert.True(t, h.checkOrigin(r))

	r.Header.Set("Origin", "https://travelnest.in.evil.example")
	assert.False(t, h.checkOrigin(r))
}
