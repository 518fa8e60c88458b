package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"datalens/domain/core"
	"datalens/domain/notify"
	"datalens/internal"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func receive(t *testing.T, ch <-chan notify.Notification) notify.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
		return notify.Notification{}
	}
}

func TestSSEHubDeliversPerSession(t *testing.T) {
	hub := NewSSEHub(internal.NewNopLogger())
	defer hub.Close()

	mine, unsubscribeMine := hub.Subscribe("s1")
	defer unsubscribeMine()
	other, unsubscribeOther := hub.Subscribe("s2")
	defer unsubscribeOther()

	hub.Notify(context.Background(), notify.Notification{
		SessionID: "s1",
		Level:     notify.LevelSuccess,
		Title:     "Upload complete",
		Message:   "Successfully uploaded a.csv",
	})

	got := receive(t, mine)
	assert.Equal(t, "Successfully uploaded a.csv", got.Message)
	assert.False(t, got.At.IsZero())

	select {
	case n := <-other:
		t.Fatalf("unexpected notification for other session: %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHubUnsubscribe(t *testing.T) {
	hub := NewSSEHub(internal.NewNopLogger())
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe("s1")
	assert.Equal(t, 1, hub.GetClientCount("s1"))
	assert.Equal(t, []core.SessionID{"s1"}, hub.GetActiveSessions())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.GetClientCount("s1"))
	assert.Empty(t, hub.GetActiveSessions())

	_, open := <-ch
	assert.False(t, open)
}

func TestHandleSSERequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewSSEHub(internal.NewNopLogger())
	defer hub.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)

	hub.HandleSSE(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSSEStopsOnClose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewSSEHub(internal.NewNopLogger())

	router := gin.New()
	router.GET("/sessions/:id/events", hub.HandleSSE)

	w := &closeNotifyingRecorder{httptest.NewRecorder(), make(chan bool, 1)}
	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/events", nil)

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.GetClientCount("s1") == 1 }, time.Second, 5*time.Millisecond)
	hub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after Close")
	}
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, 0, hub.GetClientCount("s1"))
}

func TestFanoutNotifier(t *testing.T) {
	hub := NewSSEHub(internal.NewNopLogger())
	defer hub.Close()
	ch, unsubscribe := hub.Subscribe("s1")
	defer unsubscribe()

	fanout := FanoutNotifier{NewLogNotifier(internal.NewNopLogger()), nil, hub}
	fanout.Notify(context.Background(), notify.Notification{SessionID: "s1", Level: notify.LevelError, Title: "Upload failed"})

	assert.Equal(t, "Upload failed", receive(t, ch).Title)
}
