package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/cache"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/config"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

func testNotification() *models.Notification {
	lat, lng := 13.76, 100.51
	return &models.Notification{
		EventID:       "evt-1",
		DependentID:   42,
		DependentName: "Somchai J.",
		Kind:          models.AlertZone2SOS,
		Title:         "Outside safe zone!",
		Text:          "Somchai J. has left the safe zone (600 m).",
		Value:         "600 m",
		LineID:        "line-abc",
		Phone:         "0812345678",
		Latitude:      &lat,
		Longitude:     &lng,
		CreatedAt:     time.Now(),
	}
}

// ============================================
// LINE 通道
// ============================================

func TestLineDispatcher_Send(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewLineDispatcher(&config.LineConfig{
		Endpoint:    srv.URL,
		AccessToken: "test-token",
	}, zap.NewNop())

	require.NoError(t, d.Send(context.Background(), testNotification()))

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "line-abc", gotBody["to"])

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "flex", msg["type"])
	assert.Equal(t, "Outside safe zone!", msg["altText"])

	// 紧急告警带地图按钮
	bubble := msg["contents"].(map[string]any)
	require.Contains(t, bubble, "footer")
}

func TestLineDispatcher_RecoveryHasNoFooter(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewLineDispatcher(&config.LineConfig{Endpoint: srv.URL, AccessToken: "t"}, zap.NewNop())

	n := testNotification()
	n.Kind = models.AlertBackSafe
	n.Title = "Back in safe zone"
	require.NoError(t, d.Send(context.Background(), n))

	msg := gotBody["messages"].([]any)[0].(map[string]any)
	bubble := msg["contents"].(map[string]any)
	assert.NotContains(t, bubble, "footer")
}

func TestLineDispatcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewLineDispatcher(&config.LineConfig{Endpoint: srv.URL, AccessToken: "t"}, zap.NewNop())

	err := d.Send(context.Background(), testNotification())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

// 没有 LINE 目标：静默跳过
func TestLineDispatcher_NoTarget(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	d := NewLineDispatcher(&config.LineConfig{Endpoint: srv.URL, AccessToken: "t"}, zap.NewNop())

	n := testNotification()
	n.LineID = ""
	require.NoError(t, d.Send(context.Background(), n))
	assert.False(t, called)
}

// ============================================
// 消费者
// ============================================

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (d *recordingDispatcher) Name() string { return "recording" }

func (d *recordingDispatcher) Send(_ context.Context, n *models.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, *n)
	return d.err
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func TestStreamConsumer_DeliversAndAcks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	queue := cache.NewNotifyQueue(client, "smartwatch:notifications", "dispatchers", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, queue.EnsureGroup(ctx))
	require.NoError(t, queue.Publish(ctx, testNotification()))

	d := &recordingDispatcher{}
	consumer := NewStreamConsumer(queue, []Dispatcher{d}, "consumer-1", time.Second, zap.NewNop())

	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return d.count() == 1 }, 3*time.Second, 10*time.Millisecond)

	d.mu.Lock()
	assert.Equal(t, "evt-1", d.sent[0].EventID)
	assert.Equal(t, models.AlertZone2SOS, d.sent[0].Kind)
	d.mu.Unlock()

	cancel()
	<-done

	// 已确认：同一消费者不再收到
	msgs, err := queue.Read(context.Background(), "consumer-1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// 某个通道失败：其它通道照发，消息仍然确认
func TestStreamConsumer_FailureStillAcks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	queue := cache.NewNotifyQueue(client, "smartwatch:notifications", "dispatchers", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, queue.EnsureGroup(ctx))
	require.NoError(t, queue.Publish(ctx, testNotification()))

	failing := &recordingDispatcher{err: assert.AnError}
	healthy := &recordingDispatcher{}
	consumer := NewStreamConsumer(queue, []Dispatcher{failing, healthy}, "consumer-1", time.Second, zap.NewNop())

	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return healthy.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	msgs, err := queue.Read(context.Background(), "consumer-1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
