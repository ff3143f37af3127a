package firehose

import (
	"Commonfeed/internal/api/config"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type memCursorRepo struct {
	mu     sync.Mutex
	cursor int64
	saves  int
}

func (m *memCursorRepo) GetCursor(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, nil
}

func (m *memCursorRepo) SaveCursor(_ context.Context, cursor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = cursor
	m.saves++
	return nil
}

func (m *memCursorRepo) saved() (int64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, m.saves
}

func TestBuildURL(t *testing.T) {
	wsURL, err := buildURL("wss://jetstream1.us-east.bsky.network/subscribe", 0)
	require.NoError(t, err)

	u, err := url.Parse(wsURL)
	require.NoError(t, err)
	q := u.Query()
	require.ElementsMatch(t, wantedCollections, q["wantedCollections"])

	// 没有已保存的游标时不带 cursor 参数
	require.False(t, q.Has("cursor"))

	wsURL, err = buildURL("wss://jetstream1.us-east.bsky.network/subscribe", 1725000000000000)
	require.NoError(t, err)
	u, err = url.Parse(wsURL)
	require.NoError(t, err)
	require.Equal(t, "1725000000000000", u.Query().Get("cursor"))
}

func TestConnStateString(t *testing.T) {
	require.Equal(t, "disconnected", StateDisconnected.String())
	require.Equal(t, "connecting", StateConnecting.String())
	require.Equal(t, "connected", StateConnected.String())
	require.Equal(t, "reconnecting", StateReconnecting.String())
}

func newTestSubscriber(cursorRepo *memCursorRepo, saveEvery int64) *Subscriber {
	gate := NewGate(2, 10, time.Hour)
	handler := NewEventHandler(newMemPostRepo(), newMemInteractionRepo(), newMemFollowRepo(), newMemEngagementRepo())
	return NewSubscriber(config.FirehoseConfig{
		Endpoint:        "wss://example.invalid/subscribe",
		CursorSaveEvery: saveEvery,
	}, handler, cursorRepo, gate)
}

func TestCursorSaveCadence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cursorRepo := &memCursorRepo{}
	sub := newTestSubscriber(cursorRepo, 3)
	go sub.cursorSaver(ctx)

	// 前两条不触发持久化
	sub.tracker.Begin(100)
	sub.afterProcessed(100)
	sub.tracker.Begin(200)
	sub.afterProcessed(200)
	time.Sleep(20 * time.Millisecond)
	_, saves := cursorRepo.saved()
	require.Equal(t, 0, saves)

	// 第三条到达阈值
	sub.tracker.Begin(300)
	sub.afterProcessed(300)
	require.Eventually(t, func() bool {
		cursor, saves := cursorRepo.saved()
		return saves == 1 && cursor == 300
	}, time.Second, time.Millisecond)
}

func TestCursorTrackerLowWater(t *testing.T) {
	var tracker cursorTracker

	// 尚未完成任何事件：低水位为零
	tracker.Begin(1000)
	tracker.Begin(2000)
	tracker.Begin(3000)
	require.Equal(t, int64(0), tracker.LowWater())

	// 乱序完成：3000 先完成，但 2000 还在途，水位只到 1000
	tracker.Complete(1000)
	require.Equal(t, int64(1000), tracker.LowWater())
	tracker.Complete(3000)
	require.Equal(t, int64(1000), tracker.LowWater())

	// 2000 完成后前缀连续，水位直接推到 3000
	tracker.Complete(2000)
	require.Equal(t, int64(3000), tracker.LowWater())

	// 重建会话：残留登记被清掉，低水位不动；重放旧事件不会让水位倒退
	tracker.Begin(4000)
	tracker.Reset()
	require.Equal(t, int64(3000), tracker.LowWater())
	tracker.Begin(2500)
	tracker.Complete(2500)
	require.Equal(t, int64(3000), tracker.LowWater())
}

func TestSaveCursorNowSkipsZero(t *testing.T) {
	cursorRepo := &memCursorRepo{}
	sub := newTestSubscriber(cursorRepo, 1000)

	// 从未收到事件：没有游标可保存
	sub.saveCursorNow()
	_, saves := cursorRepo.saved()
	require.Equal(t, 0, saves)

	// 只读取未完成的事件同样不持久化
	sub.tracker.Begin(42)
	sub.saveCursorNow()
	_, saves = cursorRepo.saved()
	require.Equal(t, 0, saves)

	sub.tracker.Complete(42)
	sub.saveCursorNow()
	cursor, saves := cursorRepo.saved()
	require.Equal(t, 1, saves)
	require.Equal(t, int64(42), cursor)
}

func TestShutdownSavesCompletedCursorOnly(t *testing.T) {
	cursorRepo := &memCursorRepo{}
	sub := newTestSubscriber(cursorRepo, 1000)

	// 一条已落库的事件，之后两条已读取但还在队列里
	sub.tracker.Begin(700)
	sub.afterProcessed(700)
	sub.tracker.Begin(777)
	sub.gate.Submit(func(context.Context) {})
	sub.tracker.Begin(888)
	sub.gate.Submit(func(context.Context) {})

	sub.shutdown()

	require.Equal(t, "disconnected", ConnState(sub.state.Load()).String())
	// 游标停在已完成前缀上：排队被丢弃的 777/888 重连后会重放而不是被跳过
	cursor, saves := cursorRepo.saved()
	require.Equal(t, int64(700), cursor)
	require.Equal(t, 1, saves)
	// 排队未开始的工作被丢弃
	require.Equal(t, 0, sub.gate.QueueDepth())
}

func TestStatsSnapshot(t *testing.T) {
	sub := newTestSubscriber(&memCursorRepo{}, 1000)
	sub.tracker.Begin(9000)
	sub.tracker.Complete(9000)
	sub.processed.Store(5)
	sub.state.Store(int32(StateConnected))

	stats := sub.Stats()
	require.Equal(t, "connected", stats.State)
	require.Equal(t, int64(9000), stats.Cursor)
	require.Equal(t, int64(5), stats.Processed)
	require.False(t, stats.UsingFallback)
	require.True(t, stats.LastEventAt.IsZero())
}

// wsTestServer 起一个接受升级后立即交给 handle 的 websocket 测试服务
func wsTestServer(t *testing.T, handle func(conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handle(conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newLiveSubscriber(endpoint, fallback string, failuresBefore int, cursorRepo *memCursorRepo) *Subscriber {
	gate := NewGate(2, 10, time.Hour)
	handler := NewEventHandler(newMemPostRepo(), newMemInteractionRepo(), newMemFollowRepo(), newMemEngagementRepo())
	return NewSubscriber(config.FirehoseConfig{
		Endpoint:         endpoint,
		FallbackEndpoint: fallback,
		FailuresBefore:   failuresBefore,
		CursorSaveEvery:  1000,
	}, handler, cursorRepo, gate)
}

func TestRepeatedDropsAfterConnectDoNotTriggerFallback(t *testing.T) {
	var dials atomic.Int64
	srv, wsURL := wsTestServer(t, func(conn *websocket.Conn) {
		// 每次拨号都成功，但连上立刻断开
		dials.Add(1)
		_ = conn.Close()
	})
	defer srv.Close()

	sub := newLiveSubscriber(wsURL, wsURL, 3, &memCursorRepo{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	// 成功建连会清零失败计数：反复掉线不构成连续失败，绝不切换备用端点
	require.Eventually(t, func() bool {
		return dials.Load() >= 5
	}, 15*time.Second, 20*time.Millisecond)
	require.False(t, sub.Stats().UsingFallback)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestConsecutiveDialFailuresSwitchToFallback(t *testing.T) {
	var fallbackDials atomic.Int64
	srv, wsURL := wsTestServer(t, func(conn *websocket.Conn) {
		fallbackDials.Add(1)
		// 挂住连接直到订阅端关闭
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	// 主端点不可达，两次连续失败后切到备用
	sub := newLiveSubscriber("ws://127.0.0.1:1/subscribe", wsURL, 2, &memCursorRepo{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	require.Eventually(t, func() bool {
		return sub.Stats().UsingFallback && fallbackDials.Load() >= 1
	}, 15*time.Second, 20*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestOverflowForcesReconnectWithCursorSave(t *testing.T) {
	closeCode := make(chan int, 1)
	srv, wsURL := wsTestServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					closeCode <- ce.Code
				}
				return
			}
		}
	})
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	cursorRepo := &memCursorRepo{}
	sub := newTestSubscriber(cursorRepo, 1000)

	// 一条已落库的事件确立低水位
	sub.tracker.Begin(420)
	sub.afterProcessed(420)

	// 填满队列再多投一条：第 11 条被丢弃并发出溢出通知
	for i := 0; i < 11; i++ {
		sub.gate.Submit(func(context.Context) {})
	}

	done := make(chan struct{})
	defer close(done)
	go sub.watchSession(context.Background(), conn, done)

	// 对端收到带区分关闭码的关闭帧
	select {
	case code := <-closeCode:
		require.Equal(t, websocket.CloseTryAgainLater, code)
	case <-time.After(5 * time.Second):
		t.Fatal("no close frame received")
	}

	// 断开前：清空排队工作、持久化低水位、标记为过载重连
	require.Equal(t, 0, sub.gate.QueueDepth())
	cursor, saves := cursorRepo.saved()
	require.Equal(t, int64(420), cursor)
	require.Equal(t, 1, saves)
	require.True(t, sub.overloadReconnect.Load())
}
