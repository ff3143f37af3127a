package firehose

import (
	"Commonfeed/internal/api/config"
	"Commonfeed/internal/pkg/consts"
	"Commonfeed/internal/repository"
	"context"
	log "log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ConnState 连接状态机的状态
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

const (
	backoffBase = time.Second
	backoffCap  = 60 * time.Second

	defaultCursorSaveEvery = 1000
	defaultFailuresBefore  = 5

	// overloadCloseCode 过载触发的强制重连使用的关闭码，便于在上游侧区分
	overloadCloseCode = websocket.CloseTryAgainLater

	windowInterval = 5 * time.Minute
)

// wantedCollections 向 Jetstream 订阅的四种集合
var wantedCollections = []string{
	consts.CollectionPost,
	consts.CollectionLike,
	consts.CollectionRepost,
	consts.CollectionFollow,
}

// Stats 对外暴露的运行状态
type Stats struct {
	State           string    `json:"state"`
	UsingFallback   bool      `json:"using_fallback"`
	Processed       int64     `json:"processed"`
	ProcessedWindow int64     `json:"processed_last_window"`
	Dropped         int64     `json:"dropped"`
	ActiveHandlers  int64     `json:"active_handlers"`
	QueueDepth      int       `json:"queue_depth"`
	Cursor          int64     `json:"cursor"`
	LastEventAt     time.Time `json:"last_event_at"`
}

// Subscriber 维持到事件 firehose 的长连接，断线按指数退避重连，
// 连续失败后一次性切换到备用端点。
type Subscriber struct {
	cfg        config.FirehoseConfig
	handler    *EventHandler
	cursorRepo repository.CursorRepo
	gate       *Gate

	state         atomic.Int32
	usingFallback atomic.Bool

	tracker     cursorTracker
	processed   atomic.Int64
	sinceSave   atomic.Int64
	lastEventAt atomic.Int64

	windowCount atomic.Int64
	lastWindow  atomic.Int64

	saveCh chan struct{}

	connMu sync.Mutex
	conn   *websocket.Conn

	overloadReconnect atomic.Bool
}

func NewSubscriber(cfg config.FirehoseConfig, handler *EventHandler, cursorRepo repository.CursorRepo, gate *Gate) *Subscriber {
	if cfg.CursorSaveEvery <= 0 {
		cfg.CursorSaveEvery = defaultCursorSaveEvery
	}
	if cfg.FailuresBefore <= 0 {
		cfg.FailuresBefore = defaultFailuresBefore
	}
	return &Subscriber{
		cfg:        cfg,
		handler:    handler,
		cursorRepo: cursorRepo,
		gate:       gate,
		saveCh:     make(chan struct{}, 1),
	}
}

// Start 运行订阅直到 ctx 取消。退出前清空排队工作并持久化最终游标。
func (s *Subscriber) Start(ctx context.Context) error {
	s.gate.Start(ctx)
	go s.cursorSaver(ctx)
	go s.windowLoop(ctx)

	backoff := backoffBase
	failures := 0
	firstAttempt := true

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		default:
		}

		if firstAttempt {
			s.state.Store(int32(StateConnecting))
		} else {
			s.state.Store(int32(StateReconnecting))
		}

		connected, err := s.runSession(ctx)
		if ctx.Err() != nil {
			s.shutdown()
			return ctx.Err()
		}
		if err != nil {
			log.Error("firehose session ended", "err", err, "failures", failures)
		}

		// 失败计数只统计连续的建连失败，成功进入 Connected 即清零；
		// 连上之后的掉线走退避重连，不会累积到备用端点切换
		if connected {
			backoff = backoffBase
			failures = 0
		}
		firstAttempt = false

		// 过载触发的重连不算连接失败
		if s.overloadReconnect.CompareAndSwap(true, false) {
			continue
		}

		if !connected {
			failures++
		}
		if failures >= s.cfg.FailuresBefore && !s.usingFallback.Load() && s.cfg.FallbackEndpoint != "" {
			// 一次性切换到备用端点，不自动回切
			s.usingFallback.Store(true)
			failures = 0
			backoff = backoffBase
			log.Warn("switching to fallback firehose endpoint", "endpoint", s.cfg.FallbackEndpoint)
			continue
		}

		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}
}

// runSession 建立一次连接并消费直到出错或被关闭。
// 返回值表示本次是否成功进入 Connected 状态。
func (s *Subscriber) runSession(ctx context.Context) (bool, error) {
	// 每次重连都带上最后一次持久化的游标，确保不丢事件
	cursor, err := s.cursorRepo.GetCursor(ctx)
	if err != nil {
		log.Warn("load cursor error, starting from live", "err", err)
		cursor = 0
	}

	endpoint := s.cfg.Endpoint
	if s.usingFallback.Load() {
		endpoint = s.cfg.FallbackEndpoint
	}
	wsURL, err := buildURL(endpoint, cursor)
	if err != nil {
		return false, err
	}

	log.Info("connecting to firehose", "url", wsURL, "state", ConnState(s.state.Load()).String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return false, err
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.state.Store(int32(StateConnected))
	s.tracker.Reset()
	log.Info("firehose connected", "cursor", cursor)

	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go s.watchSession(ctx, conn, sessionDone)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}

		evt, err := ParseEvent(message)
		if err != nil {
			// 单条畸形消息不中断流
			log.Error("parse event error", "err", err)
			continue
		}

		s.lastEventAt.Store(time.Now().UnixMilli())
		s.tracker.Begin(evt.TimeUS)

		e := evt
		accepted := s.gate.Submit(func(taskCtx context.Context) {
			s.handler.Handle(taskCtx, e)
			s.afterProcessed(e.TimeUS)
		})
		if !accepted {
			// 队列满被丢弃：丢弃已计数，水位可以越过这条事件
			s.tracker.Complete(e.TimeUS)
		}
	}
}

// watchSession 监听取消与过载，通过关闭连接把读循环打断
func (s *Subscriber) watchSession(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	select {
	case <-done:
		return
	case <-ctx.Done():
		_ = conn.Close()
	case <-s.gate.Overflow():
		// 队列塞满：先丢弃未开始的排队工作并持久化游标，
		// 再带区分关闭码断开，用一次可观察的重连替代无界内存增长
		drained := s.gate.DrainQueued()
		s.saveCursorNow()
		s.overloadReconnect.Store(true)
		log.Warn("admission queue overflow, forcing reconnect",
			"drained", drained,
			"dropped_total", s.gate.DroppedTotal())
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(overloadCloseCode, "ingest overload"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

// afterProcessed 事件处理完成后的游标推进，
// 每处理 cursorSaveEvery 条触发一次序列化的持久化
func (s *Subscriber) afterProcessed(timeUS int64) {
	s.tracker.Complete(timeUS)
	s.processed.Add(1)
	s.windowCount.Add(1)
	if s.sinceSave.Add(1) >= s.cfg.CursorSaveEvery {
		s.sinceSave.Store(0)
		select {
		case s.saveCh <- struct{}{}:
		default:
		}
	}
}

// cursorSaver 游标持久化在事件处理的关键路径之外串行执行
func (s *Subscriber) cursorSaver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.saveCh:
			s.saveCursorNow()
		}
	}
}

// saveCursorNow 只持久化低水位：覆盖已落库（或已计丢弃）的事件前缀，
// 排队中和在途未完成的事件留在游标之后，恢复时重放而不是跳过
func (s *Subscriber) saveCursorNow() {
	cursor := s.tracker.LowWater()
	if cursor == 0 {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cursorRepo.SaveCursor(saveCtx, cursor); err != nil {
		log.Error("save cursor error", "cursor", cursor, "err", err)
	}
}

// shutdown 优雅退出：丢弃未开始的排队工作，等在途处理自然完成，
// 最后保存的游标停在已完成前缀上，被丢弃的排队事件重连后会重放
func (s *Subscriber) shutdown() {
	s.state.Store(int32(StateDisconnected))
	drained := s.gate.DrainQueued()
	s.gate.WaitInflight()
	s.saveCursorNow()
	log.Info("firehose subscriber stopped", "drained_queued", drained, "processed", s.processed.Load())
}

func (s *Subscriber) windowLoop(ctx context.Context) {
	ticker := time.NewTicker(windowInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.lastWindow.Store(s.windowCount.Swap(0))
		}
	}
}

// Stats 当前运行状态快照
func (s *Subscriber) Stats() Stats {
	var lastEvent time.Time
	if ms := s.lastEventAt.Load(); ms > 0 {
		lastEvent = time.UnixMilli(ms)
	}
	return Stats{
		State:           ConnState(s.state.Load()).String(),
		UsingFallback:   s.usingFallback.Load(),
		Processed:       s.processed.Load(),
		ProcessedWindow: s.lastWindow.Load(),
		Dropped:         s.gate.DroppedTotal(),
		ActiveHandlers:  s.gate.ActiveCount(),
		QueueDepth:      s.gate.QueueDepth(),
		Cursor:          s.tracker.LowWater(),
		LastEventAt:     lastEvent,
	}
}

func buildURL(endpoint string, cursor int64) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for _, c := range wantedCollections {
		q.Add("wantedCollections", c)
	}
	// 首次连接没有已保存的游标，不带 cursor 参数
	if cursor > 0 {
		q.Set("cursor", strconv.FormatInt(cursor, 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
