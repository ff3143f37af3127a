package firehose

import (
	"context"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxConcurrent  = 10
	defaultQueueCapacity  = 5000
	defaultHealthInterval = 60 * time.Second
)

// Task 一条待处理的事件处理工作
type Task func(ctx context.Context)

// Gate 准入控制：最多 maxConcurrent 个并发处理，超出的排队到有界队列，
// 队列满则丢弃并计数。它是系统唯一的背压机制，保护下游连接池。
type Gate struct {
	queue         chan Task
	sem           *semaphore.Weighted
	maxConcurrent int64

	active        atomic.Int64
	droppedWindow atomic.Int64
	droppedTotal  atomic.Int64

	overflow chan struct{}

	healthInterval time.Duration
	wg             sync.WaitGroup
}

func NewGate(maxConcurrent int64, queueCapacity int, healthInterval time.Duration) *Gate {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	if healthInterval <= 0 {
		healthInterval = defaultHealthInterval
	}
	return &Gate{
		queue:          make(chan Task, queueCapacity),
		sem:            semaphore.NewWeighted(maxConcurrent),
		maxConcurrent:  maxConcurrent,
		overflow:       make(chan struct{}, 1),
		healthInterval: healthInterval,
	}
}

// Start 启动分发循环与健康上报，ctx 取消后停止
func (g *Gate) Start(ctx context.Context) {
	go g.dispatch(ctx)
	go g.healthLoop(ctx)
}

// dispatch 先取许可再出队，保证在途处理数严格不超过上限，
// 队列里也只会积压到其容量为止。
// 任务不继承取消：优雅退出时在途处理要自然完成落库，
// 只有分发循环本身响应 ctx 停止。
func (g *Gate) dispatch(ctx context.Context) {
	taskCtx := context.WithoutCancel(ctx)
	for {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			g.sem.Release(1)
			return
		case task := <-g.queue:
			g.active.Add(1)
			g.wg.Add(1)
			go func(t Task) {
				defer func() {
					g.active.Add(-1)
					g.wg.Done()
					g.sem.Release(1)
				}()
				t(taskCtx)
			}(task)
		}
	}
}

// Submit 尝试入队，队列已满时丢弃并通知溢出
func (g *Gate) Submit(task Task) bool {
	select {
	case g.queue <- task:
		return true
	default:
	}

	g.droppedWindow.Add(1)
	g.droppedTotal.Add(1)

	select {
	case g.overflow <- struct{}{}:
	default:
	}
	return false
}

// Overflow 队列溢出通知，订阅端据此强制重连
func (g *Gate) Overflow() <-chan struct{} {
	return g.overflow
}

// DrainQueued 清空未开始的排队工作，在途的自然完成，返回清掉的数量
func (g *Gate) DrainQueued() int {
	n := 0
	for {
		select {
		case <-g.queue:
			n++
		default:
			return n
		}
	}
}

// WaitInflight 等待在途处理全部结束
func (g *Gate) WaitInflight() {
	g.wg.Wait()
}

func (g *Gate) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(g.healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := g.droppedWindow.Swap(0)
			log.Info("ingest health",
				"active", g.active.Load(),
				"queued", len(g.queue),
				"dropped_in_window", dropped)
		}
	}
}

func (g *Gate) ActiveCount() int64 {
	return g.active.Load()
}

func (g *Gate) QueueDepth() int {
	return len(g.queue)
}

func (g *Gate) DroppedTotal() int64 {
	return g.droppedTotal.Load()
}
