package firehose

import "sync"

// cursorTracker 维护游标的持久化低水位。
// 事件按 time_us 递增的顺序登记，处理完成可能乱序；
// 低水位是一个前缀边界：小于等于它的事件要么已落库，要么已计入丢弃，
// 持久化任何高于低水位的位置都可能在恢复时跳过事件。
type cursorTracker struct {
	mu      sync.Mutex
	pending []pendingEvent
	low     int64
}

type pendingEvent struct {
	timeUS int64
	done   bool
}

// Begin 登记一条已读取、尚未处理完成的事件
func (c *cursorTracker) Begin(timeUS int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, pendingEvent{timeUS: timeUS})
}

// Complete 标记一条事件已处理完成（或已计为丢弃），
// 随后把低水位推进到连续完成前缀的末尾
func (c *cursorTracker) Complete(timeUS int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.pending {
		if c.pending[i].timeUS == timeUS && !c.pending[i].done {
			c.pending[i].done = true
			break
		}
	}
	i := 0
	for ; i < len(c.pending) && c.pending[i].done; i++ {
		// 重连会重放低水位之前的事件，水位只会单调前进
		if c.pending[i].timeUS > c.low {
			c.low = c.pending[i].timeUS
		}
	}
	if i > 0 {
		c.pending = append([]pendingEvent(nil), c.pending[i:]...)
	}
}

// Reset 丢弃所有未完成的登记，低水位保持不变。
// 会话重建时调用：上一会话被丢弃或未完成的事件会从低水位重放，
// 残留的登记只会永久卡住水位。
func (c *cursorTracker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// LowWater 当前可以安全持久化的游标位置，没有完成任何事件时为 0
func (c *cursorTracker) LowWater() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.low
}
