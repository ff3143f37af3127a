package scoring

// diversityLadder 同一作者在一次运行内第 N 篇（0 起）帖子的来源多样性分，
// 超出部分取末档
var diversityLadder = []float64{1.0, 0.7, 0.5, 0.3}

// DiversityTracker 单次管道运行内的作者计数器，跨运行不保留
type DiversityTracker struct {
	counts map[string]int
}

func NewDiversityTracker() *DiversityTracker {
	return &DiversityTracker{
		counts: make(map[string]int),
	}
}

// Next 返回该作者下一篇帖子的多样性分并推进计数
func (t *DiversityTracker) Next(authorDID string) float64 {
	score := t.Peek(authorDID)
	t.counts[authorDID]++
	return score
}

// Peek 只读取不推进计数，用于 what-if 展示
func (t *DiversityTracker) Peek(authorDID string) float64 {
	n := t.counts[authorDID]
	if n >= len(diversityLadder) {
		return diversityLadder[len(diversityLadder)-1]
	}
	return diversityLadder[n]
}
