package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecencyScore(t *testing.T) {
	now := time.Now()

	require.Equal(t, 1.0, RecencyScore(now, now, DefaultHalfLifeHours))
	require.Equal(t, 1.0, RecencyScore(now.Add(time.Hour), now, DefaultHalfLifeHours))

	halfLife := RecencyScore(now.Add(-18*time.Hour), now, 18)
	require.InDelta(t, 0.5, halfLife, 1e-9)

	twoHalfLives := RecencyScore(now.Add(-36*time.Hour), now, 18)
	require.InDelta(t, 0.25, twoHalfLives, 1e-9)

	// 非法半衰期回退到默认值
	fallback := RecencyScore(now.Add(-18*time.Hour), now, 0)
	require.InDelta(t, 0.5, fallback, 1e-9)
}

func TestEngagementScore(t *testing.T) {
	require.Equal(t, 0.0, EngagementScore(0, 0, 0, DefaultEngagementCeiling))

	// 加权互动量达到上限时恰好为 1
	// 1000 = likes×1
	require.InDelta(t, 1.0, EngagementScore(1000, 0, 0, 1000), 1e-9)

	// 超过上限截断为 1
	require.Equal(t, 1.0, EngagementScore(100000, 5000, 3000, 1000))

	// 转发权重 ×2、回复权重 ×3
	likesOnly := EngagementScore(6, 0, 0, 1000)
	reposts := EngagementScore(0, 3, 0, 1000)
	replies := EngagementScore(0, 0, 2, 1000)
	require.InDelta(t, likesOnly, reposts, 1e-9)
	require.InDelta(t, likesOnly, replies, 1e-9)

	// 对数刻度：互动量翻倍远不及分数翻倍
	low := EngagementScore(10, 0, 0, 1000)
	high := EngagementScore(20, 0, 0, 1000)
	require.Greater(t, high, low)
	require.Less(t, high, 2*low)

	// 负数统计按 0 处理
	require.Equal(t, 0.0, EngagementScore(-5, 0, 0, 1000))
}

func TestRelevanceScoreStub(t *testing.T) {
	require.Equal(t, RelevanceStub, RelevanceScore())
}
