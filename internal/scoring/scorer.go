package scoring

import (
	"math"
	"time"
)

const (
	// DefaultHalfLifeHours 时新分的半衰期
	DefaultHalfLifeHours = 18.0

	// DefaultEngagementCeiling 互动分归一化的期望上限（加权互动量）
	DefaultEngagementCeiling = 1000.0

	// RelevanceStub 相关性维度的占位值，语义匹配未实现
	RelevanceStub = 0.5
)

// RecencyScore 指数衰减，发帖时刻为 1.0，每过一个半衰期折半
func RecencyScore(createdAt, now time.Time, halfLifeHours float64) float64 {
	if halfLifeHours <= 0 {
		halfLifeHours = DefaultHalfLifeHours
	}
	ageHours := now.Sub(createdAt).Hours()
	if ageHours <= 0 {
		return 1.0
	}
	return math.Pow(0.5, ageHours/halfLifeHours)
}

// EngagementScore 对加权互动量取 log10 后按期望上限归一化到 [0,1]。
// 权重：点赞 ×1、转发 ×2、回复 ×3。
func EngagementScore(likes, reposts, replies int, ceiling float64) float64 {
	if ceiling <= 0 {
		ceiling = DefaultEngagementCeiling
	}
	weighted := float64(likes) + 2*float64(reposts) + 3*float64(replies)
	if weighted < 0 {
		weighted = 0
	}
	score := math.Log10(weighted+1) / math.Log10(ceiling+1)
	return clamp01(score)
}

// RelevanceScore 占位实现
func RelevanceScore() float64 {
	return RelevanceStub
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
