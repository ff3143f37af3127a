package service

import (
	"Commonfeed/internal/model"
	"sort"
)

const (
	// DefaultMinVotesForTrim 票数低于该值时跳过截尾，直接取全体均值
	DefaultMinVotesForTrim = 10

	// DefaultTrimRatio 截尾均值丢弃的最高/最低票占比
	DefaultTrimRatio = 0.1
)

// AggregateWeights 按维度独立做截尾均值，再整体归一化到和为 1.0。
// 票数不足 minForTrim 时不截尾（丢弃会让剩余信号太少）；
// 没有任何投票时原样沿用上一纪元的权重。
func AggregateWeights(votes []*model.Vote, previous model.WeightSet, minForTrim int, trimRatio float64) model.WeightSet {
	if len(votes) == 0 {
		return previous
	}
	if minForTrim <= 0 {
		minForTrim = DefaultMinVotesForTrim
	}
	if trimRatio <= 0 || trimRatio >= 0.5 {
		trimRatio = DefaultTrimRatio
	}

	dims := make([][]float64, 5)
	for i := range dims {
		dims[i] = make([]float64, 0, len(votes))
	}
	for _, v := range votes {
		values := v.Weights.Values()
		for i, val := range values {
			dims[i] = append(dims[i], val)
		}
	}

	trim := len(votes) >= minForTrim

	var means [5]float64
	for i, values := range dims {
		means[i] = trimmedMean(values, trimRatio, trim)
	}

	aggregated := model.WeightSet{
		Recency:    means[0],
		Engagement: means[1],
		Bridging:   means[2],
		Diversity:  means[3],
		Relevance:  means[4],
	}
	return aggregated.Normalized()
}

// trimmedMean 排序后去掉头尾各 ratio 比例（按数量取整）再求均值
func trimmedMean(values []float64, ratio float64, trim bool) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if trim {
		k := int(float64(len(sorted)) * ratio)
		if len(sorted)-2*k > 0 {
			sorted = sorted[k : len(sorted)-k]
		}
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}
