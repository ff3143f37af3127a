package model

import "math"

// WeightSet 五个排序维度的权重（或原始分）集合
type WeightSet struct {
	Recency    float64 `gorm:"not null" json:"recency"`
	Engagement float64 `gorm:"not null" json:"engagement"`
	Bridging   float64 `gorm:"not null" json:"bridging"`
	Diversity  float64 `gorm:"not null" json:"diversity"`
	Relevance  float64 `gorm:"not null" json:"relevance"`
}

// DefaultWeights 创世纪元使用的初始权重
func DefaultWeights() WeightSet {
	return WeightSet{
		Recency:    0.25,
		Engagement: 0.25,
		Bridging:   0.2,
		Diversity:  0.15,
		Relevance:  0.15,
	}
}

func (w WeightSet) Sum() float64 {
	return w.Recency + w.Engagement + w.Bridging + w.Diversity + w.Relevance
}

// Normalized 归一化使五项权重之和为 1.0，总和为 0 时原样返回
func (w WeightSet) Normalized() WeightSet {
	sum := w.Sum()
	if sum == 0 {
		return w
	}
	return WeightSet{
		Recency:    w.Recency / sum,
		Engagement: w.Engagement / sum,
		Bridging:   w.Bridging / sum,
		Diversity:  w.Diversity / sum,
		Relevance:  w.Relevance / sum,
	}
}

// Mul 按维度相乘，用于 raw_i × weight_i
func (w WeightSet) Mul(other WeightSet) WeightSet {
	return WeightSet{
		Recency:    w.Recency * other.Recency,
		Engagement: w.Engagement * other.Engagement,
		Bridging:   w.Bridging * other.Bridging,
		Diversity:  w.Diversity * other.Diversity,
		Relevance:  w.Relevance * other.Relevance,
	}
}

func (w WeightSet) Values() [5]float64 {
	return [5]float64{w.Recency, w.Engagement, w.Bridging, w.Diversity, w.Relevance}
}

// SumIsOne 校验权重之和是否在容差内等于 1.0
func (w WeightSet) SumIsOne(tolerance float64) bool {
	return math.Abs(w.Sum()-1.0) <= tolerance
}
