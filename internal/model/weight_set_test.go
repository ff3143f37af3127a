package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	require.True(t, DefaultWeights().SumIsOne(1e-9))
}

func TestWeightSetNormalized(t *testing.T) {
	w := WeightSet{Recency: 2, Engagement: 1, Bridging: 1, Diversity: 0, Relevance: 0}
	n := w.Normalized()

	require.InDelta(t, 1.0, n.Sum(), 1e-9)
	require.InDelta(t, 0.5, n.Recency, 1e-9)
	require.InDelta(t, 0.25, n.Engagement, 1e-9)

	// 全零集合不可归一化，原样返回
	zero := WeightSet{}
	require.Equal(t, zero, zero.Normalized())
}

func TestWeightSetMul(t *testing.T) {
	raw := WeightSet{Recency: 0.8, Engagement: 0.5, Bridging: 1.0, Diversity: 0.7, Relevance: 0.5}
	weights := DefaultWeights()

	weighted := raw.Mul(weights)
	require.InDelta(t, 0.8*0.25, weighted.Recency, 1e-9)
	require.InDelta(t, 0.5*0.25, weighted.Engagement, 1e-9)
	require.InDelta(t, 1.0*0.2, weighted.Bridging, 1e-9)
	require.InDelta(t, raw.Values()[3]*weights.Values()[3], weighted.Diversity, 1e-9)
}

func TestSumIsOneTolerance(t *testing.T) {
	w := WeightSet{Recency: 0.2, Engagement: 0.2, Bridging: 0.2, Diversity: 0.2, Relevance: 0.2000001}
	require.True(t, w.SumIsOne(1e-6))
	require.False(t, w.SumIsOne(1e-9))
}

func TestMarshalAuditDetails(t *testing.T) {
	require.Equal(t, "{}", MarshalAuditDetails(nil))

	payload := MarshalAuditDetails(&TransitionDetails{
		FromEpochID: 1,
		NewEpochID:  2,
		VoteCount:   12,
		Forced:      true,
		Trigger:     "manual",
	})
	require.True(t, strings.Contains(payload, `"from_epoch_id":1`))
	require.True(t, strings.Contains(payload, `"forced":true`))
}
