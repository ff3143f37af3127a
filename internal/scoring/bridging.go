package scoring

import (
	"context"
	log "log/slog"
)

const (
	defaultMaxEngagers     = 50
	defaultMaxCompared     = 20
	defaultMaxFollowsEach  = 200
	defaultBridgingScore   = 0.3
	minEngagersForBridging = 2
)

// FollowSetSource 提供互动者及其关注集合的来源
type FollowSetSource interface {
	GetEngagerDIDs(ctx context.Context, postURI string, limit int) ([]string, error)
	GetFollowSet(ctx context.Context, did string, limit int) ([]string, error)
}

// BridgingScorer 估计跨社群吸引力：互动者的社交邻域重叠越少，桥接分越高
type BridgingScorer struct {
	source          FollowSetSource
	maxEngagers     int
	maxCompared     int
	maxFollowsEach  int
	defaultScore    float64
}

func NewBridgingScorer(source FollowSetSource, maxEngagers, maxCompared, maxFollowsEach int, defaultScore float64) *BridgingScorer {
	if maxEngagers <= 0 {
		maxEngagers = defaultMaxEngagers
	}
	if maxCompared <= 0 {
		maxCompared = defaultMaxCompared
	}
	if maxFollowsEach <= 0 {
		maxFollowsEach = defaultMaxFollowsEach
	}
	if defaultScore <= 0 {
		defaultScore = defaultBridgingScore
	}
	return &BridgingScorer{
		source:          source,
		maxEngagers:     maxEngagers,
		maxCompared:     maxCompared,
		maxFollowsEach:  maxFollowsEach,
		defaultScore:    defaultScore,
	}
}

// Score 互动者少于 2 人时数据不足，返回固定默认值；
// 否则取互动者关注集合两两 Jaccard 距离的均值。
func (s *BridgingScorer) Score(ctx context.Context, postURI string) float64 {
	engagers, err := s.source.GetEngagerDIDs(ctx, postURI, s.maxEngagers)
	if err != nil {
		log.ErrorContext(ctx, "get engager dids error", "post_uri", postURI, "err", err)
		return s.defaultScore
	}
	if len(engagers) < minEngagersForBridging {
		return s.defaultScore
	}

	if len(engagers) > s.maxCompared {
		engagers = engagers[:s.maxCompared]
	}

	followSets := make([]map[string]struct{}, 0, len(engagers))
	for _, did := range engagers {
		follows, err := s.source.GetFollowSet(ctx, did, s.maxFollowsEach)
		if err != nil {
			log.ErrorContext(ctx, "get follow set error", "did", did, "err", err)
			continue
		}
		set := make(map[string]struct{}, len(follows))
		for _, f := range follows {
			set[f] = struct{}{}
		}
		followSets = append(followSets, set)
	}
	if len(followSets) < minEngagersForBridging {
		return s.defaultScore
	}

	var sum float64
	var pairs int
	for i := 0; i < len(followSets); i++ {
		for j := i + 1; j < len(followSets); j++ {
			sum += jaccardDistance(followSets[i], followSets[j])
			pairs++
		}
	}
	if pairs == 0 {
		return s.defaultScore
	}

	return clamp01(sum / float64(pairs))
}

// jaccardDistance 1 − |A∩B|/|A∪B|，两个空集视为完全相同
func jaccardDistance(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return 1 - float64(intersection)/float64(union)
}
