package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFollowSource struct {
	engagers map[string][]string
	follows  map[string][]string
}

func (f *fakeFollowSource) GetEngagerDIDs(_ context.Context, postURI string, limit int) ([]string, error) {
	engagers := f.engagers[postURI]
	if len(engagers) > limit {
		engagers = engagers[:limit]
	}
	return engagers, nil
}

func (f *fakeFollowSource) GetFollowSet(_ context.Context, did string, limit int) ([]string, error) {
	follows := f.follows[did]
	if len(follows) > limit {
		follows = follows[:limit]
	}
	return follows, nil
}

func newSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func TestJaccardDistance(t *testing.T) {
	// 完全相同 → 0
	require.Equal(t, 0.0, jaccardDistance(newSet("a", "b"), newSet("a", "b")))

	// 完全不相交 → 1
	require.Equal(t, 1.0, jaccardDistance(newSet("a", "b"), newSet("c", "d")))

	// 部分重叠：交集 1，并集 3
	require.InDelta(t, 1.0-1.0/3.0, jaccardDistance(newSet("a", "b"), newSet("b", "c")), 1e-9)

	// 两个空集视为相同
	require.Equal(t, 0.0, jaccardDistance(newSet(), newSet()))
}

func TestBridgingScoreInsufficientEngagers(t *testing.T) {
	source := &fakeFollowSource{
		engagers: map[string][]string{
			"at://did:plc:x/app.bsky.feed.post/1": {"did:plc:alice"},
		},
		follows: map[string][]string{},
	}
	scorer := NewBridgingScorer(source, 0, 0, 0, 0)

	require.Equal(t, defaultBridgingScore, scorer.Score(context.Background(), "at://did:plc:x/app.bsky.feed.post/1"))
	// 完全没有互动者同样取默认值
	require.Equal(t, defaultBridgingScore, scorer.Score(context.Background(), "at://did:plc:x/app.bsky.feed.post/none"))
}

func TestBridgingScoreDisjointCommunities(t *testing.T) {
	uri := "at://did:plc:x/app.bsky.feed.post/2"
	source := &fakeFollowSource{
		engagers: map[string][]string{uri: {"did:plc:a", "did:plc:b"}},
		follows: map[string][]string{
			"did:plc:a": {"did:plc:c1", "did:plc:c2"},
			"did:plc:b": {"did:plc:d1", "did:plc:d2"},
		},
	}
	scorer := NewBridgingScorer(source, 0, 0, 0, 0)

	require.Equal(t, 1.0, scorer.Score(context.Background(), uri))
}

func TestBridgingScoreSameCommunity(t *testing.T) {
	uri := "at://did:plc:x/app.bsky.feed.post/3"
	source := &fakeFollowSource{
		engagers: map[string][]string{uri: {"did:plc:a", "did:plc:b"}},
		follows: map[string][]string{
			"did:plc:a": {"did:plc:c1", "did:plc:c2"},
			"did:plc:b": {"did:plc:c1", "did:plc:c2"},
		},
	}
	scorer := NewBridgingScorer(source, 0, 0, 0, 0)

	require.Equal(t, 0.0, scorer.Score(context.Background(), uri))
}

func TestBridgingScorePartialOverlap(t *testing.T) {
	uri := "at://did:plc:x/app.bsky.feed.post/4"
	source := &fakeFollowSource{
		engagers: map[string][]string{uri: {"did:plc:a", "did:plc:b"}},
		follows: map[string][]string{
			"did:plc:a": {"did:plc:c1", "did:plc:c2"},
			"did:plc:b": {"did:plc:c2", "did:plc:c3"},
		},
	}
	scorer := NewBridgingScorer(source, 0, 0, 0, 0)

	score := scorer.Score(context.Background(), uri)
	require.Greater(t, score, 0.0)
	require.Less(t, score, 1.0)
}

func TestBridgingScoreCapsComparedEngagers(t *testing.T) {
	uri := "at://did:plc:x/app.bsky.feed.post/5"
	engagers := make([]string, 0, 30)
	follows := make(map[string][]string, 30)
	for i := 0; i < 30; i++ {
		did := "did:plc:e" + string(rune('a'+i))
		engagers = append(engagers, did)
		follows[did] = []string{"did:plc:common"}
	}
	source := &fakeFollowSource{
		engagers: map[string][]string{uri: engagers},
		follows:  follows,
	}
	scorer := NewBridgingScorer(source, 0, 5, 0, 0)

	// 所有互动者的关注集合都相同，限流之后依然应得 0
	require.Equal(t, 0.0, scorer.Score(context.Background(), uri))
}
