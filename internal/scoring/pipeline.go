package scoring

import (
	"Commonfeed/internal/model"
	"Commonfeed/internal/pkg/redis"
	"Commonfeed/internal/repository"
	"context"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// RankingCache 排行读库的发布接口
type RankingCache interface {
	ReplaceAll(ctx context.Context, entries []redis.RankedEntry) error
}

// Announcer 排行发布后的对外通知，尽力而为
type Announcer interface {
	AnnounceFeedPublished(ctx context.Context, epochID uint64, published int) error
}

// RunStats 单次运行的统计，供运维接口读取
type RunStats struct {
	Mode       string        `json:"mode"`
	EpochID    uint64        `json:"epoch_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Candidates int           `json:"candidates"`
	Filtered   int           `json:"filtered"`
	Scored     int           `json:"scored"`
	Published  int           `json:"published"`
}

// PipelineConfig 打分管道参数
type PipelineConfig struct {
	TopN           int64
	WindowHours    int
	CandidateLimit int
	HalfLifeHours  float64
	EngagementCeil float64
}

// Pipeline 打分管道。同一时刻只允许一次运行，重入请求被拒绝而不是排队。
type Pipeline struct {
	postRepo  repository.PostRepo
	scoreRepo repository.ScoreRepo
	epochRepo repository.EpochRepo
	bridging  *BridgingScorer
	cache     RankingCache
	announcer Announcer
	cfg       PipelineConfig

	running atomic.Bool

	mu          sync.Mutex
	lastEpochID uint64
	lastRunAt   time.Time
	lastStats   *RunStats
}

func NewPipeline(
	postRepo repository.PostRepo,
	scoreRepo repository.ScoreRepo,
	epochRepo repository.EpochRepo,
	bridging *BridgingScorer,
	cache RankingCache,
	announcer Announcer,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.TopN <= 0 {
		cfg.TopN = 250
	}
	if cfg.WindowHours <= 0 {
		cfg.WindowHours = 48
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 2000
	}
	return &Pipeline{
		postRepo:  postRepo,
		scoreRepo: scoreRepo,
		epochRepo: epochRepo,
		bridging:  bridging,
		cache:     cache,
		announcer: announcer,
		cfg:       cfg,
	}
}

// Run 执行一次重算。已有运行在进行时返回 ErrRescoreInProgress。
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRescoreInProgress
	}
	defer p.running.Store(false)

	start := time.Now()

	epoch, err := p.epochRepo.GetCurrentEpoch(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	lastEpochID := p.lastEpochID
	lastRunAt := p.lastRunAt
	p.mu.Unlock()

	// 纪元切换使旧的加权总分全部失效，必须全量重算
	mode := ModeIncremental
	if lastRunAt.IsZero() || lastEpochID != epoch.ID {
		mode = ModeFull
	}

	windowStart := start.Add(-time.Duration(p.cfg.WindowHours) * time.Hour)

	var candidates []*repository.PostCandidate
	if mode == ModeFull {
		candidates, err = p.postRepo.GetRecentCandidates(ctx, windowStart, p.cfg.CandidateLimit)
	} else {
		candidates, err = p.postRepo.GetChangedCandidates(ctx, epoch.ID, lastRunAt, windowStart, p.cfg.CandidateLimit)
	}
	if err != nil {
		return nil, err
	}

	stats := &RunStats{
		Mode:       mode,
		EpochID:    epoch.ID,
		StartedAt:  start,
		Candidates: len(candidates),
	}

	// 权重整次运行取一次，保证批内一致
	weights := epoch.Weights

	tracker := NewDiversityTracker()
	now := time.Now()

	for _, c := range candidates {
		if !CheckContentRules(c.Text, epoch.IncludeKeywords, epoch.ExcludeKeywords) {
			stats.Filtered++
			continue
		}

		raw := model.WeightSet{
			Recency:    RecencyScore(c.CreatedAt, now, p.cfg.HalfLifeHours),
			Engagement: EngagementScore(c.LikesCount, c.RepostsCount, c.RepliesCount, p.cfg.EngagementCeil),
			Bridging:   p.bridging.Score(ctx, c.URI),
			Diversity:  tracker.Next(c.AuthorDID),
			Relevance:  RelevanceScore(),
		}
		weighted := raw.Mul(weights)

		record := &model.ScoreRecord{
			PostURI:  c.URI,
			EpochID:  epoch.ID,
			Raw:      raw,
			Weights:  weights,
			Weighted: weighted,
			Total:    weighted.Sum(),
			ScoredAt: now,
		}
		if err = p.scoreRepo.SaveScoreRecord(ctx, record); err != nil {
			log.ErrorContext(ctx, "save score record error", "post_uri", c.URI, "err", err)
			continue
		}
		stats.Scored++
	}

	// 发布时从事实源整体读回再覆盖缓存，增量运行的分数也要进入排行
	ranked, err := p.scoreRepo.GetRankedSet(ctx, epoch.ID, p.cfg.TopN)
	if err != nil {
		return nil, err
	}
	entries := make([]redis.RankedEntry, 0, len(ranked))
	for _, r := range ranked {
		entries = append(entries, redis.RankedEntry{Member: r.PostURI, Score: r.Total})
	}
	if err = p.cache.ReplaceAll(ctx, entries); err != nil {
		return nil, err
	}
	stats.Published = len(entries)
	stats.Duration = time.Since(start)

	p.mu.Lock()
	p.lastEpochID = epoch.ID
	p.lastRunAt = start
	p.lastStats = stats
	p.mu.Unlock()

	if p.announcer != nil {
		if err = p.announcer.AnnounceFeedPublished(ctx, epoch.ID, stats.Published); err != nil {
			log.WarnContext(ctx, "announce feed published error", "err", err)
		}
	}

	log.InfoContext(ctx, "scoring run finished",
		"mode", mode,
		"epoch_id", epoch.ID,
		"candidates", stats.Candidates,
		"filtered", stats.Filtered,
		"scored", stats.Scored,
		"published", stats.Published,
		"duration", stats.Duration)

	return stats, nil
}

// Running 是否有运行在进行中
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// LastStats 最近一次成功运行的统计，从未运行过时返回 nil
func (p *Pipeline) LastStats() *RunStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStats
}
