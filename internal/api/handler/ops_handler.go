package handler

import (
	"Commonfeed/internal/api/dto"
	"Commonfeed/internal/firehose"
	"Commonfeed/internal/pkg/response"
	"Commonfeed/internal/pkg/redis"
	"Commonfeed/internal/repository"
	"Commonfeed/internal/scoring"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type OpsHandler struct {
	subscriber     *firehose.Subscriber
	pipeline       *scoring.Pipeline
	ranking        *redis.RankingStore
	subscriberRepo repository.SubscriberRepo
}

func NewOpsHandler(
	subscriber *firehose.Subscriber,
	pipeline *scoring.Pipeline,
	ranking *redis.RankingStore,
	subscriberRepo repository.SubscriberRepo,
) *OpsHandler {
	return &OpsHandler{
		subscriber:     subscriber,
		pipeline:       pipeline,
		ranking:        ranking,
		subscriberRepo: subscriberRepo,
	}
}

// GetStats 摄取、打分与订阅者的运行状态聚合
func (s *OpsHandler) GetStats(c *gin.Context) {
	var statsDTO dto.StatsDTO

	ingest := s.subscriber.Stats()
	if err := copier.Copy(&statsDTO.Ingest, &ingest); err != nil {
		response.Error(c, err)
		return
	}

	statsDTO.Scoring.Running = s.pipeline.Running()
	if last := s.pipeline.LastStats(); last != nil {
		statsDTO.Scoring.Mode = last.Mode
		statsDTO.Scoring.EpochID = last.EpochID
		statsDTO.Scoring.StartedAt = last.StartedAt
		statsDTO.Scoring.DurationMs = last.Duration.Milliseconds()
		statsDTO.Scoring.Candidates = last.Candidates
		statsDTO.Scoring.Filtered = last.Filtered
		statsDTO.Scoring.Scored = last.Scored
		statsDTO.Scoring.Published = last.Published
	}

	count, err := s.subscriberRepo.Count(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	statsDTO.Subscribers = count

	response.Success(c, statsDTO)
}

// Rescore 立即触发一次重算；已有重算在跑时返回冲突
func (s *OpsHandler) Rescore(c *gin.Context) {
	stats, err := s.pipeline.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// GetFeed 读取当前排行榜
func (s *OpsHandler) GetFeed(c *gin.Context) {
	var query dto.FeedQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}

	entries, err := s.ranking.Top(c.Request.Context(), int64(query.Limit))
	if err != nil {
		response.Error(c, err)
		return
	}

	feed := make([]dto.FeedEntryDTO, 0, len(entries))
	for _, e := range entries {
		feed = append(feed, dto.FeedEntryDTO{URI: e.Member, Score: e.Score})
	}
	response.Success(c, feed)
}
