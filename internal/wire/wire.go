package wire

import (
	"Commonfeed/internal/api"
	"Commonfeed/internal/api/config"
	"Commonfeed/internal/api/handler"
	"Commonfeed/internal/firehose"
	"Commonfeed/internal/job"
	"Commonfeed/internal/pkg/bluesky"
	"Commonfeed/internal/pkg/consts"
	"Commonfeed/internal/pkg/cron"
	"Commonfeed/internal/pkg/kafka"
	"Commonfeed/internal/pkg/redis"
	"Commonfeed/internal/repository"
	"Commonfeed/internal/scoring"
	"Commonfeed/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router        *gin.Engine
	DB            *gorm.DB
	Subscriber    *firehose.Subscriber
	CronMgr       *cron.Manager
	GovernanceSvc service.GovernanceService
	Producer      *kafka.Producer
}

// followSource 桥接打分需要同时读互动者和关注集合
type followSource struct {
	repository.InteractionRepo
	repository.FollowRepo
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	postRepo := repository.NewPostRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	followRepo := repository.NewFollowRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	epochRepo := repository.NewEpochRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cursorRepo := repository.NewCursorRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	bridging := scoring.NewBridgingScorer(
		followSource{InteractionRepo: interactionRepo, FollowRepo: followRepo},
		cfg.Scoring.MaxEngagers,
		cfg.Scoring.MaxCompared,
		cfg.Scoring.MaxFollowsEach,
		cfg.Scoring.BridgingDefault,
	)
	ranking := redis.NewRankingStore(consts.FeedRankingKey)
	pipeline := scoring.NewPipeline(postRepo, scoreRepo, epochRepo, bridging, ranking, producer, scoring.PipelineConfig{
		TopN:           cfg.Scoring.TopN,
		WindowHours:    cfg.Scoring.WindowHours,
		CandidateLimit: cfg.Scoring.CandidateLimit,
		HalfLifeHours:  cfg.Scoring.HalfLifeHours,
		EngagementCeil: cfg.Scoring.EngagementCeil,
	})

	governanceSvc := service.NewGovernanceService(
		epochRepo,
		voteRepo,
		auditRepo,
		subscriberRepo,
		bluesky.NewClient(cfg.Bluesky),
		producer,
		redis.NewDistLock(30*time.Second),
		service.GovernanceConfig{
			MinVotes:  cfg.Governance.MinVotes,
			TrimRatio: cfg.Governance.TrimRatio,
		},
	)

	eventHandler := firehose.NewEventHandler(postRepo, interactionRepo, followRepo, engagementRepo)
	gate := firehose.NewGate(
		cfg.Firehose.MaxConcurrent,
		cfg.Firehose.QueueCapacity,
		time.Duration(cfg.Firehose.HealthInterval)*time.Second,
	)
	subscriber := firehose.NewSubscriber(cfg.Firehose, eventHandler, cursorRepo, gate)

	handlers := &api.HandlersGroup{
		GovernanceHandler: handler.NewGovernanceHandler(governanceSvc),
		OpsHandler:        handler.NewOpsHandler(subscriber, pipeline, ranking, subscriberRepo),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(
		job.NewRescoreJob(pipeline),
		job.NewEpochTransitionJob(governanceSvc),
	)

	return &ApplicationContainer{
		Router:        router,
		DB:            db,
		Subscriber:    subscriber,
		CronMgr:       cronMgr,
		GovernanceSvc: governanceSvc,
		Producer:      producer,
	}, nil
}
