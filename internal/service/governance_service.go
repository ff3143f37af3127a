package service

import (
	"Commonfeed/internal/model"
	"Commonfeed/internal/pkg/consts"
	"Commonfeed/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"gorm.io/gorm"
)

const weightSumTolerance = 1e-6

// TransitionAnnouncer 纪元切换后的对外通知，尽力而为
type TransitionAnnouncer interface {
	AnnounceEpochTransition(ctx context.Context, details *model.TransitionDetails) error
}

// HandleResolver 把 handle 解析为 DID
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// TransitionLocker 纪元切换的互斥锁
type TransitionLocker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

// GovernanceConfig 治理参数
type GovernanceConfig struct {
	MinVotes  int
	TrimRatio float64
}

// GovernanceService 纪元状态机、投票与审计的唯一入口
type GovernanceService interface {
	GetCurrentEpoch(ctx context.Context) (*model.Epoch, error)
	SubmitVote(ctx context.Context, voterDID string, weights model.WeightSet) error
	OpenVoting(ctx context.Context, actorDID string, endsAt *time.Time, autoTransition bool) error
	Transition(ctx context.Context, actorDID string, force bool) (*model.Epoch, error)
	RunScheduledTransitions(ctx context.Context) error
	OverrideRules(ctx context.Context, actorDID string, include, exclude []string) error
	OverrideWeights(ctx context.Context, actorDID string, weights model.WeightSet) (*model.Epoch, error)
	RegisterSubscriber(ctx context.Context, handle string) (*model.Subscriber, error)
}

type GovernanceServiceImpl struct {
	epochRepo      repository.EpochRepo
	voteRepo       repository.VoteRepo
	auditRepo      repository.AuditRepo
	subscriberRepo repository.SubscriberRepo
	resolver       HandleResolver
	announcer      TransitionAnnouncer
	locker         TransitionLocker
	cfg            GovernanceConfig
}

func NewGovernanceService(
	epochRepo repository.EpochRepo,
	voteRepo repository.VoteRepo,
	auditRepo repository.AuditRepo,
	subscriberRepo repository.SubscriberRepo,
	resolver HandleResolver,
	announcer TransitionAnnouncer,
	locker TransitionLocker,
	cfg GovernanceConfig,
) GovernanceService {
	if cfg.MinVotes <= 0 {
		cfg.MinVotes = DefaultMinVotesForTrim
	}
	if cfg.TrimRatio <= 0 {
		cfg.TrimRatio = DefaultTrimRatio
	}
	return &GovernanceServiceImpl{
		epochRepo:      epochRepo,
		voteRepo:       voteRepo,
		auditRepo:      auditRepo,
		subscriberRepo: subscriberRepo,
		resolver:       resolver,
		announcer:      announcer,
		locker:         locker,
		cfg:            cfg,
	}
}

// GetCurrentEpoch 没有任何纪元时惰性创建创世纪元
func (s *GovernanceServiceImpl) GetCurrentEpoch(ctx context.Context) (*model.Epoch, error) {
	epoch, err := s.epochRepo.GetCurrentEpoch(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			genesis := &model.Epoch{
				Status:    consts.EpochStatusActive,
				Weights:   model.DefaultWeights(),
				CreatedAt: time.Now(),
			}
			if err = s.epochRepo.CreateEpoch(ctx, genesis); err != nil {
				return nil, err
			}
			return genesis, nil
		}
		return nil, err
	}
	return epoch, nil
}

// SubmitVote 一人一纪元一票，重复提交视为更新。仅限订阅者。
func (s *GovernanceServiceImpl) SubmitVote(ctx context.Context, voterDID string, weights model.WeightSet) error {
	if !weights.SumIsOne(weightSumTolerance) {
		return ErrWeightsSumInvalid
	}

	eligible, err := s.subscriberRepo.Exists(ctx, voterDID)
	if err != nil {
		return err
	}
	if !eligible {
		return ErrNotSubscriber
	}

	epoch, err := s.GetCurrentEpoch(ctx)
	if err != nil {
		return err
	}

	created, err := s.voteRepo.UpsertVote(ctx, &model.Vote{
		VoterDID: voterDID,
		EpochID:  epoch.ID,
		Weights:  weights,
	})
	if err != nil {
		return err
	}
	if created {
		if err = s.epochRepo.IncrementVoteCount(ctx, epoch.ID); err != nil {
			log.ErrorContext(ctx, "increment vote count error", "epoch_id", epoch.ID, "err", err)
		}
	}

	s.audit(ctx, model.AuditActionVoteSubmitted, &epoch.ID, voterDID, &model.VoteDetails{
		Weights:     weights,
		Resubmitted: !created,
	})
	return nil
}

// OpenVoting 把当前纪元置为投票状态并设定窗口
func (s *GovernanceServiceImpl) OpenVoting(ctx context.Context, actorDID string, endsAt *time.Time, autoTransition bool) error {
	epoch, err := s.GetCurrentEpoch(ctx)
	if err != nil {
		return err
	}
	if epoch.Status != consts.EpochStatusActive {
		return ErrEpochNotActive
	}

	epoch.Status = consts.EpochStatusVoting
	epoch.VotingEndsAt = endsAt
	epoch.AutoTransition = autoTransition
	if err = s.epochRepo.UpdateEpoch(ctx, epoch); err != nil {
		return err
	}

	details := &model.VotingOpenedDetails{AutoTransition: autoTransition}
	if endsAt != nil {
		details.VotingEndsAt = endsAt.Format(time.RFC3339)
	}
	s.audit(ctx, model.AuditActionVotingOpened, &epoch.ID, actorDID, details)
	return nil
}

// Transition 关闭当前纪元，聚合其全部投票，创建新的生效纪元。
// 非强制时受最小票数约束；强制切换总会在审计里标记。
func (s *GovernanceServiceImpl) Transition(ctx context.Context, actorDID string, force bool) (*model.Epoch, error) {
	return s.transition(ctx, actorDID, force, "manual", nil)
}

// transition 共用的切换路径。override 非空时新纪元直接采用指定权重，
// 不做投票聚合，也不受最小票数约束。
func (s *GovernanceServiceImpl) transition(ctx context.Context, actorDID string, force bool, trigger string, override *model.WeightSet) (*model.Epoch, error) {
	if s.locker != nil {
		ok, err := s.locker.Acquire(ctx, consts.EpochTransitionLock)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTransitionLocked
		}
		defer s.locker.Release(ctx, consts.EpochTransitionLock)
	}

	closing, err := s.GetCurrentEpoch(ctx)
	if err != nil {
		return nil, err
	}

	votes, err := s.voteRepo.GetVotesByEpoch(ctx, closing.ID)
	if err != nil {
		return nil, err
	}

	if len(votes) < s.cfg.MinVotes && !force && trigger == "manual" {
		return nil, &InsufficientVotesError{Got: len(votes), Need: s.cfg.MinVotes}
	}

	weights := model.WeightSet{}
	if override != nil {
		weights = *override
	} else {
		weights = AggregateWeights(votes, closing.Weights, s.cfg.MinVotes, s.cfg.TrimRatio)
	}

	now := time.Now()
	closing.Status = consts.EpochStatusClosed
	closing.ClosedAt = &now
	closing.VoteCount = len(votes)

	// 关键词规则沿用到新纪元，直到被覆写
	next := &model.Epoch{
		Status:          consts.EpochStatusActive,
		Weights:         weights,
		IncludeKeywords: closing.IncludeKeywords,
		ExcludeKeywords: closing.ExcludeKeywords,
		CreatedAt:       now,
	}

	if err = s.epochRepo.Transition(ctx, closing, next); err != nil {
		return nil, err
	}

	details := &model.TransitionDetails{
		FromEpochID: closing.ID,
		NewEpochID:  next.ID,
		VoteCount:   len(votes),
		Forced:      force,
		Trigger:     trigger,
		NewWeights:  weights,
	}
	s.audit(ctx, model.AuditActionEpochTransition, &next.ID, actorDID, details)

	if s.announcer != nil {
		if err = s.announcer.AnnounceEpochTransition(ctx, details); err != nil {
			log.WarnContext(ctx, "announce epoch transition error", "err", err)
		}
	}

	log.InfoContext(ctx, "epoch transition complete",
		"from", closing.ID,
		"to", next.ID,
		"votes", len(votes),
		"forced", force,
		"trigger", trigger)
	return next, nil
}

// RunScheduledTransitions 处理投票窗口已过且开启自动切换的纪元
func (s *GovernanceServiceImpl) RunScheduledTransitions(ctx context.Context) error {
	due, err := s.epochRepo.GetDueEpochs(ctx, time.Now())
	if err != nil {
		return err
	}
	for range due {
		if _, err = s.transition(ctx, consts.SystemActor, false, "scheduled", nil); err != nil {
			log.ErrorContext(ctx, "scheduled transition error", "err", err)
		}
	}
	return nil
}

// OverrideRules 覆写当前纪元的内容过滤关键词
func (s *GovernanceServiceImpl) OverrideRules(ctx context.Context, actorDID string, include, exclude []string) error {
	epoch, err := s.GetCurrentEpoch(ctx)
	if err != nil {
		return err
	}

	epoch.IncludeKeywords = include
	epoch.ExcludeKeywords = exclude
	if err = s.epochRepo.UpdateEpoch(ctx, epoch); err != nil {
		return err
	}

	s.audit(ctx, model.AuditActionRulesOverride, &epoch.ID, actorDID, &model.RulesOverrideDetails{
		IncludeKeywords: include,
		ExcludeKeywords: exclude,
	})
	return nil
}

// OverrideWeights 以指定权重开启新纪元替代当前纪元。
// 纪元 ID 同时是打分的版本令牌，权重变化必须触发全量重算，
// 所以这里走一次切换创建后继纪元，而不是就地改写当前纪元。
func (s *GovernanceServiceImpl) OverrideWeights(ctx context.Context, actorDID string, weights model.WeightSet) (*model.Epoch, error) {
	if !weights.SumIsOne(weightSumTolerance) {
		return nil, ErrWeightsSumInvalid
	}
	return s.transition(ctx, actorDID, false, "override", &weights)
}

// RegisterSubscriber 解析 handle 为 DID 并登记为订阅者
func (s *GovernanceServiceImpl) RegisterSubscriber(ctx context.Context, handle string) (*model.Subscriber, error) {
	if handle == "" {
		return nil, ErrParamInvalid
	}

	did, err := s.resolver.ResolveHandle(ctx, handle)
	if err != nil {
		log.WarnContext(ctx, "resolve handle error", "handle", handle, "err", err)
		return nil, ErrHandleNotResolved
	}

	sub := &model.Subscriber{
		DID:       did,
		Handle:    handle,
		CreatedAt: time.Now(),
	}
	if err = s.subscriberRepo.UpsertSubscriber(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// audit 审计写入失败只记日志，绝不回滚已完成的主操作
func (s *GovernanceServiceImpl) audit(ctx context.Context, action string, epochID *uint64, actorDID string, details model.AuditDetails) {
	entry := &model.AuditLog{
		Action:    action,
		EpochID:   epochID,
		ActorDID:  actorDID,
		Details:   model.MarshalAuditDetails(details),
		CreatedAt: time.Now(),
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		log.ErrorContext(ctx, "append audit log error", "action", action, "err", err)
	}
}
