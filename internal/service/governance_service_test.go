package service

import (
	"Commonfeed/internal/model"
	"Commonfeed/internal/pkg/consts"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memEpochRepo struct {
	epochs []*model.Epoch
	nextID uint64
}

func newMemEpochRepo() *memEpochRepo {
	return &memEpochRepo{nextID: 1}
}

func (m *memEpochRepo) GetCurrentEpoch(context.Context) (*model.Epoch, error) {
	for i := len(m.epochs) - 1; i >= 0; i-- {
		if m.epochs[i].Status != consts.EpochStatusClosed {
			return m.epochs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memEpochRepo) GetEpoch(_ context.Context, id uint64) (*model.Epoch, error) {
	for _, e := range m.epochs {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memEpochRepo) CreateEpoch(_ context.Context, epoch *model.Epoch) error {
	epoch.ID = m.nextID
	m.nextID++
	m.epochs = append(m.epochs, epoch)
	return nil
}

func (m *memEpochRepo) UpdateEpoch(context.Context, *model.Epoch) error { return nil }

func (m *memEpochRepo) Transition(ctx context.Context, closing *model.Epoch, next *model.Epoch) error {
	return m.CreateEpoch(ctx, next)
}

func (m *memEpochRepo) GetDueEpochs(_ context.Context, now time.Time) ([]*model.Epoch, error) {
	var due []*model.Epoch
	for _, e := range m.epochs {
		if e.Status == consts.EpochStatusVoting && e.AutoTransition &&
			e.VotingEndsAt != nil && !e.VotingEndsAt.After(now) {
			due = append(due, e)
		}
	}
	return due, nil
}

func (m *memEpochRepo) IncrementVoteCount(ctx context.Context, id uint64) error {
	epoch, err := m.GetEpoch(ctx, id)
	if err != nil {
		return err
	}
	epoch.VoteCount++
	return nil
}

type memVoteRepo struct {
	votes map[uint64]map[string]*model.Vote
}

func newMemVoteRepo() *memVoteRepo {
	return &memVoteRepo{votes: make(map[uint64]map[string]*model.Vote)}
}

func (m *memVoteRepo) UpsertVote(_ context.Context, vote *model.Vote) (bool, error) {
	byVoter, ok := m.votes[vote.EpochID]
	if !ok {
		byVoter = make(map[string]*model.Vote)
		m.votes[vote.EpochID] = byVoter
	}
	_, existed := byVoter[vote.VoterDID]
	byVoter[vote.VoterDID] = vote
	return !existed, nil
}

func (m *memVoteRepo) GetVotesByEpoch(_ context.Context, epochID uint64) ([]*model.Vote, error) {
	var votes []*model.Vote
	for _, v := range m.votes[epochID] {
		votes = append(votes, v)
	}
	return votes, nil
}

func (m *memVoteRepo) CountVotes(_ context.Context, epochID uint64) (int64, error) {
	return int64(len(m.votes[epochID])), nil
}

type memAuditRepo struct {
	entries []*model.AuditLog
}

func (m *memAuditRepo) Append(_ context.Context, entry *model.AuditLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditRepo) actions() []string {
	actions := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

type memSubscriberRepo struct {
	subs map[string]*model.Subscriber
}

func newMemSubscriberRepo(dids ...string) *memSubscriberRepo {
	subs := make(map[string]*model.Subscriber)
	for _, did := range dids {
		subs[did] = &model.Subscriber{DID: did}
	}
	return &memSubscriberRepo{subs: subs}
}

func (m *memSubscriberRepo) UpsertSubscriber(_ context.Context, sub *model.Subscriber) error {
	m.subs[sub.DID] = sub
	return nil
}

func (m *memSubscriberRepo) Exists(_ context.Context, did string) (bool, error) {
	_, ok := m.subs[did]
	return ok, nil
}

func (m *memSubscriberRepo) Count(context.Context) (int64, error) {
	return int64(len(m.subs)), nil
}

type fakeResolver struct {
	dids map[string]string
}

func (f *fakeResolver) ResolveHandle(_ context.Context, handle string) (string, error) {
	did, ok := f.dids[handle]
	if !ok {
		return "", errors.New("handle not found")
	}
	return did, nil
}

type fakeAnnouncer struct {
	transitions []*model.TransitionDetails
}

func (f *fakeAnnouncer) AnnounceEpochTransition(_ context.Context, details *model.TransitionDetails) error {
	f.transitions = append(f.transitions, details)
	return nil
}

type fakeLocker struct {
	held bool
}

func (f *fakeLocker) Acquire(context.Context, string) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLocker) Release(context.Context, string) {
	f.held = false
}

type governanceFixture struct {
	svc       GovernanceService
	epochRepo *memEpochRepo
	voteRepo  *memVoteRepo
	auditRepo *memAuditRepo
	subRepo   *memSubscriberRepo
	announcer *fakeAnnouncer
	locker    *fakeLocker
}

func newGovernanceFixture(minVotes int, subscriberDIDs ...string) *governanceFixture {
	f := &governanceFixture{
		epochRepo: newMemEpochRepo(),
		voteRepo:  newMemVoteRepo(),
		auditRepo: &memAuditRepo{},
		subRepo:   newMemSubscriberRepo(subscriberDIDs...),
		announcer: &fakeAnnouncer{},
		locker:    &fakeLocker{},
	}
	f.svc = NewGovernanceService(
		f.epochRepo,
		f.voteRepo,
		f.auditRepo,
		f.subRepo,
		&fakeResolver{dids: map[string]string{"alice.bsky.social": "did:plc:alice"}},
		f.announcer,
		f.locker,
		GovernanceConfig{MinVotes: minVotes, TrimRatio: 0.1},
	)
	return f
}

func validWeights() model.WeightSet {
	return model.WeightSet{Recency: 0.3, Engagement: 0.3, Bridging: 0.2, Diversity: 0.1, Relevance: 0.1}
}

func TestGetCurrentEpochCreatesGenesis(t *testing.T) {
	f := newGovernanceFixture(10)

	epoch, err := f.svc.GetCurrentEpoch(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), epoch.ID)
	require.Equal(t, consts.EpochStatusActive, epoch.Status)
	require.Equal(t, model.DefaultWeights(), epoch.Weights)

	// 再次读取返回同一个纪元而不是新建
	again, err := f.svc.GetCurrentEpoch(context.Background())
	require.NoError(t, err)
	require.Equal(t, epoch.ID, again.ID)
}

func TestSubmitVoteValidation(t *testing.T) {
	f := newGovernanceFixture(10, "did:plc:alice")
	ctx := context.Background()

	// 权重之和不为 1 拒绝
	bad := model.WeightSet{Recency: 0.5, Engagement: 0.5, Bridging: 0.5}
	require.ErrorIs(t, f.svc.SubmitVote(ctx, "did:plc:alice", bad), ErrWeightsSumInvalid)

	// 非订阅者拒绝
	require.ErrorIs(t, f.svc.SubmitVote(ctx, "did:plc:stranger", validWeights()), ErrNotSubscriber)

	require.NoError(t, f.svc.SubmitVote(ctx, "did:plc:alice", validWeights()))
}

func TestSubmitVoteResubmitUpdates(t *testing.T) {
	f := newGovernanceFixture(10, "did:plc:alice")
	ctx := context.Background()

	require.NoError(t, f.svc.SubmitVote(ctx, "did:plc:alice", validWeights()))
	second := model.WeightSet{Recency: 0.2, Engagement: 0.2, Bridging: 0.2, Diversity: 0.2, Relevance: 0.2}
	require.NoError(t, f.svc.SubmitVote(ctx, "did:plc:alice", second))

	epoch, err := f.svc.GetCurrentEpoch(ctx)
	require.NoError(t, err)

	// 重复提交是更新而不是加票
	require.Equal(t, 1, epoch.VoteCount)
	votes, err := f.voteRepo.GetVotesByEpoch(ctx, epoch.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.Equal(t, second, votes[0].Weights)

	// 两次提交都进审计
	require.Equal(t, []string{
		model.AuditActionVoteSubmitted,
		model.AuditActionVoteSubmitted,
	}, f.auditRepo.actions())
}

func TestTransitionInsufficientVotes(t *testing.T) {
	f := newGovernanceFixture(10, "did:plc:alice")
	ctx := context.Background()

	require.NoError(t, f.svc.SubmitVote(ctx, "did:plc:alice", validWeights()))

	_, err := f.svc.Transition(ctx, "did:plc:mod", false)
	var insufficient *InsufficientVotesError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 1, insufficient.Got)
	require.Equal(t, 10, insufficient.Need)

	// 锁必须已释放
	require.False(t, f.locker.held)
}

func TestTransitionForced(t *testing.T) {
	f := newGovernanceFixture(10, "did:plc:alice")
	ctx := context.Background()

	require.NoError(t, f.svc.SubmitVote(ctx, "did:plc:alice", validWeights()))

	next, err := f.svc.Transition(ctx, "did:plc:mod", true)
	require.NoError(t, err)
	require.Equal(t, consts.EpochStatusActive, next.Status)
	require.InDelta(t, 1.0, next.Weights.Sum(), 1e-9)

	// 审计里记录强制标记与票数
	require.Len(t, f.announcer.transitions, 1)
	details := f.announcer.transitions[0]
	require.True(t, details.Forced)
	require.Equal(t, 1, details.VoteCount)
	require.Equal(t, "manual", details.Trigger)
	require.Contains(t, f.auditRepo.actions(), model.AuditActionEpochTransition)
}

func TestTransitionCarriesKeywordRules(t *testing.T) {
	f := newGovernanceFixture(1, "did:plc:alice")
	ctx := context.Background()

	require.NoError(t, f.svc.OverrideRules(ctx, "did:plc:mod", []string{"golang"}, []string{"spam"}))
	require.NoError(t, f.svc.SubmitVote(ctx, "did:plc:alice", validWeights()))

	next, err := f.svc.Transition(ctx, "did:plc:mod", false)
	require.NoError(t, err)
	require.Equal(t, model.StringList{"golang"}, next.IncludeKeywords)
	require.Equal(t, model.StringList{"spam"}, next.ExcludeKeywords)
}

func TestOverrideWeightsCreatesSuccessorEpoch(t *testing.T) {
	f := newGovernanceFixture(10)
	ctx := context.Background()

	current, err := f.svc.GetCurrentEpoch(ctx)
	require.NoError(t, err)
	require.NoError(t, f.svc.OverrideRules(ctx, "did:plc:mod", []string{"golang"}, nil))

	override := model.WeightSet{Recency: 0.4, Engagement: 0.3, Bridging: 0.1, Diversity: 0.1, Relevance: 0.1}
	next, err := f.svc.OverrideWeights(ctx, "did:plc:mod", override)
	require.NoError(t, err)

	// 权重覆写是一次切换：旧纪元关闭，后继纪元携带指定权重与原关键词规则
	require.NotEqual(t, current.ID, next.ID)
	require.Equal(t, consts.EpochStatusActive, next.Status)
	require.Equal(t, override, next.Weights)
	require.Equal(t, model.StringList{"golang"}, next.IncludeKeywords)

	// 不聚合投票也不受最小票数约束，触发方式记为 override
	require.Len(t, f.announcer.transitions, 1)
	require.Equal(t, "override", f.announcer.transitions[0].Trigger)
	require.False(t, f.announcer.transitions[0].Forced)
	require.Contains(t, f.auditRepo.actions(), model.AuditActionEpochTransition)
}

func TestOverrideWeightsRejectsInvalidSum(t *testing.T) {
	f := newGovernanceFixture(10)

	bad := model.WeightSet{Recency: 0.9, Engagement: 0.9}
	_, err := f.svc.OverrideWeights(context.Background(), "did:plc:mod", bad)
	require.ErrorIs(t, err, ErrWeightsSumInvalid)
	require.Empty(t, f.announcer.transitions)
}

func TestTransitionNoVotesCarriesWeights(t *testing.T) {
	f := newGovernanceFixture(10)
	ctx := context.Background()

	current, err := f.svc.GetCurrentEpoch(ctx)
	require.NoError(t, err)

	next, err := f.svc.Transition(ctx, "did:plc:mod", true)
	require.NoError(t, err)
	require.Equal(t, current.Weights, next.Weights)
}

func TestTransitionLocked(t *testing.T) {
	f := newGovernanceFixture(10)
	f.locker.held = true

	_, err := f.svc.Transition(context.Background(), "did:plc:mod", true)
	require.ErrorIs(t, err, ErrTransitionLocked)
}

func TestOpenVotingAndScheduledTransition(t *testing.T) {
	f := newGovernanceFixture(10, "did:plc:alice")
	ctx := context.Background()

	endsAt := time.Now().Add(-time.Minute)
	require.NoError(t, f.svc.OpenVoting(ctx, "did:plc:mod", &endsAt, true))

	epoch, err := f.svc.GetCurrentEpoch(ctx)
	require.NoError(t, err)
	require.Equal(t, consts.EpochStatusVoting, epoch.Status)

	// 已进入投票状态的纪元不能再次开启
	require.ErrorIs(t, f.svc.OpenVoting(ctx, "did:plc:mod", &endsAt, true), ErrEpochNotActive)

	// 定时切换不受最小票数约束
	require.NoError(t, f.svc.RunScheduledTransitions(ctx))

	next, err := f.svc.GetCurrentEpoch(ctx)
	require.NoError(t, err)
	require.Greater(t, next.ID, epoch.ID)
	require.Equal(t, consts.EpochStatusActive, next.Status)
	require.Len(t, f.announcer.transitions, 1)
	require.Equal(t, "scheduled", f.announcer.transitions[0].Trigger)
}

func TestRegisterSubscriber(t *testing.T) {
	f := newGovernanceFixture(10)
	ctx := context.Background()

	sub, err := f.svc.RegisterSubscriber(ctx, "alice.bsky.social")
	require.NoError(t, err)
	require.Equal(t, "did:plc:alice", sub.DID)

	eligible, err := f.subRepo.Exists(ctx, "did:plc:alice")
	require.NoError(t, err)
	require.True(t, eligible)

	// 解析失败返回业务错误
	_, err = f.svc.RegisterSubscriber(ctx, "nobody.example.com")
	require.ErrorIs(t, err, ErrHandleNotResolved)

	_, err = f.svc.RegisterSubscriber(ctx, "")
	require.ErrorIs(t, err, ErrParamInvalid)
}
