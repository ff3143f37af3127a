package handler

import (
	"Commonfeed/internal/api/dto"
	"Commonfeed/internal/model"
	"Commonfeed/internal/pkg/consts"
	"Commonfeed/internal/pkg/response"
	"Commonfeed/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type GovernanceHandler struct {
	governanceSvc service.GovernanceService
}

func NewGovernanceHandler(governanceSvc service.GovernanceService) *GovernanceHandler {
	return &GovernanceHandler{
		governanceSvc: governanceSvc,
	}
}

// GetCurrentEpoch 当前生效（或投票中）的纪元
func (s *GovernanceHandler) GetCurrentEpoch(c *gin.Context) {
	epoch, err := s.governanceSvc.GetCurrentEpoch(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	var epochDTO dto.EpochDTO
	if err = copier.Copy(&epochDTO, epoch); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, epochDTO)
}

// SubmitVote 提交（或更新）当前纪元的权重投票
func (s *GovernanceHandler) SubmitVote(c *gin.Context) {
	voterDID := c.GetString(consts.ContextDIDKey)

	var req dto.SubmitVoteDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	weights := model.WeightSet{
		Recency:    *req.Weights.Recency,
		Engagement: *req.Weights.Engagement,
		Bridging:   *req.Weights.Bridging,
		Diversity:  *req.Weights.Diversity,
		Relevance:  *req.Weights.Relevance,
	}

	if err := s.governanceSvc.SubmitVote(c.Request.Context(), voterDID, weights); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// OpenVoting 开启当前纪元的投票窗口
func (s *GovernanceHandler) OpenVoting(c *gin.Context) {
	actorDID := c.GetString(consts.ContextDIDKey)

	var req dto.OpenVotingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.governanceSvc.OpenVoting(c.Request.Context(), actorDID, req.VotingEndsAt, req.AutoTransition); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Transition 手动轮换纪元
func (s *GovernanceHandler) Transition(c *gin.Context) {
	actorDID := c.GetString(consts.ContextDIDKey)

	var req dto.TransitionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	next, err := s.governanceSvc.Transition(c.Request.Context(), actorDID, req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}

	var epochDTO dto.EpochDTO
	if err = copier.Copy(&epochDTO, next); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, epochDTO)
}

// OverrideRules 覆写当前纪元的关键词规则
func (s *GovernanceHandler) OverrideRules(c *gin.Context) {
	actorDID := c.GetString(consts.ContextDIDKey)

	var req dto.RulesOverrideDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.governanceSvc.OverrideRules(c.Request.Context(), actorDID, req.IncludeKeywords, req.ExcludeKeywords); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// OverrideWeights 以指定权重切换到新纪元，返回新纪元视图
func (s *GovernanceHandler) OverrideWeights(c *gin.Context) {
	actorDID := c.GetString(consts.ContextDIDKey)

	var req dto.WeightsOverrideDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	weights := model.WeightSet{
		Recency:    *req.Weights.Recency,
		Engagement: *req.Weights.Engagement,
		Bridging:   *req.Weights.Bridging,
		Diversity:  *req.Weights.Diversity,
		Relevance:  *req.Weights.Relevance,
	}

	next, err := s.governanceSvc.OverrideWeights(c.Request.Context(), actorDID, weights)
	if err != nil {
		response.Error(c, err)
		return
	}

	var epochDTO dto.EpochDTO
	if err = copier.Copy(&epochDTO, next); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, epochDTO)
}

// RegisterSubscriber 订阅者注册，handle 解析为 DID 后登记
func (s *GovernanceHandler) RegisterSubscriber(c *gin.Context) {
	var req dto.RegisterSubscriberDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	sub, err := s.governanceSvc.RegisterSubscriber(c.Request.Context(), req.Handle)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.SubscriberDTO{
		DID:    sub.DID,
		Handle: sub.Handle,
	})
}
