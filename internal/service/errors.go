package service

import (
	"errors"
	"fmt"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrWeightsSumInvalid = errors.New("五项权重之和必须为 1.0")
	ErrNotSubscriber     = errors.New("仅限 feed 订阅者投票")
	ErrEpochNotFound     = errors.New("纪元不存在")
	ErrEpochNotActive    = errors.New("当前纪元不在可开启投票的状态")
	ErrTransitionLocked  = errors.New("另一次纪元切换正在进行")
	ErrHandleNotResolved = errors.New("无法解析该 handle")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

// InsufficientVotesError 票数不足时携带观测值与要求值返回给调用方
type InsufficientVotesError struct {
	Got  int
	Need int
}

func (e *InsufficientVotesError) Error() string {
	return fmt.Sprintf("票数不足：当前 %d 票，至少需要 %d 票（可用 force 强制切换）", e.Got, e.Need)
}

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrWeightsSumInvalid: BadRequest,
	ErrNotSubscriber:     Unauthorized,
	ErrEpochNotFound:     NotFound,
	ErrEpochNotActive:    BadRequest,
	ErrTransitionLocked:  Conflict,
	ErrHandleNotResolved: BadRequest,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}
