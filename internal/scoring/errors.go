package scoring

import "errors"

// ErrRescoreInProgress 已有一次重算在运行，冲突同步返回给调用方
var ErrRescoreInProgress = errors.New("重算正在进行中，请稍后再试")
