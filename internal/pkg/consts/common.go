package consts

// Jetstream 订阅的四种集合
const (
	CollectionPost   = "app.bsky.feed.post"
	CollectionLike   = "app.bsky.feed.like"
	CollectionRepost = "app.bsky.feed.repost"
	CollectionFollow = "app.bsky.graph.follow"
)

// SystemActor 审计日志中系统自身操作的身份标识
const SystemActor = "system"

// ContextDIDKey 请求上下文中存放用户 DID 的键
const ContextDIDKey = "did"

// RoleModerator 可以执行治理写操作的角色
const RoleModerator = "moderator"

const (
	EpochStatusActive = "active"
	EpochStatusVoting = "voting"
	EpochStatusClosed = "closed"
)
