package consts

const (
	FeedRankingKey = "feed:current"
)

const (
	EpochTransitionLock = "lock:epoch:transition"
)
