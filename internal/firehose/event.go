package firehose

import (
	"fmt"

	"github.com/goccy/go-json"
)

const (
	KindCommit = "commit"

	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event Jetstream 推送的一条原始事件
type Event struct {
	DID    string  `json:"did"`
	TimeUS int64   `json:"time_us"`
	Kind   string  `json:"kind"`
	Commit *Commit `json:"commit,omitempty"`
}

// Commit 针对某个集合的一次提交
type Commit struct {
	Rev        string          `json:"rev"`
	Operation  string          `json:"operation"`
	Collection string          `json:"collection"`
	RKey       string          `json:"rkey"`
	CID        string          `json:"cid"`
	Record     json.RawMessage `json:"record,omitempty"`
}

// StrongRef 指向某条记录特定版本的引用
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef 回复链中父帖与根帖的引用
type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// PostRecord app.bsky.feed.post 的记录体
type PostRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Langs     []string  `json:"langs"`
	Reply     *ReplyRef `json:"reply,omitempty"`
}

// SubjectRecord 点赞/转发的记录体，subject 指向目标帖子
type SubjectRecord struct {
	Type      string    `json:"$type"`
	CreatedAt string    `json:"createdAt"`
	Subject   StrongRef `json:"subject"`
}

// FollowRecord app.bsky.graph.follow 的记录体，subject 为目标身份
type FollowRecord struct {
	Type      string `json:"$type"`
	CreatedAt string `json:"createdAt"`
	Subject   string `json:"subject"`
}

// ParseEvent 解析一条 Jetstream 消息
func ParseEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}

// RecordURI 拼出记录的内容地址 at://did/collection/rkey
func RecordURI(did, collection, rkey string) string {
	return fmt.Sprintf("at://%s/%s/%s", did, collection, rkey)
}
