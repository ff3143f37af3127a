package firehose

import (
	"Commonfeed/internal/model"
	"Commonfeed/internal/pkg/consts"
	"Commonfeed/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// EventHandler 把解码后的事件落到事件存储。
// 任何单条事件的失败只记录日志，绝不中断流。
type EventHandler struct {
	postRepo        repository.PostRepo
	interactionRepo repository.InteractionRepo
	followRepo      repository.FollowRepo
	engagementRepo  repository.EngagementRepo
}

func NewEventHandler(
	postRepo repository.PostRepo,
	interactionRepo repository.InteractionRepo,
	followRepo repository.FollowRepo,
	engagementRepo repository.EngagementRepo,
) *EventHandler {
	return &EventHandler{
		postRepo:        postRepo,
		interactionRepo: interactionRepo,
		followRepo:      followRepo,
		engagementRepo:  engagementRepo,
	}
}

// Handle 处理一条已解码的事件
func (h *EventHandler) Handle(ctx context.Context, evt *Event) {
	if evt.Kind != KindCommit || evt.Commit == nil {
		return
	}
	commit := evt.Commit
	uri := RecordURI(evt.DID, commit.Collection, commit.RKey)

	switch commit.Operation {
	case OpDelete:
		// 删除对四种集合一律处理，先于任何按类分发的逻辑
		h.handleDelete(ctx, commit.Collection, uri)
	case OpCreate:
		h.handleCreate(ctx, evt, commit, uri)
	default:
		// update 不在处理范围内
	}
}

func (h *EventHandler) handleDelete(ctx context.Context, collection, uri string) {
	var err error
	switch collection {
	case consts.CollectionPost:
		err = h.postRepo.SoftDeletePost(ctx, uri)
	case consts.CollectionLike:
		// 重复投递的删除只回退一次计数，已软删的行不再扣减
		if like, getErr := h.interactionRepo.GetLike(ctx, uri); getErr == nil && !like.IsDeleted {
			h.bumpEngagement(ctx, "unlike", like.SubjectURI, func(bgCtx context.Context) error {
				return h.engagementRepo.BumpLikes(bgCtx, like.SubjectURI, -1)
			})
		}
		err = h.interactionRepo.SoftDeleteLike(ctx, uri)
	case consts.CollectionRepost:
		if repost, getErr := h.interactionRepo.GetRepost(ctx, uri); getErr == nil && !repost.IsDeleted {
			h.bumpEngagement(ctx, "unrepost", repost.SubjectURI, func(bgCtx context.Context) error {
				return h.engagementRepo.BumpReposts(bgCtx, repost.SubjectURI, -1)
			})
		}
		err = h.interactionRepo.SoftDeleteRepost(ctx, uri)
	case consts.CollectionFollow:
		err = h.followRepo.SoftDeleteFollow(ctx, uri)
	default:
		return
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.ErrorContext(ctx, "handle delete error", "collection", collection, "uri", uri, "err", err)
	}
}

func (h *EventHandler) handleCreate(ctx context.Context, evt *Event, commit *Commit, uri string) {
	switch commit.Collection {
	case consts.CollectionPost:
		h.handlePostCreate(ctx, evt, commit, uri)
	case consts.CollectionLike:
		h.handleLikeCreate(ctx, evt, commit, uri)
	case consts.CollectionRepost:
		h.handleRepostCreate(ctx, evt, commit, uri)
	case consts.CollectionFollow:
		h.handleFollowCreate(ctx, evt, commit, uri)
	}
}

func (h *EventHandler) handlePostCreate(ctx context.Context, evt *Event, commit *Commit, uri string) {
	if commit.CID == "" || len(commit.Record) == 0 {
		log.WarnContext(ctx, "post create missing cid or record, skipped", "uri", uri)
		return
	}

	var record PostRecord
	if err := json.Unmarshal(commit.Record, &record); err != nil {
		log.ErrorContext(ctx, "unmarshal post record error", "uri", uri, "err", err)
		return
	}

	post := &model.Post{
		URI:       uri,
		CID:       commit.CID,
		AuthorDID: evt.DID,
		Text:      record.Text,
		Langs:     joinLangs(record.Langs),
		CreatedAt: parseRecordTime(record.CreatedAt, evt.TimeUS),
		IndexedAt: time.Now(),
	}
	if record.Reply != nil {
		post.ReplyParentURI = record.Reply.Parent.URI
	}

	if err := h.postRepo.UpsertPost(ctx, post); err != nil {
		log.ErrorContext(ctx, "upsert post error", "uri", uri, "err", err)
		return
	}

	if post.ReplyParentURI != "" {
		parent := post.ReplyParentURI
		h.bumpEngagement(ctx, "reply", parent, func(bgCtx context.Context) error {
			return h.engagementRepo.BumpReplies(bgCtx, parent, 1)
		})
	}
}

func (h *EventHandler) handleLikeCreate(ctx context.Context, evt *Event, commit *Commit, uri string) {
	var record SubjectRecord
	if len(commit.Record) == 0 {
		log.WarnContext(ctx, "like create missing record, skipped", "uri", uri)
		return
	}
	if err := json.Unmarshal(commit.Record, &record); err != nil {
		log.ErrorContext(ctx, "unmarshal like record error", "uri", uri, "err", err)
		return
	}
	if record.Subject.URI == "" {
		log.WarnContext(ctx, "like create missing subject, skipped", "uri", uri)
		return
	}

	like := &model.Like{
		URI:        uri,
		AuthorDID:  evt.DID,
		SubjectURI: record.Subject.URI,
		CreatedAt:  parseRecordTime(record.CreatedAt, evt.TimeUS),
	}
	if err := h.interactionRepo.UpsertLike(ctx, like); err != nil {
		log.ErrorContext(ctx, "upsert like error", "uri", uri, "err", err)
		return
	}

	subject := record.Subject.URI
	h.bumpEngagement(ctx, "like", subject, func(bgCtx context.Context) error {
		return h.engagementRepo.BumpLikes(bgCtx, subject, 1)
	})
}

func (h *EventHandler) handleRepostCreate(ctx context.Context, evt *Event, commit *Commit, uri string) {
	var record SubjectRecord
	if len(commit.Record) == 0 {
		log.WarnContext(ctx, "repost create missing record, skipped", "uri", uri)
		return
	}
	if err := json.Unmarshal(commit.Record, &record); err != nil {
		log.ErrorContext(ctx, "unmarshal repost record error", "uri", uri, "err", err)
		return
	}
	if record.Subject.URI == "" {
		log.WarnContext(ctx, "repost create missing subject, skipped", "uri", uri)
		return
	}

	repost := &model.Repost{
		URI:        uri,
		AuthorDID:  evt.DID,
		SubjectURI: record.Subject.URI,
		CreatedAt:  parseRecordTime(record.CreatedAt, evt.TimeUS),
	}
	if err := h.interactionRepo.UpsertRepost(ctx, repost); err != nil {
		log.ErrorContext(ctx, "upsert repost error", "uri", uri, "err", err)
		return
	}

	subject := record.Subject.URI
	h.bumpEngagement(ctx, "repost", subject, func(bgCtx context.Context) error {
		return h.engagementRepo.BumpReposts(bgCtx, subject, 1)
	})
}

func (h *EventHandler) handleFollowCreate(ctx context.Context, evt *Event, commit *Commit, uri string) {
	var record FollowRecord
	if len(commit.Record) == 0 {
		log.WarnContext(ctx, "follow create missing record, skipped", "uri", uri)
		return
	}
	if err := json.Unmarshal(commit.Record, &record); err != nil {
		log.ErrorContext(ctx, "unmarshal follow record error", "uri", uri, "err", err)
		return
	}
	if record.Subject == "" {
		log.WarnContext(ctx, "follow create missing subject, skipped", "uri", uri)
		return
	}

	follow := &model.Follow{
		URI:        uri,
		AuthorDID:  evt.DID,
		SubjectDID: record.Subject,
		CreatedAt:  parseRecordTime(record.CreatedAt, evt.TimeUS),
	}
	if err := h.followRepo.UpsertFollow(ctx, follow); err != nil {
		log.ErrorContext(ctx, "upsert follow error", "uri", uri, "err", err)
	}
}

// bumpEngagement 互动计数是尽力而为的次级写入，
// 不等待结果，失败只记日志，永远不影响主写入的成功路径。
func (h *EventHandler) bumpEngagement(ctx context.Context, kind, postURI string, fn func(context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		if err := fn(bgCtx); err != nil {
			log.ErrorContext(bgCtx, "bump engagement error", "kind", kind, "post_uri", postURI, "err", err)
		}
	}()
}

func parseRecordTime(value string, timeUS int64) time.Time {
	if value != "" {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t
		}
	}
	if timeUS > 0 {
		return time.UnixMicro(timeUS)
	}
	return time.Now()
}

func joinLangs(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	joined := langs[0]
	for _, l := range langs[1:] {
		joined += "," + l
	}
	return joined
}
