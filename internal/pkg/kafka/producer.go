package kafka

import (
	"Commonfeed/internal/api/config"
	"Commonfeed/internal/model"
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Announcement 发往公告总线的一条消息，供外部公告机器人消费
type Announcement struct {
	Kind      string      `json:"kind"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type feedPublishedPayload struct {
	EpochID   uint64 `json:"epoch_id"`
	Published int    `json:"published"`
}

// Producer 治理与排行事件的对外通知
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	saramaCfg := newSaramaConfig(cfg)

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create sync producer")
	}
	return &Producer{
		producer: producer,
		topic:    cfg.AnnouncementTopic,
	}, nil
}

// AnnounceEpochTransition 纪元切换通知
func (p *Producer) AnnounceEpochTransition(ctx context.Context, details *model.TransitionDetails) error {
	return p.send("epoch_transition", details)
}

// AnnounceFeedPublished 排行发布通知
func (p *Producer) AnnounceFeedPublished(ctx context.Context, epochID uint64, published int) error {
	return p.send("feed_published", feedPublishedPayload{EpochID: epochID, Published: published})
}

func (p *Producer) send(kind string, payload interface{}) error {
	value, err := json.Marshal(Announcement{
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(kind),
		Value: sarama.ByteEncoder(value),
	})
	return errors.Wrap(err, "send announcement")
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
