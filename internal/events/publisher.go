// Package events は試合結果をリーダーボード用のKafkaトピックへ配信する。
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/IBM/sarama"

	"github.com/rivlclub/rivl/internal/model"
)

// DefaultTopic はリーダーボードのコンシューマーが購読するトピック。
const DefaultTopic = "leaderboard-scores"

// ErrIncompleteResult はプレイヤーIDやスコアが欠けていてリーダーボードに載せられないことを表す。
var ErrIncompleteResult = errors.New("events: match result is missing game, player or score")

// Publisher は保存済みの試合結果を外部へ通知する。
type Publisher interface {
	PublishMatchResult(ctx context.Context, result *model.MatchResult) error
	Close() error
}

// ScoreSubmission はリーダーボードサービスが受け付けるメッセージ形式。
// LeaderboardIDにはゲームIDを使い、スコアは整数に丸める。
type ScoreSubmission struct {
	PlayerID      string         `json:"player_id"`
	LeaderboardID string         `json:"leaderboard_id"`
	Score         int64          `json:"score"`
	GameID        string         `json:"game_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// NewScoreSubmission は試合結果からメッセージを組み立てる。
// 未指定の項目はゼロ値になるため、呼び出し側でMatchResult.Completeを確認すること。
func NewScoreSubmission(result *model.MatchResult) ScoreSubmission {
	sub := ScoreSubmission{
		LeaderboardID: result.Game(),
		GameID:        result.Game(),
	}
	if result.PlayerID != nil {
		sub.PlayerID = *result.PlayerID
	}
	if result.Score != nil {
		sub.Score = int64(math.Round(*result.Score))
	}
	if result.PaymentSessionID != nil {
		sub.Metadata = map[string]any{"payment_session_id": *result.PaymentSessionID}
	}
	return sub
}

// NopPublisher はKafkaが設定されていない場合に使う何もしない実装。
type NopPublisher struct{}

// PublishMatchResult は何もしない。
func (NopPublisher) PublishMatchResult(context.Context, *model.MatchResult) error { return nil }

// Close は何もしない。
func (NopPublisher) Close() error { return nil }

// KafkaPublisher は同期プロデューサーで1件ずつ送信する。
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewProducerConfig はプロデューサーの設定を返す。timeoutはダイヤルと送信の上限。
func NewProducerConfig(timeout time.Duration) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = "rivl"
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Retry.Max = 0
	config.Producer.Timeout = timeout
	config.Net.DialTimeout = timeout
	config.Net.ReadTimeout = timeout
	config.Net.WriteTimeout = timeout
	config.Metadata.Retry.Max = 0
	return config
}

// NewKafkaPublisher はブローカーに接続してKafkaPublisherを生成する。
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration, logger *slog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer は既存のプロデューサーからKafkaPublisherを生成する。
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// PublishMatchResult は試合結果を送信する。キーはプレイヤーIDで、同一プレイヤーの順序を保つ。
func (p *KafkaPublisher) PublishMatchResult(ctx context.Context, result *model.MatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !result.Complete() {
		return ErrIncompleteResult
	}

	sub := NewScoreSubmission(result)
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode score submission: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(sub.PlayerID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("failed to publish match result: %w", err)
	}

	p.logger.Debug("match result published",
		slog.String("topic", p.topic),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

// Close はプロデューサーを閉じる。
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
