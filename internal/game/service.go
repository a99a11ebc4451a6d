package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/rivlclub/rivl/internal/model"
	"github.com/rivlclub/rivl/internal/repository"
)

// resultsStoreName はエラーメッセージに使うサービス名。
const resultsStoreName = "results store"

// otherGameLabel はカタログ外のゲームIDに使うメトリクスラベル。
const otherGameLabel = "other"

// ResultPublisher は保存済みの試合結果を外部へ通知する。
type ResultPublisher interface {
	PublishMatchResult(ctx context.Context, result *model.MatchResult) error
}

// ResultRecorder は保存した試合結果の件数を記録する。
type ResultRecorder interface {
	RecordMatchResult(gameID string)
}

// Service はゲームカタログと試合結果のビジネスロジックを提供する。
type Service struct {
	catalog   *Catalog
	repo      repository.MatchRepository
	publisher ResultPublisher
	recorder  ResultRecorder
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	catalog *Catalog,
	repo repository.MatchRepository,
	publisher ResultPublisher,
	recorder ResultRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		catalog:   catalog,
		repo:      repo,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
	}
}

// ListGames はカタログを返す。
func (s *Service) ListGames() []model.GameDescriptor {
	return s.catalog.List()
}

// SubmitResult は試合結果を1行保存し、保存された行の表現を返す。
//
// スコアの範囲、ゲームIDの存在、プレイヤーの本人性は検証しない。
// 同じ内容の送信は毎回別の行として保存される。
// 保存後の配信に失敗してもリクエストは成功として扱う。
func (s *Service) SubmitResult(ctx context.Context, result *model.MatchResult) (json.RawMessage, error) {
	data, err := s.repo.Insert(ctx, result)
	if err != nil {
		return nil, s.translate(err)
	}

	label := otherGameLabel
	if _, ok := s.catalog.Lookup(result.Game()); ok {
		label = result.Game()
	}
	s.recorder.RecordMatchResult(label)

	if !result.Complete() {
		s.logger.Debug("incomplete match result is not published", slog.String("game_id", result.Game()))
		return data, nil
	}
	if err := s.publisher.PublishMatchResult(ctx, result); err != nil {
		s.logger.Warn("failed to publish match result",
			slog.String("game_id", result.Game()),
			slog.String("error", err.Error()),
		)
	}

	return data, nil
}

// translate はリポジトリのエラーをAPIErrorに変換する。
func (s *Service) translate(err error) error {
	var rejection *repository.RejectionError
	switch {
	case errors.As(err, &rejection):
		return model.NewStoreRejectedError(rejection.Message)
	case errors.Is(err, repository.ErrNotConfigured):
		s.logger.Warn("results store is not configured")
		return model.NewNotConfiguredError(resultsStoreName)
	default:
		s.logger.Error("failed to store match result", slog.String("error", err.Error()))
		return model.NewUpstreamUnavailableError(resultsStoreName)
	}
}
