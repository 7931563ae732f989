// Package tokensweep は期限切れリフレッシュトークンの定期削除を行う。
package tokensweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/readingclub/internal/repository"
)

// MetricsRecorder は掃除結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordTokensSwept(count int64)
}

// Sweeper は期限切れリフレッシュトークンを定期的に削除する。
type Sweeper struct {
	tokenRepo repository.RefreshTokenRepository
	metrics   MetricsRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewSweeper はSweeperの新しいインスタンスを生成する。metricsはnil可。
func NewSweeper(
	tokenRepo repository.RefreshTokenRepository,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		tokenRepo: tokenRepo,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Start は指定間隔のティッカーでスイーパーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("トークンスイーパーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("トークン掃除の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("トークンスイーパーを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("トークン掃除の実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は期限切れトークンを1回削除する。
func (s *Sweeper) RunOnce(ctx context.Context) error {
	start := time.Now()

	count, err := s.tokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordTokensSwept(count)
	}

	s.logger.Info("期限切れトークンを削除しました",
		slog.Int64("deleted_count", count),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
