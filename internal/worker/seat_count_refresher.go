package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
	redisinfra "github.com/kevinseya/app-ticketera-backend/internal/infrastructure/redis"
	"github.com/kevinseya/app-ticketera-backend/internal/pkg/logger"
)

// EventSource はイベント一覧の取得元
type EventSource interface {
	List(ctx context.Context, limit, offset int) ([]*event.Event, error)
}

// SeatCounter はイベントの空席数の取得元
type SeatCounter interface {
	CountAvailableByEventID(ctx context.Context, eventID string) (int, error)
}

// SeatCountRefresher は全イベントの空席数キャッシュを定期的に温め直すワーカー
// キャッシュは読み取り専用の補助であり、更新が多少遅れても
// 購入フローの正しさには影響しない
type SeatCountRefresher struct {
	events   EventSource
	seats    SeatCounter
	cache    redisinfra.SeatCacheInterface
	interval time.Duration
	cacheTTL time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSeatCountRefresher は新しいリフレッシャーを作成
func NewSeatCountRefresher(
	events EventSource,
	seats SeatCounter,
	cache redisinfra.SeatCacheInterface,
	interval time.Duration,
	cacheTTL time.Duration,
) *SeatCountRefresher {
	return &SeatCountRefresher{
		events:   events,
		seats:    seats,
		cache:    cache,
		interval: interval,
		cacheTTL: cacheTTL,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はリフレッシャーを開始
func (r *SeatCountRefresher) Start(ctx context.Context) {
	logger.Info("空席数リフレッシャー開始",
		zap.Duration("interval", r.interval),
		zap.Duration("cache_ttl", r.cacheTTL),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("空席数リフレッシャー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("空席数リフレッシャー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Stop はリフレッシャーを停止
func (r *SeatCountRefresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

const refreshPageSize = 100

// refresh は全イベントの空席数を数え直してキャッシュを更新する
func (r *SeatCountRefresher) refresh(ctx context.Context) {
	log := logger.Get()
	log.Debug("空席数キャッシュの更新開始")

	refreshed := 0
	for offset := 0; ; offset += refreshPageSize {
		events, err := r.events.List(ctx, refreshPageSize, offset)
		if err != nil {
			log.Error("イベント一覧取得に失敗", zap.Error(err))
			return
		}
		if len(events) == 0 {
			break
		}

		for _, ev := range events {
			count, err := r.seats.CountAvailableByEventID(ctx, ev.ID)
			if err != nil {
				log.Warn("空席数取得に失敗",
					zap.String("event_id", ev.ID), zap.Error(err))
				continue
			}
			if err := r.cache.SetAvailableCount(ctx, ev.ID, count, r.cacheTTL); err != nil {
				log.Warn("キャッシュ更新に失敗",
					zap.String("event_id", ev.ID), zap.Error(err))
				continue
			}
			refreshed++
		}

		if len(events) < refreshPageSize {
			break
		}
	}

	if refreshed > 0 {
		log.Debug("空席数キャッシュを更新", zap.Int("count", refreshed))
	}
}
