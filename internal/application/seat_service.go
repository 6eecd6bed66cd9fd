package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	redisinfra "github.com/kevinseya/app-ticketera-backend/internal/infrastructure/redis"
	"github.com/kevinseya/app-ticketera-backend/internal/pkg/logger"
)

const (
	seatCacheTTL = 30 * time.Second
)

type SeatService struct {
	seatRepo seat.Repository
	cache    redisinfra.SeatCacheInterface
}

func NewSeatService(sr seat.Repository, cache redisinfra.SeatCacheInterface) *SeatService {
	return &SeatService{seatRepo: sr, cache: cache}
}

func (s *SeatService) GetSeatsByEvent(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	return s.seatRepo.GetByEventID(ctx, eventID)
}

func (s *SeatService) GetAvailableSeatsByEvent(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	return s.seatRepo.GetAvailableByEventID(ctx, eventID)
}

func (s *SeatService) CountAvailableSeats(ctx context.Context, eventID string) (int, error) {
	// キャッシュから取得を試みる
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, eventID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("event_id", eventID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	// DBから取得
	count, err := s.seatRepo.CountAvailableByEventID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, eventID, count, seatCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return count, nil
}

// InvalidateCache はイベントの空席数キャッシュを無効化する
func (s *SeatService) InvalidateCache(ctx context.Context, eventID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}
