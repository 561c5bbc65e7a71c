package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"machata/internal/database"
	"machata/internal/domain"
	"machata/internal/events"
	"machata/internal/models"

	"github.com/rs/zerolog"
)

// VIPService реестр скидок с кэшем в памяти. Кэш живет ограниченное
// время и сбрасывается при любой записи, чтобы скидка применялась
// сразу после изменения админом.
type VIPService struct {
	repo     domain.VIPRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	ttl      time.Duration

	mu       sync.RWMutex
	cache    map[int64]*models.VIPUser
	loadedAt time.Time
}

func NewVIPService(repo domain.VIPRepository, eventBus domain.EventPublisher, ttl time.Duration, logger *zerolog.Logger) *VIPService {
	if ttl <= 0 {
		ttl = models.VIPCacheTTL * time.Second
	}
	return &VIPService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		ttl:      ttl,
	}
}

// GetVIP возвращает запись из кэша, перечитывая реестр по истечении TTL.
// Отсутствие записи не ошибка: nil без ошибки значит обычный клиент.
func (s *VIPService) GetVIP(ctx context.Context, userID int64) (*models.VIPUser, error) {
	s.mu.RLock()
	fresh := s.cache != nil && time.Since(s.loadedAt) < s.ttl
	if fresh {
		vip := s.cache[userID]
		s.mu.RUnlock()
		return vip, nil
	}
	s.mu.RUnlock()

	if err := s.reload(ctx); err != nil {
		// при недоступной БД пробуем устаревший кэш
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.cache != nil {
			s.logger.Warn().Err(err).Msg("vip registry reload failed, serving stale cache")
			return s.cache[userID], nil
		}
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[userID], nil
}

func (s *VIPService) reload(ctx context.Context) error {
	vips, err := s.repo.ListVIPs(ctx)
	if err != nil {
		return err
	}

	cache := make(map[int64]*models.VIPUser, len(vips))
	for _, vip := range vips {
		cache[vip.UserID] = vip
	}

	s.mu.Lock()
	s.cache = cache
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *VIPService) UpsertVIP(ctx context.Context, vip *models.VIPUser) error {
	if err := s.repo.UpsertVIP(ctx, vip); err != nil {
		return err
	}
	s.Refresh()

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventVIPUpdated, events.VIPEventPayload{
			UserID:     vip.UserID,
			Name:       vip.Name,
			Discount:   vip.Discount,
			CustomRate: vip.CustomRate,
		})
	}
	return nil
}

func (s *VIPService) DeleteVIP(ctx context.Context, userID int64) error {
	err := s.repo.DeleteVIP(ctx, userID)
	if err != nil && !errors.Is(err, database.ErrVIPNotFound) {
		return err
	}
	s.Refresh()

	if err == nil && s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventVIPDeleted, events.VIPEventPayload{UserID: userID})
	}
	return err
}

func (s *VIPService) ListVIPs(ctx context.Context) ([]*models.VIPUser, error) {
	return s.repo.ListVIPs(ctx)
}

// Refresh сбрасывает кэш, следующее чтение уйдет в БД.
func (s *VIPService) Refresh() {
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}
