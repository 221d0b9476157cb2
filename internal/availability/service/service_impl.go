package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/availability/domain"
	"github.com/smallbiznis/frontdesk/internal/cache"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	RoomRepo        roomdomain.Repository
	ReservationRepo reservationdomain.Repository
	AuditConfig     *config.AuditConfigHolder `optional:"true"`
	Metrics         *obsmetrics.Metrics       `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	roomRepo        roomdomain.Repository
	reservationRepo reservationdomain.Repository
	auditConfig     *config.AuditConfigHolder
	metrics         *obsmetrics.Metrics
	cache           cache.Cache[string, []domain.DayCount]
}

func New(p Params) domain.Service {
	now := p.Clock.Now
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("availability.service"),
		roomRepo:        p.RoomRepo,
		reservationRepo: p.ReservationRepo,
		auditConfig:     p.AuditConfig,
		metrics:         p.Metrics,
		cache:           cache.NewTTLCacheWithClock[string, []domain.DayCount](now),
	}
}

func (s *Service) CountAvailable(ctx context.Context, roomTypeID snowflake.ID, interval daterange.Interval) (domain.DailyCounts, error) {
	if roomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	days, err := s.Breakdown(ctx, roomTypeID, interval)
	if err != nil {
		return nil, err
	}
	return toDailyCounts(days), nil
}

func (s *Service) CountAll(ctx context.Context, interval daterange.Interval) (map[snowflake.ID]domain.DailyCounts, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}
	roomTypes, err := s.roomRepo.ListRoomTypes(ctx, s.db)
	if err != nil {
		return nil, err
	}

	out := make(map[snowflake.ID]domain.DailyCounts, len(roomTypes))
	for _, roomType := range roomTypes {
		days, err := s.Breakdown(ctx, roomType.ID, interval)
		if err != nil {
			return nil, err
		}
		out[roomType.ID] = toDailyCounts(days)
	}
	return out, nil
}

func (s *Service) Breakdown(ctx context.Context, roomTypeID snowflake.ID, interval daterange.Interval) ([]domain.DayCount, error) {
	if roomTypeID == 0 {
		return nil, domain.ErrInvalidRoomType
	}
	if err := interval.Validate(); err != nil {
		return nil, err
	}
	interval, _ = daterange.New(interval.Start, interval.End)

	key := cacheKey(roomTypeID, interval)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordAvailabilityQuery(ctx, "cache")
		return cloneDays(cached), nil
	}

	rooms, err := s.roomRepo.ListRooms(ctx, s.db, roomTypeID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservationRepo.ListOccupying(ctx, s.db, roomTypeID, interval)
	if err != nil {
		return nil, err
	}

	days := countDays(rooms, reservations, interval)
	s.metrics.RecordAvailabilityQuery(ctx, "db")
	if ttl := s.cacheTTL(); ttl > 0 {
		s.cache.Set(key, cloneDays(days), ttl)
	}
	return days, nil
}

func (s *Service) Invalidate() {
	dropped := s.cache.Len()
	s.cache.Purge()
	s.log.Debug("availability.cache.invalidated", zap.Int("entries", dropped))
}

func (s *Service) cacheTTL() time.Duration {
	return s.auditConfig.Get().AvailabilityCacheTTL
}

func countDays(rooms []roomdomain.Room, reservations []reservationdomain.Reservation, interval daterange.Interval) []domain.DayCount {
	days := interval.Days()
	out := make([]domain.DayCount, 0, len(days))
	for _, day := range days {
		total := 0
		for _, room := range rooms {
			if !room.BlockedOn(day) {
				total++
			}
		}
		reserved := 0
		for _, reservation := range reservations {
			if reservation.Stay().Contains(day) {
				reserved++
			}
		}

		count := domain.DayCount{
			Date:     daterange.Format(day),
			Rooms:    total,
			Reserved: reserved,
		}
		if diff := total - reserved; diff > 0 {
			count.Available = diff
		} else {
			count.Oversold = -diff
		}
		out = append(out, count)
	}
	return out
}

func toDailyCounts(days []domain.DayCount) domain.DailyCounts {
	out := make(domain.DailyCounts, len(days))
	for _, day := range days {
		out[day.Date] = day.Available
	}
	return out
}

func cloneDays(days []domain.DayCount) []domain.DayCount {
	return append([]domain.DayCount(nil), days...)
}

func cacheKey(roomTypeID snowflake.ID, interval daterange.Interval) string {
	return fmt.Sprintf("%d|%s|%s", roomTypeID, daterange.Format(interval.Start), daterange.Format(interval.End))
}
