package service

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("businessdate.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) GetCurrentDate(ctx context.Context) (time.Time, error) {
	row, err := s.Get(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return row.Date, nil
}

func (s *Service) Get(ctx context.Context) (domain.BusinessDate, error) {
	row, err := s.repo.Find(ctx, s.db)
	if err != nil {
		return domain.BusinessDate{}, err
	}
	if row != nil {
		row.Date = daterange.Truncate(row.Date)
		return *row, nil
	}

	now := s.clock.Now()
	seed := domain.BusinessDate{
		Date:      daterange.Truncate(now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertIfAbsent(ctx, s.db, &seed); err != nil {
		return domain.BusinessDate{}, err
	}

	// another caller may have created the row first
	row, err = s.repo.Find(ctx, s.db)
	if err != nil {
		return domain.BusinessDate{}, err
	}
	if row == nil {
		return domain.BusinessDate{}, fmt.Errorf("business date row missing after insert")
	}
	row.Date = daterange.Truncate(row.Date)
	s.log.Info("businessdate.initialized", zap.String("business_date", daterange.Format(row.Date)))
	return *row, nil
}

func (s *Service) SetCurrentDate(ctx context.Context, date time.Time, userID string) error {
	if date.IsZero() {
		return domain.ErrInvalidDate
	}
	day := daterange.Truncate(date)
	if _, err := s.Get(ctx); err != nil {
		return err
	}

	affected, err := s.repo.Set(ctx, s.db, day, userID, s.clock.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConcurrentUpdate
	}
	s.log.Info("businessdate.set",
		zap.String("business_date", daterange.Format(day)),
		zap.String("user_id", userID),
	)
	return nil
}

func (s *Service) AdvanceToNextDate(ctx context.Context, userID string) (time.Time, error) {
	current, err := s.GetCurrentDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return s.AdvanceFrom(ctx, current, userID)
}

func (s *Service) AdvanceFrom(ctx context.Context, expected time.Time, userID string) (time.Time, error) {
	if expected.IsZero() {
		return time.Time{}, domain.ErrInvalidDate
	}
	from := daterange.Truncate(expected)
	next := daterange.AddDays(from, 1)

	affected, err := s.repo.Advance(ctx, s.db, from, next, userID, s.clock.Now())
	if err != nil {
		return time.Time{}, err
	}
	if affected == 0 {
		return time.Time{}, domain.ErrConcurrentUpdate
	}
	s.log.Info("businessdate.advanced",
		zap.String("from", daterange.Format(from)),
		zap.String("to", daterange.Format(next)),
		zap.String("user_id", userID),
	)
	return next, nil
}
