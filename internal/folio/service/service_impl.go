package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/frontdesk/internal/clock"
	foliodomain "github.com/smallbiznis/frontdesk/internal/folio/domain"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	RoomRepo        roomdomain.Repository
	ReservationRepo reservationdomain.Repository
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	roomRepo        roomdomain.Repository
	reservationRepo reservationdomain.Repository
	obsMetrics      *obsmetrics.Metrics
}

func NewService(p Params) foliodomain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("folio.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		roomRepo:        p.RoomRepo,
		reservationRepo: p.ReservationRepo,
		obsMetrics:      p.ObsMetrics,
	}
}

func (s *Service) PostDayClose(ctx context.Context, businessDate time.Time, postedBy string) (foliodomain.DayCloseResult, error) {
	if businessDate.IsZero() {
		return foliodomain.DayCloseResult{}, foliodomain.ErrInvalidBusinessDate
	}
	day := daterange.Truncate(businessDate)
	result := foliodomain.DayCloseResult{Revenue: decimal.Zero}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inHouse, err := s.reservationRepo.ListInHouse(ctx, tx, day)
		if err != nil {
			return err
		}
		result.InHouse = len(inHouse)
		if len(inHouse) == 0 {
			return nil
		}

		roomTypes, err := s.roomRepo.ListRoomTypes(ctx, tx)
		if err != nil {
			return err
		}
		rates := make(map[snowflake.ID]roomdomain.RoomType, len(roomTypes))
		for _, roomType := range roomTypes {
			rates[roomType.ID] = roomType
		}

		now := s.clock.Now()
		for _, reservation := range inHouse {
			roomType, ok := rates[reservation.RoomTypeID]
			if !ok {
				return fmt.Errorf("reservation %s: %w", reservation.ID, foliodomain.ErrUnknownRoomType)
			}

			posting := foliodomain.Posting{
				ID:            s.genID.Generate(),
				ReservationID: reservation.ID,
				BusinessDate:  day,
				Kind:          foliodomain.PostingKindRoomCharge,
				RoomID:        reservation.RoomID,
				Amount:        roomType.NightlyRate,
				Currency:      roomType.Currency,
				PostedBy:      postedBy,
				CreatedAt:     now,
			}
			res := insertOnce(tx.WithContext(ctx)).Create(&posting)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			result.Posted++
			result.Revenue = result.Revenue.Add(roomType.NightlyRate)
		}
		return nil
	})
	if err != nil {
		return foliodomain.DayCloseResult{}, err
	}

	s.obsMetrics.RecordFolioPostings(ctx, string(foliodomain.PostingKindRoomCharge), result.Posted)
	s.log.Info("folio.day_close.posted",
		zap.String("business_date", daterange.Format(day)),
		zap.Int("in_house", result.InHouse),
		zap.Int64("posted", result.Posted),
		zap.String("revenue", result.Revenue.StringFixed(2)),
	)
	return result, nil
}

// insertOnce skips a posting whose (reservation, business date, kind) already
// exists. Each dialect renders its own form, ON CONFLICT DO NOTHING or ON
// DUPLICATE KEY UPDATE, and RowsAffected is 0 for a skipped row in both.
func insertOnce(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "reservation_id"},
			{Name: "business_date"},
			{Name: "kind"},
		},
		DoNothing: true,
	})
}

func (s *Service) ListPostings(ctx context.Context, businessDate time.Time) ([]foliodomain.Posting, error) {
	var items []foliodomain.Posting
	err := s.db.WithContext(ctx).
		Where("business_date = ?", daterange.Truncate(businessDate)).
		Order("reservation_id asc, kind asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Revenue(ctx context.Context, businessDate time.Time) (decimal.Decimal, error) {
	postings, err := s.ListPostings(ctx, businessDate)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, posting := range postings {
		total = total.Add(posting.Amount)
	}
	return total, nil
}
