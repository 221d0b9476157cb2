package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/allocation/domain"
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
	RoomRepo        roomdomain.Repository
	ReservationRepo reservationdomain.Repository
	Metrics         *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	roomRepo        roomdomain.Repository
	reservationRepo reservationdomain.Repository
	metrics         *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("allocation.service"),
		roomRepo:        p.RoomRepo,
		reservationRepo: p.ReservationRepo,
		metrics:         p.Metrics,
	}
}

func (s *Service) WithTx(tx *gorm.DB) domain.Service {
	clone := *s
	clone.db = tx
	return &clone
}

// Allocate is deterministic first-fit: candidates are walked by room number
// and the first clean, unblocked room with no overlapping stay wins.
func (s *Service) Allocate(ctx context.Context, req domain.AllocateRequest) (roomdomain.Room, bool, error) {
	if req.RoomTypeID == 0 {
		return roomdomain.Room{}, false, domain.ErrInvalidRoomType
	}
	if err := req.Stay.Validate(); err != nil {
		return roomdomain.Room{}, false, err
	}
	stay, _ := daterange.New(req.Stay.Start, req.Stay.End)

	rooms, err := s.roomRepo.ListRooms(ctx, s.db, req.RoomTypeID)
	if err != nil {
		return roomdomain.Room{}, false, err
	}

	for _, room := range rooms {
		if !room.AllocatableFor(stay) {
			continue
		}
		// Concurrent allocations serialize on the room row, so the overlap
		// check below sees any stay committed by the lock holder.
		locked, err := s.roomRepo.LockRoom(ctx, s.db, room.ID)
		if err != nil {
			return roomdomain.Room{}, false, err
		}
		if locked == nil || !locked.AllocatableFor(stay) {
			continue
		}
		room = *locked
		free, err := s.isAvailable(ctx, room.ID, stay, req.ExcludeReservationID)
		if err != nil {
			return roomdomain.Room{}, false, err
		}
		if free {
			s.metrics.RecordAllocation(ctx, "allocated")
			s.log.Debug("allocation.room.found",
				zap.String("room_type_id", req.RoomTypeID.String()),
				zap.Int("number", room.Number),
				zap.String("check_in", daterange.Format(stay.Start)),
				zap.String("check_out", daterange.Format(stay.End)),
			)
			return room, true, nil
		}
	}

	s.metrics.RecordAllocation(ctx, "no_room")
	s.log.Info("allocation.no_room",
		zap.String("room_type_id", req.RoomTypeID.String()),
		zap.String("check_in", daterange.Format(stay.Start)),
		zap.String("check_out", daterange.Format(stay.End)),
		zap.Int("candidates", len(rooms)),
	)
	return roomdomain.Room{}, false, nil
}

func (s *Service) IsAvailable(ctx context.Context, roomID snowflake.ID, stay daterange.Interval, excludeReservationID snowflake.ID) (bool, error) {
	if err := stay.Validate(); err != nil {
		return false, err
	}
	normalized, _ := daterange.New(stay.Start, stay.End)
	return s.isAvailable(ctx, roomID, normalized, excludeReservationID)
}

func (s *Service) isAvailable(ctx context.Context, roomID snowflake.ID, stay daterange.Interval, excludeReservationID snowflake.ID) (bool, error) {
	overlapping, err := s.reservationRepo.ListOverlappingOnRoom(ctx, s.db, roomID, stay, excludeReservationID)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}
