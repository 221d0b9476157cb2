package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	allocationdomain "github.com/smallbiznis/frontdesk/internal/allocation/domain"
	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	RoomRepo   roomdomain.Repository
	Allocation allocationdomain.Service

	Availability availabilitydomain.Service `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	roomRepo     roomdomain.Repository
	allocation   allocationdomain.Service
	availability availabilitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reservation.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		roomRepo:     p.RoomRepo,
		allocation:   p.Allocation,
		availability: p.Availability,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateReservationRequest) (domain.Reservation, error) {
	guestName := strings.TrimSpace(req.GuestName)
	if guestName == "" {
		return domain.Reservation{}, domain.ErrInvalidGuestName
	}
	roomTypeID, err := parseID(req.RoomTypeID, domain.ErrInvalidRoomType)
	if err != nil {
		return domain.Reservation{}, err
	}
	stay, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return domain.Reservation{}, err
	}
	status := req.Status
	if status == "" {
		status = domain.StatusConfirmed
	}
	if status != domain.StatusPending && status != domain.StatusConfirmed {
		return domain.Reservation{}, domain.ErrInvalidStatus
	}

	var created domain.Reservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roomType, err := s.roomRepo.FindRoomType(ctx, tx, roomTypeID)
		if err != nil {
			return err
		}
		if roomType == nil {
			return domain.ErrInvalidRoomType
		}

		now := s.clock.Now()
		reservation := domain.Reservation{
			ID:         s.genID.Generate(),
			GuestName:  guestName,
			RoomTypeID: roomType.ID,
			CheckIn:    stay.Start,
			CheckOut:   stay.End,
			Status:     status,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if req.AutoAllocate {
			room, ok, err := s.allocation.WithTx(tx).Allocate(ctx, allocationdomain.AllocateRequest{
				RoomTypeID: roomType.ID,
				Stay:       stay,
			})
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNoRoomAvailable
			}
			roomID := room.ID
			reservation.RoomID = &roomID
		}

		if err := s.repo.Insert(ctx, tx, &reservation); err != nil {
			return err
		}
		created = reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.invalidateAvailability()
	s.log.Info("reservation.created",
		zap.String("reservation_id", created.ID.String()),
		zap.String("room_type_id", created.RoomTypeID.String()),
		zap.String("check_in", daterange.Format(created.CheckIn)),
		zap.String("check_out", daterange.Format(created.CheckOut)),
		zap.Bool("room_assigned", created.RoomID != nil),
	)
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	reservationID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Reservation{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, reservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if item == nil {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return *item, nil
}

// CheckIn requires a physical room; one is allocated when the reservation has none.
func (s *Service) CheckIn(ctx context.Context, id string) (domain.Reservation, error) {
	reservationID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Reservation{}, err
	}

	var updated domain.Reservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if item.Status != domain.StatusConfirmed && item.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		if item.RoomID == nil {
			room, ok, err := s.allocation.WithTx(tx).Allocate(ctx, allocationdomain.AllocateRequest{
				RoomTypeID:           item.RoomTypeID,
				Stay:                 item.Stay(),
				ExcludeReservationID: item.ID,
			})
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrRoomNotAssigned
			}
			if _, err := s.repo.AssignRoom(ctx, tx, item.ID, room.ID, now); err != nil {
				return err
			}
			roomID := room.ID
			item.RoomID = &roomID
		}

		affected, err := s.repo.UpdateStatus(ctx, tx, item.ID, item.Status, domain.StatusCheckedIn, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidTransition
		}
		item.Status = domain.StatusCheckedIn
		item.UpdatedAt = now
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.invalidateAvailability()
	s.log.Info("reservation.checked_in",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("room_id", updated.RoomID.String()),
	)
	return updated, nil
}

func (s *Service) CheckOut(ctx context.Context, id string) (domain.Reservation, error) {
	return s.transition(ctx, id, domain.StatusCheckedOut, domain.StatusCheckedIn)
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Reservation, error) {
	return s.transition(ctx, id, domain.StatusCancelled, domain.StatusPending, domain.StatusConfirmed)
}

func (s *Service) transition(ctx context.Context, id string, to domain.Status, from ...domain.Status) (domain.Reservation, error) {
	reservationID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Reservation{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, reservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if item == nil {
		return domain.Reservation{}, domain.ErrNotFound
	}
	if !statusIn(item.Status, from) {
		return domain.Reservation{}, domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	affected, err := s.repo.UpdateStatus(ctx, s.db, item.ID, item.Status, to, now)
	if err != nil {
		return domain.Reservation{}, err
	}
	if affected == 0 {
		// lost a race with another writer
		return domain.Reservation{}, domain.ErrInvalidTransition
	}

	s.invalidateAvailability()
	s.log.Info("reservation.status.updated",
		zap.String("reservation_id", item.ID.String()),
		zap.String("from", string(item.Status)),
		zap.String("to", string(to)),
	)
	item.Status = to
	item.UpdatedAt = now
	return *item, nil
}

func (s *Service) invalidateAvailability() {
	if s.availability != nil {
		s.availability.Invalidate()
	}
}

func statusIn(status domain.Status, allowed []domain.Status) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
