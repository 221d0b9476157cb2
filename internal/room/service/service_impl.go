package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository

	Availability availabilitydomain.Service `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	availability availabilitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("room.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		availability: p.Availability,
	}
}

func (s *Service) CreateRoomType(ctx context.Context, req domain.CreateRoomTypeRequest) (domain.RoomType, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.RoomType{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.RoomType{}, domain.ErrInvalidName
	}
	if req.NightlyRate.IsNegative() {
		return domain.RoomType{}, domain.ErrInvalidRate
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := s.clock.Now()
	roomType := domain.RoomType{
		ID:          s.genID.Generate(),
		Code:        code,
		Name:        name,
		NightlyRate: req.NightlyRate.Round(2),
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertRoomType(ctx, s.db, &roomType); err != nil {
		return domain.RoomType{}, err
	}
	return roomType, nil
}

func (s *Service) CreateRoom(ctx context.Context, req domain.CreateRoomRequest) (domain.Room, error) {
	roomTypeID, err := parseID(req.RoomTypeID, domain.ErrInvalidRoomType)
	if err != nil {
		return domain.Room{}, err
	}
	if req.Number <= 0 {
		return domain.Room{}, domain.ErrInvalidNumber
	}

	roomType, err := s.repo.FindRoomType(ctx, s.db, roomTypeID)
	if err != nil {
		return domain.Room{}, err
	}
	if roomType == nil {
		return domain.Room{}, domain.ErrInvalidRoomType
	}

	now := s.clock.Now()
	room := domain.Room{
		ID:         s.genID.Generate(),
		RoomTypeID: roomType.ID,
		Number:     req.Number,
		IsClean:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertRoom(ctx, s.db, &room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *Service) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	return s.repo.ListRoomTypes(ctx, s.db)
}

func (s *Service) ListRooms(ctx context.Context, roomTypeID string) ([]domain.Room, error) {
	var id snowflake.ID
	if strings.TrimSpace(roomTypeID) != "" {
		parsed, err := parseID(roomTypeID, domain.ErrInvalidRoomType)
		if err != nil {
			return nil, err
		}
		id = parsed
	}
	return s.repo.ListRooms(ctx, s.db, id)
}

// UpdateHousekeeping patches clean and block state. Only the fields that are
// set change; clearing IsBlocked also clears the block range.
func (s *Service) UpdateHousekeeping(ctx context.Context, req domain.UpdateHousekeepingRequest) (domain.Room, error) {
	roomID, err := parseID(req.RoomID, domain.ErrInvalidRoom)
	if err != nil {
		return domain.Room{}, err
	}

	var updated domain.Room
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.repo.FindRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return domain.ErrNotFound
		}

		update := domain.HousekeepingUpdate{
			IsClean:   room.IsClean,
			IsBlocked: room.IsBlocked,
			BlockFrom: room.BlockFrom,
			BlockTo:   room.BlockTo,
		}
		if req.IsClean != nil {
			update.IsClean = *req.IsClean
		}
		if req.IsBlocked != nil {
			update.IsBlocked = *req.IsBlocked
		}
		if req.BlockFrom != nil {
			from := daterange.Truncate(*req.BlockFrom)
			update.BlockFrom = &from
		}
		if req.BlockTo != nil {
			to := daterange.Truncate(*req.BlockTo)
			update.BlockTo = &to
		}
		if !update.IsBlocked {
			update.BlockFrom, update.BlockTo = nil, nil
		}
		if update.BlockFrom != nil && update.BlockTo != nil && update.BlockTo.Before(*update.BlockFrom) {
			return domain.ErrInvalidBlockRange
		}

		now := s.clock.Now()
		if _, err := s.repo.UpdateHousekeeping(ctx, tx, roomID, update, now); err != nil {
			return err
		}

		room.IsClean = update.IsClean
		room.IsBlocked = update.IsBlocked
		room.BlockFrom = update.BlockFrom
		room.BlockTo = update.BlockTo
		room.UpdatedAt = now
		updated = *room
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}

	if s.availability != nil {
		s.availability.Invalidate()
	}

	s.log.Info("room.housekeeping.updated",
		zap.String("room_id", updated.ID.String()),
		zap.Int("number", updated.Number),
		zap.Bool("is_clean", updated.IsClean),
		zap.Bool("is_blocked", updated.IsBlocked),
	)
	return updated, nil
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
