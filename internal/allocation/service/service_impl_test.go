package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/allocation/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	reservationrepo "github.com/smallbiznis/frontdesk/internal/reservation/repository"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	roomrepo "github.com/smallbiznis/frontdesk/internal/room/repository"
	"github.com/smallbiznis/frontdesk/internal/testutil"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(db *gorm.DB) domain.Service {
	return New(Params{
		DB:              db,
		Log:             zap.NewNop(),
		RoomRepo:        roomrepo.Provide(),
		ReservationRepo: reservationrepo.Provide(),
	})
}

func TestAllocatePicksLowestFreeRoomNumber(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := newTestService(db)

	// inserted out of order so the result depends on ordering, not insertion
	roomType, rooms := testutil.SeedRoomType(t, db, node, "DLX", "120.00", 104, 101, 103, 105, 102)
	room101 := rooms[1]
	require.Equal(t, 101, room101.Number)

	testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: roomType.ID,
		RoomID:     &room101.ID,
		CheckIn:    testutil.Date(t, "2024-06-01"),
		CheckOut:   testutil.Date(t, "2024-06-03"),
	})

	room, ok, err := svc.Allocate(ctx, domain.AllocateRequest{
		RoomTypeID: roomType.ID,
		Stay:       testutil.Stay(t, "2024-06-01", "2024-06-03"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 102, room.Number)

	room, ok, err = svc.Allocate(ctx, domain.AllocateRequest{
		RoomTypeID: roomType.ID,
		Stay:       testutil.Stay(t, "2024-06-03", "2024-06-05"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 101, room.Number, "checkout day frees the room")
}

func TestAllocateSkipsDirtyAndBlockedRooms(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := newTestService(db)

	roomType, rooms := testutil.SeedRoomType(t, db, node, "STD", "80.00", 201, 202, 203, 204)
	blockFrom := testutil.Date(t, "2024-06-02")
	blockTo := testutil.Date(t, "2024-06-02")
	require.NoError(t, db.Model(&roomdomain.Room{}).Where("id = ?", rooms[0].ID).Update("is_clean", false).Error)
	require.NoError(t, db.Model(&roomdomain.Room{}).Where("id = ?", rooms[1].ID).Update("is_blocked", true).Error)
	require.NoError(t, db.Model(&roomdomain.Room{}).Where("id = ?", rooms[2].ID).Updates(map[string]any{
		"is_blocked": true,
		"block_from": blockFrom,
		"block_to":   blockTo,
	}).Error)

	room, ok, err := svc.Allocate(ctx, domain.AllocateRequest{
		RoomTypeID: roomType.ID,
		Stay:       testutil.Stay(t, "2024-06-01", "2024-06-03"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 204, room.Number)

	room, ok, err = svc.Allocate(ctx, domain.AllocateRequest{
		RoomTypeID: roomType.ID,
		Stay:       testutil.Stay(t, "2024-06-03", "2024-06-04"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 203, room.Number, "ranged block no longer applies")
}

func TestAllocateReportsNoRoomWithoutError(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := newTestService(db)

	roomType, rooms := testutil.SeedRoomType(t, db, node, "STE", "300.00", 301)
	testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: roomType.ID,
		RoomID:     &rooms[0].ID,
		CheckIn:    testutil.Date(t, "2024-06-01"),
		CheckOut:   testutil.Date(t, "2024-06-10"),
		Status:     reservationdomain.StatusCheckedIn,
	})

	_, ok, err := svc.Allocate(ctx, domain.AllocateRequest{
		RoomTypeID: roomType.ID,
		Stay:       testutil.Stay(t, "2024-06-05", "2024-06-06"),
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllocateExcludesReservationBeingEdited(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := newTestService(db)

	roomType, rooms := testutil.SeedRoomType(t, db, node, "STE", "300.00", 301)
	existing := testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: roomType.ID,
		RoomID:     &rooms[0].ID,
		CheckIn:    testutil.Date(t, "2024-06-01"),
		CheckOut:   testutil.Date(t, "2024-06-04"),
	})

	room, ok, err := svc.Allocate(ctx, domain.AllocateRequest{
		RoomTypeID:           roomType.ID,
		Stay:                 testutil.Stay(t, "2024-06-02", "2024-06-06"),
		ExcludeReservationID: existing.ID,
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rooms[0].ID, room.ID)
}

func TestIsAvailableIgnoresReleasedStatuses(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := newTestService(db)

	roomType, rooms := testutil.SeedRoomType(t, db, node, "DLX", "120.00", 101)
	for _, status := range []reservationdomain.Status{
		reservationdomain.StatusCancelled,
		reservationdomain.StatusNoShow,
		reservationdomain.StatusCheckedOut,
	} {
		testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
			RoomTypeID: roomType.ID,
			RoomID:     &rooms[0].ID,
			CheckIn:    testutil.Date(t, "2024-06-01"),
			CheckOut:   testutil.Date(t, "2024-06-03"),
			Status:     status,
		})
	}

	free, err := svc.IsAvailable(ctx, rooms[0].ID, testutil.Stay(t, "2024-06-01", "2024-06-03"), 0)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestAllocateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newTestService(db)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := svc.Allocate(ctx, domain.AllocateRequest{
		RoomTypeID: 1,
		Stay:       daterange.Interval{Start: day, End: day},
	})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, _, err = svc.Allocate(ctx, domain.AllocateRequest{
		Stay: daterange.Interval{Start: day, End: day.AddDate(0, 0, 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRoomType)
}

// dirtiedOnLock reports a room as dirty once it is locked, as if housekeeping
// flagged it between the candidate listing and the lock.
type dirtiedOnLock struct {
	roomdomain.Repository
	dirty  int
	locked []int
}

func (r *dirtiedOnLock) LockRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*roomdomain.Room, error) {
	room, err := r.Repository.LockRoom(ctx, db, id)
	if err != nil || room == nil {
		return room, err
	}
	r.locked = append(r.locked, room.Number)
	if room.Number == r.dirty {
		room.IsClean = false
	}
	return room, nil
}

func TestAllocateRechecksRoomUnderLock(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)

	roomType, _ := testutil.SeedRoomType(t, db, node, "STD", "90.00", 201, 202)
	rooms := &dirtiedOnLock{Repository: roomrepo.Provide(), dirty: 201}
	svc := New(Params{
		DB:              db,
		Log:             zap.NewNop(),
		RoomRepo:        rooms,
		ReservationRepo: reservationrepo.Provide(),
	})

	var room roomdomain.Room
	var ok bool
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		room, ok, err = svc.WithTx(tx).Allocate(ctx, domain.AllocateRequest{
			RoomTypeID: roomType.ID,
			Stay:       testutil.Stay(t, "2024-06-01", "2024-06-02"),
		})
		return err
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 202, room.Number)
	assert.Equal(t, []int{201, 202}, rooms.locked)
}
