package service

import (
	"context"
	"testing"
	"time"

	allocationservice "github.com/smallbiznis/frontdesk/internal/allocation/service"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/reservation/domain"
	"github.com/smallbiznis/frontdesk/internal/reservation/repository"
	roomrepo "github.com/smallbiznis/frontdesk/internal/room/repository"
	"github.com/smallbiznis/frontdesk/internal/testutil"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()
	return New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    testutil.Node(t),
		Clock:    clock.NewFakeClock(time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(),
		RoomRepo: roomrepo.Provide(),
		Allocation: allocationservice.New(allocationservice.Params{
			DB:              db,
			Log:             zap.NewNop(),
			RoomRepo:        roomrepo.Provide(),
			ReservationRepo: repository.Provide(),
		}),
	})
}

func TestCreateWithAutoAllocateAssignsFirstFreeRoom(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	roomType, rooms := testutil.SeedRoomType(t, db, testutil.Node(t), "DLX", "120.00", 101, 102)

	first, err := svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:    "Ada",
		RoomTypeID:   roomType.ID.String(),
		CheckIn:      testutil.Date(t, "2024-06-01"),
		CheckOut:     testutil.Date(t, "2024-06-03"),
		AutoAllocate: true,
	})
	require.NoError(t, err)
	require.NotNil(t, first.RoomID)
	assert.Equal(t, rooms[0].ID, *first.RoomID)
	assert.Equal(t, domain.StatusConfirmed, first.Status)

	second, err := svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:    "Grace",
		RoomTypeID:   roomType.ID.String(),
		CheckIn:      testutil.Date(t, "2024-06-02"),
		CheckOut:     testutil.Date(t, "2024-06-04"),
		AutoAllocate: true,
	})
	require.NoError(t, err)
	require.NotNil(t, second.RoomID)
	assert.Equal(t, rooms[1].ID, *second.RoomID)

	_, err = svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:    "Linus",
		RoomTypeID:   roomType.ID.String(),
		CheckIn:      testutil.Date(t, "2024-06-02"),
		CheckOut:     testutil.Date(t, "2024-06-03"),
		AutoAllocate: true,
	})
	assert.ErrorIs(t, err, domain.ErrNoRoomAvailable)
}

func TestCreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	roomType, _ := testutil.SeedRoomType(t, db, testutil.Node(t), "DLX", "120.00", 101)

	_, err := svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:  "Ada",
		RoomTypeID: roomType.ID.String(),
		CheckIn:    testutil.Date(t, "2024-06-03"),
		CheckOut:   testutil.Date(t, "2024-06-03"),
	})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:  "  ",
		RoomTypeID: roomType.ID.String(),
		CheckIn:    testutil.Date(t, "2024-06-01"),
		CheckOut:   testutil.Date(t, "2024-06-03"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGuestName)

	_, err = svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:  "Ada",
		RoomTypeID: "12345",
		CheckIn:    testutil.Date(t, "2024-06-01"),
		CheckOut:   testutil.Date(t, "2024-06-03"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRoomType)

	_, err = svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:  "Ada",
		RoomTypeID: roomType.ID.String(),
		CheckIn:    testutil.Date(t, "2024-06-01"),
		CheckOut:   testutil.Date(t, "2024-06-03"),
		Status:     domain.StatusCheckedIn,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestCheckInAllocatesAndCheckOutReleases(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	roomType, rooms := testutil.SeedRoomType(t, db, testutil.Node(t), "DLX", "120.00", 101)

	created, err := svc.Create(ctx, domain.CreateReservationRequest{
		GuestName:  "Ada",
		RoomTypeID: roomType.ID.String(),
		CheckIn:    testutil.Date(t, "2024-06-01"),
		CheckOut:   testutil.Date(t, "2024-06-03"),
	})
	require.NoError(t, err)
	require.Nil(t, created.RoomID)

	checkedIn, err := svc.CheckIn(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.RoomID)
	assert.Equal(t, rooms[0].ID, *checkedIn.RoomID)

	_, err = svc.Cancel(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	checkedOut, err := svc.CheckOut(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedOut, checkedOut.Status)

	stored, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedOut, stored.Status)
	assert.False(t, stored.IsClosed)
}

func TestGetByIDReportsNotFound(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	_, err := svc.GetByID(context.Background(), "1234567")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
