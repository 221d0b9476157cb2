package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/frontdesk/internal/clock"
	foliodomain "github.com/smallbiznis/frontdesk/internal/folio/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	reservationrepo "github.com/smallbiznis/frontdesk/internal/reservation/repository"
	roomrepo "github.com/smallbiznis/frontdesk/internal/room/repository"
	"github.com/smallbiznis/frontdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestPostDayCloseChargesInHouseStaysOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := NewService(Params{
		DB:              db,
		Log:             zap.NewNop(),
		GenID:           node,
		Clock:           clock.NewFakeClock(time.Date(2024, 6, 11, 2, 0, 0, 0, time.UTC)),
		RoomRepo:        roomrepo.Provide(),
		ReservationRepo: reservationrepo.Provide(),
	})

	deluxe, rooms := testutil.SeedRoomType(t, db, node, "DLX", "120.50", 101, 102)
	inHouse := testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: deluxe.ID,
		RoomID:     &rooms[0].ID,
		CheckIn:    testutil.Date(t, "2024-06-09"),
		CheckOut:   testutil.Date(t, "2024-06-12"),
		Status:     reservationdomain.StatusCheckedIn,
	})
	// departs on the business date, so the night is not charged
	testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: deluxe.ID,
		RoomID:     &rooms[1].ID,
		CheckIn:    testutil.Date(t, "2024-06-08"),
		CheckOut:   testutil.Date(t, "2024-06-10"),
		Status:     reservationdomain.StatusCheckedIn,
	})
	testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: deluxe.ID,
		CheckIn:    testutil.Date(t, "2024-06-10"),
		CheckOut:   testutil.Date(t, "2024-06-11"),
		Status:     reservationdomain.StatusConfirmed,
	})

	businessDate := testutil.Date(t, "2024-06-10")
	first, err := svc.PostDayClose(ctx, businessDate, "auditor")
	require.NoError(t, err)
	assert.Equal(t, 1, first.InHouse)
	assert.Equal(t, int64(1), first.Posted)
	assert.Equal(t, "120.50", first.Revenue.StringFixed(2))

	second, err := svc.PostDayClose(ctx, businessDate, "auditor")
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Posted, "second pass must not double post")

	postings, err := svc.ListPostings(ctx, businessDate)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, inHouse.ID, postings[0].ReservationID)
	assert.Equal(t, foliodomain.PostingKindRoomCharge, postings[0].Kind)

	revenue, err := svc.Revenue(ctx, businessDate)
	require.NoError(t, err)
	assert.Equal(t, "120.50", revenue.StringFixed(2))
}

func TestPostDayCloseRejectsZeroDate(t *testing.T) {
	svc := NewService(Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Now()),
	})
	_, err := svc.PostDayClose(context.Background(), time.Time{}, "auditor")
	assert.ErrorIs(t, err, foliodomain.ErrInvalidBusinessDate)
}

func TestInsertOnceRendersPerDialect(t *testing.T) {
	posting := foliodomain.Posting{
		ID:            1,
		ReservationID: 2,
		BusinessDate:  time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Kind:          foliodomain.PostingKindRoomCharge,
		Amount:        decimal.RequireFromString("120.50"),
		Currency:      "USD",
		CreatedAt:     time.Date(2024, 6, 11, 2, 0, 0, 0, time.UTC),
	}
	cases := []struct {
		name      string
		dialector gorm.Dialector
		want      string
	}{
		{
			name: "mysql",
			dialector: mysql.New(mysql.Config{
				DSN:                       "frontdesk:secret@tcp(localhost:3306)/frontdesk?parseTime=true",
				SkipInitializeWithVersion: true,
			}),
			want: "ON DUPLICATE KEY UPDATE",
		},
		{
			name:      "postgres",
			dialector: postgres.New(postgres.Config{DSN: "host=localhost user=frontdesk dbname=frontdesk"}),
			want:      "ON CONFLICT (\"reservation_id\",\"business_date\",\"kind\") DO NOTHING",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, err := gorm.Open(tc.dialector, &gorm.Config{DryRun: true, DisableAutomaticPing: true})
			require.NoError(t, err)

			p := posting
			stmt := insertOnce(db).Create(&p).Statement
			sql := stmt.SQL.String()
			assert.Contains(t, sql, "INSERT INTO")
			assert.Contains(t, sql, tc.want)
			if tc.name == "mysql" {
				assert.NotContains(t, sql, "ON CONFLICT")
			}
		})
	}
}
