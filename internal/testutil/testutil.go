// Package testutil holds fixtures shared by service tests: an isolated
// in-memory database with the full schema plus helpers to seed inventory.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/frontdesk/internal/migration"
	obslogger "github.com/smallbiznis/frontdesk/internal/observability/logger"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenDB returns a migrated in-memory database private to the calling test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig(), zap.NewNop()),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func Node(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

// Date parses "2006-01-02" or fails the test.
func Date(t testing.TB, value string) time.Time {
	t.Helper()
	d, err := daterange.Parse(value)
	require.NoError(t, err)
	return d
}

func Stay(t testing.TB, checkIn, checkOut string) daterange.Interval {
	t.Helper()
	stay, err := daterange.New(Date(t, checkIn), Date(t, checkOut))
	require.NoError(t, err)
	return stay
}

// SeedRoomType creates a room type with one clean room per number.
func SeedRoomType(t testing.TB, db *gorm.DB, node *snowflake.Node, code string, rate string, numbers ...int) (roomdomain.RoomType, []roomdomain.Room) {
	t.Helper()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	roomType := roomdomain.RoomType{
		ID:          node.Generate(),
		Code:        code,
		Name:        code,
		NightlyRate: decimal.RequireFromString(rate),
		Currency:    "USD",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&roomType).Error)

	rooms := make([]roomdomain.Room, 0, len(numbers))
	for _, number := range numbers {
		room := roomdomain.Room{
			ID:         node.Generate(),
			RoomTypeID: roomType.ID,
			Number:     number,
			IsClean:    true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		require.NoError(t, db.Create(&room).Error)
		rooms = append(rooms, room)
	}
	return roomType, rooms
}

// SeedReservation inserts r after filling the id and timestamps.
func SeedReservation(t testing.TB, db *gorm.DB, node *snowflake.Node, r reservationdomain.Reservation) reservationdomain.Reservation {
	t.Helper()

	if r.ID == 0 {
		r.ID = node.Generate()
	}
	if r.GuestName == "" {
		r.GuestName = "Guest " + r.ID.String()
	}
	if r.Status == "" {
		r.Status = reservationdomain.StatusConfirmed
	}
	r.CheckIn = daterange.Truncate(r.CheckIn)
	r.CheckOut = daterange.Truncate(r.CheckOut)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.CreatedAt = now
	r.UpdatedAt = now
	require.NoError(t, db.Create(&r).Error)
	return r
}

func LoadReservation(t testing.TB, db *gorm.DB, id snowflake.ID) reservationdomain.Reservation {
	t.Helper()
	var r reservationdomain.Reservation
	require.NoError(t, db.Where("id = ?", id).First(&r).Error)
	return r
}
