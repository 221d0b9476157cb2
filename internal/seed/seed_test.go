package seed

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureDemoHotelSeedsOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_once?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&roomdomain.RoomType{},
		&roomdomain.Room{},
		&reservationdomain.Reservation{},
		&businessdatedomain.BusinessDate{},
	))

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	result, err := EnsureDemoHotel(db, now)
	require.NoError(t, err)
	assert.Equal(t, Result{RoomTypes: 3, Rooms: 18, Reservations: 4}, result)

	again, err := EnsureDemoHotel(db, now)
	require.NoError(t, err)
	assert.Equal(t, Result{}, again)

	var rooms int64
	require.NoError(t, db.Model(&roomdomain.Room{}).Count(&rooms).Error)
	assert.Equal(t, int64(18), rooms)

	var row businessdatedomain.BusinessDate
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "2024-06-10", row.Date.Format("2006-01-02"))
}
