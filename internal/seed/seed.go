package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Result struct {
	RoomTypes    int
	Rooms        int
	Reservations int
}

type demoRoomType struct {
	code  string
	name  string
	rate  string
	floor int
	rooms int
}

var demoRoomTypes = []demoRoomType{
	{code: "STD", name: "Standard Queen", rate: "89.00", floor: 1, rooms: 10},
	{code: "DLX", name: "Deluxe King", rate: "129.00", floor: 2, rooms: 6},
	{code: "STE", name: "Junior Suite", rate: "219.00", floor: 3, rooms: 2},
}

// EnsureDemoHotel seeds a small hotel for local use. It does nothing once
// any room type exists.
func EnsureDemoHotel(db *gorm.DB, now time.Time) (Result, error) {
	if db == nil {
		return Result{}, errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return Result{}, err
	}

	ctx := context.Background()
	var result Result
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&roomdomain.RoomType{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		today := daterange.Truncate(now)
		if err := ensureBusinessDateTx(tx, today, now); err != nil {
			return err
		}

		var firstRooms []roomdomain.Room
		for _, demo := range demoRoomTypes {
			roomType := roomdomain.RoomType{
				ID:          node.Generate(),
				Code:        demo.code,
				Name:        demo.name,
				NightlyRate: decimal.RequireFromString(demo.rate),
				Currency:    "USD",
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&roomType).Error; err != nil {
				return fmt.Errorf("seed room type %s: %w", demo.code, err)
			}
			result.RoomTypes++

			for i := 1; i <= demo.rooms; i++ {
				room := roomdomain.Room{
					ID:         node.Generate(),
					RoomTypeID: roomType.ID,
					Number:     demo.floor*100 + i,
					IsClean:    true,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := tx.Create(&room).Error; err != nil {
					return fmt.Errorf("seed room %d: %w", room.Number, err)
				}
				if i == 1 {
					firstRooms = append(firstRooms, room)
				}
				result.Rooms++
			}
		}

		reservations := demoReservations(node, today, now, firstRooms)
		if err := tx.Create(&reservations).Error; err != nil {
			return fmt.Errorf("seed reservations: %w", err)
		}
		result.Reservations = len(reservations)
		return nil
	})
	return result, err
}

func ensureBusinessDateTx(tx *gorm.DB, today, now time.Time) error {
	row := businessdatedomain.BusinessDate{
		ID:        businessdatedomain.SingletonID,
		Date:      today,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// demoReservations covers each audit path: an in-house stay, a departure
// waiting to be closed, a late arrival and a future booking.
func demoReservations(node *snowflake.Node, today, now time.Time, rooms []roomdomain.Room) []reservationdomain.Reservation {
	std, dlx := rooms[0], rooms[1]
	return []reservationdomain.Reservation{
		{
			ID:         node.Generate(),
			GuestName:  "Ada Lovelace",
			RoomTypeID: std.RoomTypeID,
			RoomID:     &std.ID,
			CheckIn:    today.AddDate(0, 0, -1),
			CheckOut:   today.AddDate(0, 0, 2),
			Status:     reservationdomain.StatusCheckedIn,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         node.Generate(),
			GuestName:  "Grace Hopper",
			RoomTypeID: dlx.RoomTypeID,
			RoomID:     &dlx.ID,
			CheckIn:    today.AddDate(0, 0, -3),
			CheckOut:   today,
			Status:     reservationdomain.StatusCheckedOut,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         node.Generate(),
			GuestName:  "Alan Turing",
			RoomTypeID: std.RoomTypeID,
			CheckIn:    today.AddDate(0, 0, -2),
			CheckOut:   today.AddDate(0, 0, 1),
			Status:     reservationdomain.StatusConfirmed,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         node.Generate(),
			GuestName:  "Katherine Johnson",
			RoomTypeID: dlx.RoomTypeID,
			CheckIn:    today.AddDate(0, 0, 3),
			CheckOut:   today.AddDate(0, 0, 5),
			Status:     reservationdomain.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}
