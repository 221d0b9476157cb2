package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport summarizes one closed business day.
type DailyReport struct {
	HotelName     string
	ReportingDate time.Time
	GeneratedAt   time.Time
	RunID         string
	OperatorID    string

	Arrivals    int
	Departures  int
	InHouse     int
	NoShows     int64
	ClosedStays int64

	RoomRevenue decimal.Decimal
	Currency    string

	RoomTypes []RoomTypeLine
}

type RoomTypeLine struct {
	Code      string
	Name      string
	Rooms     int
	Reserved  int
	Available int
	Oversold  int
}

// Occupancy is reserved rooms over sellable rooms, in percent.
func (l RoomTypeLine) Occupancy() decimal.Decimal {
	if l.Rooms == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(l.Reserved)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(l.Rooms))).
		Round(1)
}

func (r DailyReport) TotalRooms() int {
	total := 0
	for _, line := range r.RoomTypes {
		total += line.Rooms
	}
	return total
}

func (r DailyReport) TotalReserved() int {
	total := 0
	for _, line := range r.RoomTypes {
		total += line.Reserved
	}
	return total
}
