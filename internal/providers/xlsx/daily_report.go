// Package xlsx renders spreadsheet exports with excelize.
package xlsx

import (
	"bytes"
	"context"
	"io"

	reportdomain "github.com/smallbiznis/frontdesk/internal/report/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
)

const (
	summarySheet   = "Summary"
	inventorySheet = "Inventory"
)

type Provider interface {
	GenerateDailyReport(ctx context.Context, report reportdomain.DailyReport) (io.Reader, error)
}

type ExcelProvider struct{}

func New() Provider {
	return &ExcelProvider{}
}

var Module = fx.Module("providers.xlsx",
	fx.Provide(New),
)

func (p *ExcelProvider) GenerateDailyReport(ctx context.Context, report reportdomain.DailyReport) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(inventorySheet); err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Hotel", report.HotelName},
		{"Business date", daterange.Format(report.ReportingDate)},
		{"Generated at", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Run", report.RunID},
		{"Operator", report.OperatorID},
		{"Arrivals", report.Arrivals},
		{"Departures", report.Departures},
		{"In-house", report.InHouse},
		{"No-shows marked", report.NoShows},
		{"Stays closed", report.ClosedStays},
		{"Room revenue", report.RoomRevenue.InexactFloat64()},
		{"Currency", report.Currency},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	header := []any{"Code", "Room type", "Rooms", "Sold", "Available", "Oversold", "Occupancy %"}
	if err := f.SetSheetRow(inventorySheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, line := range report.RoomTypes {
		row := []any{
			line.Code,
			line.Name,
			line.Rooms,
			line.Reserved,
			line.Available,
			line.Oversold,
			line.Occupancy().InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
