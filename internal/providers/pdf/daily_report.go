package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	reportdomain "github.com/smallbiznis/frontdesk/internal/report/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateDailyReport(ctx context.Context, report reportdomain.DailyReport) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, report.HotelName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(10,
		text.NewCol(12, "Night audit report", props.Text{
			Size:  14,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Business date: "+daterange.Format(report.ReportingDate), props.Text{Top: 0}),
			text.New("Generated: "+report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), props.Text{Top: 5}),
			text.New("Run: "+report.RunID, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Operator: "+report.OperatorID, props.Text{Top: 0, Align: align.Right}),
			text.New("Room revenue: "+report.RoomRevenue.StringFixed(2)+" "+report.Currency, props.Text{Top: 5, Align: align.Right, Style: fontstyle.Bold}),
		),
	)

	m.AddRow(8, text.NewCol(12, "Movements", props.Text{Style: fontstyle.Bold, Size: 11}))
	summary := []struct {
		label string
		value string
	}{
		{"Arrivals", fmt.Sprintf("%d", report.Arrivals)},
		{"Departures", fmt.Sprintf("%d", report.Departures)},
		{"In-house", fmt.Sprintf("%d", report.InHouse)},
		{"No-shows marked", fmt.Sprintf("%d", report.NoShows)},
		{"Stays closed", fmt.Sprintf("%d", report.ClosedStays)},
	}
	for _, item := range summary {
		m.AddRow(6,
			text.NewCol(8, item.label, props.Text{Size: 9}),
			text.NewCol(4, item.value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10, text.NewCol(12, "Inventory", props.Text{Style: fontstyle.Bold, Size: 11, Top: 3}))
	m.AddRow(8,
		text.NewCol(2, "Code", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Room type", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Rooms", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Sold", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Free", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Over", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Occupancy", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, l := range report.RoomTypes {
		m.AddRow(7,
			text.NewCol(2, l.Code, props.Text{Size: 9}),
			text.NewCol(4, l.Name, props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", l.Rooms), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, fmt.Sprintf("%d", l.Reserved), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, fmt.Sprintf("%d", l.Available), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, fmt.Sprintf("%d", l.Oversold), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, l.Occupancy().StringFixed(1)+"%", props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		text.NewCol(6, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, fmt.Sprintf("%d", report.TotalRooms()), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, fmt.Sprintf("%d", report.TotalReserved()), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		col.New(4),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
