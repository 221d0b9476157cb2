package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	availabilityservice "github.com/smallbiznis/frontdesk/internal/availability/service"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	folioservice "github.com/smallbiznis/frontdesk/internal/folio/service"
	"github.com/smallbiznis/frontdesk/internal/providers/storage"
	"github.com/smallbiznis/frontdesk/internal/providers/xlsx"
	"github.com/smallbiznis/frontdesk/internal/report/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	reservationrepo "github.com/smallbiznis/frontdesk/internal/reservation/repository"
	roomrepo "github.com/smallbiznis/frontdesk/internal/room/repository"
	"github.com/smallbiznis/frontdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubPDF struct {
	last domain.DailyReport
}

func (p *stubPDF) GenerateDailyReport(_ context.Context, report domain.DailyReport) (io.Reader, error) {
	p.last = report
	return strings.NewReader("%PDF-stub"), nil
}

func newTestService(t *testing.T, db *gorm.DB, formats ...string) (domain.Service, *stubPDF, storage.Storage) {
	t.Helper()
	fake := clock.NewFakeClock(time.Date(2024, 6, 11, 2, 0, 0, 0, time.UTC))
	auditCfg := config.DefaultAuditConfig()
	auditCfg.ReportFormats = formats
	holder := config.NewStaticAuditConfigHolder(auditCfg)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	availability := availabilityservice.New(availabilityservice.Params{
		DB:              db,
		Log:             zap.NewNop(),
		Clock:           fake,
		RoomRepo:        roomrepo.Provide(),
		ReservationRepo: reservationrepo.Provide(),
		AuditConfig:     holder,
	})
	folio := folioservice.NewService(folioservice.Params{
		DB:              db,
		Log:             zap.NewNop(),
		GenID:           testutil.Node(t),
		Clock:           fake,
		RoomRepo:        roomrepo.Provide(),
		ReservationRepo: reservationrepo.Provide(),
	})
	pdf := &stubPDF{}

	svc := New(Params{
		DB:              db,
		Log:             zap.NewNop(),
		Clock:           fake,
		Config:          config.Config{HotelName: "Harbour Inn"},
		AuditConfig:     holder,
		RoomRepo:        roomrepo.Provide(),
		ReservationRepo: reservationrepo.Provide(),
		Availability:    availability,
		Folio:           folio,
		PDF:             pdf,
		XLSX:            xlsx.New(),
		Storage:         store,
	})
	return svc, pdf, store
}

func TestBuildSummarizesBusinessDay(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc, _, _ := newTestService(t, db)

	roomType, rooms := testutil.SeedRoomType(t, db, node, "DLX", "100.00", 101, 102, 103, 104)
	testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: roomType.ID,
		RoomID:     &rooms[0].ID,
		CheckIn:    testutil.Date(t, "2024-06-10"),
		CheckOut:   testutil.Date(t, "2024-06-12"),
		Status:     reservationdomain.StatusCheckedIn,
	})
	testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: roomType.ID,
		RoomID:     &rooms[1].ID,
		CheckIn:    testutil.Date(t, "2024-06-08"),
		CheckOut:   testutil.Date(t, "2024-06-10"),
		Status:     reservationdomain.StatusCheckedOut,
	})
	testutil.SeedReservation(t, db, node, reservationdomain.Reservation{
		RoomTypeID: roomType.ID,
		CheckIn:    testutil.Date(t, "2024-06-10"),
		CheckOut:   testutil.Date(t, "2024-06-11"),
		Status:     reservationdomain.StatusConfirmed,
	})

	report, err := svc.Build(ctx, domain.GenerateRequest{
		RunID:         "run-1",
		OperatorID:    "auditor",
		ReportingDate: testutil.Date(t, "2024-06-10"),
		NoShows:       2,
		ClosedStays:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Harbour Inn", report.HotelName)
	assert.Equal(t, 1, report.Arrivals)
	assert.Equal(t, 1, report.Departures)
	assert.Equal(t, 1, report.InHouse)
	assert.Equal(t, int64(2), report.NoShows)
	assert.Equal(t, "USD", report.Currency)
	require.Len(t, report.RoomTypes, 1)
	assert.Equal(t, domain.RoomTypeLine{Code: "DLX", Name: "DLX", Rooms: 4, Reserved: 2, Available: 2}, report.RoomTypes[0])
	assert.Equal(t, "50.0", report.RoomTypes[0].Occupancy().StringFixed(1))
}

func TestGenerateStoresConfiguredFormats(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc, pdf, store := newTestService(t, db, config.ReportFormatPDF, config.ReportFormatXLSX)
	testutil.SeedRoomType(t, db, testutil.Node(t), "STD", "80.00", 201)

	artifacts, err := svc.Generate(ctx, domain.GenerateRequest{
		RunID:         "run-2",
		ReportingDate: testutil.Date(t, "2024-06-10"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(artifacts.PDFPath, "file://night-audit/daily-report-2024-06-10-"))
	assert.True(t, strings.HasSuffix(artifacts.XLSXPath, ".xlsx"))
	assert.Len(t, artifacts.All(), 2)
	assert.Equal(t, "run-2", pdf.last.RunID)

	r, err := store.Open(ctx, artifacts.PDFPath)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub", string(body))
}

func TestGenerateRejectsZeroDate(t *testing.T) {
	svc, _, _ := newTestService(t, testutil.OpenDB(t))
	_, err := svc.Generate(context.Background(), domain.GenerateRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidReportingDate)
}
