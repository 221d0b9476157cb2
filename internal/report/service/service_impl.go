package service

import (
	"context"
	"fmt"

	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	foliodomain "github.com/smallbiznis/frontdesk/internal/folio/domain"
	"github.com/smallbiznis/frontdesk/internal/providers/pdf"
	"github.com/smallbiznis/frontdesk/internal/providers/storage"
	"github.com/smallbiznis/frontdesk/internal/providers/xlsx"
	"github.com/smallbiznis/frontdesk/internal/report/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	objectPrefix    = "night-audit"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	Config          config.Config
	AuditConfig     *config.AuditConfigHolder `optional:"true"`
	RoomRepo        roomdomain.Repository
	ReservationRepo reservationdomain.Repository
	Availability    availabilitydomain.Service
	Folio           foliodomain.Service
	PDF             pdf.Provider
	XLSX            xlsx.Provider `optional:"true"`
	Storage         storage.Storage
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	hotelName       string
	auditConfig     *config.AuditConfigHolder
	roomRepo        roomdomain.Repository
	reservationRepo reservationdomain.Repository
	availability    availabilitydomain.Service
	folio           foliodomain.Service
	pdf             pdf.Provider
	xlsx            xlsx.Provider
	storage         storage.Storage
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("report.service"),
		clock:           p.Clock,
		hotelName:       p.Config.HotelName,
		auditConfig:     p.AuditConfig,
		roomRepo:        p.RoomRepo,
		reservationRepo: p.ReservationRepo,
		availability:    p.Availability,
		folio:           p.Folio,
		pdf:             p.PDF,
		xlsx:            p.XLSX,
		storage:         p.Storage,
	}
}

func (s *Service) Build(ctx context.Context, req domain.GenerateRequest) (domain.DailyReport, error) {
	if req.ReportingDate.IsZero() {
		return domain.DailyReport{}, domain.ErrInvalidReportingDate
	}
	day := daterange.Truncate(req.ReportingDate)

	report := domain.DailyReport{
		HotelName:     s.hotelName,
		ReportingDate: day,
		GeneratedAt:   s.clock.Now(),
		RunID:         req.RunID,
		OperatorID:    req.OperatorID,
		NoShows:       req.NoShows,
		ClosedStays:   req.ClosedStays,
		Currency:      "USD",
	}

	arrivals, err := s.reservationRepo.CountArrivals(ctx, s.db, day)
	if err != nil {
		return domain.DailyReport{}, err
	}
	departures, err := s.reservationRepo.CountDepartures(ctx, s.db, day)
	if err != nil {
		return domain.DailyReport{}, err
	}
	inHouse, err := s.reservationRepo.ListInHouse(ctx, s.db, day)
	if err != nil {
		return domain.DailyReport{}, err
	}
	report.Arrivals = int(arrivals)
	report.Departures = int(departures)
	report.InHouse = len(inHouse)

	revenue, err := s.folio.Revenue(ctx, day)
	if err != nil {
		return domain.DailyReport{}, err
	}
	report.RoomRevenue = revenue

	roomTypes, err := s.roomRepo.ListRoomTypes(ctx, s.db)
	if err != nil {
		return domain.DailyReport{}, err
	}
	interval, err := daterange.New(day, daterange.AddDays(day, 1))
	if err != nil {
		return domain.DailyReport{}, err
	}
	for i, roomType := range roomTypes {
		if i == 0 && roomType.Currency != "" {
			report.Currency = roomType.Currency
		}
		days, err := s.availability.Breakdown(ctx, roomType.ID, interval)
		if err != nil {
			return domain.DailyReport{}, err
		}
		line := domain.RoomTypeLine{Code: roomType.Code, Name: roomType.Name}
		if len(days) > 0 {
			line.Rooms = days[0].Rooms
			line.Reserved = days[0].Reserved
			line.Available = days[0].Available
			line.Oversold = days[0].Oversold
		}
		report.RoomTypes = append(report.RoomTypes, line)
	}

	return report, nil
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Artifacts, error) {
	report, err := s.Build(ctx, req)
	if err != nil {
		return domain.Artifacts{}, err
	}
	title := "daily-report-" + daterange.Format(report.ReportingDate)

	doc, err := s.pdf.GenerateDailyReport(ctx, report)
	if err != nil {
		return domain.Artifacts{}, fmt.Errorf("render pdf: %w", err)
	}
	pdfRef, err := s.storage.Put(ctx, storage.ObjectName(objectPrefix, title, "pdf"), contentTypePDF, doc)
	if err != nil {
		return domain.Artifacts{}, fmt.Errorf("store pdf: %w", err)
	}
	artifacts := domain.Artifacts{PDFPath: pdfRef}

	if s.auditConfig.Get().WantsFormat(config.ReportFormatXLSX) && s.xlsx != nil {
		sheet, err := s.xlsx.GenerateDailyReport(ctx, report)
		if err != nil {
			return domain.Artifacts{}, fmt.Errorf("render xlsx: %w", err)
		}
		xlsxRef, err := s.storage.Put(ctx, storage.ObjectName(objectPrefix, title, "xlsx"), contentTypeXLSX, sheet)
		if err != nil {
			return domain.Artifacts{}, fmt.Errorf("store xlsx: %w", err)
		}
		artifacts.XLSXPath = xlsxRef
	}

	s.log.Info("report.generated",
		zap.String("audit_run_id", req.RunID),
		zap.String("business_date", daterange.Format(report.ReportingDate)),
		zap.String("pdf", artifacts.PDFPath),
		zap.String("xlsx", artifacts.XLSXPath),
		zap.String("storage", s.storage.Backend()),
	)
	return artifacts, nil
}
