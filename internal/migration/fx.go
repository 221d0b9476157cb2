package migration

import (
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/smallbiznis/frontdesk/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, clk clock.Clock, log *zap.Logger) error {
		log = log.Named("migration")
		if err := Migrate(conn); err != nil {
			return err
		}
		log.Info("migration.applied", zap.String("dialect", conn.Dialector.Name()))

		if !cfg.SeedDemoData {
			return nil
		}
		result, err := seed.EnsureDemoHotel(conn, clk.Now())
		if err != nil {
			return err
		}
		log.Info("seed.demo_hotel",
			zap.Int("room_types", result.RoomTypes),
			zap.Int("rooms", result.Rooms),
			zap.Int("reservations", result.Reservations),
		)
		return nil
	}),
)
