package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/activity"
	"github.com/smallbiznis/frontdesk/internal/availability"
	"github.com/smallbiznis/frontdesk/internal/businessdate"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/smallbiznis/frontdesk/internal/folio"
	"github.com/smallbiznis/frontdesk/internal/nightaudit"
	"github.com/smallbiznis/frontdesk/internal/observability"
	"github.com/smallbiznis/frontdesk/internal/providers"
	"github.com/smallbiznis/frontdesk/internal/report"
	"github.com/smallbiznis/frontdesk/internal/reservation"
	"github.com/smallbiznis/frontdesk/internal/room"
	"github.com/smallbiznis/frontdesk/internal/scheduler"
	"github.com/smallbiznis/frontdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		providers.Module,

		// Domain services required by the night audit pipeline
		businessdate.Module,
		room.Module,
		reservation.Module,
		availability.Module,
		folio.Module,
		report.Module,
		nightaudit.Module,
		activity.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
