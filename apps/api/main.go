package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/activity"
	"github.com/smallbiznis/frontdesk/internal/allocation"
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
	"github.com/smallbiznis/frontdesk/internal/server"
	"github.com/smallbiznis/frontdesk/pkg/db"
	"go.uber.org/fx"
)

// The api binary serves the admin HTTP surface only. Manual audits started
// here run in this process; set REDIS_ADDR when a scheduler runs alongside.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		providers.Module,

		businessdate.Module,
		room.Module,
		reservation.Module,
		availability.Module,
		allocation.Module,
		folio.Module,
		report.Module,
		nightaudit.Module,
		activity.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
