package folio

import (
	"github.com/smallbiznis/frontdesk/internal/folio/service"
	"go.uber.org/fx"
)

var Module = fx.Module("folio.service",
	fx.Provide(service.NewService),
)
