package allocation

import (
	"github.com/smallbiznis/frontdesk/internal/allocation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("allocation.service",
	fx.Provide(service.New),
)
