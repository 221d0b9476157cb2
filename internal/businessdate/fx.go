package businessdate

import (
	"github.com/smallbiznis/frontdesk/internal/businessdate/repository"
	"github.com/smallbiznis/frontdesk/internal/businessdate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("businessdate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
