package providers

import (
	"github.com/smallbiznis/frontdesk/internal/providers/pdf"
	"github.com/smallbiznis/frontdesk/internal/providers/redis"
	"github.com/smallbiznis/frontdesk/internal/providers/storage"
	"github.com/smallbiznis/frontdesk/internal/providers/xlsx"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	redis.Module,
	storage.Module,
	pdf.Module,
	xlsx.Module,
)
