package pdf

import (
	"context"
	"io"

	reportdomain "github.com/smallbiznis/frontdesk/internal/report/domain"
)

type Provider interface {
	GenerateDailyReport(ctx context.Context, report reportdomain.DailyReport) (io.Reader, error)
}
