package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/frontdesk/internal/activity/domain"
	"github.com/smallbiznis/frontdesk/internal/activity/repository"
	"github.com/smallbiznis/frontdesk/internal/clock"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	"github.com/smallbiznis/frontdesk/internal/testutil"
	"github.com/smallbiznis/frontdesk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(time.Date(2024, 6, 10, 22, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.Node(t),
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestRecordTakesActorFromContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := obscontext.WithActor(context.Background(), domain.ActorTypeOperator, "op-7")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	require.NoError(t, svc.Record(ctx, "business_date.set", "business_date", "", map[string]any{
		"business_date": "2024-06-20",
		"":              "dropped",
	}))

	resp, err := svc.List(context.Background(), domain.ListActivityRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Logs, 1)

	entry := resp.Logs[0]
	assert.Equal(t, domain.ActorTypeOperator, entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "op-7", *entry.ActorID)
	require.NotNil(t, entry.RequestID)
	assert.Equal(t, "req-1", *entry.RequestID)
	assert.Nil(t, entry.TargetID)
	assert.Equal(t, "2024-06-20", entry.Metadata["business_date"])
	assert.NotContains(t, entry.Metadata, "")
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), "night_audit.start", "night_audit", "run-1", nil))

	resp, err := svc.List(context.Background(), domain.ListActivityRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Logs, 1)
	assert.Equal(t, domain.ActorTypeSystem, resp.Logs[0].ActorType)
	assert.Nil(t, resp.Logs[0].ActorID)
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.Record(context.Background(), " ", "room", "1", nil), domain.ErrInvalidAction)
}

func TestListFiltersAndPages(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := obscontext.WithActor(context.Background(), domain.ActorTypeOperator, "op-7")

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, "room.housekeeping", "room", "101", nil))
		fake.Advance(time.Minute)
	}
	require.NoError(t, svc.Record(ctx, "reservation.check_in", "reservation", "55", nil))

	first, err := svc.List(context.Background(), domain.ListActivityRequest{
		Pagination: pagination.Pagination{PageSize: 2},
		Action:     "room.housekeeping",
	})
	require.NoError(t, err)
	require.Len(t, first.Logs, 2)
	assert.True(t, first.PageInfo.HasMore)
	assert.True(t, first.Logs[0].CreatedAt.After(first.Logs[1].CreatedAt))

	second, err := svc.List(context.Background(), domain.ListActivityRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken},
		Action:     "room.housekeeping",
	})
	require.NoError(t, err)
	require.Len(t, second.Logs, 1)
	assert.False(t, second.PageInfo.HasMore)
	assert.NotEqual(t, first.Logs[1].ID, second.Logs[0].ID)
}

func TestListRejectsInvertedWindow(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := svc.List(context.Background(), domain.ListActivityRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = svc.List(context.Background(), domain.ListActivityRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-token"},
	})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}
