package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/courtdesk/internal/cache/memory"
	"github.com/Gunvolt24/courtdesk/internal/dedup"
	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/ports/mocks"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
)

func newCatalog(t *testing.T) (*usecase.CatalogService, *mocks.MockCatalogAPI) {
	t.Helper()
	api := mocks.NewMockCatalogAPI(gomock.NewController(t))
	return usecase.NewCatalogService(api, memory.NewTTLCache("test"), dedup.New(time.Second), noopLogger{}, 0), api
}

func TestCatalog_SportsCached(t *testing.T) {
	svc, api := newCatalog(t)
	ctx := context.Background()
	api.EXPECT().Sports(gomock.Any()).Return([]domain.Sport{{ID: 1, Name: "Badminton"}}, nil).Times(1)

	first, err := svc.Sports(ctx)
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := svc.Sports(ctx)
	require.NoError(t, err)
	require.Equal(t, "Badminton", second[0].Name)
}

func TestCatalog_CourtsKeyedBySport(t *testing.T) {
	svc, api := newCatalog(t)
	ctx := context.Background()
	api.EXPECT().Courts(gomock.Any(), int64(1)).Return([]domain.Court{{ID: 10, SportID: 1}}, nil).Times(1)
	api.EXPECT().Courts(gomock.Any(), int64(2)).Return([]domain.Court{{ID: 20, SportID: 2}}, nil).Times(1)

	for i := 0; i < 2; i++ {
		c1, err := svc.Courts(ctx, 1)
		require.NoError(t, err)
		require.EqualValues(t, 10, c1[0].ID)
		c2, err := svc.Courts(ctx, 2)
		require.NoError(t, err)
		require.EqualValues(t, 20, c2[0].ID)
	}
}

func TestCatalog_InvalidateRefetches(t *testing.T) {
	svc, api := newCatalog(t)
	ctx := context.Background()
	api.EXPECT().Sports(gomock.Any()).Return([]domain.Sport{{ID: 1}}, nil).Times(2)

	_, err := svc.Sports(ctx)
	require.NoError(t, err)
	svc.Invalidate()
	_, err = svc.Sports(ctx)
	require.NoError(t, err)
}

func TestCatalog_ErrorNotCached(t *testing.T) {
	svc, api := newCatalog(t)
	ctx := context.Background()
	gomock.InOrder(
		api.EXPECT().Holidays(gomock.Any()).Return(nil, errors.New("down")),
		api.EXPECT().Holidays(gomock.Any()).Return([]domain.Holiday{}, nil),
	)

	_, err := svc.Holidays(ctx)
	require.ErrorIs(t, err, domain.ErrFetch)
	require.EqualError(t, err, "Failed to fetch holidays")

	_, err = svc.Holidays(ctx)
	require.NoError(t, err)
}

func TestCatalog_IsNonOperatingDay(t *testing.T) {
	svc, api := newCatalog(t)
	ctx := context.Background()
	api.EXPECT().Holidays(gomock.Any()).Return([]domain.Holiday{
		{Name: "Christmas", Date: "2020-12-25", IsRecurring: true, NoBusinessOperations: true},
		{Name: "Election", Date: "2025-05-12", NoBusinessOperations: true},
		{Name: "Valentine", Date: "2025-02-14", NoBusinessOperations: false},
	}, nil).Times(1)

	for date, want := range map[string]bool{
		"2025-12-25": true,
		"2025-05-12": true,
		"2026-05-12": false,
		"2025-02-14": false,
		"2025-12-24": false,
	} {
		got, err := svc.IsNonOperatingDay(ctx, date)
		require.NoError(t, err)
		require.Equal(t, want, got, date)
	}
}
