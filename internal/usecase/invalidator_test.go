package usecase_test

import (
	"context"
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

func TestInvalidator_SettingsEventForcesRefetch(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	auth := newAuthFixture(t, time.Minute)
	catalog, _ := newCatalog(t)
	inv := usecase.NewInvalidator(auth.svc, f.svc, catalog, noopLogger{})
	ctx := context.Background()

	f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("Club"), nil).Times(2)

	_, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	require.NoError(t, inv.HandleEvent(ctx, []byte(`{"scope":"settings"}`)))
	_, err = f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
}

func TestInvalidator_AllScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	settingsAPI := mocks.NewMockSettingsAPI(ctrl)
	catalogAPI := mocks.NewMockCatalogAPI(ctrl)
	cache := memory.NewTTLCache("test")
	dd := dedup.New(time.Second)

	auth := newAuthFixture(t, time.Minute)
	settings := usecase.NewSettingsService(settingsAPI, cache, dd, nil, noopLogger{}, usecase.SettingsTTL{})
	catalog := usecase.NewCatalogService(catalogAPI, cache, dd, noopLogger{}, 0)
	inv := usecase.NewInvalidator(auth.svc, settings, catalog, noopLogger{})
	ctx := context.Background()

	settingsAPI.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("Club"), nil)
	catalogAPI.EXPECT().Sports(gomock.Any()).Return([]domain.Sport{{ID: 1}}, nil)

	_, err := settings.GetSettings(ctx, true)
	require.NoError(t, err)
	_, err = catalog.Sports(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Size())

	require.NoError(t, inv.Invalidate(ctx, usecase.ScopeAll))
	require.Zero(t, cache.Size())
}

func TestInvalidator_InvalidEvents(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	auth := newAuthFixture(t, time.Minute)
	catalog, _ := newCatalog(t)
	inv := usecase.NewInvalidator(auth.svc, f.svc, catalog, noopLogger{})

	for _, raw := range []string{`not json`, `{"scope":"bookings"}`, `{}`} {
		err := inv.HandleEvent(context.Background(), []byte(raw))
		require.ErrorIs(t, err, usecase.ErrInvalidEvent, raw)
	}
}

func TestValidScope(t *testing.T) {
	for _, s := range []string{usecase.ScopeSettings, usecase.ScopeUser, usecase.ScopeCatalog, usecase.ScopeAll} {
		require.True(t, usecase.ValidScope(s), s)
	}
	require.False(t, usecase.ValidScope(""))
	require.False(t, usecase.ValidScope("SETTINGS"))
}
