package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
)

func snapshot(name string) *domain.Settings {
	return &domain.Settings{CompanyName: name}
}

func TestGetSettings_IdempotentWithinTTL(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	ctx := context.Background()
	f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("Club"), nil).Times(1)

	first, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	second, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGetSettings_BypassCache(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	ctx := context.Background()
	f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("Club"), nil).Times(2)

	_, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	_, err = f.svc.GetSettings(ctx, false)
	require.NoError(t, err)
}

func TestGetSettings_ReturnsCopies(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	ctx := context.Background()
	f.api.EXPECT().CompanySettings(gomock.Any()).
		Return(&domain.Settings{CompanyName: "Club", BlockedDates: []domain.BlockedDateRange{{StartDate: "2025-01-01"}}}, nil)

	s, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	s.CompanyName = "mutated"
	s.BlockedDates[0].Reason = "mutated"

	again, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	require.Equal(t, "Club", again.CompanyName)
	require.Empty(t, again.BlockedDates[0].Reason)
}

func TestGetSettings_ErrorIsFetchError(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	f.api.EXPECT().CompanySettings(gomock.Any()).Return(nil, errors.New("down"))

	_, err := f.svc.GetSettings(context.Background(), true)
	require.ErrorIs(t, err, domain.ErrFetch)
	require.EqualError(t, err, "Failed to fetch company settings")
}

func TestUpdateSettings_ReadAfterWrite(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	ctx := context.Background()
	upd := &domain.SettingsUpdate{CompanyName: ptr("New")}

	gomock.InOrder(
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("Old"), nil),
		f.api.EXPECT().UpdateCompanySettings(gomock.Any(), upd).Return(snapshot("New"), nil),
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("New"), nil),
	)
	f.pub.EXPECT().Publish(gomock.Any(), usecase.ScopeSettings).Return(nil)

	s, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	require.Equal(t, "Old", s.CompanyName)

	_, err = f.svc.UpdateSettings(ctx, upd)
	require.NoError(t, err)

	s, err = f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	require.Equal(t, "New", s.CompanyName)
}

func TestUpdateSettings_InFlightReadIsNotCached(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	ctx := context.Background()
	upd := &domain.SettingsUpdate{CompanyName: ptr("New")}

	started := make(chan struct{})
	release := make(chan struct{})
	gomock.InOrder(
		f.api.EXPECT().CompanySettings(gomock.Any()).DoAndReturn(func(context.Context) (*domain.Settings, error) {
			close(started)
			<-release
			return snapshot("Old"), nil
		}),
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("New"), nil),
	)
	f.api.EXPECT().UpdateCompanySettings(gomock.Any(), upd).Return(snapshot("New"), nil)
	f.pub.EXPECT().Publish(gomock.Any(), usecase.ScopeSettings).Return(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.svc.GetSettings(ctx, true)
	}()
	waitSignal(t, started)

	_, err := f.svc.UpdateSettings(ctx, upd)
	require.NoError(t, err)
	close(release)
	waitSignal(t, done)

	s, err := f.svc.GetSettings(ctx, true)
	require.NoError(t, err)
	require.Equal(t, "New", s.CompanyName)
}

func TestUpdateSettings_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("local validation skips network", func(t *testing.T) {
		f := newSettingsFixture(t, usecase.SettingsTTL{})
		_, err := f.svc.UpdateSettings(ctx, &domain.SettingsUpdate{ThemePrimaryColor: ptr("red")})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("backend message", func(t *testing.T) {
		f := newSettingsFixture(t, usecase.SettingsTTL{})
		f.api.EXPECT().UpdateCompanySettings(gomock.Any(), gomock.Any()).
			Return(nil, &domain.APIError{Status: 403, Message: "Forbidden"})

		_, err := f.svc.UpdateSettings(ctx, &domain.SettingsUpdate{CompanyName: ptr("X")})
		require.ErrorIs(t, err, domain.ErrUpdate)
		require.EqualError(t, err, "Forbidden")
	})

	t.Run("default message", func(t *testing.T) {
		f := newSettingsFixture(t, usecase.SettingsTTL{})
		f.api.EXPECT().UpdateCompanySettings(gomock.Any(), gomock.Any()).
			Return(nil, &domain.NetworkError{Op: "PUT /admin/company-settings", Err: errors.New("reset")})

		_, err := f.svc.UpdateSettings(ctx, &domain.SettingsUpdate{CompanyName: ptr("X")})
		require.EqualError(t, err, "Failed to update company settings")
	})

	t.Run("failed write still invalidates", func(t *testing.T) {
		f := newSettingsFixture(t, usecase.SettingsTTL{})
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("Club"), nil).Times(2)
		f.api.EXPECT().UpdateCompanySettings(gomock.Any(), gomock.Any()).Return(nil, errors.New("x"))

		_, err := f.svc.GetSettings(ctx, true)
		require.NoError(t, err)
		_, err = f.svc.UpdateSettings(ctx, &domain.SettingsUpdate{CompanyName: ptr("X")})
		require.Error(t, err)
		_, err = f.svc.GetSettings(ctx, true)
		require.NoError(t, err)
	})
}

func TestUpdateSettings_PublishFailureIsNotFatal(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	f.api.EXPECT().UpdateCompanySettings(gomock.Any(), gomock.Any()).Return(snapshot("X"), nil)
	f.pub.EXPECT().Publish(gomock.Any(), usecase.ScopeSettings).Return(errors.New("broker down"))

	_, err := f.svc.UpdateSettings(context.Background(), &domain.SettingsUpdate{CompanyName: ptr("X")})
	require.NoError(t, err)
}

func TestDeleteLogo(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	ctx := context.Background()

	f.api.EXPECT().DeleteCompanyLogo(gomock.Any()).Return(nil)
	f.pub.EXPECT().Publish(gomock.Any(), usecase.ScopeSettings).Return(nil)
	require.NoError(t, f.svc.DeleteLogo(ctx))

	f.api.EXPECT().DeleteCompanyLogo(gomock.Any()).Return(&domain.APIError{Status: 404})
	err := f.svc.DeleteLogo(ctx)
	require.ErrorIs(t, err, domain.ErrUpdate)
	require.EqualError(t, err, "Failed to delete company logo")
}

func TestGetSettingsCached_ShortTTLAndStaleOnError(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{ShortTTL: 30 * time.Millisecond})
	ctx := context.Background()

	gomock.InOrder(
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(snapshot("Club"), nil),
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(nil, errors.New("down")),
	)

	s, err := f.svc.GetSettingsCached(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "Club", s.CompanyName)

	// в пределах короткого срока — без сети
	_, err = f.svc.GetSettingsCached(ctx, false)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	s, err = f.svc.GetSettingsCached(ctx, false)
	require.NoError(t, err, "stale snapshot is served when the refresh fails")
	require.Equal(t, "Club", s.CompanyName)
}

func TestGetSettingsCached_ErrorWithoutSnapshot(t *testing.T) {
	f := newSettingsFixture(t, usecase.SettingsTTL{})
	f.api.EXPECT().CompanySettings(gomock.Any()).Return(nil, errors.New("down"))

	_, err := f.svc.GetSettingsCached(context.Background(), true)
	require.ErrorIs(t, err, domain.ErrFetch)
}

func TestIsUserBookingEnabled(t *testing.T) {
	off := domain.Flag(false)
	on := domain.Flag(true)
	cases := []struct {
		name string
		flag *domain.Flag
		want bool
	}{
		{"absent means enabled", nil, true},
		{"disabled", &off, false},
		{"enabled", &on, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSettingsFixture(t, usecase.SettingsTTL{})
			f.api.EXPECT().CompanySettings(gomock.Any()).Return(&domain.Settings{UserBookingEnabled: tc.flag}, nil)

			got, err := f.svc.IsUserBookingEnabled(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCanUserCreateBookings(t *testing.T) {
	ctx := context.Background()
	off := domain.Flag(false)

	t.Run("privileged roles skip the check", func(t *testing.T) {
		f := newSettingsFixture(t, usecase.SettingsTTL{})
		require.True(t, f.svc.CanUserCreateBookings(ctx, domain.RoleAdmin))
		require.True(t, f.svc.CanUserCreateBookings(ctx, domain.RoleStaff))
	})

	t.Run("user follows flag", func(t *testing.T) {
		f := newSettingsFixture(t, usecase.SettingsTTL{})
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(&domain.Settings{UserBookingEnabled: &off}, nil)
		require.False(t, f.svc.CanUserCreateBookings(ctx, domain.RoleUser))
		require.False(t, f.svc.CanUserCreateBookings(ctx, ""))
	})

	t.Run("fails open", func(t *testing.T) {
		f := newSettingsFixture(t, usecase.SettingsTTL{})
		f.api.EXPECT().CompanySettings(gomock.Any()).Return(nil, errors.New("down"))
		require.True(t, f.svc.CanUserCreateBookings(ctx, domain.RoleUser))
	})
}

func TestIsDateBlocked(t *testing.T) {
	ctx := context.Background()
	settings := &domain.Settings{BlockedDates: []domain.BlockedDateRange{
		{StartDate: "2025-12-24", EndDate: ptr("2025-12-26"), Reason: "Christmas"},
		{StartDate: "2026-03-01", Reason: "Renovation"},
	}}

	cases := []struct {
		date   string
		want   bool
		reason string
	}{
		{"2025-12-23", false, ""},
		{"2025-12-24", true, "Christmas"},
		{"2025-12-25", true, "Christmas"},
		{"2025-12-26", true, "Christmas"},
		{"2025-12-26 23:59:00", true, "Christmas"},
		{"2025-12-27", false, ""},
		{"2026-02-28", false, ""},
		{"2026-03-01", true, "Renovation"},
		{"2030-01-01", true, "Renovation"},
	}

	f := newSettingsFixture(t, usecase.SettingsTTL{})
	f.api.EXPECT().CompanySettings(gomock.Any()).Return(settings, nil).Times(len(cases))

	for _, tc := range cases {
		got := f.svc.IsDateBlocked(ctx, tc.date, domain.RoleUser)
		require.Equal(t, tc.want, got.IsBlocked, tc.date)
		require.Equal(t, tc.reason, got.Reason, tc.date)
	}
}

func TestIsDateBlocked_ExemptAndFailOpen(t *testing.T) {
	ctx := context.Background()
	f := newSettingsFixture(t, usecase.SettingsTTL{})

	require.False(t, f.svc.IsDateBlocked(ctx, "2025-12-25", domain.RoleAdmin).IsBlocked)
	require.False(t, f.svc.IsDateBlocked(ctx, "not a date", domain.RoleUser).IsBlocked)

	f.api.EXPECT().CompanySettings(gomock.Any()).Return(nil, errors.New("down"))
	require.False(t, f.svc.IsDateBlocked(ctx, "2025-12-25", domain.RoleUser).IsBlocked)
}
