package service

import (
	"context"
	"testing"

	"github.com/Luciism/statalytics/internal/domain"

	"github.com/rs/zerolog"
)

const (
	testPlayer  = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	testDiscord = "123456789012345678"
)

func newResetTimeService(resetTimes *mockResetTimeStore, accounts *mockAccountStore) *ResetTimeService {
	svc := NewResetTimeService(resetTimes, accounts, zerolog.Nop())
	svc.randHour = func() int { return 7 }
	return svc
}

func TestResolveAccountOverridePrecedence(t *testing.T) {
	ctx := context.Background()
	resetTimes := newMockResetTimeStore()
	accounts := newMockAccountStore()
	svc := newResetTimeService(resetTimes, accounts)

	accounts.link(testDiscord, testPlayer)
	resetTimes.accounts[testDiscord] = domain.ResetTimeConfig{UTCOffset: -5, ResetHour: 21}
	resetTimes.players[testPlayer] = domain.ResetTimeConfig{UTCOffset: 2, ResetHour: 4}

	cfg, err := svc.Resolve(ctx, testPlayer)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.UTCOffset != -5 || cfg.ResetHour != 21 {
		t.Errorf("got %+v, want account override (-5, 21)", cfg)
	}

	// Removing the link reveals the stored player default, unchanged.
	accounts.unlink(testDiscord)
	cfg, err = svc.Resolve(ctx, testPlayer)
	if err != nil {
		t.Fatalf("Resolve after unlink: %v", err)
	}
	if cfg.UTCOffset != 2 || cfg.ResetHour != 4 {
		t.Errorf("got %+v, want stored player default (2, 4)", cfg)
	}
}

func TestResolveAssignsDefaultOnce(t *testing.T) {
	ctx := context.Background()
	resetTimes := newMockResetTimeStore()
	svc := newResetTimeService(resetTimes, newMockAccountStore())

	first, err := svc.Resolve(ctx, testPlayer)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.UTCOffset != 0 || first.ResetHour != 7 {
		t.Errorf("got %+v, want fresh default (0, 7)", first)
	}

	// A different random draw must not change subsequent resolutions.
	svc.randHour = func() int { return 19 }
	second, err := svc.Resolve(ctx, testPlayer)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second != first {
		t.Errorf("repeated resolve returned %+v, want %+v", second, first)
	}
}

func TestResolveCopiesOverrideToPlayerDefault(t *testing.T) {
	ctx := context.Background()
	resetTimes := newMockResetTimeStore()
	accounts := newMockAccountStore()
	svc := newResetTimeService(resetTimes, accounts)

	accounts.link(testDiscord, testPlayer)
	override := domain.ResetTimeConfig{UTCOffset: 1, ResetHour: 6}
	resetTimes.accounts[testDiscord] = override

	if _, err := svc.Resolve(ctx, testPlayer); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// The override survives as the player default after the link is gone.
	accounts.unlink(testDiscord)
	cfg, err := svc.Resolve(ctx, testPlayer)
	if err != nil {
		t.Fatalf("Resolve after unlink: %v", err)
	}
	if cfg != override {
		t.Errorf("got %+v, want copied override %+v", cfg, override)
	}
}

func TestSetAccountOverridePropagation(t *testing.T) {
	ctx := context.Background()
	resetTimes := newMockResetTimeStore()
	accounts := newMockAccountStore()
	svc := newResetTimeService(resetTimes, accounts)
	accounts.link(testDiscord, testPlayer)

	override := domain.ResetTimeConfig{UTCOffset: 3, ResetHour: 12}
	if err := svc.SetAccountOverride(ctx, testDiscord, override); err != nil {
		t.Fatalf("SetAccountOverride: %v", err)
	}
	if got := resetTimes.players[testPlayer]; got != override {
		t.Errorf("player default = %+v, want propagated %+v", got, override)
	}

	// First writer wins: a second account configuring the same player must
	// not clobber the stored default.
	accounts.link("other-account", testPlayer)
	other := domain.ResetTimeConfig{UTCOffset: -8, ResetHour: 1}
	if err := svc.SetAccountOverride(ctx, "other-account", other); err != nil {
		t.Fatalf("SetAccountOverride: %v", err)
	}
	if got := resetTimes.players[testPlayer]; got != override {
		t.Errorf("player default = %+v, want original %+v preserved", got, override)
	}
}

func TestSetAccountOverrideValidation(t *testing.T) {
	svc := newResetTimeService(newMockResetTimeStore(), newMockAccountStore())

	bad := []domain.ResetTimeConfig{
		{UTCOffset: -13, ResetHour: 0},
		{UTCOffset: 13, ResetHour: 0},
		{UTCOffset: 0, ResetHour: -1},
		{UTCOffset: 0, ResetHour: 24},
	}
	for _, cfg := range bad {
		if err := svc.SetAccountOverride(context.Background(), testDiscord, cfg); err == nil {
			t.Errorf("accepted out-of-range config %+v", cfg)
		}
	}
}
