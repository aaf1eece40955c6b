package fx

import (
	"github.com/Luciism/statalytics/internal/access"
	"github.com/Luciism/statalytics/internal/api"
	"github.com/Luciism/statalytics/internal/config"
	"github.com/Luciism/statalytics/internal/database"
	"github.com/Luciism/statalytics/internal/logger"
	"github.com/Luciism/statalytics/internal/repository"
	"github.com/Luciism/statalytics/internal/server"
	"github.com/Luciism/statalytics/internal/service"

	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

// Store interface adapters: services consume narrow interfaces, the
// repositories satisfy them.
func provideRotationStore(r *repository.RotationRepository) service.RotationStore { return r }
func provideResetTimeStore(r *repository.ResetTimeRepository) service.ResetTimeStore {
	return r
}
func provideAccountStore(r *repository.AccountRepository) service.AccountStore     { return r }
func provideSubscriptions(r *repository.AccountRepository) access.SubscriptionStore {
	return r
}
func provideTierProvider(p *access.SubscriptionTierProvider) access.TierProvider { return p }
func provideStatsProvider(c *api.HypixelClient) service.StatsProvider            { return c }

// ProvideLimiter builds the global provider rate limiter shared by the whole
// sweep worker pool.
func ProvideLimiter(cfg *config.Config) *rate.Limiter {
	return rate.NewLimiter(rate.Every(cfg.ProviderSpacing), 1)
}

func ProvideSweepConfig(cfg *config.Config) service.SweepConfig {
	return service.SweepConfig{
		Workers: cfg.SweepWorkers,
		Anchor:  cfg.WeeklyAnchorDay,
		Policy: access.ResetPolicy{
			WhitelistOnly:       cfg.ResetWhitelistOnly,
			Whitelist:           cfg.ResetWhitelist,
			RequiredPermissions: cfg.ResetRequiredPerms,
		},
	}
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewRotationRepository),
	fx.Provide(repository.NewResetTimeRepository),
	fx.Provide(repository.NewAccountRepository),
	fx.Provide(provideRotationStore),
	fx.Provide(provideResetTimeStore),
	fx.Provide(provideAccountStore),
	fx.Provide(provideSubscriptions),
	// api client
	fx.Provide(api.NewHypixelClient),
	fx.Provide(provideStatsProvider),
	fx.Provide(ProvideLimiter),
	// access
	fx.Provide(access.NewSubscriptionTierProvider),
	fx.Provide(provideTierProvider),
	// svc
	fx.Provide(ProvideSweepConfig),
	fx.Provide(service.NewResetTimeService),
	fx.Provide(service.NewRotationService),
	fx.Provide(service.NewSweepService),
	// server
	fx.Provide(server.NewAdminServer),
)
