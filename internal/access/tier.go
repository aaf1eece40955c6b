// Package access decides what a requesting identity may see or trigger:
// subscription-tiered historical lookback and the automatic-reset policy.
package access

import (
	"context"
	"errors"

	"github.com/Luciism/statalytics/internal/domain"

	"github.com/rs/zerolog"
)

// Tier is an identity's access level. A nil MaxLookbackDays means unlimited
// lookback into the historical archive.
type Tier struct {
	Name            string
	MaxLookbackDays *int
}

// TierProvider resolves the tier of a requesting identity.
type TierProvider interface {
	GetTier(ctx context.Context, discordID string) (Tier, error)
}

var (
	freeLookback      = 30
	supporterLookback = 60

	tierFree      = Tier{Name: "free", MaxLookbackDays: &freeLookback}
	tierSupporter = Tier{Name: "supporter", MaxLookbackDays: &supporterLookback}
	tierPro       = Tier{Name: "pro", MaxLookbackDays: nil}
)

var packageTiers = map[string]Tier{
	"supporter": tierSupporter,
	"pro":       tierPro,
}

// SubscriptionStore is the slice of the account repository the tier provider
// needs.
type SubscriptionStore interface {
	ActivePackage(ctx context.Context, discordID string) (string, error)
}

// SubscriptionTierProvider maps stored subscription packages onto tiers.
// Identities without an active subscription get the free tier.
type SubscriptionTierProvider struct {
	store  SubscriptionStore
	logger zerolog.Logger
}

func NewSubscriptionTierProvider(store SubscriptionStore, logger zerolog.Logger) *SubscriptionTierProvider {
	return &SubscriptionTierProvider{store: store, logger: logger}
}

func (p *SubscriptionTierProvider) GetTier(ctx context.Context, discordID string) (Tier, error) {
	if discordID == "" {
		return tierFree, nil
	}

	pkg, err := p.store.ActivePackage(ctx, discordID)
	if errors.Is(err, domain.ErrNotFound) {
		return tierFree, nil
	}
	if err != nil {
		return Tier{}, err
	}

	tier, ok := packageTiers[pkg]
	if !ok {
		p.logger.Warn().Str("discord_id", discordID).Str("package", pkg).Msg("unknown subscription package, treating as free")
		return tierFree, nil
	}
	return tier, nil
}

// MaxLookbackDays combines the viewer's tier with the tier of the viewed
// player's linked account and returns the more generous window. nil means
// unlimited and always wins.
func MaxLookbackDays(viewer, linked Tier) *int {
	if viewer.MaxLookbackDays == nil || linked.MaxLookbackDays == nil {
		return nil
	}
	if *viewer.MaxLookbackDays >= *linked.MaxLookbackDays {
		return viewer.MaxLookbackDays
	}
	return linked.MaxLookbackDays
}

// IsWithinLookback reports whether a record requestedDaysAgo old may be
// viewed under the given window.
func IsWithinLookback(maxLookback *int, requestedDaysAgo int) bool {
	return maxLookback == nil || requestedDaysAgo <= *maxLookback
}
