package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Luciism/statalytics/internal/access"
	"github.com/Luciism/statalytics/internal/domain"
)

// mockRotationStore implements RotationStore in memory with the same
// idempotency semantics as the SQLite repository.
type mockRotationStore struct {
	mu        sync.Mutex
	baselines map[string]*domain.RotationBaseline
	records   map[string]*domain.HistoricalRecord

	rebaseErr  map[string]error // keyed by player uuid
	archiveErr map[string]error
}

func newMockRotationStore() *mockRotationStore {
	return &mockRotationStore{
		baselines:  make(map[string]*domain.RotationBaseline),
		records:    make(map[string]*domain.HistoricalRecord),
		rebaseErr:  make(map[string]error),
		archiveErr: make(map[string]error),
	}
}

func baselineKey(player string, pt domain.PeriodType) string { return player + "/" + string(pt) }

func (m *mockRotationStore) setBaseline(player string, pt domain.PeriodType, stats domain.StatFields, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baselines[baselineKey(player, pt)] = &domain.RotationBaseline{
		PlayerUUID: player,
		PeriodType: pt,
		Stats:      stats,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func (m *mockRotationStore) Initialize(_ context.Context, player string, periodTypes []domain.PeriodType, live *domain.StatFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, pt := range periodTypes {
		key := baselineKey(player, pt)
		if _, ok := m.baselines[key]; ok {
			continue
		}
		m.baselines[key] = &domain.RotationBaseline{
			PlayerUUID: player,
			PeriodType: pt,
			Stats:      *live,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return nil
}

func (m *mockRotationStore) GetBaseline(_ context.Context, player string, pt domain.PeriodType) (*domain.RotationBaseline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.baselines[baselineKey(player, pt)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockRotationStore) Rebase(_ context.Context, player string, pt domain.PeriodType, live *domain.StatFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rebaseErr[player]; err != nil {
		return err
	}
	b, ok := m.baselines[baselineKey(player, pt)]
	if !ok {
		return domain.ErrNotFound
	}
	b.Stats = *live
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockRotationStore) Archive(_ context.Context, rec *domain.HistoricalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.archiveErr[rec.PlayerUUID]; err != nil {
		return err
	}
	key := rec.PlayerUUID + "/" + rec.PeriodLabel
	if _, ok := m.records[key]; ok {
		return domain.ErrAlreadyArchived
	}
	copied := *rec
	m.records[key] = &copied
	return nil
}

func (m *mockRotationStore) GetHistorical(_ context.Context, player, label string) (*domain.HistoricalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[player+"/"+label]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *mockRotationStore) ListTrackedPlayers(_ context.Context, pt domain.PeriodType, after string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var players []string
	for _, b := range m.baselines {
		if b.PeriodType == pt && b.PlayerUUID > after && !slices.Contains(players, b.PlayerUUID) {
			players = append(players, b.PlayerUUID)
		}
	}
	slices.Sort(players)
	if len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

func (m *mockRotationStore) record(player, label string) *domain.HistoricalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[player+"/"+label]
}

func (m *mockRotationStore) baseline(player string, pt domain.PeriodType) *domain.RotationBaseline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baselines[baselineKey(player, pt)]
}

// mockResetTimeStore implements ResetTimeStore in memory.
type mockResetTimeStore struct {
	mu       sync.Mutex
	accounts map[string]domain.ResetTimeConfig
	players  map[string]domain.ResetTimeConfig

	playerCreates int
}

func newMockResetTimeStore() *mockResetTimeStore {
	return &mockResetTimeStore{
		accounts: make(map[string]domain.ResetTimeConfig),
		players:  make(map[string]domain.ResetTimeConfig),
	}
}

func (m *mockResetTimeStore) AccountConfig(_ context.Context, discordID string) (*domain.ResetTimeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.accounts[discordID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cfg, nil
}

func (m *mockResetTimeStore) SetAccountConfig(_ context.Context, discordID string, cfg domain.ResetTimeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[discordID] = cfg
	return nil
}

func (m *mockResetTimeStore) PlayerConfig(_ context.Context, player string) (*domain.ResetTimeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.players[player]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cfg, nil
}

func (m *mockResetTimeStore) CreatePlayerConfigIfAbsent(_ context.Context, player string, cfg domain.ResetTimeConfig) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerCreates++
	if _, ok := m.players[player]; ok {
		return false, nil
	}
	m.players[player] = cfg
	return true, nil
}

// mockAccountStore implements AccountStore in memory.
type mockAccountStore struct {
	mu    sync.Mutex
	links map[string]string // discord id -> player uuid
	perms map[string][]string
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		links: make(map[string]string),
		perms: make(map[string][]string),
	}
}

func (m *mockAccountStore) link(discordID, player string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[discordID] = player
}

func (m *mockAccountStore) unlink(discordID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, discordID)
}

func (m *mockAccountStore) LinkedAccountByPlayer(_ context.Context, player string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for discordID, linked := range m.links {
		if linked == player {
			return discordID, nil
		}
	}
	return "", domain.ErrNotFound
}

func (m *mockAccountStore) PlayerByAccount(_ context.Context, discordID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.links[discordID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return player, nil
}

func (m *mockAccountStore) Permissions(_ context.Context, discordID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perms[discordID], nil
}

// mockStatsProvider serves canned live stats and scripted failures. Call
// timestamps are recorded so limiter spacing can be observed; onFetch, when
// set, fires after each call.
type mockStatsProvider struct {
	mu        sync.Mutex
	stats     map[string]domain.StatFields
	failures  map[string]error
	calls     []string
	callTimes []time.Time
	onFetch   func(player string)
}

func newMockStatsProvider() *mockStatsProvider {
	return &mockStatsProvider{
		stats:    make(map[string]domain.StatFields),
		failures: make(map[string]error),
	}
}

func (m *mockStatsProvider) FetchPlayerStats(_ context.Context, player string) (*domain.StatFields, error) {
	m.mu.Lock()
	m.calls = append(m.calls, player)
	m.callTimes = append(m.callTimes, time.Now())
	err := m.failures[player]
	stats := m.stats[player]
	hook := m.onFetch
	m.mu.Unlock()

	if hook != nil {
		hook(player)
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (m *mockStatsProvider) callSpan() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.callTimes) < 2 {
		return 0
	}
	return m.callTimes[len(m.callTimes)-1].Sub(m.callTimes[0])
}

func (m *mockStatsProvider) callCount(player string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.calls {
		if p == player {
			n++
		}
	}
	return n
}

// stubTiers maps identities straight to tiers; unknown identities get the
// free tier.
type stubTiers struct {
	tiers map[string]access.Tier
}

func (s *stubTiers) GetTier(_ context.Context, discordID string) (access.Tier, error) {
	if tier, ok := s.tiers[discordID]; ok {
		return tier, nil
	}
	free := 30
	return access.Tier{Name: "free", MaxLookbackDays: &free}, nil
}
