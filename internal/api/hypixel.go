package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Luciism/statalytics/internal/config"
	"github.com/Luciism/statalytics/internal/domain"

	"github.com/valyala/fasthttp"
)

const playerEndpoint = "https://api.hypixel.net/v2/player"

type HypixelClient struct {
	apiKey      string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewHypixelClient(cfg *config.Config) *HypixelClient {
	return &HypixelClient{
		apiKey: cfg.HypixelAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     120,
			Remaining: 120,
			Reset:     300,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *HypixelClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *HypixelClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("RateLimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("RateLimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("RateLimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// FetchPlayerStats fetches the player's Bedwars counters from the Hypixel
// API. A player that exists but has never touched Bedwars comes back as all
// zeros.
func (c *HypixelClient) FetchPlayerStats(ctx context.Context, playerUUID string) (*domain.StatFields, error) {
	url := fmt.Sprintf("%s?uuid=%s", playerEndpoint, playerUUID)

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var result playerResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("hypixel API rejected request: %s", result.Cause)
	}
	if result.Player == nil {
		return nil, fmt.Errorf("player %s not found", playerUUID)
	}

	return result.Player.Stats.Bedwars.toStatFields(), nil
}

func (c *HypixelClient) doRequest(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("API-Key", c.apiKey)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	c.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	// The body is reused by fasthttp once the response is released.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

type playerResponse struct {
	Success bool        `json:"success"`
	Cause   string      `json:"cause"`
	Player  *playerData `json:"player"`
}

type playerData struct {
	UUID  string `json:"uuid"`
	Stats struct {
		Bedwars bedwarsStats `json:"Bedwars"`
	} `json:"stats"`
}

// bedwarsStats mirrors the snake-case keys of the Bedwars section of the
// Hypixel player blob. Mode prefixes: eight_one = solo, eight_two = doubles,
// four_three = threes, four_four = fours.
type bedwarsStats struct {
	Experience     int64 `json:"Experience"`
	GamesPlayed    int64 `json:"games_played_bedwars"`
	Wins           int64 `json:"wins_bedwars"`
	Losses         int64 `json:"losses_bedwars"`
	Kills          int64 `json:"kills_bedwars"`
	Deaths         int64 `json:"deaths_bedwars"`
	FinalKills     int64 `json:"final_kills_bedwars"`
	FinalDeaths    int64 `json:"final_deaths_bedwars"`
	BedsBroken     int64 `json:"beds_broken_bedwars"`
	BedsLost       int64 `json:"beds_lost_bedwars"`
	ItemsPurchased int64 `json:"items_purchased_bedwars"`

	SoloWins        int64 `json:"eight_one_wins_bedwars"`
	SoloLosses      int64 `json:"eight_one_losses_bedwars"`
	SoloFinalKills  int64 `json:"eight_one_final_kills_bedwars"`
	SoloFinalDeaths int64 `json:"eight_one_final_deaths_bedwars"`

	DoublesWins        int64 `json:"eight_two_wins_bedwars"`
	DoublesLosses      int64 `json:"eight_two_losses_bedwars"`
	DoublesFinalKills  int64 `json:"eight_two_final_kills_bedwars"`
	DoublesFinalDeaths int64 `json:"eight_two_final_deaths_bedwars"`

	ThreesWins        int64 `json:"four_three_wins_bedwars"`
	ThreesLosses      int64 `json:"four_three_losses_bedwars"`
	ThreesFinalKills  int64 `json:"four_three_final_kills_bedwars"`
	ThreesFinalDeaths int64 `json:"four_three_final_deaths_bedwars"`

	FoursWins        int64 `json:"four_four_wins_bedwars"`
	FoursLosses      int64 `json:"four_four_losses_bedwars"`
	FoursFinalKills  int64 `json:"four_four_final_kills_bedwars"`
	FoursFinalDeaths int64 `json:"four_four_final_deaths_bedwars"`
}

func (b *bedwarsStats) toStatFields() *domain.StatFields {
	return &domain.StatFields{
		Experience:     b.Experience,
		GamesPlayed:    b.GamesPlayed,
		Wins:           b.Wins,
		Losses:         b.Losses,
		Kills:          b.Kills,
		Deaths:         b.Deaths,
		FinalKills:     b.FinalKills,
		FinalDeaths:    b.FinalDeaths,
		BedsBroken:     b.BedsBroken,
		BedsLost:       b.BedsLost,
		ItemsPurchased: b.ItemsPurchased,
		Solo: domain.ModeStats{
			Wins:        b.SoloWins,
			Losses:      b.SoloLosses,
			FinalKills:  b.SoloFinalKills,
			FinalDeaths: b.SoloFinalDeaths,
		},
		Doubles: domain.ModeStats{
			Wins:        b.DoublesWins,
			Losses:      b.DoublesLosses,
			FinalKills:  b.DoublesFinalKills,
			FinalDeaths: b.DoublesFinalDeaths,
		},
		Threes: domain.ModeStats{
			Wins:        b.ThreesWins,
			Losses:      b.ThreesLosses,
			FinalKills:  b.ThreesFinalKills,
			FinalDeaths: b.ThreesFinalDeaths,
		},
		Fours: domain.ModeStats{
			Wins:        b.FoursWins,
			Losses:      b.FoursLosses,
			FinalKills:  b.FoursFinalKills,
			FinalDeaths: b.FoursFinalDeaths,
		},
	}
}
