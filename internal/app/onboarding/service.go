// Package onboarding prepares freshly created accounts for their first game.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"cribbage/internal/ports"
)

var ErrNotConfigured = errors.New("onboarding service not configured")

var (
	nameAdjectives = []string{"Lucky", "Nimble", "Steady", "Crafty", "Patient", "Sharp", "Jolly", "Quiet", "Bold", "Canny"}
	nameNouns      = []string{"Pegger", "Skunk", "Dealer", "Cutter", "Knave", "Fifteen", "Crib", "Peg", "Nob", "Runner"}
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	Username    string
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// StatsCreated is false when the player already had a stats record.
	StatsCreated bool
}

type Service struct {
	accounts ports.AccountPort
	stats    ports.StatsPort
	rng      *rand.Rand
}

// NewService wires the profile and stats ports. rng may be nil.
func NewService(accounts ports.AccountPort, stats ports.StatsPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{accounts: accounts, stats: stats, rng: rng}
}

// OnboardNewUser names the account after a cribbage nickname and opens its
// stats record. A failed rename is reported in Result; a failed stats write
// fails the whole onboarding.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.stats == nil {
		return Result{}, ErrNotConfigured
	}

	var result Result
	result.Username, result.DisplayName = s.nickname()
	if err := s.accounts.UpdateProfile(ctx, userID, result.Username, result.DisplayName); err != nil {
		result.ProfileUpdateErr = err
	}

	created, err := s.stats.InitStatsOnce(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("create stats record: %w", err)
	}
	result.StatsCreated = created
	return result, nil
}

// nickname returns a unique-ish username ("craftypegger4821") and its display
// form ("Crafty Pegger").
func (s *Service) nickname() (username, displayName string) {
	adj := nameAdjectives[s.rng.Intn(len(nameAdjectives))]
	noun := nameNouns[s.rng.Intn(len(nameNouns))]
	num := s.rng.Intn(9000) + 1000

	displayName = adj + " " + noun
	username = fmt.Sprintf("%s%s%d", strings.ToLower(adj), strings.ToLower(noun), num)
	return username, displayName
}
