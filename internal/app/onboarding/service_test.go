package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"cribbage/internal/ports"
)

type fakeAccountPort struct {
	updateErr error
	usernames []string
	names     []string
}

func (f *fakeAccountPort) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	f.usernames = append(f.usernames, username)
	f.names = append(f.names, displayName)
	return f.updateErr
}

type fakeStatsPort struct {
	initErr error
	created bool
	inits   []string
}

func (f *fakeStatsPort) InitStatsOnce(ctx context.Context, userID string) (bool, error) {
	f.inits = append(f.inits, userID)
	if f.initErr != nil {
		return false, f.initErr
	}
	return f.created, nil
}

func (f *fakeStatsPort) RecordResults(ctx context.Context, results []ports.GameResult) error {
	return nil
}

func TestOnboardNewUser_CreatesStats(t *testing.T) {
	accounts := &fakeAccountPort{}
	stats := &fakeStatsPort{created: true}
	service := NewService(accounts, stats, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.ProfileUpdateErr != nil {
		t.Fatalf("Expected no profile update error, got %v", result.ProfileUpdateErr)
	}
	if len(stats.inits) != 1 || stats.inits[0] != "user-1" {
		t.Fatalf("InitStatsOnce calls = %v, want [user-1]", stats.inits)
	}
	if !result.StatsCreated {
		t.Fatal("Expected stats record to be marked as created")
	}
	if len(accounts.names) != 1 || accounts.names[0] != result.DisplayName {
		t.Fatalf("display names = %v, want [%s]", accounts.names, result.DisplayName)
	}
	if accounts.usernames[0] != result.Username {
		t.Fatalf("username = %s, want %s", accounts.usernames[0], result.Username)
	}
}

func TestOnboardNewUser_AccountUpdateFailureStillCreatesStats(t *testing.T) {
	stats := &fakeStatsPort{created: true}
	service := NewService(&fakeAccountPort{updateErr: errors.New("update failed")}, stats, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.ProfileUpdateErr == nil {
		t.Fatal("Expected profile update error to be captured")
	}
	if len(stats.inits) != 1 {
		t.Fatalf("Expected 1 stats init call, got %d", len(stats.inits))
	}
}

func TestOnboardNewUser_StatsFailureReturnsError(t *testing.T) {
	service := NewService(&fakeAccountPort{}, &fakeStatsPort{initErr: errors.New("storage failed")}, rand.New(rand.NewSource(1)))

	if _, err := service.OnboardNewUser(context.Background(), "user-1"); err == nil {
		t.Fatal("Expected error when stats creation fails")
	}
}

func TestOnboardNewUser_StatsAlreadyExist(t *testing.T) {
	service := NewService(&fakeAccountPort{}, &fakeStatsPort{created: false}, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.StatsCreated {
		t.Fatal("Expected stats record to be reported as existing")
	}
}

func TestOnboardNewUser_NotConfigured(t *testing.T) {
	service := NewService(nil, nil, nil)
	if _, err := service.OnboardNewUser(context.Background(), "user-1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("OnboardNewUser without ports error = %v, want ErrNotConfigured", err)
	}
}

func TestNickname(t *testing.T) {
	a := NewService(&fakeAccountPort{}, &fakeStatsPort{}, rand.New(rand.NewSource(7)))
	b := NewService(&fakeAccountPort{}, &fakeStatsPort{}, rand.New(rand.NewSource(7)))
	userA, displayA := a.nickname()
	userB, displayB := b.nickname()
	if userA != userB || displayA != displayB {
		t.Fatalf("nicknames differ for the same seed: %s/%s vs %s/%s", userA, displayA, userB, displayB)
	}
	if strings.ContainsAny(userA, " ") || userA != strings.ToLower(userA) {
		t.Fatalf("username %q should be lower case without spaces", userA)
	}
	if !strings.HasPrefix(userA, strings.ToLower(strings.ReplaceAll(displayA, " ", ""))) {
		t.Fatalf("username %q does not follow display name %q", userA, displayA)
	}
}
