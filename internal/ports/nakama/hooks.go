package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cribbage/internal/app/onboarding"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// AfterAuthenticateDevice onboards accounts created by this authentication:
// a generated cribbage nickname and an empty stats record. Returning
// accounts pass through untouched.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	if out == nil || !out.Created {
		return nil
	}
	userID, err := sessionUserID(ctx, out)
	if err != nil {
		logger.Error("AfterAuthenticateDevice: Failed to resolve new user: %v", err)
		return err
	}

	service := onboarding.NewService(NewNakamaAccountAdapter(nk), NewNakamaStatsAdapter(nk), nil)
	result, err := service.OnboardNewUser(ctx, userID)
	if err != nil {
		logger.Error("AfterAuthenticateDevice: Onboarding failed for user %s: %v", userID, err)
		return err
	}
	if result.ProfileUpdateErr != nil {
		logger.Warn("AfterAuthenticateDevice: Kept default name for user %s: %v", userID, result.ProfileUpdateErr)
	}
	logger.Info("AfterAuthenticateDevice: Onboarded %s as %s (stats created: %t)", userID, result.DisplayName, result.StatsCreated)
	return nil
}

// sessionUserID prefers the runtime context and falls back to the uid claim
// of the freshly minted session token.
func sessionUserID(ctx context.Context, out *api.Session) (string, error) {
	if id, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string); ok && id != "" {
		return id, nil
	}
	return extractUserIDFromToken(out.Token)
}

// extractUserIDFromToken reads the uid claim without verifying the signature;
// Nakama minted the token in this same request.
func extractUserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", errors.New("session token has no uid claim")
	}
	return uid, nil
}
