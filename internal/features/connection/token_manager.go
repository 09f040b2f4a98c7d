package connection

import (
	"context"
	"fmt"
	"time"

	"ticketflo-sync/internal/hubspot"

	"golang.org/x/sync/singleflight"
)

// RefreshBuffer is how close to expiry a token may get before we
// proactively refresh it.
const RefreshBuffer = 5 * time.Minute

// TokenError is a failed token refresh. It is terminal for a sync run.
type TokenError struct {
	Reason string
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *TokenError) Unwrap() error { return e.Err }

// TokenManager owns the OAuth token lifecycle for HubSpot connections
type TokenManager struct {
	repo  ConnectionRepository
	hs    hubspot.API
	group singleflight.Group
	now   func() time.Time
}

func NewTokenManager(repo ConnectionRepository, hs hubspot.API) *TokenManager {
	return &TokenManager{
		repo: repo,
		hs:   hs,
		now:  time.Now,
	}
}

// EnsureValidToken returns an access token that is valid for at least the
// refresh buffer. The fast path performs no I/O; the refresh path rotates
// both tokens and persists them on the connection. Concurrent callers for
// the same connection share a single refresh call.
func (tm *TokenManager) EnsureValidToken(ctx context.Context, conn *Connection) (string, error) {
	if conn.TokenExpiresAt.Sub(tm.now()) > RefreshBuffer {
		return conn.AccessToken, nil
	}

	token, err, _ := tm.group.Do(conn.ID.Hex(), func() (interface{}, error) {
		return tm.refresh(ctx, conn)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (tm *TokenManager) refresh(ctx context.Context, conn *Connection) (interface{}, error) {
	tokens, err := tm.hs.RefreshToken(ctx, conn.RefreshToken)
	if err != nil {
		_ = tm.repo.Update(ctx, conn.ID, map[string]interface{}{
			"connection_status": StatusTokenExpired,
			"last_error":        "Token refresh failed",
		})
		return nil, &TokenError{Reason: "token refresh failed", Err: err}
	}

	expiresAt := tm.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	err = tm.repo.Update(ctx, conn.ID, map[string]interface{}{
		"access_token":      tokens.AccessToken,
		"refresh_token":     tokens.RefreshToken,
		"token_expires_at":  expiresAt,
		"connection_status": StatusConnected,
		"last_error":        "",
	})
	if err != nil {
		return nil, &TokenError{Reason: "failed to persist refreshed tokens", Err: err}
	}

	// Keep the in-memory connection current for the rest of the run
	conn.AccessToken = tokens.AccessToken
	conn.RefreshToken = tokens.RefreshToken
	conn.TokenExpiresAt = expiresAt
	conn.ConnectionStatus = StatusConnected

	return tokens.AccessToken, nil
}
