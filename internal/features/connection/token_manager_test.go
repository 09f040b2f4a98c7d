package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketflo-sync/internal/hubspot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubConnRepo struct {
	updates []map[string]interface{}
	err     error
}

func (r *stubConnRepo) GetByOrganization(ctx context.Context, organizationID string) (*Connection, error) {
	return nil, ErrNotFound
}

func (r *stubConnRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.updates = append(r.updates, updates)
	return r.err
}

func (r *stubConnRepo) ListAutoSync(ctx context.Context) ([]Connection, error) {
	return nil, nil
}

type stubHubSpot struct {
	hubspot.API

	refreshCalls int
	tokens       *hubspot.TokenResponse
	refreshErr   error
}

func (h *stubHubSpot) RefreshToken(ctx context.Context, refreshToken string) (*hubspot.TokenResponse, error) {
	h.refreshCalls++
	if h.refreshErr != nil {
		return nil, h.refreshErr
	}
	return h.tokens, nil
}

func testConnection(expiresIn time.Duration) *Connection {
	return &Connection{
		ID:               primitive.NewObjectID(),
		OrganizationID:   "org-1",
		AccessToken:      "current-access",
		RefreshToken:     "current-refresh",
		TokenExpiresAt:   time.Now().Add(expiresIn),
		ConnectionStatus: StatusConnected,
	}
}

func TestEnsureValidTokenFastPath(t *testing.T) {
	repo := &stubConnRepo{}
	hs := &stubHubSpot{}
	tm := NewTokenManager(repo, hs)

	conn := testConnection(time.Hour)

	token, err := tm.EnsureValidToken(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, "current-access", token)
	assert.Zero(t, hs.refreshCalls)
	assert.Empty(t, repo.updates)
}

func TestEnsureValidTokenRefreshesInsideBuffer(t *testing.T) {
	repo := &stubConnRepo{}
	hs := &stubHubSpot{
		tokens: &hubspot.TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    1800,
		},
	}
	tm := NewTokenManager(repo, hs)

	// Expires in two minutes, well inside the five minute buffer
	conn := testConnection(2 * time.Minute)

	token, err := tm.EnsureValidToken(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, hs.refreshCalls)

	// Both tokens rotate on the in-memory connection too
	assert.Equal(t, "new-access", conn.AccessToken)
	assert.Equal(t, "new-refresh", conn.RefreshToken)
	assert.Equal(t, StatusConnected, conn.ConnectionStatus)
	assert.True(t, conn.TokenExpiresAt.After(time.Now().Add(20*time.Minute)))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, "new-access", repo.updates[0]["access_token"])
	assert.Equal(t, "new-refresh", repo.updates[0]["refresh_token"])
	assert.Equal(t, StatusConnected, repo.updates[0]["connection_status"])
}

func TestEnsureValidTokenRefreshesWhenExpired(t *testing.T) {
	repo := &stubConnRepo{}
	hs := &stubHubSpot{
		tokens: &hubspot.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 1800},
	}
	tm := NewTokenManager(repo, hs)

	conn := testConnection(-time.Hour)

	token, err := tm.EnsureValidToken(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, hs.refreshCalls)
}

func TestEnsureValidTokenRefreshFailureMarksConnection(t *testing.T) {
	repo := &stubConnRepo{}
	hs := &stubHubSpot{refreshErr: errors.New("invalid grant")}
	tm := NewTokenManager(repo, hs)

	conn := testConnection(time.Minute)

	_, err := tm.EnsureValidToken(context.Background(), conn)
	require.Error(t, err)

	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, StatusTokenExpired, repo.updates[0]["connection_status"])
	assert.Equal(t, "Token refresh failed", repo.updates[0]["last_error"])
}
