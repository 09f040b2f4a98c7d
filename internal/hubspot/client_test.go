package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticketflo-sync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) API {
	return NewClient(&config.Config{
		HubSpotAPIBase:      baseURL,
		HubSpotClientID:     "client-id",
		HubSpotClientSecret: "client-secret",
	})
}

func TestSearchContactByEmailSendsEqualityFilter(t *testing.T) {
	var gotBody searchRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/crm/v3/objects/contacts/search", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		json.NewEncoder(w).Encode(searchResponse{
			Total:   1,
			Results: []Contact{{ID: "42", Properties: map[string]string{"email": "jane@example.com"}}},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	found, err := c.SearchContactByEmail(context.Background(), "tok", "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "42", found.ID)
	assert.Equal(t, "Bearer tok", gotAuth)

	require.Len(t, gotBody.FilterGroups, 1)
	require.Len(t, gotBody.FilterGroups[0].Filters, 1)
	f := gotBody.FilterGroups[0].Filters[0]
	assert.Equal(t, "email", f.PropertyName)
	assert.Equal(t, "EQ", f.Operator)
	assert.Equal(t, "jane@example.com", f.Value)
}

func TestSearchContactByEmailNoMatchReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Total: 0})
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	found, err := c.SearchContactByEmail(context.Background(), "tok", "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestListContactsParsesPagingCursor(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/crm/v3/objects/contacts", r.URL.Path)
		gotQuery = map[string]string{
			"limit":      r.URL.Query().Get("limit"),
			"after":      r.URL.Query().Get("after"),
			"properties": r.URL.Query().Get("properties"),
		}

		w.Write([]byte(`{
			"results": [{"id": "1", "properties": {"email": "a@example.com"}}],
			"total": 250,
			"paging": {"next": {"after": "cursor-2"}}
		}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	page, err := c.ListContacts(context.Background(), "tok", 100, "cursor-1", []string{"email", "firstname"})
	require.NoError(t, err)

	assert.Equal(t, "100", gotQuery["limit"])
	assert.Equal(t, "cursor-1", gotQuery["after"])
	assert.Equal(t, "email,firstname", gotQuery["properties"])

	require.Len(t, page.Results, 1)
	assert.Equal(t, 250, page.Total)
	assert.Equal(t, "cursor-2", page.NextAfter)
}

func TestListContactsLastPageHasNoCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [], "total": 0}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	page, err := c.ListContacts(context.Background(), "tok", 100, "", nil)
	require.NoError(t, err)
	assert.Empty(t, page.NextAfter)
}

func TestUpdateContactPatchesByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/crm/v3/objects/contacts/42", r.URL.Path)
		w.Write([]byte(`{"id": "42", "properties": {"firstname": "Jane"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	updated, err := c.UpdateContact(context.Background(), "tok", "42", map[string]string{"firstname": "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "42", updated.ID)
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "rate limited"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	_, err := c.CreateContact(context.Background(), "tok", map[string]string{"email": "a@example.com"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate limited")
}

func TestCountContactsUsesMinimalPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"results": [{"id": "1"}], "total": 1234}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	total, err := c.CountContacts(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, 1234, total)
}

func TestRefreshTokenSendsFormGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth/v1/token", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))

		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    1800,
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	tokens, err := c.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", tokens.AccessToken)
	assert.Equal(t, "new-refresh", tokens.RefreshToken)
	assert.Equal(t, 1800, tokens.ExpiresIn)
}

func TestRefreshTokenBadGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status": "BAD_REFRESH_TOKEN"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	_, err := c.RefreshToken(context.Background(), "stale")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
