package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ticketflo-sync/internal/config"

	"golang.org/x/time/rate"
)

const defaultTimeout = 15 * time.Second

// HubSpot private apps get roughly 100 requests per 10 seconds; stay under it.
const requestsPerSecond = 9

// Contact is a record in HubSpot's CRM contact collection
type Contact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ContactPage is one page of the paginated contact listing
type ContactPage struct {
	Results   []Contact
	Total     int
	NextAfter string
}

// TokenResponse is the payload of a successful OAuth token grant
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// APIError is a non-2xx response from the HubSpot API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubspot api error: status %d: %s", e.StatusCode, e.Body)
}

// API is the surface of the HubSpot CRM consumed by the sync engine
type API interface {
	SearchContactByEmail(ctx context.Context, accessToken, email string) (*Contact, error)
	CreateContact(ctx context.Context, accessToken string, properties map[string]string) (*Contact, error)
	UpdateContact(ctx context.Context, accessToken, contactID string, properties map[string]string) (*Contact, error)
	ListContacts(ctx context.Context, accessToken string, limit int, after string, properties []string) (*ContactPage, error)
	CountContacts(ctx context.Context, accessToken string) (int, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// Client talks to the HubSpot CRM v3 REST API
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a HubSpot client with a per-call timeout and a
// client-side token bucket so bulk runs respect the API's rate limits.
func NewClient(cfg *config.Config) API {
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.HubSpotAPIBase, "/"),
		clientID:     cfg.HubSpotClientID,
		clientSecret: cfg.HubSpotClientSecret,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchResponse struct {
	Total   int       `json:"total"`
	Results []Contact `json:"results"`
}

type listResponse struct {
	Results []Contact `json:"results"`
	Total   int       `json:"total"`
	Paging  *struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// SearchContactByEmail looks up a contact by exact email match.
// Returns nil when no contact exists for that email.
func (c *Client) SearchContactByEmail(ctx context.Context, accessToken, email string) (*Contact, error) {
	body := searchRequest{
		FilterGroups: []filterGroup{
			{Filters: []filter{{PropertyName: "email", Operator: "EQ", Value: email}}},
		},
	}

	var resp searchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", accessToken, body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// CreateContact creates a new contact from a property bag
func (c *Client) CreateContact(ctx context.Context, accessToken string, properties map[string]string) (*Contact, error) {
	body := map[string]interface{}{"properties": properties}

	var contact Contact
	if err := c.doJSON(ctx, http.MethodPost, "/crm/v3/objects/contacts", accessToken, body, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpdateContact patches an existing contact's properties
func (c *Client) UpdateContact(ctx context.Context, accessToken, contactID string, properties map[string]string) (*Contact, error) {
	body := map[string]interface{}{"properties": properties}
	path := "/crm/v3/objects/contacts/" + url.PathEscape(contactID)

	var contact Contact
	if err := c.doJSON(ctx, http.MethodPatch, path, accessToken, body, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListContacts fetches one page of the contact collection. The returned
// NextAfter cursor is empty on the final page.
func (c *Client) ListContacts(ctx context.Context, accessToken string, limit int, after string, properties []string) (*ContactPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if len(properties) > 0 {
		q.Set("properties", strings.Join(properties, ","))
	}
	if after != "" {
		q.Set("after", after)
	}

	var resp listResponse
	if err := c.doJSON(ctx, http.MethodGet, "/crm/v3/objects/contacts?"+q.Encode(), accessToken, nil, &resp); err != nil {
		return nil, err
	}

	page := &ContactPage{
		Results: resp.Results,
		Total:   resp.Total,
	}
	if resp.Paging != nil && resp.Paging.Next != nil {
		page.NextAfter = resp.Paging.Next.After
	}
	return page, nil
}

// CountContacts returns the total number of contacts in HubSpot using a
// minimal single-record page that exposes the collection total.
func (c *Client) CountContacts(ctx context.Context, accessToken string) (int, error) {
	page, err := c.ListContacts(ctx, accessToken, 1, "", nil)
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

// RefreshToken exchanges a refresh token for a new access/refresh token pair
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/v1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var tokens TokenResponse
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tokens, nil
}

// doJSON performs an authenticated JSON request against the API
func (c *Client) doJSON(ctx context.Context, method, path, accessToken string, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode hubspot response: %w", err)
		}
	}
	return nil
}
