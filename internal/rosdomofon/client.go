package rosdomofon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

// OAuth client id the platform issues to machine (integration) users.
const machineClientID = "machine"

var (
	// ErrNotAuthenticated is returned when an API call is made before Authenticate.
	ErrNotAuthenticated = errors.New("rosdomofon: not authenticated")

	// ErrAccountNotFound is returned when a phone lookup matches no account.
	ErrAccountNotFound = errors.New("rosdomofon: account not found")
)

// APIError is a non-2xx response from the RosDomofon API.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// Client handles RosDomofon REST API operations.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *log.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient creates a new RosDomofon client. Call Authenticate before any other method.
func NewClient(baseURL, username, password string, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticate obtains an access token with the password grant.
func (c *Client) Authenticate(ctx context.Context) error {
	c.logger.Printf("🔑 Authenticating as %s at %s", c.username, c.baseURL)

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {machineClientID},
		"username":   {c.username},
		"password":   {c.password},
	}

	endpoint := "/authserver-service/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("authentication failed: %w", &APIError{
			Method:     http.MethodPost,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		})
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("authentication failed: empty access token")
	}

	c.mu.Lock()
	c.token = token.AccessToken
	c.mu.Unlock()

	c.logger.Printf("✅ Authenticated, token valid for %ds", token.ExpiresIn)
	return nil
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// doJSONRequest performs an authorised request. A 401 triggers one
// re-authentication followed by a single retry.
func (c *Client) doJSONRequest(ctx context.Context, method, endpoint string, requestBody interface{}, response interface{}) error {
	var jsonData []byte
	if requestBody != nil {
		var err error
		jsonData, err = json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	err := c.execute(ctx, method, endpoint, jsonData, response)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		c.logger.Printf("🔑 Token rejected, re-authenticating...")
		if authErr := c.Authenticate(ctx); authErr != nil {
			return fmt.Errorf("re-authentication failed: %w", authErr)
		}
		err = c.execute(ctx, method, endpoint, jsonData, response)
	}

	return err
}

func (c *Client) execute(ctx context.Context, method, endpoint string, jsonData []byte, response interface{}) error {
	token := c.currentToken()
	if token == "" {
		return ErrNotAuthenticated
	}

	var body io.Reader
	if jsonData != nil {
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if jsonData != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(payload),
		}
	}

	if response != nil && len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, response); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetAccounts retrieves all accounts of the company.
func (c *Client) GetAccounts(ctx context.Context) ([]models.Account, error) {
	c.logger.Printf("📥 Fetching accounts...")

	var accounts []models.Account
	if err := c.doJSONRequest(ctx, http.MethodGet, "/abonents-service/api/v1/accounts", nil, &accounts); err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	c.logger.Printf("✅ Found %d accounts", len(accounts))
	return accounts, nil
}

// GetAccountByPhone finds the account owned by the given phone number.
func (c *Client) GetAccountByPhone(ctx context.Context, phone int64) (*models.Account, error) {
	query := url.Values{"phone": {strconv.FormatInt(phone, 10)}}

	var accounts []models.Account
	if err := c.doJSONRequest(ctx, http.MethodGet, "/abonents-service/api/v1/accounts?"+query.Encode(), nil, &accounts); err != nil {
		return nil, fmt.Errorf("failed to get account by phone %d: %w", phone, err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("phone %d: %w", phone, ErrAccountNotFound)
	}

	return &accounts[0], nil
}

// GetAccountConnections retrieves the service connections of an account.
func (c *Client) GetAccountConnections(ctx context.Context, accountID int64) ([]models.Connection, error) {
	endpoint := fmt.Sprintf("/abonents-service/api/v1/accounts/%d/connections", accountID)

	var connections []models.Connection
	if err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil, &connections); err != nil {
		return nil, fmt.Errorf("failed to get connections of account %d: %w", accountID, err)
	}

	return connections, nil
}

// GetEntrances retrieves entrances with their services. With all set the
// API returns every entrance in a single page.
func (c *Client) GetEntrances(ctx context.Context, all bool) (*models.EntrancesPage, error) {
	c.logger.Printf("📥 Fetching entrances (all=%t)...", all)

	query := url.Values{"all": {strconv.FormatBool(all)}}

	var page models.EntrancesPage
	if err := c.doJSONRequest(ctx, http.MethodGet, "/rdas-service/api/v2/entrances?"+query.Encode(), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to get entrances: %w", err)
	}

	c.logger.Printf("✅ Found %d entrances", len(page.Content))
	return &page, nil
}

// UpdateSignup sets the processing status of a signup.
func (c *Client) UpdateSignup(ctx context.Context, signupID int64, status string) error {
	c.logger.Printf("📝 Updating signup %d to status %q", signupID, status)

	endpoint := fmt.Sprintf("/abonents-service/api/v1/sign_ups/%d", signupID)
	requestBody := map[string]interface{}{
		"status": status,
	}

	if err := c.doJSONRequest(ctx, http.MethodPatch, endpoint, requestBody, nil); err != nil {
		return fmt.Errorf("failed to update signup %d: %w", signupID, err)
	}

	c.logger.Printf("✅ Signup %d updated", signupID)
	return nil
}
