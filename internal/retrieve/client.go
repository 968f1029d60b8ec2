package retrieve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/rumor-ml/ledgermerge/internal/window"
)

// Client talks to one bank's API.
type Client struct {
	bank       *BankConfig
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the bank's base URL (useful for testing)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a client for the given bank configuration
func NewClient(bank *BankConfig, opts ...Option) (*Client, error) {
	if bank == nil {
		return nil, fmt.Errorf("bank configuration cannot be nil")
	}
	c := &Client{
		bank: bank,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: bank.BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// accessToken performs the client-credentials exchange
func (c *Client) accessToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     c.bank.APIKey,
		"client_secret": c.bank.ClientSecret,
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode auth payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.bank.AuthEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("authentication request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("authentication failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}
	return token.AccessToken, nil
}

type transactionsResponse struct {
	Transactions []map[string]interface{} `json:"transactions"`
}

// FetchRecords retrieves transactions in [start, end] and maps them
// into canonical records. Rows the mapping cannot resolve into a valid
// record are skipped and reported in the returned warnings.
func (c *Client) FetchRecords(ctx context.Context, start, end time.Time) ([]domain.Record, []string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	endpoint := strings.ReplaceAll(c.bank.TransactionsEndpoint, "{ACCOUNT_ID}", c.bank.AccountID)
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid transactions endpoint: %w", err)
	}
	q := u.Query()
	q.Set("from_date", start.Format("2006-01-02"))
	q.Set("to_date", end.Format("2006-01-02"))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build transactions request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("transactions request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("transactions request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode transactions response: %w", err)
	}

	var records []domain.Record
	var warnings []string
	for i, raw := range payload.Transactions {
		rec, err := c.mapTransaction(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("transaction %d skipped: %v", i, err))
			continue
		}
		records = append(records, *rec)
	}
	return records, warnings, nil
}

// mapTransaction applies the bank's field mapping to one API row
func (c *Client) mapTransaction(raw map[string]interface{}) (*domain.Record, error) {
	var date time.Time
	description := ""
	currency := c.bank.Currency
	amount := 0.0
	note := ""
	haveAmount := false

	for apiKey, field := range c.bank.Mapping {
		v, ok := raw[apiKey]
		if !ok {
			continue
		}
		switch field {
		case "date":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("date field %s is not a string", apiKey)
			}
			d, ok := window.ParseDate(s)
			if !ok {
				return nil, fmt.Errorf("unparseable date %q", s)
			}
			date = d
		case "description":
			description, _ = v.(string)
		case "currency":
			if s, ok := v.(string); ok && s != "" {
				currency = s
			}
		case "amount":
			switch n := v.(type) {
			case float64:
				amount = n
				haveAmount = true
			case string:
				return nil, fmt.Errorf("amount field %s is a string, expected a number", apiKey)
			default:
				return nil, fmt.Errorf("amount field %s has unexpected type", apiKey)
			}
		case "note":
			note, _ = v.(string)
		}
	}

	if date.IsZero() {
		return nil, fmt.Errorf("no date field in response")
	}
	if !haveAmount {
		return nil, fmt.Errorf("no amount field in response")
	}

	rec, err := domain.NewRecord(date, c.bank.AccountID, description, currency, amount)
	if err != nil {
		return nil, err
	}
	rec.Note = note
	return rec, nil
}
