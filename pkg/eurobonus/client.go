// Package eurobonus is a client for the EuroBonus account API used by the
// SAS web site.
package eurobonus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/yurifrl/ebcrawler/pkg/models"
)

const (
	DefaultBaseURL = "https://api.flysas.com"
	siteOrigin     = "https://www.sas.se"
	// Client credentials of the public web UI.
	basicAuth = "Basic U0FTLVVJOg=="
	accept    = "application/json, text/plain, */*"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Session is the token pair returned by a password login.
type Session struct {
	AccessToken       string `json:"access_token"`
	CustomerSessionID string `json:"customerSessionId"`
}

// Paging selects how much history LoadProfileInfo crawls. The zero value
// fetches the first page only.
type Paging struct {
	All   bool
	Pages int
}

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Paging            Paging
}

type Client struct {
	logger  *log.Logger
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	paging  Paging
	session *Session
}

func New(logger *log.Logger, opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{
		logger:  logger,
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		paging:  opts.Paging,
	}
}

// Login exchanges EuroBonus number and password for a session.
func (c *Client) Login(ctx context.Context, number, password string) error {
	c.logger.Info("logging in", "ebnumber", number)

	form := url.Values{
		"grant_type": {"password"},
		"username":   {number},
		"password":   {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authorize/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	setSiteHeaders(req)
	req.Header.Set("Authorization", basicAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	var session Session
	if err := c.do(req, &session); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	if session.AccessToken == "" {
		return fmt.Errorf("failed to log in: empty access token")
	}
	c.session = &session
	return nil
}

// FetchPage returns one page of account info, numbered from 1.
func (c *Client) FetchPage(ctx context.Context, page int) (*models.AccountInfo, error) {
	if c.session == nil {
		return nil, ErrNotLoggedIn
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("fetching page", "page", page)

	q := url.Values{
		"pageNumber":        {strconv.Itoa(page)},
		"customerSessionId": {c.session.CustomerSessionID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/customer/euroBonus/getAccountInfo?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	setSiteHeaders(req)
	req.Header.Set("Authorization", c.session.AccessToken)

	var body struct {
		EuroBonus models.AccountInfo `json:"euroBonus"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, fmt.Errorf("failed to get page %d: %w", page, err)
	}
	return &body.EuroBonus, nil
}

// LoadProfileInfo crawls the configured number of pages and merges their
// transactions, oldest page last.
func (c *Client) LoadProfileInfo(ctx context.Context) (*models.Profile, error) {
	first, err := c.FetchPage(ctx, 1)
	if err != nil {
		return nil, err
	}

	total := int(first.History.TotalNumberOfPages.Int())
	high := 1
	switch {
	case c.paging.All:
		high = total
	case c.paging.Pages > 0:
		high = min(c.paging.Pages, total)
	}
	c.logger.Debug("crawling history", "pages", high, "total_pages", total)

	info := *first
	for i := 2; i <= high; i++ {
		page, err := c.FetchPage(ctx, i)
		if err != nil {
			return nil, err
		}
		info.History.Transactions = append(info.History.Transactions, page.History.Transactions...)
	}

	return &models.Profile{EuroBonus: info}, nil
}

func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is a non-200 response from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func setSiteHeaders(req *http.Request) {
	req.Header.Set("Referer", siteOrigin+"/")
	req.Header.Set("Origin", siteOrigin)
	req.Header.Set("Accept", accept)
}
