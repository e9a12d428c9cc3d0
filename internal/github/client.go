package github

import (
	"context"
	"errors"
	"fmt"
	"followtrack/internal/models"
	"followtrack/internal/providers"
	"followtrack/internal/structures"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

const apiVersion = "2022-11-28"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrRateLimited  = errors.New("API rate limit exceeded")
)

// APIError is any other non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github api: status %d", e.Status)
	}
	return fmt.Sprintf("github api: status %d: %s", e.Status, e.Message)
}

type ClientInterface interface {
	GetUser(ctx context.Context, username, token string) (models.FollowerRecord, error)
	GetFollowers(ctx context.Context, username, token string, onProgress func(int)) ([]models.FollowerRecord, error)
}

type Client struct {
	baseURL string
	token   string
	perPage int
	http    *http.Client
	logger  providers.Logger
}

// NewClient builds a REST client. token is the fallback used when a call
// passes no token of its own.
func NewClient(conf *structures.Config, logger providers.Logger) ClientInterface {
	perPage := conf.GitHub.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	return &Client{
		baseURL: strings.TrimRight(conf.GitHub.BaseUrl, "/"),
		token:   conf.GitHub.Token,
		perPage: perPage,
		http:    &http.Client{Timeout: conf.GitHub.Timeout},
		logger:  logger,
	}
}

func (c *Client) GetUser(ctx context.Context, username, token string) (models.FollowerRecord, error) {
	var user models.FollowerRecord
	path := "/users/" + url.PathEscape(username)
	if err := c.get(ctx, path, nil, token, &user); err != nil {
		return models.FollowerRecord{}, err
	}
	return user, nil
}

// GetFollowers walks every page of the follower list. onProgress, when set,
// receives the running total after each page.
func (c *Client) GetFollowers(ctx context.Context, username, token string, onProgress func(int)) ([]models.FollowerRecord, error) {
	path := "/users/" + url.PathEscape(username) + "/followers"
	followers := make([]models.FollowerRecord, 0)

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(c.perPage))
		query.Set("page", strconv.Itoa(page))

		var batch []models.FollowerRecord
		if err := c.get(ctx, path, query, token, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		followers = append(followers, batch...)
		if onProgress != nil {
			onProgress(len(followers))
		}
		if len(batch) < c.perPage {
			break
		}
	}

	c.logger.Debugf(providers.TypeApp, "Fetched %d followers of %s", len(followers), username)
	return followers, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, token string, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	if token == "" {
		token = c.token
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("github response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warnf(providers.TypeApp, "GitHub rate limit hit on %s, remaining %s", path, resp.Header.Get("X-RateLimit-Remaining"))
		if token == "" {
			return fmt.Errorf("%w, please use a token", ErrRateLimited)
		}
		return ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Status: resp.StatusCode, Message: apiMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("github response: %w", err)
	}
	return nil
}

func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
