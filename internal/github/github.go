// Package github reads repositories, READMEs and package manifests from the
// GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v76/github"
	"github.com/kevinmichaelchen/repo-post/internal/auth"
	"github.com/kevinmichaelchen/repo-post/internal/models"
)

const (
	manifestPath = "package.json"
	pageSize     = 100
)

// Client is a thin wrapper around the GitHub REST API. It holds no
// credentials; every call is authorized with the token it is given.
type Client struct {
	base *gh.Client
}

// NewClient returns a client using httpClient (http.DefaultClient when nil).
// An empty baseURL means api.github.com.
func NewClient(httpClient *http.Client, baseURL string) (*Client, error) {
	c := gh.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		c.BaseURL = u
	}
	return &Client{base: c}, nil
}

func (c *Client) as(token auth.Token) *gh.Client {
	return c.base.WithAuthToken(string(token))
}

// GetRepository fetches repository metadata by numeric ID. Failures reported
// by GitHub come back as *UpstreamError.
func (c *Client) GetRepository(ctx context.Context, token auth.Token, id int64) (*models.Repository, error) {
	repo, _, err := c.as(token).Repositories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %d: %w", id, upstreamError(err))
	}
	r := toRepository(repo)
	return &r, nil
}

// GetReadme fetches and decodes the repository's README.
func (c *Client) GetReadme(ctx context.Context, token auth.Token, fullName string) (string, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return "", err
	}
	file, _, err := c.as(token).Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		return "", fmt.Errorf("fetching README for %s: %w", fullName, upstreamError(err))
	}
	text, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding README for %s: %w", fullName, err)
	}
	return text, nil
}

// GetManifest fetches, decodes and parses package.json from the default branch.
func (c *Client) GetManifest(ctx context.Context, token auth.Token, fullName string) (*models.Manifest, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}
	file, _, _, err := c.as(token).Repositories.GetContents(ctx, owner, name, manifestPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s for %s: %w", manifestPath, fullName, upstreamError(err))
	}
	if file == nil {
		return nil, fmt.Errorf("%s in %s is not a file", manifestPath, fullName)
	}
	text, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s for %s: %w", manifestPath, fullName, err)
	}
	m, err := models.ParseManifest([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parsing %s for %s: %w", manifestPath, fullName, err)
	}
	return m, nil
}

// ListRepositories returns every repository the token's user can see, most
// recently updated first, walking pages of 100 until the last one.
func (c *Client) ListRepositories(ctx context.Context, token auth.Token) ([]models.Repository, error) {
	client := c.as(token)
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Type:        "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	var all []models.Repository
	for {
		page, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("listing repositories (page %d): %w", opts.Page, upstreamError(err))
		}
		for _, r := range page {
			all = append(all, toRepository(r))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	if all == nil {
		all = []models.Repository{}
	}
	return all, nil
}

func splitFullName(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository name %q", fullName)
	}
	return owner, name, nil
}

func toRepository(r *gh.Repository) models.Repository {
	return models.Repository{
		ID:            r.GetID(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.Description,
		Language:      r.Language,
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		URL:           r.GetHTMLURL(),
		HomepageURL:   r.Homepage,
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		Topics:        r.Topics,
		UpdatedAt:     r.UpdatedAt.GetTime(),
	}
}

// UpstreamError is a failed GitHub response, carrying the status the caller
// should see. Rate limiting is reported as 429 whatever status GitHub used.
type UpstreamError struct {
	Status  int
	Message string
	Details string
	err     error
}

func (e *UpstreamError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func (e *UpstreamError) Unwrap() error { return e.err }

const rateLimitMessage = "GitHub API rate limit exceeded. Please try again later."

func upstreamError(err error) error {
	var rl *gh.RateLimitError
	if errors.As(err, &rl) {
		return &UpstreamError{Status: http.StatusTooManyRequests, Message: rateLimitMessage, Details: rl.Message, err: err}
	}
	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		return &UpstreamError{Status: http.StatusTooManyRequests, Message: rateLimitMessage, Details: abuse.Message, err: err}
	}

	var resp *gh.ErrorResponse
	if !errors.As(err, &resp) || resp.Response == nil {
		return err
	}
	status := resp.Response.StatusCode
	if status == http.StatusForbidden && strings.Contains(strings.ToLower(resp.Message), "rate limit") {
		return &UpstreamError{Status: http.StatusTooManyRequests, Message: rateLimitMessage, Details: resp.Message, err: err}
	}
	return &UpstreamError{
		Status:  status,
		Message: "GitHub API error: " + http.StatusText(status),
		Details: resp.Message,
		err:     err,
	}
}
