// Package github is a thin client for the code-hosting API: repository
// search, manifest side-fetches at the default branch, releases, and asset
// downloads. All other packages go through it rather than talking HTTP
// themselves.
package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kvasir-dev/plugvault/internal/models"
)

// ErrRateLimited is returned on a 403/429 from the search or release
// endpoints so callers can tell a rate limit apart from a generic failure.
// The client never retries; that choice is left to the user.
var ErrRateLimited = errors.New("github: rate limited")

// ErrNotFound is returned when a repository, manifest, or release does not
// exist.
var ErrNotFound = errors.New("github: not found")

// Client talks to the GitHub REST API and the raw content host.
type Client struct {
	client *http.Client
	apiURL string
	rawURL string
	token  string
}

// New creates a Client. The token is optional; when present it is sent as a
// bearer token on API requests, which raises the search rate limit.
func New(apiURL, rawURL, token string) *Client {
	return &Client{
		client: &http.Client{Timeout: 20 * time.Second},
		apiURL: apiURL,
		rawURL: rawURL,
		token:  token,
	}
}

func (c *Client) get(rawurl string) (*http.Response, error) {
	req, err := http.NewRequest("GET", rawurl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

// searchResponse is the wire shape of GET /search/repositories.
type searchResponse struct {
	Items []struct {
		FullName        string `json:"full_name"`
		Description     string `json:"description"`
		StargazersCount int    `json:"stargazers_count"`
		Owner           struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"items"`
}

// SearchRepositories runs a repository search with the given raw query
// string and returns the results in API order.
func (c *Client) SearchRepositories(query string) ([]models.RepoResult, error) {
	u := fmt.Sprintf("%s/search/repositories?q=%s&per_page=50", c.apiURL, url.QueryEscape(query))
	resp, err := c.get(u)
	if err != nil {
		return nil, fmt.Errorf("repository search failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("repository search returned status %d", resp.StatusCode)
	}

	var apiResponse searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]models.RepoResult, 0, len(apiResponse.Items))
	for _, item := range apiResponse.Items {
		results = append(results, models.RepoResult{
			FullName:    item.FullName,
			Description: item.Description,
			Stars:       item.StargazersCount,
			OwnerLogin:  item.Owner.Login,
		})
	}
	return results, nil
}

// GetManifest fetches a repository's manifest.json at its default branch.
// Returns ErrNotFound when the repository has no manifest there.
func (c *Client) GetManifest(fullName string) (*models.PluginManifest, error) {
	u := fmt.Sprintf("%s/%s/HEAD/manifest.json", c.rawURL, fullName)
	resp, err := c.get(u)
	if err != nil {
		return nil, fmt.Errorf("manifest fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("manifest fetch returned status %d", resp.StatusCode)
	}

	var manifest models.PluginManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest.json: %w", err)
	}
	return &manifest, nil
}

// LatestRelease fetches the latest tagged release of a repository.
func (c *Client) LatestRelease(fullName string) (*models.Release, error) {
	u := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, fullName)
	resp, err := c.get(u)
	if err != nil {
		return nil, fmt.Errorf("release fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("release fetch returned status %d", resp.StatusCode)
	}

	var release models.Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse release: %w", err)
	}
	return &release, nil
}

// DownloadAsset downloads a release asset by its URL.
func (c *Client) DownloadAsset(assetURL string) ([]byte, error) {
	resp, err := c.get(assetURL)
	if err != nil {
		return nil, fmt.Errorf("asset download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	return data, nil
}
