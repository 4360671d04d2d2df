/* geoguessr.go
 * Contains the logic used to fetch challenge results from the Geoguessr api.
 * Authentication uses the _ncfa cookie saved by the sign-in step.
 */

package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"geotourney-bot/api/shared"
)

// PageSize is the fixed number of rows requested per highscores page.
const PageSize = 26

const defaultBaseURL = "https://www.geoguessr.com"

// authCookie is the shape of the locally saved sign-in cookie file.
type authCookie struct {
	Name    string  `json:"name"`
	Value   string  `json:"value"`
	Expires float64 `json:"expires"`
}

// Client fetches challenge results pages. It implements the ResultsFetcher
// contract consumed by the fetch cache.
type Client struct {
	http     *http.Client
	baseURL  string
	authFile string
}

// NewClient builds a results client. authFile points at the JSON cookie file
// written during browser sign-in.
func NewClient(authFile string) *Client {
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		baseURL:  defaultBaseURL,
		authFile: authFile,
	}
}

// FetchPage requests one page of highscore rows for a finished challenge.
// An empty paginationToken requests the first page; the returned token is
// empty on the last page. Returns shared.ErrNotSignedIn when the API rejects
// our cookie.
func (c *Client) FetchPage(ctx context.Context, gameID string, paginationToken string) ([]shared.PlayerResult, string, error) {
	endpoint := fmt.Sprintf("%s/api/v3/results/highscores/%s", c.baseURL, url.PathEscape(gameID))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	params := request.URL.Query()
	params.Set("friends", "false")
	params.Set("limit", fmt.Sprint(PageSize))
	if paginationToken != "" {
		params.Set("paginationToken", paginationToken)
	}
	request.URL.RawQuery = params.Encode()

	cookie, err := c.signInCookie()
	if err != nil {
		return nil, "", shared.ErrNotSignedIn
	}
	request.Header.Set("Cookie", fmt.Sprintf("%s=%s", cookie.Name, cookie.Value))

	response, err := c.http.Do(request)
	if err != nil {
		return nil, "", fmt.Errorf("results request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return nil, "", shared.ErrNotSignedIn
	}
	if response.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("results request returned status %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	var page challengeResultPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("error parsing results JSON: %w", err)
	}

	items := make([]shared.PlayerResult, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, item.toPlayerResult())
	}
	nextToken := ""
	if len(page.Items) == PageSize {
		nextToken = page.PaginationToken
	}
	return items, nextToken, nil
}

// signInCookie loads the saved auth cookie, rejecting it when expired.
func (c *Client) signInCookie() (*authCookie, error) {
	data, err := os.ReadFile(c.authFile)
	if err != nil {
		return nil, err
	}
	var cookie authCookie
	if err := json.Unmarshal(data, &cookie); err != nil {
		return nil, err
	}
	if cookie.Name == "" || cookie.Value == "" {
		return nil, fmt.Errorf("auth file %s is missing the sign-in cookie", c.authFile)
	}
	if cookie.Expires > 0 && time.Unix(int64(cookie.Expires), 0).Before(time.Now().Add(24*time.Hour)) {
		return nil, fmt.Errorf("sign-in cookie in %s has expired", c.authFile)
	}
	return &cookie, nil
}

// ChallengeLink returns the public URL players use to join a challenge.
func ChallengeLink(gameID string) string {
	return fmt.Sprintf("https://www.geoguessr.com/challenge/%s", gameID)
}

// ResultsLink returns the public URL for a challenge's results page.
func ResultsLink(gameID string) string {
	return fmt.Sprintf("https://www.geoguessr.com/results/%s", gameID)
}

// UserLink returns the public profile URL for a player id.
func UserLink(userID string) string {
	return fmt.Sprintf("https://www.geoguessr.com/user/%s", userID)
}
