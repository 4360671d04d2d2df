/* cache.go
 * Rate-limited fetch and permanent cache of a finished game's player results.
 * A game id is fetched from the network at most once per process lifetime.
 */

package fetchcache

import (
	"context"
	"sync"

	"geotourney-bot/api/ratewindow"
	"geotourney-bot/api/shared"

	"github.com/itbasis/go-clock"
)

// Fetcher is the narrow results-fetching contract. FetchPage returns one page
// of rows plus the token for the next page ("" on the last page).
type Fetcher interface {
	FetchPage(ctx context.Context, gameID string, paginationToken string) ([]shared.PlayerResult, string, error)
}

// BanListProvider exposes the current set of banned player ids.
type BanListProvider interface {
	CurrentBannedIDs(ctx context.Context) (map[string]struct{}, error)
}

// Cache wraps a Fetcher with a sliding rate-limit window and a permanent
// per-game result cache.
type Cache struct {
	mu      sync.Mutex
	games   map[string][]shared.PlayerResult
	window  *ratewindow.Window
	fetcher Fetcher
	bans    BanListProvider
	clock   clock.Clock
}

// New builds a cache. A nil clk falls back to the wall clock.
func New(fetcher Fetcher, bans BanListProvider, window *ratewindow.Window, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.New()
	}
	return &Cache{
		games:   make(map[string][]shared.PlayerResult),
		window:  window,
		fetcher: fetcher,
		bans:    bans,
		clock:   clk,
	}
}

// Window exposes the underlying rate-limit window for call-count reporting.
func (c *Cache) Window() *ratewindow.Window {
	return c.window
}

// Load returns all player results for a finished game. Cached games are
// returned without touching the window or the network. When the window fills
// mid-pagination the accumulated set is cached and returned as-is, matching
// upstream behaviour; see DESIGN.md.
func (c *Cache) Load(ctx context.Context, gameID string) ([]shared.PlayerResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.games[gameID]; ok {
		return cached, nil
	}
	if c.window.IsFull() {
		return nil, &shared.RateLimitedError{Cooldown: c.window.Cooldown()}
	}

	var results []shared.PlayerResult
	token := ""
	for {
		c.window.TryEnqueue(c.clock.Now())
		items, nextToken, err := c.fetcher.FetchPage(ctx, gameID, token)
		if err != nil {
			return nil, err
		}
		results = append(results, items...)
		if len(results) == 0 {
			return nil, shared.ErrGameNotFinished
		}
		if nextToken == "" || c.window.IsFull() {
			break
		}
		token = nextToken
	}

	banned, err := c.bans.CurrentBannedIDs(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]shared.PlayerResult, 0, len(results))
	for _, r := range results {
		if _, isBanned := banned[r.UserID]; !isBanned {
			filtered = append(filtered, r)
		}
	}

	c.games[gameID] = filtered
	return filtered, nil
}
