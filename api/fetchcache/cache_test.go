/* cache_test.go
 * Unit tests for the result fetch cache using fake fetcher and ban list.
 */

package fetchcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"geotourney-bot/api/ratewindow"
	"geotourney-bot/api/shared"

	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages     [][]shared.PlayerResult
	callCount int
}

func (f *fakeFetcher) FetchPage(_ context.Context, _ string, token string) ([]shared.PlayerResult, string, error) {
	page := f.callCount
	f.callCount++
	if page >= len(f.pages) {
		return nil, "", nil
	}
	next := ""
	if page < len(f.pages)-1 {
		next = fmt.Sprintf("page-%d", page+1)
	}
	return f.pages[page], next, nil
}

type fakeBans struct {
	ids map[string]struct{}
}

func (f *fakeBans) CurrentBannedIDs(context.Context) (map[string]struct{}, error) {
	if f.ids == nil {
		return map[string]struct{}{}, nil
	}
	return f.ids, nil
}

func player(id string, score int) shared.PlayerResult {
	return shared.PlayerResult{UserID: id, PlayerName: "player " + id, TotalScore: score}
}

// TestLoad_CachesAfterFirstFetch tests that a second Load issues no new network calls
func TestLoad_CachesAfterFirstFetch(t *testing.T) {
	fetcher := &fakeFetcher{pages: [][]shared.PlayerResult{{player("a", 1000), player("b", 500)}}}
	c := New(fetcher, &fakeBans{}, ratewindow.New(time.Hour, 100, nil), nil)

	first, err := c.Load(context.Background(), "game1")
	require.NoError(t, err)
	second, err := c.Load(context.Background(), "game1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.callCount)
	assert.Equal(t, 1, c.Window().Count())
}

// TestLoad_FullWindowReturnsRateLimited tests the cooldown error when no slots remain
func TestLoad_FullWindowReturnsRateLimited(t *testing.T) {
	mock := clock.NewMock()
	window := ratewindow.New(time.Hour, 1, mock)
	window.TryEnqueue(mock.Now())
	mock.Add(15 * time.Minute)

	fetcher := &fakeFetcher{pages: [][]shared.PlayerResult{{player("a", 1000)}}}
	c := New(fetcher, &fakeBans{}, window, mock)

	_, err := c.Load(context.Background(), "game1")
	require.Error(t, err)
	assert.True(t, shared.IsRateLimited(err))
	assert.Contains(t, err.Error(), "Rate limited for 45:00")
	assert.Equal(t, 0, fetcher.callCount)
}

// TestLoad_EmptyFirstPage tests the "haven't finished the game" error, which is not cached
func TestLoad_EmptyFirstPage(t *testing.T) {
	fetcher := &fakeFetcher{pages: [][]shared.PlayerResult{{}}}
	c := New(fetcher, &fakeBans{}, ratewindow.New(time.Hour, 100, nil), nil)

	_, err := c.Load(context.Background(), "game1")
	assert.ErrorIs(t, err, shared.ErrGameNotFinished)

	// a later Load should try the network again
	fetcher.pages = [][]shared.PlayerResult{{player("a", 1000)}}
	fetcher.callCount = 0
	results, err := c.Load(context.Background(), "game1")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

// TestLoad_PaginatesUntilShortPage tests that full pages keep the pagination going
func TestLoad_PaginatesUntilShortPage(t *testing.T) {
	fullPage := make([]shared.PlayerResult, 0, 26)
	for i := 0; i < 26; i++ {
		fullPage = append(fullPage, player(fmt.Sprintf("p%d", i), i*100))
	}
	fetcher := &fakeFetcher{pages: [][]shared.PlayerResult{fullPage, {player("last", 50)}}}
	c := New(fetcher, &fakeBans{}, ratewindow.New(time.Hour, 100, nil), nil)

	results, err := c.Load(context.Background(), "game1")
	require.NoError(t, err)
	assert.Len(t, results, 27)
	assert.Equal(t, 2, fetcher.callCount)
	assert.Equal(t, 2, c.Window().Count())
}

// TestLoad_WindowFillsMidPagination tests that a partial result set is still cached
func TestLoad_WindowFillsMidPagination(t *testing.T) {
	fullPage := make([]shared.PlayerResult, 0, 26)
	for i := 0; i < 26; i++ {
		fullPage = append(fullPage, player(fmt.Sprintf("p%d", i), i*100))
	}
	fetcher := &fakeFetcher{pages: [][]shared.PlayerResult{fullPage, fullPage, {player("never", 1)}}}
	c := New(fetcher, &fakeBans{}, ratewindow.New(time.Hour, 1, nil), nil)

	results, err := c.Load(context.Background(), "game1")
	require.NoError(t, err)
	assert.Len(t, results, 26)
	assert.Equal(t, 1, fetcher.callCount)

	// cached as-is, no refetch
	again, err := c.Load(context.Background(), "game1")
	require.NoError(t, err)
	assert.Equal(t, results, again)
	assert.Equal(t, 1, fetcher.callCount)
}

// TestLoad_FiltersBannedPlayers tests that banned ids never enter the cache
func TestLoad_FiltersBannedPlayers(t *testing.T) {
	fetcher := &fakeFetcher{pages: [][]shared.PlayerResult{{player("a", 1000), player("cheater", 5000)}}}
	bans := &fakeBans{ids: map[string]struct{}{"cheater": {}}}
	c := New(fetcher, bans, ratewindow.New(time.Hour, 100, nil), nil)

	results, err := c.Load(context.Background(), "game1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].UserID)
}
