/* search_test.go
 * Unit tests for player search resolution.
 */

package policy

import (
	"testing"

	"geotourney-bot/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(id, name string, score int) shared.PlayerResult {
	return shared.PlayerResult{UserID: id, PlayerName: name, TotalScore: score}
}

func searchHistory() []shared.GameRecord {
	return []shared.GameRecord{
		{
			GameNumber: 1,
			Results:    []shared.PlayerResult{named("u1", "slashpeek", 4500), named("u2", "GeoWizard", 5000)},
			Statuses:   map[string]shared.EliminationStatus{"u1": shared.StillInTheGame, "u2": shared.StillInTheGame},
		},
		{
			GameNumber: 2,
			Results:    []shared.PlayerResult{named("u1", "slashpeek", 3200), named("u3", "MapMaster", 2100)},
			Statuses:   map[string]shared.EliminationStatus{"u1": shared.StillInTheGame, "u3": shared.StillInTheGame},
		},
	}
}

// TestSearchPlayer_SubstringCaseInsensitive tests name resolution by partial match
func TestSearchPlayer_SubstringCaseInsensitive(t *testing.T) {
	match, err := SearchPlayer(searchHistory(), "SLASH")

	require.NoError(t, err)
	assert.Equal(t, "u1", match.UserID)
	assert.Equal(t, "slashpeek", match.PlayerName)
}

// TestSearchPlayer_ExactScoreInLatestGame tests numeric search against the last game only
func TestSearchPlayer_ExactScoreInLatestGame(t *testing.T) {
	match, err := SearchPlayer(searchHistory(), "2100")

	require.NoError(t, err)
	assert.Equal(t, "u3", match.UserID)

	// 5000 was scored in game 1, not the latest game
	_, err = SearchPlayer(searchHistory(), "5000")
	assert.Error(t, err)
}

// TestSearchPlayer_NoMatch tests the no-match error message
func TestSearchPlayer_NoMatch(t *testing.T) {
	_, err := SearchPlayer(searchHistory(), "nobody")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "No matching player found for 'nobody'")
}

// TestSearchPlayer_Ambiguous tests that multiple matches list candidate names
func TestSearchPlayer_Ambiguous(t *testing.T) {
	_, err := SearchPlayer(searchHistory(), "a")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "More than one match found")
	assert.Contains(t, err.Error(), "slashpeek")
}

// TestSearchPlayer_TypoSuggestion tests fuzzy suggestions on failed searches
func TestSearchPlayer_TypoSuggestion(t *testing.T) {
	_, err := SearchPlayer(searchHistory(), "geowizrd")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean GeoWizard?")
}
