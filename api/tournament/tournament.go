/* tournament.go
 * Tournament value: nickname, append-only game history and current-game
 * pointer. History entries are immutable GameRecord values; edits replace
 * the record at its index.
 */

package tournament

import (
	"time"

	"geotourney-bot/api/shared"
)

// Tournament holds the full state for one tournament run.
type Tournament struct {
	Nickname             string
	StartTimeUTC         time.Time
	Games                []shared.GameRecord
	CurrentGameID        string
	CurrentMapID         string
	LatestResultsURL     string
	PlayWithEliminations bool
	State                shared.GameState
}

// New creates an empty tournament.
func New(nickname string, startTime time.Time) *Tournament {
	return &Tournament{Nickname: nickname, StartTimeUTC: startTime}
}

// Restart returns a fresh tournament with no history. The elimination-mode
// flag carries over.
func (t *Tournament) Restart(nickname string, startTime time.Time) *Tournament {
	next := New(nickname, startTime)
	next.PlayWithEliminations = t.PlayWithEliminations
	return next
}

// CurrentGameNumber is the sequence number the next finished game will get.
func (t *Tournament) CurrentGameNumber() int {
	if len(t.Games) == 0 {
		return 1
	}
	return t.Games[len(t.Games)-1].GameNumber + 1
}

// HasPlayed reports whether a game id already appears in history.
func (t *Tournament) HasPlayed(gameID string) bool {
	for _, g := range t.Games {
		if g.GameID == gameID {
			return true
		}
	}
	return false
}

// LatestGame returns the most recent finished game, or false when history is
// empty.
func (t *Tournament) LatestGame() (shared.GameRecord, bool) {
	if len(t.Games) == 0 {
		return shared.GameRecord{}, false
	}
	return t.Games[len(t.Games)-1], true
}
