/* policy.go
 * Pure functions for elimination eligibility, carried-forward status and
 * threshold selection. Nothing here performs I/O or mutates history.
 */

package policy

import (
	"sort"

	"geotourney-bot/api/shared"
)

// ThresholdDirection selects which side of a points threshold matches.
type ThresholdDirection int

const (
	LessThan ThresholdDirection = iota
	MoreThan
)

// Possibility pairs a player still in the running with their score in the
// current round. Played is false when they skipped this round.
type Possibility struct {
	UserID string
	Score  int
	Played bool
}

// EliminationPossibilities returns every player whose carried-forward status
// keeps them eligible for elimination, ordered ascending by this round's
// score with absent players first (treated as the lowest scores).
func EliminationPossibilities(currentResults []shared.PlayerResult, history []shared.GameRecord) []Possibility {
	scores := make(map[string]int, len(currentResults))
	for _, r := range currentResults {
		if _, seen := scores[r.UserID]; !seen {
			scores[r.UserID] = r.TotalScore
		}
	}

	var possibilities []Possibility
	seen := make(map[string]struct{})
	consider := func(userID string) {
		if _, dup := seen[userID]; dup {
			return
		}
		seen[userID] = struct{}{}
		status := DeriveStatus(history, userID)
		if status != shared.StillInTheGame && status != shared.Revived {
			return
		}
		score, played := scores[userID]
		possibilities = append(possibilities, Possibility{UserID: userID, Score: score, Played: played})
	}
	for _, game := range history {
		for _, r := range game.Results {
			consider(r.UserID)
		}
	}
	for _, r := range currentResults {
		consider(r.UserID)
	}

	sort.SliceStable(possibilities, func(i, j int) bool {
		a, b := possibilities[i], possibilities[j]
		if a.Played != b.Played {
			return !a.Played
		}
		return a.Score < b.Score
	})
	return possibilities
}

// DeriveStatus computes a player's carried-forward status entering the next
// game: StillInTheGame for an empty history, DidNotPlayGame1 when the only
// recorded game does not include them, otherwise the most recent explicit
// status found scanning backwards.
func DeriveStatus(history []shared.GameRecord, userID string) shared.EliminationStatus {
	if len(history) == 0 {
		return shared.StillInTheGame
	}
	if len(history) == 1 {
		played := false
		for _, r := range history[0].Results {
			if r.UserID == userID {
				played = true
				break
			}
		}
		if !played {
			return shared.DidNotPlayGame1
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		if status, ok := history[i].Statuses[userID]; ok {
			return status
		}
	}
	return shared.StillInTheGame
}

// PendingSelector matches possibilities against a threshold before a game is
// finalized. Players with no recorded score this round match either
// direction.
func PendingSelector(direction ThresholdDirection, threshold int) func(Possibility) bool {
	if direction == LessThan {
		return func(p Possibility) bool { return !p.Played || p.Score < threshold }
	}
	return func(p Possibility) bool { return !p.Played || p.Score > threshold }
}

// MassSelector matches a recorded score in the latest finished game against a
// threshold. Strict comparison on both sides.
func MassSelector(direction ThresholdDirection, threshold int) func(score int) bool {
	if direction == LessThan {
		return func(score int) bool { return score < threshold }
	}
	return func(score int) bool { return score > threshold }
}

// FindEliminationStreakStart walks games at or before uptoGameNumber from
// newest to oldest, skipping games until the player's status is Eliminated
// and then following the unbroken trailing streak. It returns the earliest
// game number in that streak, or false when the player has no such streak.
func FindEliminationStreakStart(history []shared.GameRecord, userID string, uptoGameNumber int) (int, bool) {
	streakStart := 0
	found := false
	for i := len(history) - 1; i >= 0; i-- {
		game := history[i]
		if game.GameNumber > uptoGameNumber {
			continue
		}
		status, ok := game.Statuses[userID]
		if ok && status == shared.Eliminated {
			streakStart = game.GameNumber
			found = true
			continue
		}
		// a game with no explicit status ends the walk; an explicit
		// non-eliminated status only ends it once the streak has started
		if !ok || found {
			break
		}
	}
	return streakStart, found
}
