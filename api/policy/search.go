/* search.go
 * Resolves a chat search term to a single player. A numeric term matches
 * exact scores in the latest finished game; anything else is a
 * case-insensitive substring match against every name seen in history.
 */

package policy

import (
	"fmt"
	"strconv"
	"strings"

	"geotourney-bot/api/shared"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Match is a resolved player.
type Match struct {
	UserID     string
	PlayerName string
}

// SearchPlayer resolves searchTerm against history. Zero matches and
// ambiguous matches come back as errors with chat-ready messages.
func SearchPlayer(history []shared.GameRecord, searchTerm string) (Match, error) {
	matches := matchingPlayers(history, searchTerm)
	if len(matches) == 0 {
		msg := fmt.Sprintf("No matching player found for '%s'", searchTerm)
		if suggestion := closestName(history, searchTerm); suggestion != "" {
			msg = fmt.Sprintf("%s Did you mean %s?", msg, suggestion)
		}
		return Match{}, fmt.Errorf("%s", msg)
	}
	if len(matches) > 1 {
		names := make([]string, 0, 2)
		for _, m := range matches[:min(2, len(matches))] {
			names = append(names, m.PlayerName)
		}
		return Match{}, fmt.Errorf("More than one match found. Narrow down the search. '%s' |> %s",
			searchTerm, strings.Join(names, ", "))
	}
	return matches[0], nil
}

// matchingPlayers unions exact numeric score matches in the latest game with
// substring name matches across all games, grouped by player id. The most
// recently seen name wins for each id.
func matchingPlayers(history []shared.GameRecord, searchTerm string) []Match {
	var candidates []shared.PlayerResult
	if score, err := strconv.Atoi(searchTerm); err == nil && len(history) > 0 {
		for _, r := range history[len(history)-1].Results {
			if r.TotalScore == score {
				candidates = append(candidates, r)
			}
		}
	}
	lowered := strings.ToLower(searchTerm)
	for _, game := range history {
		for _, r := range game.Results {
			if strings.Contains(strings.ToLower(r.PlayerName), lowered) {
				candidates = append(candidates, r)
			}
		}
	}

	var matches []Match
	index := make(map[string]int)
	for _, c := range candidates {
		if i, seen := index[c.UserID]; seen {
			matches[i].PlayerName = c.PlayerName
			continue
		}
		index[c.UserID] = len(matches)
		matches = append(matches, Match{UserID: c.UserID, PlayerName: c.PlayerName})
	}
	return matches
}

// closestName finds the best fuzzy candidate for a failed search.
func closestName(history []shared.GameRecord, searchTerm string) string {
	var names []string
	seen := make(map[string]struct{})
	for _, game := range history {
		for _, r := range game.Results {
			if _, dup := seen[r.PlayerName]; !dup {
				seen[r.PlayerName] = struct{}{}
				names = append(names, r.PlayerName)
			}
		}
	}
	ranked := fuzzy.RankFindNormalizedFold(searchTerm, names)
	if len(ranked) == 0 {
		return ""
	}
	best := ranked[0]
	for _, r := range ranked[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
