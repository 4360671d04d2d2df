/* models.go
 * This file contains the structs, enums and helper functions that are shared between sub packages
 */

package shared

import "fmt"

// GameState describes where the tournament is in its per-game lifecycle.
type GameState int

const (
	NotActive GameState = iota
	Running
	PendingEliminations
)

func (s GameState) String() string {
	switch s {
	case Running:
		return "running"
	case PendingEliminations:
		return "pending eliminations"
	default:
		return "not active"
	}
}

// EliminationStatus is the closed set of states a player can be in with
// respect to the elimination tournament. Every status has a defined outcome
// for both eliminate and revive, so callers never need a default-throw branch.
type EliminationStatus int

const (
	DidNotPlayGame1 EliminationStatus = iota
	Eliminated
	Revived
	StillInTheGame
)

func (s EliminationStatus) String() string {
	switch s {
	case DidNotPlayGame1:
		return "did not play game 1"
	case Eliminated:
		return "eliminated"
	case Revived:
		return "revived"
	default:
		return "still in the game"
	}
}

// CanBeEliminated reports whether an eliminate action is legal from this status.
func (s EliminationStatus) CanBeEliminated() bool {
	return s == StillInTheGame || s == Revived
}

// CanBeRevived reports whether a revive action is legal from this status.
func (s EliminationStatus) CanBeRevived() bool {
	return s == DidNotPlayGame1 || s == Eliminated
}

// Guess is one player's answer to one round of a game.
type Guess struct {
	DistanceInMeters   float64 `json:"distanceInMeters" bson:"distanceInMeters"`
	RoundScoreInPoints int     `json:"roundScoreInPoints" bson:"roundScoreInPoints"`
	Time               float64 `json:"time" bson:"time"`
	Lat                float64 `json:"lat" bson:"lat"`
	Lng                float64 `json:"lng" bson:"lng"`
}

// RoundAnswer is the correct location for one round, optionally geocoded.
type RoundAnswer struct {
	Lat         float64 `json:"lat" bson:"lat"`
	Lng         float64 `json:"lng" bson:"lng"`
	CountryCode string  `json:"countryCode,omitempty" bson:"countryCode,omitempty"`
	CountryName string  `json:"countryName,omitempty" bson:"countryName,omitempty"`
}

// GameInfo holds the game-level settings reported alongside each player result.
type GameInfo struct {
	MapName        string        `json:"mapName" bson:"mapName"`
	TimeLimit      int           `json:"timeLimit" bson:"timeLimit"` // seconds, 0 means unlimited
	ForbidMoving   bool          `json:"forbidMoving" bson:"forbidMoving"`
	ForbidZooming  bool          `json:"forbidZooming" bson:"forbidZooming"`
	ForbidRotating bool          `json:"forbidRotating" bson:"forbidRotating"`
	Rounds         []RoundAnswer `json:"rounds" bson:"rounds"`
}

// PlayerResult is one player's full scoring row for one finished game.
type PlayerResult struct {
	UserID                string   `json:"userId" bson:"userId"`
	PlayerName            string   `json:"playerName" bson:"playerName"`
	TotalScore            int      `json:"totalScore" bson:"totalScore"`
	TotalDistanceInMeters float64  `json:"totalDistanceInMeters" bson:"totalDistanceInMeters"`
	TotalTime             float64  `json:"totalTime" bson:"totalTime"`
	PinURL                string   `json:"pinUrl,omitempty" bson:"pinUrl,omitempty"`
	Guesses               []Guess  `json:"guesses" bson:"guesses"`
	Game                  GameInfo `json:"game" bson:"game"`
}

// GameRecord is one finished game in tournament history. Records are treated
// as immutable: callers that need to change one use WithStatus or
// WithoutPlayers to get a replacement value.
type GameRecord struct {
	GameNumber             int
	GameID                 string
	MapID                  string
	MapName                string
	Results                []PlayerResult
	Statuses               map[string]EliminationStatus
	PlayedWithEliminations bool
	Settings               GameInfo
	RoundAnswers           []RoundAnswer
}

// WithStatus returns a copy of the record with one player's status replaced.
func (g GameRecord) WithStatus(userID string, status EliminationStatus) GameRecord {
	statuses := make(map[string]EliminationStatus, len(g.Statuses))
	for id, s := range g.Statuses {
		statuses[id] = s
	}
	statuses[userID] = status
	g.Statuses = statuses
	return g
}

// WithoutPlayers returns a copy of the record with the given player ids
// removed from both the result list and the status map.
func (g GameRecord) WithoutPlayers(userIDs map[string]struct{}) GameRecord {
	results := make([]PlayerResult, 0, len(g.Results))
	for _, r := range g.Results {
		if _, banned := userIDs[r.UserID]; !banned {
			results = append(results, r)
		}
	}
	statuses := make(map[string]EliminationStatus, len(g.Statuses))
	for id, s := range g.Statuses {
		if _, banned := userIDs[id]; !banned {
			statuses[id] = s
		}
	}
	g.Results = results
	g.Statuses = statuses
	return g
}

// Pluralize returns the plural form of a word when count is not one.
func Pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}

// OnOrOff formats a bool the way chat announcements expect it.
func OnOrOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// GameDescription summarises the movement restrictions and time limit of a
// game, e.g. "30 sec. NMPZ" or "Moving allowed".
func GameDescription(info GameInfo) string {
	var restrictions string
	switch {
	case info.ForbidMoving && info.ForbidZooming && info.ForbidRotating:
		restrictions = "NMPZ"
	case info.ForbidMoving && info.ForbidZooming:
		restrictions = "No move, no zoom"
	case info.ForbidMoving:
		restrictions = "No move"
	case info.ForbidZooming:
		restrictions = "No zoom"
	default:
		restrictions = "Moving allowed"
	}
	if info.TimeLimit > 0 {
		return fmt.Sprintf("%d sec. %s", info.TimeLimit, restrictions)
	}
	return restrictions
}
