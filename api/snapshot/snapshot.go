/* snapshot.go
 * Pure projection of tournament history into the publishable document shape.
 * Deterministic over its inputs; no I/O.
 */

package snapshot

import (
	"sort"
	"strconv"
	"time"

	"geotourney-bot/api/policy"
	"geotourney-bot/api/shared"
)

// Document is the published form of a tournament at a point in time. The
// field names match the JSON consumed by the results pages.
type Document struct {
	Nickname     string     `json:"nickname" bson:"nickname"`
	StartTimeUTC time.Time  `json:"startTimeUtc" bson:"startTimeUtc"`
	Tournament   Totals     `json:"tournament" bson:"tournament"`
	Games        []GameData `json:"games" bson:"games"`
}

// Totals carries the cumulative per-player standings across all games.
type Totals struct {
	Players []PlayerTotal `json:"players" bson:"players"`
}

type PlayerTotal struct {
	PlayerID    string      `json:"playerId" bson:"playerId"`
	PlayerName  string      `json:"playerName" bson:"playerName"`
	TotalPoints int         `json:"totalPoints" bson:"totalPoints"`
	Games       []GameScore `json:"games" bson:"games"`
}

// GameScore is one player's score in one game; nil when they skipped it.
type GameScore struct {
	GamePoints *int `json:"gamePoints" bson:"gamePoints"`
}

type GameData struct {
	GameNumber             int              `json:"gameNumber" bson:"gameNumber"`
	GameID                 string           `json:"gameId" bson:"gameId"`
	GameURL                string           `json:"gameUrl" bson:"gameUrl"`
	MapID                  string           `json:"mapId,omitempty" bson:"mapId,omitempty"`
	MapName                string           `json:"mapName" bson:"mapName"`
	GameDescription        string           `json:"gameDescription" bson:"gameDescription"`
	PlayedWithEliminations bool             `json:"playedWithEliminations" bson:"playedWithEliminations"`
	ForbidMoving           bool             `json:"forbidMoving" bson:"forbidMoving"`
	ForbidZooming          bool             `json:"forbidZooming" bson:"forbidZooming"`
	ForbidRotating         bool             `json:"forbidRotating" bson:"forbidRotating"`
	TimeLimit              int              `json:"timeLimit" bson:"timeLimit"`
	PlayerGames            []PlayerGameData `json:"playerGames" bson:"playerGames"`
	AllGuesses             [][]PlayerGuess  `json:"allGuesses" bson:"allGuesses"`
	Answers                []Answer         `json:"answers" bson:"answers"`
}

type PlayerGameData struct {
	Player                string      `json:"player" bson:"player"`
	PlayerID              string      `json:"playerId" bson:"playerId"`
	Points                int         `json:"points" bson:"points"`
	Rounds                []RoundData `json:"rounds" bson:"rounds"`
	EliminatedInGame      string      `json:"eliminatedInGame,omitempty" bson:"eliminatedInGame,omitempty"`
	TotalDistanceInMeters float64     `json:"totalDistanceInMeters" bson:"totalDistanceInMeters"`
	TotalTime             float64     `json:"totalTime" bson:"totalTime"`
	PinURL                string      `json:"pinUrl,omitempty" bson:"pinUrl,omitempty"`
}

type RoundData struct {
	Points int     `json:"points" bson:"points"`
	Time   float64 `json:"time" bson:"time"`
}

// PlayerGuess is one player's guess in one round, used for the per-round view.
type PlayerGuess struct {
	PlayerName         string  `json:"playerName" bson:"playerName"`
	PlayerID           string  `json:"playerId" bson:"playerId"`
	RoundScoreInPoints int     `json:"roundScoreInPoints" bson:"roundScoreInPoints"`
	DistanceInMeters   float64 `json:"distanceInMeters" bson:"distanceInMeters"`
	Time               float64 `json:"time" bson:"time"`
	Lat                float64 `json:"lat" bson:"lat"`
	Lng                float64 `json:"lng" bson:"lng"`
}

type Answer struct {
	Lat         float64 `json:"lat" bson:"lat"`
	Lng         float64 `json:"lng" bson:"lng"`
	CountryCode string  `json:"countryCode,omitempty" bson:"countryCode,omitempty"`
	CountryName string  `json:"countryName,omitempty" bson:"countryName,omitempty"`
}

// Build projects history into a Document. Games are ordered newest first,
// players within a game by score descending, and tournament totals by total
// points descending.
func Build(nickname string, startTime time.Time, history []shared.GameRecord) Document {
	games := make([]GameData, 0, len(history))
	for _, game := range history {
		games = append(games, buildGame(history, game))
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].GameNumber > games[j].GameNumber })

	return Document{
		Nickname:     nickname,
		StartTimeUTC: startTime,
		Tournament:   buildTotals(history),
		Games:        games,
	}
}

func buildGame(history []shared.GameRecord, game shared.GameRecord) GameData {
	sorted := make([]shared.PlayerResult, len(game.Results))
	copy(sorted, game.Results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalScore > sorted[j].TotalScore })

	playerGames := make([]PlayerGameData, 0, len(sorted))
	for _, r := range sorted {
		rounds := make([]RoundData, 0, len(r.Guesses))
		for _, g := range r.Guesses {
			rounds = append(rounds, RoundData{Points: g.RoundScoreInPoints, Time: g.Time})
		}
		playerGames = append(playerGames, PlayerGameData{
			Player:                r.PlayerName,
			PlayerID:              r.UserID,
			Points:                r.TotalScore,
			Rounds:                rounds,
			EliminatedInGame:      eliminationAnnotation(history, game, r.UserID),
			TotalDistanceInMeters: r.TotalDistanceInMeters,
			TotalTime:             r.TotalTime,
			PinURL:                r.PinURL,
		})
	}

	roundCount := len(game.RoundAnswers)
	if roundCount == 0 && len(sorted) > 0 {
		roundCount = len(sorted[0].Guesses)
	}
	allGuesses := make([][]PlayerGuess, 0, roundCount)
	for round := 0; round < roundCount; round++ {
		roundGuesses := make([]PlayerGuess, 0, len(sorted))
		for _, r := range sorted {
			if round >= len(r.Guesses) {
				continue
			}
			g := r.Guesses[round]
			roundGuesses = append(roundGuesses, PlayerGuess{
				PlayerName:         r.PlayerName,
				PlayerID:           r.UserID,
				RoundScoreInPoints: g.RoundScoreInPoints,
				DistanceInMeters:   g.DistanceInMeters,
				Time:               g.Time,
				Lat:                g.Lat,
				Lng:                g.Lng,
			})
		}
		allGuesses = append(allGuesses, roundGuesses)
	}

	answers := make([]Answer, 0, len(game.RoundAnswers))
	for _, a := range game.RoundAnswers {
		answers = append(answers, Answer{Lat: a.Lat, Lng: a.Lng, CountryCode: a.CountryCode, CountryName: a.CountryName})
	}

	return GameData{
		GameNumber:             game.GameNumber,
		GameID:                 game.GameID,
		GameURL:                "https://www.geoguessr.com/results/" + game.GameID,
		MapID:                  game.MapID,
		MapName:                game.MapName,
		GameDescription:        shared.GameDescription(game.Settings),
		PlayedWithEliminations: game.PlayedWithEliminations,
		ForbidMoving:           game.Settings.ForbidMoving,
		ForbidZooming:          game.Settings.ForbidZooming,
		ForbidRotating:         game.Settings.ForbidRotating,
		TimeLimit:              game.Settings.TimeLimit,
		PlayerGames:            playerGames,
		AllGuesses:             allGuesses,
		Answers:                answers,
	}
}

// eliminationAnnotation renders a player's status in one game: "+" revived
// this game, a game number when eliminated, "-" skipped game 1, "" still in.
func eliminationAnnotation(history []shared.GameRecord, game shared.GameRecord, userID string) string {
	switch game.Statuses[userID] {
	case shared.Revived:
		return "+"
	case shared.Eliminated:
		if start, ok := policy.FindEliminationStreakStart(history, userID, game.GameNumber); ok {
			return strconv.Itoa(start)
		}
		return strconv.Itoa(game.GameNumber)
	case shared.DidNotPlayGame1:
		return "-"
	default:
		return ""
	}
}

func buildTotals(history []shared.GameRecord) Totals {
	type entry struct {
		name   string
		total  int
		scores []GameScore
	}
	order := make([]string, 0)
	players := make(map[string]*entry)
	for _, game := range history {
		for _, r := range game.Results {
			if _, seen := players[r.UserID]; !seen {
				players[r.UserID] = &entry{name: r.PlayerName}
				order = append(order, r.UserID)
			}
		}
	}
	for _, id := range order {
		e := players[id]
		for _, game := range history {
			var score *GameScore
			for _, r := range game.Results {
				if r.UserID == id {
					points := r.TotalScore
					score = &GameScore{GamePoints: &points}
					e.name = r.PlayerName
					e.total += points
					break
				}
			}
			if score == nil {
				e.scores = append(e.scores, GameScore{})
			} else {
				e.scores = append(e.scores, *score)
			}
		}
	}

	totals := make([]PlayerTotal, 0, len(order))
	for _, id := range order {
		e := players[id]
		totals = append(totals, PlayerTotal{
			PlayerID:    id,
			PlayerName:  e.name,
			TotalPoints: e.total,
			Games:       e.scores,
		})
	}
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].TotalPoints > totals[j].TotalPoints })
	return Totals{Players: totals}
}
