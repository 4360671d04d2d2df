/* restore.go
 * Rebuilds a Tournament from a published snapshot document, the inverse of
 * the snapshot projection. Used by the loadtournamentfrom command.
 */

package tournament

import (
	"sort"

	"geotourney-bot/api/shared"
	"geotourney-bot/api/snapshot"
)

// FromSnapshot reconstructs tournament history from a published document.
// Elimination annotations map back to explicit statuses; players without an
// annotation are recorded as still in the game.
func FromSnapshot(doc snapshot.Document) *Tournament {
	games := make([]shared.GameRecord, 0, len(doc.Games))
	for _, g := range doc.Games {
		games = append(games, restoreGame(g))
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].GameNumber < games[j].GameNumber })

	t := New(doc.Nickname, doc.StartTimeUTC)
	t.Games = games
	for _, g := range games {
		if g.PlayedWithEliminations {
			t.PlayWithEliminations = true
		}
	}
	return t
}

func restoreGame(g snapshot.GameData) shared.GameRecord {
	results := make([]shared.PlayerResult, 0, len(g.PlayerGames))
	statuses := make(map[string]shared.EliminationStatus, len(g.PlayerGames))
	for _, pg := range g.PlayerGames {
		results = append(results, restorePlayer(g, pg))
		if g.PlayedWithEliminations {
			statuses[pg.PlayerID] = restoreStatus(pg.EliminatedInGame)
		}
	}

	answers := make([]shared.RoundAnswer, 0, len(g.Answers))
	for _, a := range g.Answers {
		answers = append(answers, shared.RoundAnswer{
			Lat: a.Lat, Lng: a.Lng, CountryCode: a.CountryCode, CountryName: a.CountryName,
		})
	}

	settings := shared.GameInfo{
		MapName:        g.MapName,
		TimeLimit:      g.TimeLimit,
		ForbidMoving:   g.ForbidMoving,
		ForbidZooming:  g.ForbidZooming,
		ForbidRotating: g.ForbidRotating,
		Rounds:         answers,
	}
	return shared.GameRecord{
		GameNumber:             g.GameNumber,
		GameID:                 g.GameID,
		MapID:                  g.MapID,
		MapName:                g.MapName,
		Results:                results,
		Statuses:               statuses,
		PlayedWithEliminations: g.PlayedWithEliminations,
		Settings:               settings,
		RoundAnswers:           answers,
	}
}

// restorePlayer rebuilds a player's result row, pulling per-round guess
// coordinates back out of the allGuesses matrix.
func restorePlayer(g snapshot.GameData, pg snapshot.PlayerGameData) shared.PlayerResult {
	guesses := make([]shared.Guess, 0, len(pg.Rounds))
	for round, r := range pg.Rounds {
		guess := shared.Guess{RoundScoreInPoints: r.Points, Time: r.Time}
		if round < len(g.AllGuesses) {
			for _, candidate := range g.AllGuesses[round] {
				if candidate.PlayerID == pg.PlayerID {
					guess.DistanceInMeters = candidate.DistanceInMeters
					guess.Lat = candidate.Lat
					guess.Lng = candidate.Lng
					break
				}
			}
		}
		guesses = append(guesses, guess)
	}
	return shared.PlayerResult{
		UserID:                pg.PlayerID,
		PlayerName:            pg.Player,
		TotalScore:            pg.Points,
		TotalDistanceInMeters: pg.TotalDistanceInMeters,
		TotalTime:             pg.TotalTime,
		PinURL:                pg.PinURL,
		Guesses:               guesses,
		Game: shared.GameInfo{
			MapName:        g.MapName,
			TimeLimit:      g.TimeLimit,
			ForbidMoving:   g.ForbidMoving,
			ForbidZooming:  g.ForbidZooming,
			ForbidRotating: g.ForbidRotating,
		},
	}
}

func restoreStatus(annotation string) shared.EliminationStatus {
	switch annotation {
	case "+":
		return shared.Revived
	case "-":
		return shared.DidNotPlayGame1
	case "":
		return shared.StillInTheGame
	default:
		return shared.Eliminated
	}
}
