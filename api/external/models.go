/* models.go
 * Wire types for the Geoguessr highscores endpoint. Only the fields the
 * tournament needs are mapped.
 */

package external

import "geotourney-bot/api/shared"

type challengeResultPage struct {
	Items           []challengeItem `json:"items"`
	PaginationToken string          `json:"paginationToken"`
}

type challengeItem struct {
	PlayerName string        `json:"playerName"`
	UserID     string        `json:"userId"`
	TotalScore int           `json:"totalScore"`
	PinURL     string        `json:"pinUrl"`
	Game       challengeGame `json:"game"`
}

type challengeGame struct {
	MapName        string           `json:"mapName"`
	TimeLimit      int              `json:"timeLimit"`
	ForbidMoving   bool             `json:"forbidMoving"`
	ForbidZooming  bool             `json:"forbidZooming"`
	ForbidRotating bool             `json:"forbidRotating"`
	Player         challengePlayer  `json:"player"`
	Rounds         []challengeRound `json:"rounds"`
}

type challengePlayer struct {
	ID                    string           `json:"id"`
	TotalDistanceInMeters float64          `json:"totalDistanceInMeters"`
	TotalTime             float64          `json:"totalTime"`
	Guesses               []challengeGuess `json:"guesses"`
}

type challengeGuess struct {
	DistanceInMeters   float64 `json:"distanceInMeters"`
	RoundScoreInPoints int     `json:"roundScoreInPoints"`
	Time               float64 `json:"time"`
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
}

type challengeRound struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// toPlayerResult flattens one highscore row into the shared result shape.
func (i challengeItem) toPlayerResult() shared.PlayerResult {
	guesses := make([]shared.Guess, 0, len(i.Game.Player.Guesses))
	for _, g := range i.Game.Player.Guesses {
		guesses = append(guesses, shared.Guess{
			DistanceInMeters:   g.DistanceInMeters,
			RoundScoreInPoints: g.RoundScoreInPoints,
			Time:               g.Time,
			Lat:                g.Lat,
			Lng:                g.Lng,
		})
	}
	rounds := make([]shared.RoundAnswer, 0, len(i.Game.Rounds))
	for _, r := range i.Game.Rounds {
		rounds = append(rounds, shared.RoundAnswer{Lat: r.Lat, Lng: r.Lng})
	}
	return shared.PlayerResult{
		UserID:                i.UserID,
		PlayerName:            i.PlayerName,
		TotalScore:            i.TotalScore,
		TotalDistanceInMeters: i.Game.Player.TotalDistanceInMeters,
		TotalTime:             i.Game.Player.TotalTime,
		PinURL:                i.PinURL,
		Guesses:               guesses,
		Game: shared.GameInfo{
			MapName:        i.Game.MapName,
			TimeLimit:      i.Game.TimeLimit,
			ForbidMoving:   i.Game.ForbidMoving,
			ForbidZooming:  i.Game.ForbidZooming,
			ForbidRotating: i.Game.ForbidRotating,
			Rounds:         rounds,
		},
	}
}
