/* machine.go
 * The tournament state machine. Interprets lifecycle operations, owns the
 * history, and drives result loading, elimination policy and snapshot
 * publishing. All methods assume single-writer access (see api/command).
 */

package tournament

import (
	"context"
	"fmt"
	"log"

	"geotourney-bot/api/external"
	"geotourney-bot/api/policy"
	"geotourney-bot/api/shared"
	"geotourney-bot/api/snapshot"

	"github.com/itbasis/go-clock"
)

// ResultsLoader is the fetch-cache contract the machine consumes.
type ResultsLoader interface {
	Load(ctx context.Context, gameID string) ([]shared.PlayerResult, error)
}

// Publisher receives the snapshot built after every finished game or status
// edit and returns a public URL for it.
type Publisher interface {
	Publish(ctx context.Context, doc snapshot.Document) (string, error)
}

// Geocoder annotates round answers with country data.
type Geocoder interface {
	Locations(ctx context.Context, rounds []shared.RoundAnswer) []shared.RoundAnswer
}

// Machine orchestrates the game lifecycle over a Tournament value.
type Machine struct {
	clock     clock.Clock
	loader    ResultsLoader
	publisher Publisher
	geocoder  Geocoder
	t         *Tournament
}

// NewMachine wires a machine around a fresh tournament. A nil clk falls back
// to the wall clock; a nil geocoder leaves round answers ungeocoded.
func NewMachine(nickname string, loader ResultsLoader, publisher Publisher, geocoder Geocoder, clk clock.Clock) *Machine {
	if clk == nil {
		clk = clock.New()
	}
	return &Machine{
		clock:     clk,
		loader:    loader,
		publisher: publisher,
		geocoder:  geocoder,
		t:         New(nickname, clk.Now().UTC()),
	}
}

// Tournament exposes the current tournament value for projections.
func (m *Machine) Tournament() *Tournament {
	return m.t
}

// Restore replaces the current tournament wholesale, used when loading
// history from a published snapshot.
func (m *Machine) Restore(t *Tournament) {
	m.t = t
}

// Restart discards history and starts over under a new nickname. The
// elimination-mode flag is kept.
func (m *Machine) Restart(nickname string) {
	m.t = m.t.Restart(nickname, m.clock.Now().UTC())
}

// SetCurrentGame points the tournament at a new challenge. A pending
// elimination prompt is auto-resolved with zero eliminations first so the
// tournament can never get stuck. Returns the chat announcement.
func (m *Machine) SetCurrentGame(ctx context.Context, gameID, mapID string) (string, error) {
	if m.t.State == shared.PendingEliminations {
		return m.EliminateAndFinish(ctx, 0)
	}
	if gameID == m.t.CurrentGameID {
		return "", nil
	}
	if m.t.HasPlayed(gameID) {
		return "That game URL has already been played.", nil
	}

	m.t.CurrentGameID = gameID
	m.t.CurrentMapID = mapID
	m.t.State = shared.Running

	link := external.ChallengeLink(gameID)
	if m.t.CurrentGameNumber() == 1 {
		return fmt.Sprintf("First game of tournament %q: %s Eliminations are %s",
			m.t.Nickname, link, shared.OnOrOff(m.t.PlayWithEliminations)), nil
	}
	return fmt.Sprintf("Game #%d %s", m.t.CurrentGameNumber(), link), nil
}

// CheckIfCurrentGameFinished tries to load results for the running game.
// With elimination mode on it moves to PendingEliminations and asks how many
// to eliminate; with it off the game finishes immediately. A fetch error
// leaves the state untouched.
func (m *Machine) CheckIfCurrentGameFinished(ctx context.Context) (string, error) {
	if m.t.State != shared.Running {
		return "", nil
	}

	results, err := m.loader.Load(ctx, m.t.CurrentGameID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	if !m.t.PlayWithEliminations {
		url, err := m.finishGame(ctx, results, nil)
		if err != nil {
			return "", err
		}
		latest, _ := m.t.LatestGame()
		return fmt.Sprintf("Game #%d finished. %s", latest.GameNumber, url), nil
	}

	possibilities := policy.EliminationPossibilities(results, m.t.Games)
	skipped := 0
	for _, p := range possibilities {
		if !p.Played {
			skipped++
		}
	}
	skippedDescription := ""
	if skipped > 0 {
		skippedDescription = fmt.Sprintf(" %d did not play this round, but played the one before.", skipped)
	}
	m.t.State = shared.PendingEliminations
	return fmt.Sprintf("%d players are still in the game.%s How many do you want to eliminate?",
		len(possibilities), skippedDescription), nil
}

// EliminateAndFinish eliminates the bottom count candidates and finishes the
// pending game. Outside PendingEliminations it is a no-op.
func (m *Machine) EliminateAndFinish(ctx context.Context, count int) (string, error) {
	if m.t.State != shared.PendingEliminations {
		return "", nil
	}
	results, err := m.loader.Load(ctx, m.t.CurrentGameID)
	if err != nil {
		return "", err
	}
	possibilities := policy.EliminationPossibilities(results, m.t.Games)
	// the reply always echoes the requested number, even when fewer
	// candidates were left to cut
	take := count
	if take > len(possibilities) {
		take = len(possibilities)
	}
	eliminated := make([]string, 0, take)
	for _, p := range possibilities[:take] {
		eliminated = append(eliminated, p.UserID)
	}
	url, err := m.finishGame(ctx, results, eliminated)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d players eliminated. %s", count, url), nil
}

// EliminateAndFinishThreshold eliminates every candidate matching the
// pending threshold selector and finishes the game. Absent-this-round
// players match either direction.
func (m *Machine) EliminateAndFinishThreshold(ctx context.Context, direction policy.ThresholdDirection, threshold int) (string, error) {
	if m.t.State != shared.PendingEliminations {
		return "", nil
	}
	results, err := m.loader.Load(ctx, m.t.CurrentGameID)
	if err != nil {
		return "", err
	}
	selector := policy.PendingSelector(direction, threshold)
	var eliminated []string
	for _, p := range policy.EliminationPossibilities(results, m.t.Games) {
		if selector(p) {
			eliminated = append(eliminated, p.UserID)
		}
	}
	url, err := m.finishGame(ctx, results, eliminated)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d players eliminated. %s", len(eliminated), url), nil
}

// ToggleEliminations flips the mode flag. A pending prompt is auto-finished
// with zero eliminations so the new mode never inherits a stuck state.
func (m *Machine) ToggleEliminations(ctx context.Context) (string, error) {
	m.t.PlayWithEliminations = !m.t.PlayWithEliminations
	if m.t.State == shared.PendingEliminations {
		return m.EliminateAndFinish(ctx, 0)
	}
	return "", nil
}

// finishGame appends the next immutable game record, resets the lifecycle
// and publishes a fresh snapshot, returning the published URL. Callers word
// their own chat replies around it.
func (m *Machine) finishGame(ctx context.Context, results []shared.PlayerResult, eliminatedIDs []string) (string, error) {
	statuses := make(map[string]shared.EliminationStatus)
	if m.t.PlayWithEliminations {
		eliminated := make(map[string]struct{}, len(eliminatedIDs))
		for _, id := range eliminatedIDs {
			eliminated[id] = struct{}{}
		}
		record := func(userID string) {
			if _, done := statuses[userID]; done {
				return
			}
			if _, isEliminated := eliminated[userID]; isEliminated {
				statuses[userID] = shared.Eliminated
				return
			}
			status := policy.DeriveStatus(m.t.Games, userID)
			if status == shared.Revived {
				// revived players re-enter as regular participants
				status = shared.StillInTheGame
			}
			statuses[userID] = status
		}
		for _, g := range m.t.Games {
			for _, r := range g.Results {
				record(r.UserID)
			}
		}
		for _, r := range results {
			record(r.UserID)
		}
	}

	info := shared.GameInfo{}
	if len(results) > 0 {
		info = results[0].Game
	}
	answers := info.Rounds
	if m.geocoder != nil {
		answers = m.geocoder.Locations(ctx, info.Rounds)
	}

	game := shared.GameRecord{
		GameNumber:             m.t.CurrentGameNumber(),
		GameID:                 m.t.CurrentGameID,
		MapID:                  m.t.CurrentMapID,
		MapName:                info.MapName,
		Results:                results,
		Statuses:               statuses,
		PlayedWithEliminations: m.t.PlayWithEliminations,
		Settings:               info,
		RoundAnswers:           answers,
	}
	m.t.Games = append(m.t.Games, game)
	m.t.CurrentGameID = ""
	m.t.CurrentMapID = ""
	m.t.State = shared.NotActive

	return m.publish(ctx)
}

// EliminateSpecificPlayer eliminates one resolved player in the latest
// finished game. Illegal transitions come back as explanatory messages.
func (m *Machine) EliminateSpecificPlayer(ctx context.Context, searchTerm string) (string, error) {
	if !m.t.PlayWithEliminations {
		return "Elimination mode is off.", nil
	}
	latest, ok := m.t.LatestGame()
	if !ok {
		return "", nil
	}
	match, err := policy.SearchPlayer(m.t.Games, searchTerm)
	if err != nil {
		return err.Error(), nil
	}

	status, recorded := latest.Statuses[match.UserID]
	if !recorded {
		status = policy.DeriveStatus(m.t.Games, match.UserID)
	}
	switch status {
	case shared.DidNotPlayGame1:
		return fmt.Sprintf("%s did not play game 1 and is therefore not considered to be in the tournament.", match.PlayerName), nil
	case shared.Eliminated:
		gameNumber, _ := policy.FindEliminationStreakStart(m.t.Games, match.UserID, latest.GameNumber)
		return fmt.Sprintf("%s was already eliminated in game #%d.", match.PlayerName, gameNumber), nil
	default:
		m.replaceLatestGame(latest.WithStatus(match.UserID, shared.Eliminated))
		url, err := m.publish(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s eliminated. %s", match.PlayerName, url), nil
	}
}

// ReviveSpecificPlayer revives one resolved player in the latest finished
// game.
func (m *Machine) ReviveSpecificPlayer(ctx context.Context, searchTerm string) (string, error) {
	if !m.t.PlayWithEliminations {
		return "Elimination mode is off.", nil
	}
	latest, ok := m.t.LatestGame()
	if !ok {
		return "", nil
	}
	match, err := policy.SearchPlayer(m.t.Games, searchTerm)
	if err != nil {
		return err.Error(), nil
	}

	status, recorded := latest.Statuses[match.UserID]
	if !recorded {
		status = policy.DeriveStatus(m.t.Games, match.UserID)
	}
	switch status {
	case shared.Revived:
		return fmt.Sprintf("%s was already revived.", match.PlayerName), nil
	case shared.StillInTheGame:
		return fmt.Sprintf("%s was still in the game.", match.PlayerName), nil
	default:
		m.replaceLatestGame(latest.WithStatus(match.UserID, shared.Revived))
		url, err := m.publish(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s revived. %s", match.PlayerName, url), nil
	}
}

// EliminatePlayers eliminates every eligible player whose score in the
// latest finished game matches the threshold.
func (m *Machine) EliminatePlayers(ctx context.Context, direction policy.ThresholdDirection, threshold int) (string, error) {
	return m.massAction(ctx, direction, threshold, shared.EliminationStatus.CanBeEliminated, shared.Eliminated, "eliminated")
}

// RevivePlayers revives every eligible player whose score in the latest
// finished game matches the threshold.
func (m *Machine) RevivePlayers(ctx context.Context, direction policy.ThresholdDirection, threshold int) (string, error) {
	return m.massAction(ctx, direction, threshold, shared.EliminationStatus.CanBeRevived, shared.Revived, "revived")
}

func (m *Machine) massAction(
	ctx context.Context,
	direction policy.ThresholdDirection,
	threshold int,
	eligible func(shared.EliminationStatus) bool,
	newStatus shared.EliminationStatus,
	actionVerb string,
) (string, error) {
	if !m.t.PlayWithEliminations {
		return "Elimination mode is off.", nil
	}
	latest, ok := m.t.LatestGame()
	if !ok {
		return "", nil
	}

	selector := policy.MassSelector(direction, threshold)
	updated := latest
	matched := 0
	for _, r := range latest.Results {
		status, recorded := latest.Statuses[r.UserID]
		if !recorded || !eligible(status) || !selector(r.TotalScore) {
			continue
		}
		updated = updated.WithStatus(r.UserID, newStatus)
		matched++
	}
	if matched > 0 {
		m.replaceLatestGame(updated)
	}

	url, err := m.publish(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s %s. %s", matched, shared.Pluralize("player", matched), actionVerb, url), nil
}

// UpdateBans rewrites every historical game to exclude the banned ids.
func (m *Machine) UpdateBans(bannedIDs map[string]struct{}) {
	for i, game := range m.t.Games {
		m.t.Games[i] = game.WithoutPlayers(bannedIDs)
	}
}

// PublishScore republishes the current snapshot and returns its URL.
func (m *Machine) PublishScore(ctx context.Context) (string, error) {
	return m.publish(ctx)
}

// CurrentGameURL returns the challenge link for the running game, or "".
func (m *Machine) CurrentGameURL() string {
	if m.t.CurrentGameID == "" {
		return ""
	}
	return external.ChallengeLink(m.t.CurrentGameID)
}

func (m *Machine) replaceLatestGame(game shared.GameRecord) {
	m.t.Games[len(m.t.Games)-1] = game
}

func (m *Machine) publish(ctx context.Context) (string, error) {
	doc := snapshot.Build(m.t.Nickname, m.t.StartTimeUTC, m.t.Games)
	url, err := m.publisher.Publish(ctx, doc)
	if err != nil {
		log.Printf("snapshot publish failed: %v", err)
		return "", err
	}
	m.t.LatestResultsURL = url
	return url, nil
}
