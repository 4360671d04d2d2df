/* machine_test.go
 * Unit tests for the tournament state machine using fake loader and publisher.
 */

package tournament

import (
	"context"
	"errors"
	"testing"

	"geotourney-bot/api/policy"
	"geotourney-bot/api/shared"
	"geotourney-bot/api/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	results map[string][]shared.PlayerResult
	err     error
	calls   int
}

func (f *fakeLoader) Load(_ context.Context, gameID string) ([]shared.PlayerResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[gameID], nil
}

type fakePublisher struct {
	published int
	url       string
}

func (f *fakePublisher) Publish(context.Context, snapshot.Document) (string, error) {
	f.published++
	return f.url, nil
}

func result(id, name string, score int) shared.PlayerResult {
	return shared.PlayerResult{UserID: id, PlayerName: name, TotalScore: score, Game: shared.GameInfo{MapName: "World"}}
}

func newTestMachine(loader *fakeLoader) (*Machine, *fakePublisher) {
	publisher := &fakePublisher{url: "https://results.test/t/1"}
	m := NewMachine("test-tourney", loader, publisher, nil, nil)
	return m, publisher
}

// TestSetCurrentGame_FirstAnnouncement tests the first-game chat message
func TestSetCurrentGame_FirstAnnouncement(t *testing.T) {
	m, _ := newTestMachine(&fakeLoader{})

	msg, err := m.SetCurrentGame(context.Background(), "abc123", "")

	require.NoError(t, err)
	assert.Contains(t, msg, `First game of tournament "test-tourney"`)
	assert.Contains(t, msg, "https://www.geoguessr.com/challenge/abc123")
	assert.Contains(t, msg, "Eliminations are off")
	assert.Equal(t, shared.Running, m.Tournament().State)
}

// TestSetCurrentGame_SameIdIsNoOp tests idempotence for the current game id
func TestSetCurrentGame_SameIdIsNoOp(t *testing.T) {
	m, _ := newTestMachine(&fakeLoader{})

	_, err := m.SetCurrentGame(context.Background(), "abc123", "")
	require.NoError(t, err)
	msg, err := m.SetCurrentGame(context.Background(), "abc123", "")

	require.NoError(t, err)
	assert.Empty(t, msg)
	assert.Equal(t, "abc123", m.Tournament().CurrentGameID)
}

// TestSetCurrentGame_AlreadyPlayed tests rejection of a game id already in history
func TestSetCurrentGame_AlreadyPlayed(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"abc123": {result("a", "alice", 2000)},
	}}
	m, _ := newTestMachine(loader)

	_, err := m.SetCurrentGame(context.Background(), "abc123", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)

	msg, err := m.SetCurrentGame(context.Background(), "abc123", "")
	require.NoError(t, err)
	assert.Equal(t, "That game URL has already been played.", msg)
	assert.Equal(t, shared.NotActive, m.Tournament().State)
	assert.Empty(t, m.Tournament().CurrentGameID)
}

// TestCheckIfCurrentGameFinished_FetchErrorLeavesStateUnchanged tests failure semantics
func TestCheckIfCurrentGameFinished_FetchErrorLeavesStateUnchanged(t *testing.T) {
	loader := &fakeLoader{err: errors.New("boom")}
	m, publisher := newTestMachine(loader)

	_, err := m.SetCurrentGame(context.Background(), "abc123", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())

	assert.Error(t, err)
	assert.Equal(t, shared.Running, m.Tournament().State)
	assert.Equal(t, "abc123", m.Tournament().CurrentGameID)
	assert.Zero(t, publisher.published)
}

// TestGameNumbers_ContiguousInFinishOrder tests 1..N sequence numbers with no gaps
func TestGameNumbers_ContiguousInFinishOrder(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000)},
		"g2": {result("a", "alice", 3000)},
		"g3": {result("a", "alice", 1000)},
	}}
	m, _ := newTestMachine(loader)

	for _, id := range []string{"g1", "g2", "g3"} {
		_, err := m.SetCurrentGame(context.Background(), id, "")
		require.NoError(t, err)
		_, err = m.CheckIfCurrentGameFinished(context.Background())
		require.NoError(t, err)
	}

	games := m.Tournament().Games
	require.Len(t, games, 3)
	for i, g := range games {
		assert.Equal(t, i+1, g.GameNumber)
	}
}

// TestEliminationFlow_EndToEnd tests the pending prompt and count elimination
func TestEliminationFlow_EndToEnd(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000), result("b", "bob", 500)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)

	msg, err := m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2 players are still in the game. How many do you want to eliminate?", msg)
	assert.Equal(t, shared.PendingEliminations, m.Tournament().State)

	msg, err = m.EliminateAndFinish(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "1 players eliminated. https://results.test/t/1", msg)
	assert.Equal(t, shared.NotActive, m.Tournament().State)

	game, ok := m.Tournament().LatestGame()
	require.True(t, ok)
	assert.Equal(t, shared.Eliminated, game.Statuses["b"])
	assert.Equal(t, shared.StillInTheGame, game.Statuses["a"])
}

// TestCheckIfCurrentGameFinished_NoEliminations tests the finished message
// when elimination mode is off
func TestCheckIfCurrentGameFinished_NoEliminations(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000)},
	}}
	m, _ := newTestMachine(loader)

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	msg, err := m.CheckIfCurrentGameFinished(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Game #1 finished. https://results.test/t/1", msg)
	assert.Equal(t, shared.NotActive, m.Tournament().State)
}

// TestEliminateAndFinish_EchoesRequestedCount tests that the reply reports
// the asked-for number even when fewer candidates remain
func TestEliminateAndFinish_EchoesRequestedCount(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000), result("b", "bob", 500)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)

	msg, err := m.EliminateAndFinish(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "5 players eliminated. https://results.test/t/1", msg)
	game, ok := m.Tournament().LatestGame()
	require.True(t, ok)
	assert.Equal(t, shared.Eliminated, game.Statuses["a"])
	assert.Equal(t, shared.Eliminated, game.Statuses["b"])
}

// TestEliminateAndFinishThreshold_Pending tests the strict threshold cut
// while the decision is pending
func TestEliminateAndFinishThreshold_Pending(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 500), result("b", "bob", 1000), result("c", "carol", 1500)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)

	msg, err := m.EliminateAndFinishThreshold(context.Background(), policy.LessThan, 1000)
	require.NoError(t, err)

	assert.Equal(t, "1 players eliminated. https://results.test/t/1", msg)
	assert.Equal(t, shared.NotActive, m.Tournament().State)
	game, ok := m.Tournament().LatestGame()
	require.True(t, ok)
	assert.Equal(t, shared.Eliminated, game.Statuses["a"])
	assert.Equal(t, shared.StillInTheGame, game.Statuses["b"])
	assert.Equal(t, shared.StillInTheGame, game.Statuses["c"])
}

// TestEliminationFlow_SkippedPlayersCounted tests the did-not-play description
func TestEliminationFlow_SkippedPlayersCounted(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000), result("b", "bob", 500)},
		"g2": {result("a", "alice", 1500)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	_, err = m.EliminateAndFinish(context.Background(), 0)
	require.NoError(t, err)

	_, err = m.SetCurrentGame(context.Background(), "g2", "")
	require.NoError(t, err)
	msg, err := m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2 players are still in the game. 1 did not play this round, but played the one before. How many do you want to eliminate?", msg)
}

// TestRevivedCollapsesToStillInTheGame tests the revive carry-forward rule
func TestRevivedCollapsesToStillInTheGame(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000), result("b", "bob", 500)},
		"g2": {result("a", "alice", 1500), result("b", "bob", 1800)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	_, err = m.EliminateAndFinish(context.Background(), 1)
	require.NoError(t, err)

	msg, err := m.ReviveSpecificPlayer(context.Background(), "bob")
	require.NoError(t, err)
	assert.Contains(t, msg, "bob revived.")

	_, err = m.SetCurrentGame(context.Background(), "g2", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	_, err = m.EliminateAndFinish(context.Background(), 0)
	require.NoError(t, err)

	game, ok := m.Tournament().LatestGame()
	require.True(t, ok)
	assert.Equal(t, shared.StillInTheGame, game.Statuses["b"])
}

// TestToggleEliminations_AutoFinishesPendingGame tests the stuck-prompt safeguard
func TestToggleEliminations_AutoFinishesPendingGame(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	require.Equal(t, shared.PendingEliminations, m.Tournament().State)

	msg, err := m.ToggleEliminations(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "0 players eliminated.")
	assert.Equal(t, shared.NotActive, m.Tournament().State)
	assert.False(t, m.Tournament().PlayWithEliminations)
}

// TestEliminateSpecificPlayer_IllegalTransitions tests explanatory no-op messages
func TestEliminateSpecificPlayer_IllegalTransitions(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000), result("b", "bob", 500)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	_, err = m.EliminateAndFinish(context.Background(), 1)
	require.NoError(t, err)

	msg, err := m.EliminateSpecificPlayer(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob was already eliminated in game #1.", msg)

	msg, err = m.ReviveSpecificPlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice was still in the game.", msg)
}

// TestEliminatePlayers_ThresholdStrictness tests mass elimination under "less than"
func TestEliminatePlayers_ThresholdStrictness(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 500), result("b", "bob", 1000), result("c", "carol", 1500)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	_, err = m.EliminateAndFinish(context.Background(), 0)
	require.NoError(t, err)

	msg, err := m.EliminatePlayers(context.Background(), policy.LessThan, 1000)
	require.NoError(t, err)
	assert.Contains(t, msg, "1 player eliminated.")

	game, _ := m.Tournament().LatestGame()
	assert.Equal(t, shared.Eliminated, game.Statuses["a"])
	assert.Equal(t, shared.StillInTheGame, game.Statuses["b"])
	assert.Equal(t, shared.StillInTheGame, game.Statuses["c"])
}

// TestEliminationModeOff_SpecificActionsRefuse tests the mode guard
func TestEliminationModeOff_SpecificActionsRefuse(t *testing.T) {
	m, _ := newTestMachine(&fakeLoader{})

	msg, err := m.EliminateSpecificPlayer(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, "Elimination mode is off.", msg)
}

// TestUpdateBans_RewritesHistory tests retroactive ban removal across games
func TestUpdateBans_RewritesHistory(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000), result("x", "cheater", 9000)},
		"g2": {result("a", "alice", 1500), result("x", "cheater", 8000)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	for _, id := range []string{"g1", "g2"} {
		_, err := m.SetCurrentGame(context.Background(), id, "")
		require.NoError(t, err)
		_, err = m.CheckIfCurrentGameFinished(context.Background())
		require.NoError(t, err)
		_, err = m.EliminateAndFinish(context.Background(), 0)
		require.NoError(t, err)
	}

	m.UpdateBans(map[string]struct{}{"x": {}})

	for _, game := range m.Tournament().Games {
		for _, r := range game.Results {
			assert.NotEqual(t, "x", r.UserID)
		}
		_, present := game.Statuses["x"]
		assert.False(t, present)
	}
}

// TestRestart_KeepsEliminationMode tests that restart discards history only
func TestRestart_KeepsEliminationMode(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)

	m.Restart("fresh")

	assert.Equal(t, "fresh", m.Tournament().Nickname)
	assert.Empty(t, m.Tournament().Games)
	assert.True(t, m.Tournament().PlayWithEliminations)
	assert.Equal(t, shared.NotActive, m.Tournament().State)
}

// TestLoad_SingleFetchViaCacheContract tests the machine reuses the loader on finish
func TestEliminateAndFinish_ReloadsFromLoader(t *testing.T) {
	loader := &fakeLoader{results: map[string][]shared.PlayerResult{
		"g1": {result("a", "alice", 2000), result("b", "bob", 500)},
	}}
	m, _ := newTestMachine(loader)
	m.Tournament().PlayWithEliminations = true

	_, err := m.SetCurrentGame(context.Background(), "g1", "")
	require.NoError(t, err)
	_, err = m.CheckIfCurrentGameFinished(context.Background())
	require.NoError(t, err)
	_, err = m.EliminateAndFinish(context.Background(), 1)
	require.NoError(t, err)

	// one load for the finish check, one recompute during elimination
	assert.Equal(t, 2, loader.calls)
}
