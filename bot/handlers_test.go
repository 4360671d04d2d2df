/* handlers_test.go
 * Unit tests for message filtering using a fake command runner.
 */

package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	commands []string
	forced   []bool
}

func (f *fakeRunner) Submit(command *string, forced bool, _ string) string {
	f.commands = append(f.commands, *command)
	f.forced = append(f.forced, forced)
	return ""
}

func newTestBot(channelID string) (*Bot, *fakeRunner) {
	runner := &fakeRunner{}
	return &Bot{ChannelID: channelID, Runner: runner}, runner
}

func mockMessage(content, userID, channelID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   content,
			ChannelID: channelID,
			Author:    &discordgo.User{ID: userID},
		},
	}
}

// TestHandler_PrefixedCommandIsSubmitted tests that "!" is stripped before
// the command reaches the processor
func TestHandler_PrefixedCommandIsSubmitted(t *testing.T) {
	b, runner := newTestBot("")

	b.newMessageHandler(mockMessage("!endgame", "user1", "chan1"), "botid")

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "endgame", runner.commands[0])
	assert.False(t, runner.forced[0])
}

// TestHandler_DoubleBangForces tests that "!!" marks the command forced
func TestHandler_DoubleBangForces(t *testing.T) {
	b, runner := newTestBot("")

	b.newMessageHandler(mockMessage("!!https://www.geoguessr.com/challenge/abc", "user1", "chan1"), "botid")

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "https://www.geoguessr.com/challenge/abc", runner.commands[0])
	assert.True(t, runner.forced[0])
}

// TestHandler_BareGameURLIsACommand tests that pasted challenge links work
// without a prefix
func TestHandler_BareGameURLIsACommand(t *testing.T) {
	b, runner := newTestBot("")

	b.newMessageHandler(mockMessage("https://www.geoguessr.com/challenge/abc123", "user1", "chan1"), "botid")

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "https://www.geoguessr.com/challenge/abc123", runner.commands[0])
}

// TestHandler_OwnMessagesIgnored tests the bot never reacts to itself
func TestHandler_OwnMessagesIgnored(t *testing.T) {
	b, runner := newTestBot("")

	b.newMessageHandler(mockMessage("!endgame", "botid", "chan1"), "botid")

	assert.Empty(t, runner.commands)
}

// TestHandler_ForeignChannelIgnored tests the channel restriction
func TestHandler_ForeignChannelIgnored(t *testing.T) {
	b, runner := newTestBot("chan1")

	b.newMessageHandler(mockMessage("!endgame", "user1", "chan2"), "botid")

	assert.Empty(t, runner.commands)
}

// TestHandler_PlainChatterIgnored tests that ordinary chat is not submitted
func TestHandler_PlainChatterIgnored(t *testing.T) {
	b, runner := newTestBot("")

	b.newMessageHandler(mockMessage("nice guess everyone", "user1", "chan1"), "botid")

	assert.Empty(t, runner.commands)
}

// TestNewBot_RequiresSession tests the nil-session rejection
func TestNewBot_RequiresSession(t *testing.T) {
	_, err := NewBot(nil, "", &fakeRunner{})

	assert.Error(t, err)
}
