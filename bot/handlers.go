/* handlers.go
 * Testable message filtering. Decides which chat messages are commands and
 * forwards them to the processor.
 */

package bot

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Geoguessr links count as commands even without the "!" prefix, matching
// how players paste them into chat.
var gameURLRegex = regexp.MustCompile(`^https://www\.geoguessr\.com/(challenge|results)/[a-zA-Z0-9_.-]+/?$`)

// newMessageHandler filters one inbound message and submits it when it is a
// command. Own messages and foreign channels are ignored.
func (b *Bot) newMessageHandler(message *discordgo.MessageCreate, botUserID string) {
	if message.Author.ID == botUserID {
		return
	}
	if b.ChannelID != "" && message.ChannelID != b.ChannelID {
		return
	}

	command, forced, ok := commandFromMessage(message.Content)
	if !ok {
		return
	}
	b.Runner.Submit(&command, forced, "")
}

// commandFromMessage strips the command prefix. "!!" forces the command past
// the running-game guard.
func commandFromMessage(content string) (command string, forced bool, ok bool) {
	content = strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(content, "!!"):
		return strings.TrimPrefix(content, "!!"), true, true
	case strings.HasPrefix(content, "!"):
		return strings.TrimPrefix(content, "!"), false, true
	case gameURLRegex.MatchString(content):
		return content, false, true
	}
	return "", false, false
}
