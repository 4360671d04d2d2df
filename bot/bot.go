/* bot.go
 * Discord-facing entry point. Listens for chat messages, turns the ones that
 * look like commands into processor submissions and blocks until interrupted.
 * Replies reach Discord through the output dispatcher, not from here.
 */

package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/bwmarrin/discordgo"
)

// CommandRunner is the processor surface the bot needs. A nil command is
// never submitted from here.
type CommandRunner interface {
	Submit(command *string, forced bool, sourceFile string) string
}

type Bot struct {
	Session   *discordgo.Session
	ChannelID string
	Runner    CommandRunner
}

// NewBot wires the bot around an already created session. The session is
// shared with the Discord output sink so replies and listening use one
// connection. An empty channel id means commands are accepted from every
// channel the bot can read.
func NewBot(session *discordgo.Session, channelID string, runner CommandRunner) (*Bot, error) {
	if session == nil {
		return nil, fmt.Errorf("a discord session is required but none was provided")
	}
	return &Bot{
		Session:   session,
		ChannelID: channelID,
		Runner:    runner,
	}, nil
}

// Run opens the Discord session and listens for messages until interrupted.
func (b *Bot) Run() error {
	b.Session.AddHandler(b.newMessage)

	if err := b.Session.Open(); err != nil {
		return err
	}
	defer b.Session.Close()

	log.Println("GeoTourney bot started")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	return nil
}

// newMessage delegates to the testable newMessageHandler
func (b *Bot) newMessage(discord *discordgo.Session, message *discordgo.MessageCreate) {
	b.newMessageHandler(message, discord.State.User.ID)
}
