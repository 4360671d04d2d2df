/* discord.go
 * Discord sink: posts public messages to one channel. Sends are paced with a
 * token bucket so a burst of announcements never trips Discord's limits.
 */

package output

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// ChannelSender is the slice of the discordgo session the sink needs.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Ensure *discordgo.Session implements ChannelSender
var _ ChannelSender = (*discordgo.Session)(nil)

type DiscordSink struct {
	session   ChannelSender
	channelID string
	limiter   *rate.Limiter
}

func NewDiscordSink(session ChannelSender, channelID string) *DiscordSink {
	return &DiscordSink{
		session:   session,
		channelID: channelID,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

func (d *DiscordSink) Send(message string, private bool) error {
	if private {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, message); err != nil {
		log.Printf("discord send failed: %v", err)
		return err
	}
	return nil
}

func (d *DiscordSink) KeepAlive() {}

func (d *DiscordSink) Name() string { return "discord" }
