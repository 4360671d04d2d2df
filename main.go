/* main.go
 * Wires storage, the geoguessr client, the tournament machine and every
 * command source (Discord, console, periodic tick) and runs until
 * interrupted. Configuration comes from the environment, see config.go.
 */

package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"strings"
	"time"

	"geotourney-bot/api/command"
	"geotourney-bot/api/external"
	"geotourney-bot/api/fetchcache"
	"geotourney-bot/api/ratewindow"
	"geotourney-bot/api/store"
	"geotourney-bot/api/tournament"
	"geotourney-bot/bot"
	"geotourney-bot/config"
	"geotourney-bot/output"
	"geotourney-bot/web"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron/v2"
)

const version = "geotourney-bot v1.0.0"

// geoguessr allows 100 'results/highscores' calls per rolling hour
const (
	apiWindowLifetime = time.Hour
	apiWindowCapacity = 100
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	st, err := store.NewStore(cfg.MongoURI, cfg.DBName, cfg.BaseURL)
	if err != nil {
		log.Fatalf("failed to connect to storage: %v", err)
	}
	defer func() {
		if err := st.Disconnect(context.Background()); err != nil {
			log.Printf("storage disconnect failed: %v", err)
		}
	}()

	client := external.NewClient(cfg.AuthFile)
	window := ratewindow.New(apiWindowLifetime, apiWindowCapacity, nil)
	cache := fetchcache.New(client, st, window, nil)

	nickname := cfg.Nickname
	if nickname == "" {
		nickname = tournament.NewNickname()
	}
	machine := tournament.NewMachine(nickname, cache, st, external.NewGeocoder(cfg.BigDataCloudAPIKey), nil)

	outputs := output.NewDispatcher(output.NewConsoleSink())
	if cfg.OutputFile != "" {
		outputs.Add(output.NewFileSink(cfg.OutputFile))
	}

	processor := command.NewProcessor(machine, cache, st, outputs, version)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go processor.Run(ctx)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	if _, err := scheduler.NewJob(gocron.DurationJob(time.Minute), gocron.NewTask(processor.Tick)); err != nil {
		log.Fatalf("failed to schedule keep-alive: %v", err)
	}
	scheduler.Start()
	defer func() { _ = scheduler.Shutdown() }()

	go func() {
		if err := web.Start(web.Config{Addr: cfg.ListenAddr, Snapshots: st}); err != nil {
			log.Fatalf("web server failed: %v", err)
		}
	}()

	go readConsoleCommands(processor)

	if cfg.DiscordToken == "" {
		log.Println("no discord token configured, console commands only")
		select {}
	}

	discord, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("failed to create discord session: %v", err)
	}
	outputs.Add(output.NewDiscordSink(discord, cfg.DiscordChannelID))

	b, err := bot.NewBot(discord, cfg.DiscordChannelID, processor)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	if err := b.Run(); err != nil {
		log.Fatalf("bot stopped: %v", err)
	}
}

// readConsoleCommands feeds stdin lines into the processor, so an operator
// can drive the tournament without chat.
func readConsoleCommands(processor *command.Processor) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		command, forced, ok := consoleCommand(scanner.Text())
		if !ok {
			continue
		}
		processor.Submit(&command, forced, "")
	}
}

// consoleCommand normalizes one console line. The "!" prefix is optional at
// the console; "!!" still forces the command past the running-game guard.
func consoleCommand(line string) (command string, forced bool, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false, false
	}
	forced = strings.HasPrefix(line, "!!")
	return strings.TrimLeft(line, "!"), forced, true
}
