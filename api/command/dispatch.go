/* dispatch.go
 * The command grammar and its routing into the tournament machine. The
 * accepted commands mirror the chat interface: challenge/results URLs,
 * endgame, elim/revive variants, bans and tournament restore.
 */

package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"geotourney-bot/api/policy"
	"geotourney-bot/api/shared"
	"geotourney-bot/api/tournament"

	"github.com/go-andiamo/splitter"
)

var (
	challengeURLRegex = regexp.MustCompile(`^!?https://www\.geoguessr\.com/challenge/([a-zA-Z0-9_.-]*)/?$`)
	resultsURLRegex   = regexp.MustCompile(`^!?https://www\.geoguessr\.com/results/([a-zA-Z0-9_.-]*)/?$`)
	lessMoreRegex     = regexp.MustCompile(`^(elim|revive) (less|more) (than|then) (\d{1,5})$`)
	pendingLessMore   = regexp.MustCompile(`^(less|more) (than|then) (\d{1,5})$`)
	banByURLRegex     = regexp.MustCompile(`^ban https://www\.geoguessr\.com/user/([a-zA-Z0-9_.-]*)/?$`)
	unbanByURLRegex   = regexp.MustCompile(`^unban https://www\.geoguessr\.com/user/([a-zA-Z0-9_.-]*)/?$`)
	loadFromRegex     = regexp.MustCompile(`^loadtournamentfrom (\S+)$`)
)

// argSplitter honours double quotes so multi-word player names stay one token
var argSplitter, _ = splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)

func (p *Processor) dispatch(ctx context.Context, command string, forced bool) string {
	command = strings.TrimSpace(command)

	switch {
	case challengeURLRegex.MatchString(command):
		gameID := challengeURLRegex.FindStringSubmatch(command)[1]
		return p.setCurrentGame(ctx, gameID, command, forced)

	case resultsURLRegex.MatchString(command):
		gameID := resultsURLRegex.FindStringSubmatch(command)[1]
		if msg := p.runningGameGuard(gameID, command, forced); msg != "" {
			return p.broadcast(msg)
		}
		if _, err := p.machine.SetCurrentGame(ctx, gameID, ""); err != nil {
			return p.broadcast(p.reportError(err))
		}
		msg, err := p.machine.CheckIfCurrentGameFinished(ctx)
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		return p.broadcast(msg)

	case command == "endgame":
		msg, err := p.machine.CheckIfCurrentGameFinished(ctx)
		if err != nil {
			link := p.machine.CurrentGameURL()
			report := p.reportError(err)
			if report != "" && link != "" {
				report = fmt.Sprintf("%s Link: %s", report, link)
			}
			return p.broadcast(report)
		}
		return p.broadcast(msg)

	case command == "gamescore":
		url, err := p.machine.PublishScore(ctx)
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		return p.broadcast(fmt.Sprintf("Last game results: %s", url))

	case command == "elim":
		msg, err := p.machine.ToggleEliminations(ctx)
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		announcement := p.broadcast(fmt.Sprintf("Eliminations are now %s.",
			shared.OnOrOff(p.machine.Tournament().PlayWithEliminations)))
		if msg != "" {
			return p.broadcast(msg)
		}
		return announcement

	case command == "restart":
		p.machine.Restart(tournament.NewNickname())
		return p.broadcast(fmt.Sprintf("Tournament restarted as %q.", p.machine.Tournament().Nickname))

	case command == "currentgame":
		if url := p.machine.CurrentGameURL(); url != "" {
			return p.broadcast(url)
		}
		return p.broadcast("No game running.")

	case command == "apiinfo":
		return p.broadcast(p.apiInfo())

	case command == "link":
		if url := p.machine.Tournament().LatestResultsURL; url != "" {
			return p.broadcast(url)
		}
		return ""

	case command == "bans":
		return p.listBans(ctx)

	case lessMoreRegex.MatchString(command):
		groups := lessMoreRegex.FindStringSubmatch(command)
		direction := parseDirection(groups[2])
		threshold, _ := strconv.Atoi(groups[4])
		var msg string
		var err error
		if groups[1] == "elim" {
			msg, err = p.machine.EliminatePlayers(ctx, direction, threshold)
		} else {
			msg, err = p.machine.RevivePlayers(ctx, direction, threshold)
		}
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		return p.broadcast(msg)

	case pendingLessMore.MatchString(command):
		groups := pendingLessMore.FindStringSubmatch(command)
		threshold, _ := strconv.Atoi(groups[3])
		msg, err := p.machine.EliminateAndFinishThreshold(ctx, parseDirection(groups[1]), threshold)
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		return p.broadcast(msg)

	case strings.HasPrefix(command, "elim "):
		msg, err := p.machine.EliminateSpecificPlayer(ctx, searchTerm(command, "elim "))
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		return p.broadcast(msg)

	case strings.HasPrefix(command, "revive "):
		msg, err := p.machine.ReviveSpecificPlayer(ctx, searchTerm(command, "revive "))
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		return p.broadcast(msg)

	case banByURLRegex.MatchString(command):
		return p.updateBan(ctx, banByURLRegex.FindStringSubmatch(command)[1], true)

	case unbanByURLRegex.MatchString(command):
		return p.updateBan(ctx, unbanByURLRegex.FindStringSubmatch(command)[1], false)

	case loadFromRegex.MatchString(command):
		return p.loadTournamentFrom(ctx, loadFromRegex.FindStringSubmatch(command)[1])

	default:
		if number, err := strconv.Atoi(command); err == nil && number >= 0 {
			msg, err := p.machine.EliminateAndFinish(ctx, number)
			if err != nil {
				return p.broadcast(p.reportError(err))
			}
			return p.broadcast(msg)
		}
	}
	return ""
}

func (p *Processor) setCurrentGame(ctx context.Context, gameID, rawCommand string, forced bool) string {
	if msg := p.runningGameGuard(gameID, rawCommand, forced); msg != "" {
		return p.broadcast(msg)
	}
	msg, err := p.machine.SetCurrentGame(ctx, gameID, "")
	if err != nil {
		return p.broadcast(p.reportError(err))
	}
	return p.broadcast(msg)
}

// runningGameGuard refuses to replace a still-running game unless forced.
func (p *Processor) runningGameGuard(gameID, rawCommand string, forced bool) string {
	t := p.machine.Tournament()
	if t.State != shared.Running || forced || gameID == t.CurrentGameID {
		return ""
	}
	return fmt.Sprintf("Game #%d has not ended. Use !endgame to end it first, or !%s to ignore.",
		t.CurrentGameNumber(), rawCommand)
}

func (p *Processor) updateBan(ctx context.Context, userID string, ban bool) string {
	var err error
	message := "User unbanned"
	if ban {
		message = "User banned"
		err = p.store.BanUser(ctx, userID)
	} else {
		err = p.store.UnbanUser(ctx, userID)
	}
	if err != nil {
		return p.broadcast(p.reportError(err))
	}
	if ban {
		banned, err := p.store.CurrentBannedIDs(ctx)
		if err != nil {
			return p.broadcast(p.reportError(err))
		}
		p.machine.UpdateBans(banned)
	}
	p.outputs.Broadcast(message, true)
	return message
}

func (p *Processor) listBans(ctx context.Context) string {
	banned, err := p.store.CurrentBannedIDs(ctx)
	if err != nil {
		return p.broadcast(p.reportError(err))
	}
	urls := make([]string, 0, len(banned))
	for id := range banned {
		urls = append(urls, fmt.Sprintf("https://www.geoguessr.com/user/%s", id))
	}
	message := fmt.Sprintf("%d %s banned", len(urls), shared.Pluralize("user", len(urls)))
	if len(urls) > 0 {
		message = message + "\n" + strings.Join(urls, "\n")
	}
	p.outputs.Broadcast(message, true)
	return message
}

func (p *Processor) loadTournamentFrom(ctx context.Context, rawURL string) string {
	id := snapshotIDFromURL(rawURL)
	if id == "" {
		return p.broadcast(fmt.Sprintf("Invalid URL. Missing tournament id | %s", rawURL))
	}
	doc, err := p.store.GetSnapshot(ctx, id)
	if err != nil {
		return p.broadcast(p.reportError(err))
	}
	t := tournament.FromSnapshot(doc)
	p.machine.Restore(t)
	return p.broadcast(fmt.Sprintf("Loaded tournament with %d games.", len(t.Games)))
}

// snapshotIDFromURL accepts either ?id=<id> or /tournaments/<id> URLs.
func snapshotIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if id := parsed.Query().Get("id"); id != "" {
		return id
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) >= 2 && segments[len(segments)-2] == "tournaments" {
		return segments[len(segments)-1]
	}
	return ""
}

func (p *Processor) apiInfo() string {
	window := p.cache.Window()
	elapsed := time.Since(window.Oldest()).Round(time.Second)
	return fmt.Sprintf("%d 'results/highscores' calls in the preceding %02d:%02d",
		window.Count(), int(elapsed.Minutes()), int(elapsed.Seconds())%60)
}

// broadcast fans a non-empty message out to every sink and returns it.
func (p *Processor) broadcast(message string) string {
	if message == "" {
		return ""
	}
	p.outputs.Broadcast(message, false)
	return message
}

// searchTerm extracts the quoted or bare search term after a prefix.
func searchTerm(command, prefix string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(command, prefix))
	tokens, err := argSplitter.Split(rest)
	if err != nil || len(tokens) == 0 {
		return rest
	}
	for i, token := range tokens {
		tokens[i] = strings.Trim(token, `"“”`)
	}
	return strings.Join(tokens, " ")
}

func parseDirection(word string) policy.ThresholdDirection {
	if strings.EqualFold(word, "less") {
		return policy.LessThan
	}
	return policy.MoreThan
}

func isNotSignedIn(err error) bool {
	return errors.Is(err, shared.ErrNotSignedIn)
}

// isChatFacing reports whether the error message is safe and useful to show
// in chat: rate limiting and the unfinished-game hint.
func isChatFacing(err error) bool {
	return shared.IsRateLimited(err) || errors.Is(err, shared.ErrGameNotFinished)
}
