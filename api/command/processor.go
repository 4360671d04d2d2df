/* processor.go
 * Single-writer command processor. Every command, whether from chat, the
 * console or the periodic tick, is queued onto one goroutine that owns the
 * tournament, so mutations never interleave.
 */

package command

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"geotourney-bot/api/fetchcache"
	"geotourney-bot/api/snapshot"
	"geotourney-bot/api/tournament"
	"geotourney-bot/output"
)

// Store is the persistence surface the processor needs: bans plus published
// snapshot retrieval for tournament restore.
type Store interface {
	BanUser(ctx context.Context, userID string) error
	UnbanUser(ctx context.Context, userID string) error
	CurrentBannedIDs(ctx context.Context) (map[string]struct{}, error)
	GetSnapshot(ctx context.Context, id string) (snapshot.Document, error)
}

// Request is one command invocation. A nil Command is the periodic tick.
// Forced skips the "game has not ended" guard; SourceFile names the file a
// command was read from, when any.
type Request struct {
	Command    *string
	Forced     bool
	SourceFile string
}

type envelope struct {
	request Request
	reply   chan string
}

// Processor owns the tournament machine and serializes access to it.
type Processor struct {
	machine *tournament.Machine
	cache   *fetchcache.Cache
	store   Store
	outputs *output.Dispatcher

	version      string
	errorLogPath string

	requests chan envelope
	done     chan struct{}

	// consecutive not-signed-in reports; chat spam stops after three
	notSignedInCount int
}

// NewProcessor wires a processor. Run must be called before Submit.
func NewProcessor(machine *tournament.Machine, cache *fetchcache.Cache, store Store, outputs *output.Dispatcher, version string) *Processor {
	return &Processor{
		machine:      machine,
		cache:        cache,
		store:        store,
		outputs:      outputs,
		version:      version,
		errorLogPath: "errors.txt",
		requests:     make(chan envelope, 16),
		done:         make(chan struct{}),
	}
}

// Run processes queued commands until the context is cancelled. Submitters
// still waiting when it stops are released with an empty reply.
func (p *Processor) Run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.requests:
			env.reply <- p.handle(ctx, env.request)
		}
	}
}

// Submit queues a command and waits for its response. The empty string means
// no reply was produced, or that the processor has shut down.
func (p *Processor) Submit(command *string, forced bool, sourceFile string) string {
	env := envelope{
		request: Request{Command: command, Forced: forced, SourceFile: sourceFile},
		reply:   make(chan string, 1),
	}
	select {
	case p.requests <- env:
	case <-p.done:
		return ""
	}
	select {
	case reply := <-env.reply:
		return reply
	case <-p.done:
		// a request handled just before shutdown still gets its reply
		select {
		case reply := <-env.reply:
			return reply
		default:
			return ""
		}
	}
}

// Tick queues a periodic keep-alive.
func (p *Processor) Tick() {
	p.Submit(nil, false, "")
}

// handle runs one command against the machine. Unexpected failures are
// logged and reported generically; the tournament is left as the failing
// operation found it.
func (p *Processor) handle(ctx context.Context, req Request) (response string) {
	defer func() {
		if r := recover(); r != nil {
			p.appendErrorLog(fmt.Errorf("panic: %v", r))
			response = bugMessage
			p.outputs.Broadcast(bugMessage, false)
		}
	}()

	if req.Command == nil {
		p.outputs.KeepAlive()
		return ""
	}
	return p.dispatch(ctx, *req.Command, req.Forced)
}

const bugMessage = "Looks like you found a bug. That did not work as expected."

// reportError turns an operation error into a chat message. Not-signed-in
// reports are throttled; everything else unexpected goes to the error log.
func (p *Processor) reportError(err error) string {
	if err == nil {
		return ""
	}
	if isNotSignedIn(err) {
		p.notSignedInCount++
		if p.notSignedInCount > 3 {
			return ""
		}
		return "You have not signed in to https://www.geoguessr.com correctly."
	}
	if isChatFacing(err) {
		return err.Error()
	}
	log.Println(err)
	p.appendErrorLog(err)
	return bugMessage
}

func (p *Processor) appendErrorLog(err error) {
	entry := fmt.Sprintf("%s: %s\n%v\n", time.Now().UTC().Format("2006-01-02T15:04:05"), p.version, err)
	f, openErr := os.OpenFile(p.errorLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openErr != nil {
		log.Printf("failed to open error log: %v", openErr)
		return
	}
	defer f.Close()
	if _, writeErr := f.WriteString(entry); writeErr != nil {
		log.Printf("failed to append error log: %v", writeErr)
	}
}
