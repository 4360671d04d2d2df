/* errors.go
 * Error kinds surfaced by the results fetching path. Domain rule violations
 * are returned as chat messages, not errors, so only upstream failures live here.
 */

package shared

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotSignedIn means the upstream API rejected our auth cookie. The command
// boundary throttles how often this is repeated to chat.
var ErrNotSignedIn = errors.New("you have not signed in to https://www.geoguessr.com correctly")

// ErrGameNotFinished means the first results page came back empty.
var ErrGameNotFinished = errors.New("It looks like you haven't finished the game?")

// RateLimitedError reports that the sliding call window is full and how long
// until the oldest entry ages out.
type RateLimitedError struct {
	Cooldown time.Duration
}

func (e *RateLimitedError) Error() string {
	d := e.Cooldown.Round(time.Second)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("Rate limited for %02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// IsRateLimited reports whether err is a RateLimitedError.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
