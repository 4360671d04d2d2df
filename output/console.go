/* console.go
 * Console sink: prints every message, private ones included.
 */

package output

import "log"

type ConsoleSink struct{}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

func (c *ConsoleSink) Send(message string, private bool) error {
	if private {
		log.Printf("(private) %s", message)
		return nil
	}
	log.Print(message)
	return nil
}

func (c *ConsoleSink) KeepAlive() {}

func (c *ConsoleSink) Name() string { return "console" }
