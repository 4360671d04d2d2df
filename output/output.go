/* output.go
 * Fan-out of chat-facing messages to every configured sink. The core never
 * knows how many sinks exist or what they are.
 */

package output

// Sink receives tournament messages. Private messages are operator-only and
// sinks that broadcast publicly should drop them.
type Sink interface {
	Send(message string, private bool) error
	KeepAlive()
	Name() string
}

// Dispatcher broadcasts messages to all registered sinks.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Add registers another sink.
func (d *Dispatcher) Add(sink Sink) {
	d.sinks = append(d.sinks, sink)
}

// Broadcast sends the message to every sink. A failing sink never blocks the
// others.
func (d *Dispatcher) Broadcast(message string, private bool) {
	for _, sink := range d.sinks {
		_ = sink.Send(message, private)
	}
}

// KeepAlive pings every sink; called from the periodic tick.
func (d *Dispatcher) KeepAlive() {
	for _, sink := range d.sinks {
		sink.KeepAlive()
	}
}
