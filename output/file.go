/* file.go
 * File sink: appends public messages to a text file, one per line with a UTC
 * timestamp. Used for stream overlays reading from disk.
 */

package output

import (
	"fmt"
	"os"
	"sync"
	"time"
)

type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Send(message string, private bool) error {
	if private {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	_, err = fmt.Fprintf(file, "%s %s\n", time.Now().UTC().Format(time.RFC3339), message)
	return err
}

func (f *FileSink) KeepAlive() {}

func (f *FileSink) Name() string { return "file" }
