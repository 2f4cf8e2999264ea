// Package export holds the completion-event subscribers that persist loot
// results: a plain-text export of successful loots and a SQLite history of
// every attempt.
package export

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ultra2207/BotLooter/internal/looter"
)

// FileExporter appends one line per successful loot to a text file. Failed
// attempts are skipped. Appends are serialized since subscribers may be
// invoked from concurrent workers.
type FileExporter struct {
	path string
	mu   sync.Mutex
}

func NewFileExporter(path string) *FileExporter {
	return &FileExporter{path: path}
}

// Export implements looter.Subscriber.
func (e *FileExporter) Export(login string, result looter.LootResult) error {
	if !result.Success() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s | %s | %d items\n",
		time.Now().Format(time.DateTime), login, result.LootedItemCount)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	return nil
}
