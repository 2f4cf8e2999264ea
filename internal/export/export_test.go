package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultra2207/BotLooter/internal/looter"
)

func TestFileExporterAppendsSuccessfulLoots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loots.txt")
	exporter := NewFileExporter(path)

	require.NoError(t, exporter.Export("alpha", looter.LootResult{
		Outcome: looter.OutcomeSuccess, Message: "looted 3 items", LootedItemCount: 3,
	}))
	require.NoError(t, exporter.Export("beta", looter.LootResult{
		Outcome: looter.OutcomeHardFailure, Message: "could not confirm the trade",
	}))
	require.NoError(t, exporter.Export("gamma", looter.LootResult{
		Outcome: looter.OutcomeSuccess, Message: "looted 1 items", LootedItemCount: 1,
	}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "alpha")
	assert.Contains(t, lines[0], "3 items")
	assert.Contains(t, lines[1], "gamma")
}

func TestResultStoreRecordsHistory(t *testing.T) {
	store, err := NewResultStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record("alpha", looter.LootResult{
		Outcome: looter.OutcomeSuccess, Message: "looted 5 items", LootedItemCount: 5,
	}))
	require.NoError(t, store.Record("alpha", looter.LootResult{
		Outcome: looter.OutcomeEmptySource, Message: "empty inventories",
	}))
	require.NoError(t, store.Record("beta", looter.LootResult{
		Outcome: looter.OutcomeDeferred, Message: "trade will be available in 12 days",
	}))

	entries, err := store.History("alpha")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "empty", entries[0].Outcome)
	assert.Equal(t, "success", entries[1].Outcome)
	assert.Equal(t, 5, entries[1].ItemCount)
	assert.False(t, entries[1].RecordedAt.IsZero())

	missing, err := store.History("nobody")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
