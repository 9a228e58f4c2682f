package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studytrace/internal/storage"
)

func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWorkflow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "study.db")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck.md"), []byte("Q: What does defer do?\nA: Runs a call when the function returns\n"), 0o644))

	out, err := run(t, dbPath, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "No sources configured")

	out, err = run(t, dbPath, "source", "add", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Added local source")

	out, err = run(t, dbPath, "source", "add", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Source already exists")

	out, err = run(t, dbPath, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "1 inserted")

	out, err = run(t, dbPath, "source", "list")
	require.NoError(t, err)
	assert.Contains(t, out, dir)

	out, err = run(t, dbPath, "suggest", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "What does defer do?")

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	cards, err := db.ListCards(context.Background(), 10)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Len(t, cards, 1)

	out, err = run(t, dbPath, "review", cards[0].ID, "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Next review in 1 day")

	out, err = run(t, dbPath, "due")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing due")

	out, err = run(t, dbPath, "plan", "--date", "2026-03-11")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-11")
}

func TestReview_Errors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "study.db")

	_, err := run(t, dbPath, "review", "card_x", "high")
	assert.Error(t, err)

	_, err = run(t, dbPath, "review", "card_x", "9")
	assert.Error(t, err)

	_, err = run(t, dbPath, "review", "card_x", "4")
	assert.ErrorContains(t, err, "card not found")

	_, err = run(t, dbPath, "plan", "--date", "soon")
	assert.Error(t, err)
}
