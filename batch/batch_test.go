package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pytrnsys/godck/dck"
	"github.com/pytrnsys/godck/libdck/scalars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, pathname string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(pathname), 0o755))
	require.NoError(t, os.WriteFile(pathname, content, 0o644))
}

// makeResults lays out a results folder:
//
//	sim-a/a.dck        x, y and an unsupported call
//	sim-a/sub/b.dck    redeclares x, adds z
//	sim-b/run.dck      Windows-1252 encoded
//	sim-c/notes.txt    no decks
//	old/run.dck        skipped by config
//	readme.txt         not a simulation
func makeResults(t *testing.T) string {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "sim-a", "a.dck"), []byte(
		"VERSION 17\n"+
			"CONSTANTS 3\n"+
			"x = 1\n"+
			"y = x*2 ! doubled\n"+
			"w = GTWARN(1)\n"))
	writeFile(t, filepath.Join(dir, "sim-a", "sub", "b.dck"), []byte(
		"CONSTANTS 2\n"+
			"X = 5\n"+
			"z = 3\n"))
	writeFile(t, filepath.Join(dir, "sim-b", "run.dck"), []byte(
		"! T in \xb0C\n"+
			"CONSTANTS 1\n"+
			"TSet = 60.0 ! \xb0C\n"))
	writeFile(t, filepath.Join(dir, "sim-c", "notes.txt"), []byte("nothing here"))
	writeFile(t, filepath.Join(dir, "old", "run.dck"), []byte("CONSTANTS 1\nq = 1\n"))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("results"))

	return dir
}

func TestRun(t *testing.T) {
	dir := makeResults(t)

	store, err := scalars.Open(scalars.Opts{})
	require.NoError(t, err)
	defer store.Close()

	cfg := Config{
		ResultsDir: dir,
		Workers:    2,
		Skip:       []string{"old"},
	}
	results, err := Run(context.Background(), cfg, store)
	require.NoError(t, err)

	assert.Equal(t, 2, results.Processed)
	assert.Equal(t, 1, results.Errors)
	assert.Equal(t, []string{"sim-c"}, results.Failed)

	simA := results.Simulations["sim-a"]
	require.NotNil(t, simA)
	assert.Equal(t, []string{"a.dck", "sub/b.dck"}, simA.Decks)
	assert.Equal(t, dck.Constants{
		"x": dck.Int(1),
		"y": dck.Int(2),
		"z": dck.Int(3),
	}, simA.Constants)
	require.Len(t, simA.Diagnostics, 1)
	assert.Equal(t, "a.dck", simA.Diagnostics[0].Deck)
	assert.Equal(t, dck.UnsupportedFunction, simA.Diagnostics[0].Kind)
	assert.Equal(t, "a.dck: On line 5, GTWARN is not supported in w=GTWARN(1)", simA.Diagnostics[0].String())

	simB := results.Simulations["sim-b"]
	require.NotNil(t, simB)
	assert.Equal(t, "60.0", simB.Constants["TSet"].String())
	assert.Empty(t, simB.Diagnostics)

	sims, err := store.Simulations()
	require.NoError(t, err)
	assert.Equal(t, []string{"sim-a", "sim-b"}, sims)

	row, err := store.Get("sim-a")
	require.NoError(t, err)
	assert.Equal(t, simA.Constants, row)
}

func TestRunWithoutStore(t *testing.T) {
	dir := makeResults(t)

	results, err := Run(context.Background(), Config{ResultsDir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, results.Processed)
	assert.Contains(t, results.Simulations, "old")
}

func TestRunBadFolder(t *testing.T) {
	dir := t.TempDir()

	_, err := Run(context.Background(), Config{ResultsDir: filepath.Join(dir, "missing")}, nil)
	require.Error(t, err)

	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, []byte("x"))
	_, err = Run(context.Background(), Config{ResultsDir: file}, nil)
	require.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	dir := makeResults(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, Config{ResultsDir: dir, Workers: 1}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, results.Processed)
}

func TestProcessSimulationNoDecks(t *testing.T) {
	dir := makeResults(t)

	_, err := ProcessSimulation(filepath.Join(dir, "sim-c"), DefaultDeckPattern)
	require.ErrorIs(t, err, dck.ErrNoDecks)
}

func TestFindDecksPattern(t *testing.T) {
	dir := makeResults(t)

	decks, err := FindDecks(filepath.Join(dir, "sim-a"), "b.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/b.dck"}, decks)

	_, err = FindDecks(filepath.Join(dir, "sim-a"), "[")
	require.Error(t, err)
}

func TestDecodeDeck(t *testing.T) {
	text, err := DecodeDeck([]byte("\xef\xbb\xbfCONSTANTS 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "CONSTANTS 1\n", text)

	text, err = DecodeDeck([]byte("! 60 \xb0C \x80\n"))
	require.NoError(t, err)
	assert.Equal(t, "! 60 °C €\n", text)

	text, err = DecodeDeck([]byte("! 60 °C\n"))
	require.NoError(t, err)
	assert.Equal(t, "! 60 °C\n", text)
}

func TestConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
results_dir  = "results/2024-05"
db           = "scalars.db"
workers      = 4
deck_pattern = "*.DCK"
skip         = ["failed-run", "old"]
`), "batch.hcl")
	require.NoError(t, err)
	assert.Equal(t, &Config{
		ResultsDir:  "results/2024-05",
		DbPathName:  "scalars.db",
		Workers:     4,
		DeckPattern: "*.DCK",
		Skip:        []string{"failed-run", "old"},
	}, cfg)

	cfg, err = ParseConfig([]byte(`results_dir = "r"`), "batch.hcl")
	require.NoError(t, err)
	withDefaults := cfg.withDefaults()
	assert.Equal(t, DefaultDeckPattern, withDefaults.DeckPattern)
	assert.Positive(t, withDefaults.Workers)

	_, err = ParseConfig([]byte(`results_dir = `), "bad.hcl")
	require.Error(t, err)

	_, err = ParseConfig([]byte(`unknown = 1`), "bad.hcl")
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "batch.hcl")
	writeFile(t, pathname, []byte("results_dir = \"out\"\nworkers = 2\n"))

	cfg, err := LoadConfig(pathname)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.ResultsDir)
	assert.Equal(t, 2, cfg.Workers)
}
