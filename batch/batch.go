package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/pytrnsys/godck/dck"
	"github.com/pytrnsys/godck/libdck"
	"github.com/pytrnsys/godck/libdck/scalars"
	"golang.org/x/sync/errgroup"
)

// Simulation is what the decks of one simulation folder declare.
type Simulation struct {
	Name        string
	Decks       []string // relative to the simulation folder, in lexical order
	Constants   dck.Constants
	Diagnostics []DeckDiagnostic
}

// DeckDiagnostic is a diagnostic and the deck it came from.
type DeckDiagnostic struct {
	Deck string
	dck.Diagnostic
}

func (dd DeckDiagnostic) String() string {
	return dd.Deck + ": " + dd.Diagnostic.String()
}

// Results tallies a batch run.
type Results struct {
	Processed   int
	Errors      int
	Failed      []string
	Simulations map[string]*Simulation
}

// Run extracts the constants of every simulation folder directly under cfg.ResultsDir.
//
// Simulations are processed on up to cfg.Workers goroutines.  A simulation that fails is logged and
// counted in Results, never aborting the run; only a bad ResultsDir or ctx being done makes Run fail.
// If store is not nil, each processed simulation's constants are written to it as one row.
func Run(ctx context.Context, cfg Config, store *scalars.Store) (*Results, error) {
	cfg = cfg.withDefaults()

	simDirs, err := listSimulations(cfg)
	if err != nil {
		return nil, err
	}

	klog.Infof("processing %d simulations in %s on %d workers", len(simDirs), cfg.ResultsDir, cfg.Workers)

	results := &Results{
		Simulations: make(map[string]*Simulation, len(simDirs)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for _, simDir := range simDirs {
		simDir := simDir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sim, err := ProcessSimulation(simDir, cfg.DeckPattern)
			if err == nil && store != nil {
				err = store.Put(sim.Name, sim.Constants)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				name := filepath.Base(simDir)
				klog.Errorf("failed to process simulation in %s: %v", simDir, err)
				results.Errors++
				results.Failed = append(results.Failed, name)
				return nil
			}
			results.Processed++
			results.Simulations[sim.Name] = sim
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	klog.Infof("batch processing complete. Processed: %d, Errors: %d", results.Processed, results.Errors)
	if results.Errors > 0 {
		klog.Warning("some simulations failed to process, check the log for details")
	}
	return results, err
}

func listSimulations(cfg Config) ([]string, error) {
	info, err := os.Stat(cfg.ResultsDir)
	if err != nil {
		return nil, errors.Wrap(err, "results folder")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("path is not a directory: %s", cfg.ResultsDir)
	}

	entries, err := os.ReadDir(cfg.ResultsDir)
	if err != nil {
		return nil, errors.Wrap(err, "results folder")
	}

	var simDirs []string
	for _, entry := range entries {
		if !entry.IsDir() || cfg.skips(entry.Name()) {
			continue
		}
		simDirs = append(simDirs, filepath.Join(cfg.ResultsDir, entry.Name()))
	}
	return simDirs, nil
}

// FindDecks returns the files under simDir whose names match pattern, relative to simDir, in lexical order.
func FindDecks(simDir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Wrapf(err, "deck pattern %q", pattern)
	}

	var decks []string
	err := filepath.WalkDir(simDir, func(pathname string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if matched, _ := filepath.Match(pattern, d.Name()); !matched {
			return nil
		}
		rel, err := filepath.Rel(simDir, pathname)
		if err != nil {
			return err
		}
		decks = append(decks, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(decks)
	return decks, err
}

// ProcessSimulation extracts and merges the decks of one simulation folder.
//
// When decks declare the same name, the deck first in lexical order wins.
// A folder without decks is an error wrapping dck.ErrNoDecks.
func ProcessSimulation(simDir, pattern string) (*Simulation, error) {
	decks, err := FindDecks(simDir, pattern)
	if err != nil {
		return nil, err
	}
	sim := &Simulation{
		Name:      filepath.Base(simDir),
		Decks:     decks,
		Constants: make(dck.Constants),
	}
	if len(decks) == 0 {
		return nil, errors.Wrap(dck.ErrNoDecks, simDir)
	}

	declared := make(map[string]struct{})
	for _, deck := range decks {
		text, err := ReadDeck(filepath.Join(simDir, filepath.FromSlash(deck)))
		if err != nil {
			return nil, err
		}

		constants, diags := libdck.Extract(text)
		for _, diag := range diags {
			dd := DeckDiagnostic{Deck: deck, Diagnostic: diag}
			klog.Warningf("%s: %s", sim.Name, dd.String())
			sim.Diagnostics = append(sim.Diagnostics, dd)
		}

		for _, name := range constants.Names() {
			key := strings.ToLower(name)
			if _, exists := declared[key]; exists {
				klog.V(2).Infof("%s: %s: %s already declared by an earlier deck", sim.Name, deck, name)
				continue
			}
			declared[key] = struct{}{}
			sim.Constants[name] = constants[name]
		}
	}

	return sim, nil
}
