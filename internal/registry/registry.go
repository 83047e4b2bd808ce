// Package registry provides the persistent store of analysis results.
//
// Batch runs analyze many independent projects; the registry keeps each
// project's emitted build configuration and run metadata in a BadgerDB
// key-value store so later pipeline stages (and the list/show commands)
// can read them without re-analyzing.
package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hdlci/hdlscan/internal/buildcfg"
	"github.com/hdlci/hdlscan/internal/scan"
)

// Key prefixes for different record types.
const (
	prefixConfig = "c:" // build configuration document
	prefixMeta   = "m:" // run metadata
)

// ErrNotFound is returned when no project with the given name is stored.
var ErrNotFound = fmt.Errorf("project not found in registry")

// Meta is per-run metadata stored alongside a configuration.
type Meta struct {
	AnalyzedAt   time.Time `json:"analyzed_at"`
	Files        int       `json:"files"`
	Modules      int       `json:"modules"`
	Warnings     int       `json:"warnings"`
	DurationSecs float64   `json:"duration_secs"`
}

// Summary is one row of the registry listing.
type Summary struct {
	Name        string
	Language    scan.Dialect
	TopModule   string
	IsSimulable bool
	AnalyzedAt  time.Time
}

// Registry is a BadgerDB-backed store of analysis results.
// Badger transactions make it safe for concurrent batch workers.
type Registry struct {
	db *badger.DB
}

// Open opens or creates the registry at the given path.
func Open(path string, readOnly bool) (*Registry, error) {
	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR)
	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close releases the underlying database.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Put stores a configuration and its run metadata, replacing any
// previous record for the same project name.
func (r *Registry) Put(cfg *buildcfg.BuildConfig, meta Meta) error {
	cfgData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixConfig+cfg.Name), cfgData); err != nil {
			return err
		}
		return txn.Set([]byte(prefixMeta+cfg.Name), metaData)
	})
}

// Get returns the stored configuration and metadata for a project.
func (r *Registry) Get(name string) (*buildcfg.BuildConfig, *Meta, error) {
	var cfg buildcfg.BuildConfig
	var meta Meta

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixConfig + name))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cfg)
		}); err != nil {
			return err
		}

		item, err = txn.Get([]byte(prefixMeta + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &cfg, &meta, nil
}

// List returns a summary of every stored project.
func (r *Registry) List() ([]Summary, error) {
	var summaries []Summary

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixConfig)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var cfg buildcfg.BuildConfig
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cfg)
			}); err != nil {
				continue
			}

			s := Summary{
				Name:        cfg.Name,
				Language:    cfg.Language,
				TopModule:   cfg.TopModule,
				IsSimulable: cfg.IsSimulable,
			}
			if item, err := txn.Get([]byte(prefixMeta + cfg.Name)); err == nil {
				var meta Meta
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &meta)
				}); err == nil {
					s.AnalyzedAt = meta.AnalyzedAt
				}
			}
			summaries = append(summaries, s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing registry: %w", err)
	}
	return summaries, nil
}

// Delete removes a project's records. Deleting an absent project is not
// an error.
func (r *Registry) Delete(name string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(prefixConfig + name)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Delete([]byte(prefixMeta + name)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return nil
	})
}
