// Package cache stores classify reports keyed by everything that determines
// their content, so repeated runs over the same corpus skip retraining.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spboyer/tissuerank/internal/models"
	"github.com/spboyer/tissuerank/internal/projectconfig"
)

// Cache provides caching for classify reports.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory. An empty
// directory disables the cache.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Key collects the inputs a report depends on. Display-only settings such as
// the threshold and the output format are not part of it.
type Key struct {
	CorpusDigest string
	Split        dataset.SplitOptions
	Evaluate     string
	Classifiers  []projectconfig.ClassifierConfig
	Genes        []string
}

// Hash returns the hex sha256 of the key. Gene order does not matter.
func (k Key) Hash() (string, error) {
	h := sha256.New()

	if err := writeString(h, k.CorpusDigest); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(h, "%g\x00%d\x00%t\x00", k.Split.Holdout, k.Split.Seed, k.Split.Stratify); err != nil {
		return "", err
	}
	if err := writeString(h, k.Evaluate); err != nil {
		return "", err
	}

	classifiersJSON, err := json.Marshal(k.Classifiers)
	if err != nil {
		return "", fmt.Errorf("marshaling classifiers: %w", err)
	}
	if _, err := h.Write(classifiersJSON); err != nil {
		return "", err
	}

	sorted := slices.Clone(k.Genes)
	slices.Sort(sorted)
	for _, g := range sorted {
		if err := writeString(h, g); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached report if it exists.
func (c *Cache) Get(key string) (*models.Report, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		slog.Debug("ignoring unreadable cache entry", "key", key, "error", err)
		return nil, false
	}

	return &report, true
}

// Put stores a report in the cache.
func (c *Cache) Put(key string, report *models.Report) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes all cached reports. It refuses to delete a directory holding
// anything other than cache files.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func writeString(w io.Writer, s string) error {
	// null delimiter keeps adjacent fields from colliding
	_, err := w.Write([]byte(s + "\x00"))
	return err
}
