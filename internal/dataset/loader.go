// Package dataset loads the labeled specimen matrix and partitions it into
// training and evaluation sets.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spboyer/tissuerank/internal/genes"
)

// Record is one labeled specimen.
type Record struct {
	ID       string
	Label    string
	Features genes.Vector
}

// Corpus is the full specimen matrix. It is never mutated after Load.
type Corpus struct {
	// Source names where the corpus was read from.
	Source string
	// Digest is the hex sha256 of the decompressed corpus bytes.
	Digest  string
	Genes   *genes.Set
	Records []Record
}

// Labels returns the distinct tissue labels in first-seen order.
func (c *Corpus) Labels() []string {
	return distinctLabels(c.Records)
}

// All returns a Set over every record.
func (c *Corpus) All() *Set {
	return &Set{Genes: c.Genes, Records: c.Records}
}

// Load opens location, decompressing by file suffix, and parses the matrix.
func Load(ctx context.Context, location string) (*Corpus, error) {
	src, err := OpenSource(location)
	if err != nil {
		return nil, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	body, err := decompress(src.Name(), rc)
	if err != nil {
		return nil, fmt.Errorf("corpus: %s: %w", src.Name(), err)
	}
	defer body.Close() //nolint:errcheck

	corpus, err := Parse(body, delimiterFor(src.Name()))
	if err != nil {
		return nil, fmt.Errorf("corpus: %s: %w", src.Name(), err)
	}
	corpus.Source = src.Name()

	slog.Debug("corpus loaded", "source", corpus.Source, "specimens", len(corpus.Records),
		"genes", corpus.Genes.Len(), "tissues", len(corpus.Labels()))
	return corpus, nil
}

// Parse reads a delimited matrix: identifier, tissue label, then one 0/1
// column per gene. Gene columns are reordered into canonical order.
func Parse(r io.Reader, delimiter rune) (*Corpus, error) {
	h := sha256.New()
	reader := csv.NewReader(io.TeeReader(r, h))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty (no header row)")
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("header has %d columns, expected identifier, label and at least one gene", len(header))
	}

	set, err := genes.NewSet(header[2:])
	if err != nil {
		return nil, fmt.Errorf("gene columns: %w", err)
	}

	// positions[j] is the canonical index of header column j+2
	positions := make([]int, len(header)-2)
	for j, symbol := range header[2:] {
		positions[j], _ = set.Index(symbol)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}

		label := strings.TrimSpace(row[1])
		if label == "" {
			return nil, fmt.Errorf("row %d: empty tissue label", line)
		}

		features := make(genes.Vector, set.Len())
		for j, cell := range row[2:] {
			v, err := parseBinary(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", line, header[j+2], err)
			}
			features[positions[j]] = v
		}

		records = append(records, Record{
			ID:       strings.TrimSpace(row[0]),
			Label:    label,
			Features: features,
		})
	}

	return &Corpus{
		Digest:  hex.EncodeToString(h.Sum(nil)),
		Genes:   set,
		Records: records,
	}, nil
}

func parseBinary(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || (v != 0 && v != 1) {
		return 0, fmt.Errorf("value %q is not 0 or 1", cell)
	}
	return v, nil
}

// delimiterFor picks comma for .csv files and tab for everything else.
func delimiterFor(name string) rune {
	if filepath.Ext(trimCompressionSuffix(name)) == ".csv" {
		return ','
	}
	return '\t'
}

func distinctLabels(records []Record) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Label] {
			seen[r.Label] = true
			labels = append(labels, r.Label)
		}
	}
	return labels
}
