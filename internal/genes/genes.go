// Package genes holds the gene universe that defines the feature space and
// the encoder that turns a reported mutant-gene list into a feature vector.
package genes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptySymbol is returned when a gene column header is blank.
var ErrEmptySymbol = errors.New("gene symbol is empty")

// ErrNoGenes is returned when a mutant gene list is empty.
var ErrNoGenes = errors.New("no mutant genes given")

// UnknownGeneError is returned when a reported gene is not part of the gene set.
type UnknownGeneError struct {
	Gene string
}

func (e *UnknownGeneError) Error() string {
	return fmt.Sprintf("%s not found in gene set", e.Gene)
}

// Normalize returns the lookup form of a gene symbol: trimmed and upper-cased.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CanonicalOrder returns the normalized symbols sorted ascending. Both the
// corpus loader and the encoder place features in this order.
func CanonicalOrder(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = Normalize(s)
	}
	sort.Strings(out)
	return out
}

// Set is the ordered gene universe. It is immutable after construction.
type Set struct {
	symbols []string
	index   map[string]int
}

// NewSet builds a Set from gene symbols in any order. Symbols are normalized
// and must be unique after normalization.
func NewSet(symbols []string) (*Set, error) {
	ordered := CanonicalOrder(symbols)
	index := make(map[string]int, len(ordered))
	for i, s := range ordered {
		if s == "" {
			return nil, ErrEmptySymbol
		}
		if _, dup := index[s]; dup {
			return nil, fmt.Errorf("duplicate gene symbol %q", s)
		}
		index[s] = i
	}
	return &Set{symbols: ordered, index: index}, nil
}

// Len is the feature-vector dimensionality.
func (s *Set) Len() int { return len(s.symbols) }

// Symbols returns a copy of the gene symbols in canonical order.
func (s *Set) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Index returns the feature position of symbol, matching case-insensitively.
func (s *Set) Index(symbol string) (int, bool) {
	i, ok := s.index[Normalize(symbol)]
	return i, ok
}

// Contains reports whether symbol is part of the set.
func (s *Set) Contains(symbol string) bool {
	_, ok := s.Index(symbol)
	return ok
}

// Vector is a binary feature vector laid out in a Set's canonical order.
type Vector []float64

// Weight returns the number of mutated positions.
func (v Vector) Weight() int {
	n := 0
	for _, x := range v {
		if x != 0 {
			n++
		}
	}
	return n
}

// Genes returns the symbols of the mutated positions in canonical order.
func (v Vector) Genes(set *Set) []string {
	var out []string
	for i, x := range v {
		if x != 0 && i < len(set.symbols) {
			out = append(out, set.symbols[i])
		}
	}
	return out
}

// Encode turns the reported mutant genes into a feature vector over set.
// The first gene that is not in the set fails the whole encoding.
func Encode(mutant []string, set *Set) (Vector, error) {
	v := make(Vector, set.Len())
	for _, g := range mutant {
		i, ok := set.Index(g)
		if !ok {
			return nil, &UnknownGeneError{Gene: strings.TrimSpace(g)}
		}
		v[i] = 1
	}
	return v, nil
}

// ParseList splits a comma-delimited gene list, normalizing each entry and
// dropping blanks and repeats. Input order is kept.
func ParseList(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		g := Normalize(part)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
