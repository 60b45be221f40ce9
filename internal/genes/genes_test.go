package genes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSet(t *testing.T) *Set {
	t.Helper()
	set, err := NewSet([]string{"KRAS", "APC", " tp53 ", "BRAF"})
	require.NoError(t, err)
	return set
}

func TestNewSet_CanonicalOrder(t *testing.T) {
	set := testSet(t)
	assert.Equal(t, []string{"APC", "BRAF", "KRAS", "TP53"}, set.Symbols())
	assert.Equal(t, 4, set.Len())

	i, ok := set.Index("tp53")
	require.True(t, ok)
	assert.Equal(t, 3, i)
}

func TestNewSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		wantErr string
	}{
		{name: "duplicate after normalization", symbols: []string{"APC", "apc "}, wantErr: `duplicate gene symbol "APC"`},
		{name: "blank symbol", symbols: []string{"APC", "  "}, wantErr: "gene symbol is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSet(tt.symbols)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCanonicalOrder_DoesNotMutateInput(t *testing.T) {
	in := []string{"kras", "APC"}
	out := CanonicalOrder(in)
	assert.Equal(t, []string{"APC", "KRAS"}, out)
	assert.Equal(t, []string{"kras", "APC"}, in)
}

func TestEncode(t *testing.T) {
	set := testSet(t)

	tests := []struct {
		name   string
		mutant []string
		want   Vector
	}{
		{name: "none", mutant: nil, want: Vector{0, 0, 0, 0}},
		{name: "input order ignored", mutant: []string{"TP53", "APC"}, want: Vector{1, 0, 0, 1}},
		{name: "case and whitespace", mutant: []string{" kras", "Braf "}, want: Vector{0, 1, 1, 0}},
		{name: "repeats count once", mutant: []string{"APC", "apc"}, want: Vector{1, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.mutant, set)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	set := testSet(t)
	mutant := []string{"BRAF", "TP53", "APC"}

	first, err := Encode(mutant, set)
	require.NoError(t, err)
	for range 5 {
		again, err := Encode(mutant, set)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, len(mutant), first.Weight())
	assert.Equal(t, []string{"APC", "BRAF", "TP53"}, first.Genes(set))
}

func TestEncode_UnknownGene(t *testing.T) {
	set := testSet(t)

	v, err := Encode([]string{"APC", "NOTAGENE", "ALSOBAD"}, set)
	require.Error(t, err)
	assert.Nil(t, v)

	var unknown *UnknownGeneError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "NOTAGENE", unknown.Gene)
	assert.Equal(t, "NOTAGENE not found in gene set", err.Error())
}

func TestParseList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "apc, kras", want: []string{"APC", "KRAS"}},
		{raw: " TP53 ,,tp53, braf ", want: []string{"TP53", "BRAF"}},
		{raw: "", want: nil},
		{raw: " , ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseList(tt.raw))
		})
	}
}
