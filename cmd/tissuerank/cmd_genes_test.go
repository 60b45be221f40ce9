package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenes(t *testing.T) {
	cfg := writeProject(t)

	out, err := runCLI(t, "--config", cfg, "genes")
	require.NoError(t, err)
	assert.Equal(t, "APC\nEGFR\nKRAS\nTP53\n", out)
}

func TestGenes_MissingConfig(t *testing.T) {
	_, err := runCLI(t, "--config", "does-not-exist.yaml", "genes")
	require.ErrorContains(t, err, "loading config")
}
