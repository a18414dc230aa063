package order

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	g := NewIDGenerator()

	id := g.Generate()

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "ORD", parts[0])
	assert.Len(t, parts[2], 8)
	assert.Equal(t, strings.ToUpper(id), id)
}

func TestGenerate_TightLoopYieldsDistinctValues(t *testing.T) {
	g := NewIDGenerator()

	const n = 10_000
	seen := make(map[string]struct{}, n)
	for range n {
		seen[g.Generate()] = struct{}{}
	}

	assert.Len(t, seen, n)
}

func TestGenerate_ConcurrentCallersYieldDistinctValues(t *testing.T) {
	g := NewIDGenerator()

	const workers, perWorker = 8, 500
	results := make(chan string, workers*perWorker)
	for range workers {
		go func() {
			for range perWorker {
				results <- g.Generate()
			}
		}()
	}

	seen := make(map[string]struct{}, workers*perWorker)
	for range workers * perWorker {
		seen[<-results] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}
