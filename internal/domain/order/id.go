package order

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

const idPrefix = "ORD"

// IDGenerator produces human-readable, collision-resistant order
// identifiers of the form ORD-<unix millis>-<8 hex chars>. The random
// suffix keeps two calls within the same millisecond distinct; the
// timestamp alone cannot.
//
// A bloom filter of issued identifiers guards against an in-process
// repeat: the filter has no false negatives, so an identifier this
// generator already handed out always tests positive and is regenerated.
// A false positive merely costs one extra draw. The guard says nothing
// about other processes; a persistence-layer collision remains a
// retryable anomaly, astronomically unlikely but not impossible.
type IDGenerator struct {
	mu     sync.Mutex
	issued *bloom.BloomFilter
}

// NewIDGenerator returns a generator sized for a million identifiers per
// process lifetime at a 0.1% false-positive rate.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		issued: bloom.NewWithEstimates(1_000_000, 0.001),
	}
}

// Generate returns a fresh order identifier. No external state is
// consulted.
func (g *IDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		id := newID()
		if g.issued.TestString(id) {
			continue
		}
		g.issued.AddString(id)
		return id
	}
}

func newID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return strings.ToUpper(fmt.Sprintf("%s-%d-%s", idPrefix, time.Now().UnixMilli(), suffix))
}
