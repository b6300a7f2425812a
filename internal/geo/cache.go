package geo

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"parcel-portal/internal/models"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
)

// MeasurementCache memoises Measure results keyed by ring content, so a
// changed ring always yields a fresh computation. Safe for concurrent use.
type MeasurementCache struct {
	entries *lru.Cache[uint64, models.Measurements]
}

// NewMeasurementCache creates a cache holding at most size rings
func NewMeasurementCache(size int) (*MeasurementCache, error) {
	entries, err := lru.New[uint64, models.Measurements](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement cache: %w", err)
	}
	return &MeasurementCache{entries: entries}, nil
}

// Measure returns the measurements of ring, computing them on a miss
func (c *MeasurementCache) Measure(ring orb.Ring) models.Measurements {
	key := RingHash(ring)
	if m, ok := c.entries.Get(key); ok {
		return clone(m)
	}
	m := Measure(ring)
	c.entries.Add(key, m)
	return clone(m)
}

// Len returns the number of cached rings
func (c *MeasurementCache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached entry
func (c *MeasurementCache) Purge() {
	c.entries.Purge()
}

// RingHash hashes the exact coordinate bits of a ring
func RingHash(ring orb.Ring) uint64 {
	h := xxhash.New()
	var buf [16]byte
	for _, p := range ring {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(p[0]))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p[1]))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// cached values are shared, callers get their own Sides slice
func clone(m models.Measurements) models.Measurements {
	m.Sides = slices.Clone(m.Sides)
	if m.Sides == nil {
		m.Sides = []float64{}
	}
	return m
}
