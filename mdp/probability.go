package mdp

import (
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution gives the probability mass of a non-negative count under a
// rate-parameterized family.
type Distribution interface {
	Prob(count int, rate float64) float64
}

// Poisson is the default demand and return model.
type Poisson struct{}

func (Poisson) Prob(count int, rate float64) float64 {
	if count < 0 {
		return 0
	}
	// distuv yields NaN for a zero rate
	if rate <= 0 {
		if count == 0 {
			return 1
		}
		return 0
	}
	return distuv.Poisson{Lambda: rate}.Prob(float64(count))
}

type cacheKey struct {
	count int
	rate  float64
}

// Cache memoizes probability masses per (count, rate). Entries are never
// invalidated, so one Cache must not be shared between distributions.
type Cache struct {
	sync.RWMutex
	dist    Distribution
	entries map[cacheKey]float64
}

func NewCache(dist Distribution) *Cache {
	if dist == nil {
		dist = Poisson{}
	}
	return &Cache{
		dist:    dist,
		entries: make(map[cacheKey]float64),
	}
}

func (c *Cache) Prob(count int, rate float64) float64 {
	key := cacheKey{count: count, rate: rate}

	c.RLock()
	p, ok := c.entries[key]
	c.RUnlock()
	if ok {
		return p
	}

	c.Lock()
	defer c.Unlock()
	if p, ok := c.entries[key]; ok {
		return p
	}
	p = c.dist.Prob(count, rate)
	c.entries[key] = p
	return p
}

// Masses returns the cached masses of counts [0, n).
func (c *Cache) Masses(rate float64, n int) []float64 {
	masses := make([]float64, n)
	for count := range masses {
		masses[count] = c.Prob(count, rate)
	}
	return masses
}

// Len is the number of stored entries.
func (c *Cache) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.entries)
}
