package forecast

import (
	"strings"
	"sync"
)

// Series is the temperature sequence of one city. A one-day run holds a
// single point per city.
type Series struct {
	City   string
	Points []Point
}

// Snapshot is the chartable outcome of one forecast run, cities in route order.
type Snapshot struct {
	Horizon Horizon
	Series  []Series
}

// Empty reports whether the snapshot carries no city data.
func (s Snapshot) Empty() bool { return len(s.Series) == 0 }

// Set stores points for city. A repeated city keeps its first position and
// takes the new points.
func (s *Snapshot) Set(city string, points []Point) {
	cp := append([]Point(nil), points...)
	for i := range s.Series {
		if s.Series[i].City == city {
			s.Series[i].Points = cp
			return
		}
	}
	s.Series = append(s.Series, Series{City: city, Points: cp})
}

// Scalar returns the single temperature of city in a one-day snapshot.
func (s Snapshot) Scalar(city string) (float64, bool) {
	if s.Horizon != OneDay {
		return 0, false
	}
	for _, ser := range s.Series {
		if ser.City == city && len(ser.Points) > 0 {
			return ser.Points[0].TemperatureC, true
		}
	}
	return 0, false
}

// Cities lists city names in stored order.
func (s Snapshot) Cities() []string {
	out := make([]string, 0, len(s.Series))
	for _, ser := range s.Series {
		out = append(out, ser.City)
	}
	return out
}

// Describe renders a compact "city=temp" summary used by logs and the CLI.
func (s Snapshot) Describe() string {
	parts := make([]string, 0, len(s.Series))
	for _, ser := range s.Series {
		parts = append(parts, ser.City+"="+formatPoints(ser.Points))
	}
	return strings.Join(parts, " ")
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{Horizon: s.Horizon, Series: make([]Series, len(s.Series))}
	for i, ser := range s.Series {
		out.Series[i] = Series{City: ser.City, Points: append([]Point(nil), ser.Points...)}
	}
	return out
}

// Cache holds the latest snapshot per user. Entries are copied on the way
// in and out so no state is shared between callers.
type Cache struct {
	mu      sync.RWMutex
	entries map[int64]Snapshot
}

// NewCache returns an empty forecast cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[int64]Snapshot)}
}

// Put overwrites the snapshot for user.
func (c *Cache) Put(user int64, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[user] = snap.clone()
}

// Get returns the snapshot for user, or false when none is stored.
func (c *Cache) Get(user int64) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.entries[user]
	if !ok || snap.Empty() {
		return Snapshot{}, false
	}
	return snap.clone(), true
}

// Clear drops the snapshot for user.
func (c *Cache) Clear(user int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, user)
}
