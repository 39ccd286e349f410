package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/travel-viability/internal/travel"
)

var (
	// ErrNotFound is returned when no data is available for a given city.
	ErrNotFound = errors.New("no ivv data for city")
)

// RecordHistory holds a time-ordered list of scored records for a city.
type RecordHistory struct {
	Records []travel.RunRecord
}

// MemoryStore is a concurrency-safe in-memory store of recent run records,
// shared between the scheduler and the HTTP API.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city name, value: history
	data map[string]*RecordHistory

	// retention configuration
	maxHistory int           // max number of records per city
	maxAge     time.Duration // optional max age for records

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*RecordHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func cityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SaveRun stores every record of a finished run.
func (s *MemoryStore) SaveRun(res travel.RunResult) {
	for _, r := range res.Records {
		s.SaveRecord(r)
	}
}

// SaveRecord appends a record for its city and enforces retention.
func (s *MemoryStore) SaveRecord(record travel.RunRecord) {
	key := cityKey(record.City.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &RecordHistory{}
		s.data[key] = history
	}

	history.Records = append(history.Records, record)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Records) > s.maxHistory {
		over := len(history.Records) - s.maxHistory
		history.Records = history.Records[over:]
	}

	// Enforce retention by age. The newest record is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Records); i++ {
			if !history.Records[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Records) {
			history.Records = history.Records[i:]
		}
	}
}

// GetLatest returns the most recent record for a city.
func (s *MemoryStore) GetLatest(city string) (travel.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[cityKey(city)]
	if !ok || len(history.Records) == 0 {
		return travel.RunRecord{}, ErrNotFound
	}
	return history.Records[len(history.Records)-1], nil
}

// GetRange returns all records for a city between from and to (inclusive).
func (s *MemoryStore) GetRange(city string, from, to time.Time) ([]travel.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[cityKey(city)]
	if !ok || len(history.Records) == 0 {
		return nil, ErrNotFound
	}

	var result []travel.RunRecord
	for _, r := range history.Records {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

// Cities lists the display names of every city with stored records, sorted.
func (s *MemoryStore) Cities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for _, h := range s.data {
		if len(h.Records) > 0 {
			names = append(names, h.Records[len(h.Records)-1].City.Name)
		}
	}
	sort.Strings(names)
	return names
}
