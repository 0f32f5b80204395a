package service

import (
	"sync"
	"time"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

// CatalogStore holds the active catalog and its pre-placed sessions. Replacing it does not
// affect timetables generated earlier; each keeps the catalog it was built against.
type CatalogStore struct {
	mu      sync.RWMutex
	catalog *models.Catalog
	fixed   []*models.ScheduledSession
}

// NewCatalogStore seeds the store; catalog may be nil until one is uploaded.
func NewCatalogStore(catalog *models.Catalog, fixed []*models.ScheduledSession) *CatalogStore {
	return &CatalogStore{catalog: catalog, fixed: fixed}
}

// Current returns the active catalog and a copy of its fixed sessions.
func (s *CatalogStore) Current() (*models.Catalog, []*models.ScheduledSession) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fixed := make([]*models.ScheduledSession, len(s.fixed))
	copy(fixed, s.fixed)
	return s.catalog, fixed
}

// Replace swaps the active catalog.
func (s *CatalogStore) Replace(catalog *models.Catalog, fixed []*models.ScheduledSession) {
	s.mu.Lock()
	s.catalog = catalog
	s.fixed = fixed
	s.mu.Unlock()
}

// timetableEntry is one generated timetable. mu serialises every read and edit of it.
type timetableEntry struct {
	mu           sync.Mutex
	id           string
	catalog      *models.Catalog
	scheduler    *TimetableScheduler
	editor       *TimetableEditor
	timetable    *models.Timetable
	requested    int
	attempts     int
	duration     time.Duration
	optimization *OptimizationStats
	generatedAt  time.Time
}

type timetableStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*timetableEntry
	now   func() time.Time
}

func newTimetableStore(ttl time.Duration) *timetableStore {
	return &timetableStore{
		ttl:   ttl,
		items: make(map[string]*timetableEntry),
		now:   time.Now,
	}
}

func (s *timetableStore) Save(entry *timetableEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[entry.id] = entry
}

func (s *timetableStore) Get(id string) (*timetableEntry, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.generatedAt) > s.ttl {
		s.Delete(id)
		return nil, false
	}
	return entry, true
}

func (s *timetableStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Sweep drops expired entries and returns how many were removed.
func (s *timetableStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.items {
		if s.now().Sub(entry.generatedAt) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
