// Package state provides thread-safe state management for the application.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/litescript/ls-exoquest/internal/catalog"
)

// Manager handles all shared application state with thread-safe access.
//
// It tracks at most one in-flight catalog request. Starting a request cancels
// the previous one, and results carrying an older sequence number are
// discarded when they arrive.
type Manager struct {
	mu sync.RWMutex

	// Current catalog page
	query         catalog.Query
	page          *catalog.Page
	lastFetch     time.Time
	lastError     error
	fetchDuration time.Duration

	// In-flight request
	loading bool
	seq     uint64
	cancel  context.CancelFunc

	// Local view
	filter  string
	mission catalog.Mission

	// Selection
	selectedStar   catalog.ID
	selectedPlanet catalog.ID
}

// Config holds configuration for the state manager.
type Config struct {
	Query   catalog.Query
	Mission catalog.Mission
}

// DefaultConfig returns the first unfiltered page.
func DefaultConfig() Config {
	return Config{Query: catalog.Query{Page: 1}}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		query:   cfg.Query.Normalized(),
		mission: cfg.Mission,
	}
}

// BeginRequest marks q as the active query, cancels any request still in
// flight and returns a context for the new one together with its sequence
// number.
func (m *Manager) BeginRequest(parent context.Context, q catalog.Query) (context.Context, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.seq++
	m.query = q.Normalized()
	m.loading = true
	m.lastError = nil
	return ctx, m.seq
}

// Complete applies the result of request seq. It returns false, leaving state
// untouched, when a newer request has started since.
//
// On failure the previous page stays visible and the error is recorded. On
// success the page replaces the old one; if the selected system is gone the
// first system of the new page is selected.
func (m *Manager) Complete(seq uint64, res catalog.FetchResult) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.seq {
		return false
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.loading = false
	m.lastFetch = res.FetchedAt
	m.fetchDuration = res.Duration
	m.lastError = res.Error

	if res.Error != nil || res.Page == nil {
		return true
	}

	m.page = res.Page
	if res.Page.Page > 0 {
		m.query.Page = res.Page.Page
	}
	m.reconcileSelection()
	return true
}

// Cancel aborts the in-flight request, if any.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.loading = false
	m.seq++
}

// reconcileSelection keeps the selection valid for the current page.
// Callers hold mu.
func (m *Manager) reconcileSelection() {
	if m.page == nil || len(m.page.Stars) == 0 {
		return
	}
	star, ok := m.page.FindStar(m.selectedStar)
	if !ok {
		m.selectedStar = m.page.Stars[0].ID
		m.selectedPlanet = ""
		return
	}
	if _, ok := star.Planet(m.selectedPlanet); !ok {
		m.selectedPlanet = ""
	}
}

// SetFilter sets the local search text applied to the loaded page.
func (m *Manager) SetFilter(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = q
}

// SetMission restricts the visible systems to one survey.
func (m *Manager) SetMission(mission catalog.Mission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mission = mission
}

// CycleMission advances the mission filter and returns the new value.
func (m *Manager) CycleMission() catalog.Mission {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mission = m.mission.Next()
	return m.mission
}

// visible returns the filtered systems. Callers hold mu.
func (m *Manager) visible() []catalog.Star {
	if m.page == nil {
		return nil
	}
	return catalog.Filter(m.page.Stars, m.filter, m.mission)
}

// SelectStar selects a system and clears the planet selection.
func (m *Manager) SelectStar(id catalog.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.page.FindStar(id); !ok {
		return false
	}
	m.selectedStar = id
	m.selectedPlanet = ""
	return true
}

// SelectPlanet selects planet id of system star. Selecting the planet that is
// already selected clears the planet selection instead.
func (m *Manager) SelectPlanet(star, planet catalog.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.page.FindStar(star)
	if !ok {
		return false
	}
	if _, ok := s.Planet(planet); !ok {
		return false
	}
	if m.selectedStar == star && m.selectedPlanet == planet {
		m.selectedPlanet = ""
		return true
	}
	m.selectedStar = star
	m.selectedPlanet = planet
	return true
}

// ClearPlanet drops the planet selection.
func (m *Manager) ClearPlanet() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedPlanet = ""
}

// MoveStar moves the system selection by delta within the visible systems,
// wrapping at both ends.
func (m *Manager) MoveStar(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vis := m.visible()
	if len(vis) == 0 {
		return
	}
	idx := -1
	for i, s := range vis {
		if s.ID == m.selectedStar {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
	} else {
		idx = wrap(idx+delta, len(vis))
	}
	if vis[idx].ID != m.selectedStar {
		m.selectedStar = vis[idx].ID
		m.selectedPlanet = ""
	}
}

// MovePlanet moves the planet selection by delta within the selected system.
// From no selection, forward picks the first planet and backward the last.
func (m *Manager) MovePlanet(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	star, ok := m.page.FindStar(m.selectedStar)
	if !ok || len(star.Planets) == 0 {
		return
	}
	idx := -1
	for i, p := range star.Planets {
		if p.ID == m.selectedPlanet {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta >= 0:
		idx = 0
	case idx < 0:
		idx = len(star.Planets) - 1
	default:
		idx = wrap(idx+delta, len(star.Planets))
	}
	m.selectedPlanet = star.Planets[idx].ID
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// Snapshot is a point-in-time copy of the state.
type Snapshot struct {
	Query         catalog.Query
	Page          *catalog.Page
	Visible       []catalog.Star
	Filter        string
	Mission       catalog.Mission
	Loading       bool
	LastFetch     time.Time
	LastError     error
	FetchDuration time.Duration

	Star      catalog.Star
	HasStar   bool
	Planet    catalog.Planet
	HasPlanet bool
	StarID    catalog.ID
	PlanetID  catalog.ID
}

// Snapshot returns a copy of the current state. Pages are never mutated after
// they are stored, so the page pointer is shared.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Query:         m.query,
		Page:          m.page,
		Visible:       m.visible(),
		Filter:        m.filter,
		Mission:       m.mission,
		Loading:       m.loading,
		LastFetch:     m.lastFetch,
		LastError:     m.lastError,
		FetchDuration: m.fetchDuration,
		StarID:        m.selectedStar,
		PlanetID:      m.selectedPlanet,
	}
	if star, ok := m.page.FindStar(m.selectedStar); ok {
		snap.Star, snap.HasStar = star, true
		if p, ok := star.Planet(m.selectedPlanet); ok {
			snap.Planet, snap.HasPlanet = p, true
		}
	}
	return snap
}

// Query returns the active catalog query.
func (m *Manager) Query() catalog.Query {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query
}

// HasData reports whether a page has been loaded.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.page != nil
}

// LastError returns the error of the most recent completed request.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}
