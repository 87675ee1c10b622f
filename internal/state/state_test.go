package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/litescript/ls-exoquest/internal/catalog"
)

func testPage(n int) *catalog.Page {
	return &catalog.Page{
		Page: n,
		Stars: []catalog.Star{
			{ID: "TOI-1", Planets: []catalog.Planet{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
			{ID: "KOI-2", Planets: []catalog.Planet{{ID: "k"}}},
			{ID: "TOI-3"},
		},
	}
}

func load(t *testing.T, m *Manager, page *catalog.Page) {
	t.Helper()
	_, seq := m.BeginRequest(context.Background(), catalog.Query{Page: page.Page})
	if !m.Complete(seq, catalog.FetchResult{Page: page, FetchedAt: time.Now(), Duration: time.Millisecond}) {
		t.Fatal("Complete rejected the current request")
	}
}

func TestNewManager(t *testing.T) {
	m := NewManager(Config{Query: catalog.Query{Page: -1, Search: " toi "}})

	if m.HasData() {
		t.Error("HasData should be false initially")
	}
	q := m.Query()
	if q.Page != 1 || q.Search != "toi" {
		t.Errorf("query = %+v, want normalized", q)
	}
	if snap := m.Snapshot(); snap.HasStar || len(snap.Visible) != 0 {
		t.Errorf("empty manager snapshot = %+v", snap)
	}
}

func TestManager_CompleteSelectsFirstSystem(t *testing.T) {
	m := NewManager(DefaultConfig())
	load(t, m, testPage(1))

	snap := m.Snapshot()
	if !m.HasData() || snap.Loading {
		t.Error("expected loaded, idle state")
	}
	if !snap.HasStar || snap.Star.ID != "TOI-1" {
		t.Errorf("selected star = %q", snap.StarID)
	}
	if snap.HasPlanet {
		t.Error("no planet should be selected initially")
	}
	if snap.FetchDuration != time.Millisecond {
		t.Errorf("FetchDuration = %v", snap.FetchDuration)
	}
}

func TestManager_ReloadKeepsOrResetsSelection(t *testing.T) {
	m := NewManager(DefaultConfig())
	load(t, m, testPage(1))
	m.SelectPlanet("KOI-2", "k")

	load(t, m, testPage(1))
	snap := m.Snapshot()
	if snap.StarID != "KOI-2" || snap.PlanetID != "k" {
		t.Errorf("selection lost on reload: %q/%q", snap.StarID, snap.PlanetID)
	}

	load(t, m, &catalog.Page{Page: 2, Stars: []catalog.Star{{ID: "TOI-9"}}})
	snap = m.Snapshot()
	if snap.StarID != "TOI-9" || snap.PlanetID != "" {
		t.Errorf("selection after new page = %q/%q", snap.StarID, snap.PlanetID)
	}
	if snap.Query.Page != 2 {
		t.Errorf("query page = %d, want 2", snap.Query.Page)
	}
}

func TestManager_ErrorKeepsPage(t *testing.T) {
	m := NewManager(DefaultConfig())
	load(t, m, testPage(1))

	boom := errors.New("boom")
	_, seq := m.BeginRequest(context.Background(), catalog.Query{Page: 2})
	if m.LastError() != nil {
		t.Error("BeginRequest should clear the previous error")
	}
	m.Complete(seq, catalog.FetchResult{Error: boom})

	snap := m.Snapshot()
	if !errors.Is(snap.LastError, boom) {
		t.Errorf("LastError = %v", snap.LastError)
	}
	if snap.Page == nil || snap.Page.Page != 1 {
		t.Error("previous page should stay visible after an error")
	}
	if snap.Loading {
		t.Error("loading should end on error")
	}
}

func TestManager_StaleResultDropped(t *testing.T) {
	m := NewManager(DefaultConfig())

	ctx1, seq1 := m.BeginRequest(context.Background(), catalog.Query{Page: 1})
	_, seq2 := m.BeginRequest(context.Background(), catalog.Query{Page: 2})

	select {
	case <-ctx1.Done():
	default:
		t.Error("starting a new request should cancel the previous context")
	}

	if m.Complete(seq1, catalog.FetchResult{Page: testPage(1)}) {
		t.Error("stale result should be rejected")
	}
	if m.HasData() {
		t.Error("stale result should not be applied")
	}
	if !m.Snapshot().Loading {
		t.Error("newer request should still be loading")
	}

	if !m.Complete(seq2, catalog.FetchResult{Page: testPage(2)}) {
		t.Error("current result should be accepted")
	}
	if got := m.Snapshot().Page.Page; got != 2 {
		t.Errorf("page = %d, want 2", got)
	}
}

func TestManager_Cancel(t *testing.T) {
	m := NewManager(DefaultConfig())
	ctx, seq := m.BeginRequest(context.Background(), catalog.Query{Page: 1})
	m.Cancel()

	if ctx.Err() == nil {
		t.Error("Cancel should cancel the request context")
	}
	if m.Complete(seq, catalog.FetchResult{Page: testPage(1)}) {
		t.Error("result of a canceled request should be dropped")
	}
	if m.Snapshot().Loading {
		t.Error("Cancel should clear loading")
	}
}

func TestManager_SelectPlanetToggles(t *testing.T) {
	m := NewManager(DefaultConfig())
	load(t, m, testPage(1))

	if !m.SelectPlanet("TOI-1", "b") {
		t.Fatal("SelectPlanet failed")
	}
	if got := m.Snapshot().PlanetID; got != "b" {
		t.Errorf("planet = %q, want b", got)
	}

	m.SelectPlanet("TOI-1", "b")
	if snap := m.Snapshot(); snap.HasPlanet || snap.StarID != "TOI-1" {
		t.Errorf("re-selecting should deselect the planet only: %+v", snap)
	}

	if m.SelectPlanet("TOI-1", "zzz") {
		t.Error("unknown planet should be rejected")
	}
	if m.SelectStar("nope") {
		t.Error("unknown star should be rejected")
	}

	m.SelectPlanet("TOI-1", "a")
	m.SelectStar("TOI-3")
	if snap := m.Snapshot(); snap.StarID != "TOI-3" || snap.HasPlanet {
		t.Errorf("selecting a system should clear the planet: %+v", snap)
	}
}

func TestManager_MoveStar(t *testing.T) {
	m := NewManager(DefaultConfig())
	load(t, m, testPage(1))

	tests := []struct {
		delta int
		want  catalog.ID
	}{
		{1, "KOI-2"},
		{1, "TOI-3"},
		{1, "TOI-1"},
		{-1, "TOI-3"},
	}
	for _, tt := range tests {
		m.MoveStar(tt.delta)
		if got := m.Snapshot().StarID; got != tt.want {
			t.Errorf("MoveStar(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestManager_MoveStarWithinFilter(t *testing.T) {
	m := NewManager(DefaultConfig())
	load(t, m, testPage(1))

	m.SetMission(catalog.MissionTESS)
	m.MoveStar(1)
	if got := m.Snapshot().StarID; got != "TOI-3" {
		t.Errorf("MoveStar in TESS view = %q, want TOI-3", got)
	}

	if got := m.CycleMission(); got != catalog.MissionKOI {
		t.Errorf("CycleMission = %v", got)
	}
	m.MoveStar(1)
	if got := m.Snapshot().StarID; got != "KOI-2" {
		t.Errorf("selection outside filter should jump into it, got %q", got)
	}

	m.SetMission(catalog.MissionAll)
	m.SetFilter("toi-3")
	if vis := m.Snapshot().Visible; len(vis) != 1 || vis[0].ID != "TOI-3" {
		t.Errorf("visible = %+v", vis)
	}
}

func TestManager_MovePlanet(t *testing.T) {
	m := NewManager(DefaultConfig())
	load(t, m, testPage(1))

	m.MovePlanet(-1)
	if got := m.Snapshot().PlanetID; got != "c" {
		t.Errorf("backward from none = %q, want c", got)
	}
	m.MovePlanet(1)
	if got := m.Snapshot().PlanetID; got != "a" {
		t.Errorf("wrap forward = %q, want a", got)
	}
	m.ClearPlanet()
	m.MovePlanet(1)
	if got := m.Snapshot().PlanetID; got != "a" {
		t.Errorf("forward from none = %q, want a", got)
	}

	m.SelectStar("TOI-3")
	m.MovePlanet(1)
	if m.Snapshot().HasPlanet {
		t.Error("system without planets cannot select one")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_, seq := m.BeginRequest(context.Background(), catalog.Query{Page: n + 1})
			m.Complete(seq, catalog.FetchResult{Page: testPage(n + 1)})
		}(i)
		go func() {
			defer wg.Done()
			_ = m.Snapshot()
			m.MoveStar(1)
		}()
	}
	wg.Wait()

	if m.Snapshot().Loading {
		t.Error("the last request should have completed")
	}
}
