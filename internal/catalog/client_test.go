package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const samplePage = `{
  "page": 2,
  "stars": [
    {
      "id": "TOI-700",
      "mass_solar": 0.42,
      "radius_solar": 0.42,
      "effective_tempk": 3480,
      "metallicity_feh": null,
      "age_gyr": null,
      "planets": [
        {"id": 1001, "name": "TOI-700 d", "probability": 0.93, "radius_earth": 1.07,
         "equilibrium_tempk": 269, "orbital_period_days": 37.42, "semi_major_axis": 0.163,
         "eccentricity": null, "inclination_deg": 89.7},
        {"id": "1002", "name": null, "probability": null, "radius_earth": null,
         "equilibrium_tempk": null, "orbital_period_days": null, "semi_major_axis": null,
         "eccentricity": null, "inclination_deg": null}
      ]
    }
  ]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Stars(t *testing.T) {
	var gotPath, gotPage, gotAccept, gotNgrok string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPage = r.URL.Query().Get("page")
		gotAccept = r.Header.Get("Accept")
		gotNgrok = r.Header.Get("ngrok-skip-browser-warning")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	})

	c := NewClient(WithBaseURL(srv.URL + "/"))
	page, err := c.Stars(context.Background(), 2)
	if err != nil {
		t.Fatalf("Stars: %v", err)
	}

	if gotPath != "/stars" {
		t.Errorf("path = %q, want /stars", gotPath)
	}
	if gotPage != "2" {
		t.Errorf("page param = %q, want 2", gotPage)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotNgrok != "true" {
		t.Errorf("ngrok-skip-browser-warning = %q, want true", gotNgrok)
	}

	if page.Page != 2 || len(page.Stars) != 1 {
		t.Fatalf("page = %+v", page)
	}
	star := page.Stars[0]
	if star.ID != "TOI-700" {
		t.Errorf("star id = %q", star.ID)
	}
	if star.MetallicityFeH != nil {
		t.Errorf("metallicity should be nil, got %v", *star.MetallicityFeH)
	}
	if len(star.Planets) != 2 {
		t.Fatalf("planets = %d, want 2", len(star.Planets))
	}
	if star.Planets[0].ID != "1001" {
		t.Errorf("numeric planet id decoded as %q, want 1001", star.Planets[0].ID)
	}
	if got := star.Planets[1].Label(); got != "Planet 1002" {
		t.Errorf("unnamed planet label = %q", got)
	}
	if star.Planets[1].RadiusEarth != nil {
		t.Error("null radius should decode to nil")
	}
}

func TestClient_PageCoercion(t *testing.T) {
	var gotPage string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		_, _ = w.Write([]byte(`{"page":1,"stars":[]}`))
	})

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Stars(context.Background(), -3); err != nil {
		t.Fatalf("Stars: %v", err)
	}
	if gotPage != "1" {
		t.Errorf("page = %q, want 1", gotPage)
	}
}

func TestClient_Search(t *testing.T) {
	tests := []struct {
		name       string
		term       string
		wantPath   string
		wantSearch string
	}{
		{"term", "kepler 22", "/stars/search", "kepler 22"},
		{"trimmed", "  toi ", "/stars/search", "toi"},
		{"empty falls back", "   ", "/stars", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotSearch string
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotSearch = r.URL.Query().Get("search")
				_, _ = w.Write([]byte(`{"page":1,"stars":[]}`))
			})

			c := NewClient(WithBaseURL(srv.URL))
			page, err := c.Search(context.Background(), tt.term, 1)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if page.Stars == nil {
				t.Error("Stars should be non-nil on success")
			}
			if gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
			if gotSearch != tt.wantSearch {
				t.Errorf("search = %q, want %q", gotSearch, tt.wantSearch)
			}
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stars/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(samplePage))
	})

	c := NewClient(WithBaseURL(srv.URL))
	res := c.Fetch(context.Background(), Query{Search: " TOI ", Page: 0})
	if res.Error != nil {
		t.Fatalf("Fetch: %v", res.Error)
	}
	if res.Query.Page != 1 || res.Query.Search != "TOI" {
		t.Errorf("normalized query = %+v", res.Query)
	}
	if res.Page == nil || res.Page.PlanetCount() != 2 {
		t.Errorf("unexpected page %+v", res.Page)
	}
	if res.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestClient_HTTPError(t *testing.T) {
	long := strings.Repeat("x", 500)
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, long, http.StatusBadGateway)
	})

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Stars(context.Background(), 1)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("status = %d", apiErr.Status)
	}
	if len(apiErr.Body) != excerptLen {
		t.Errorf("body excerpt length = %d, want %d", len(apiErr.Body), excerptLen)
	}
	if errors.Is(err, ErrNotJSON) {
		t.Error("HTTP error should not be ErrNotJSON")
	}
}

func TestClient_NotJSON(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>tunnel landing page</html>"))
	})

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Stars(context.Background(), 1)
	if !errors.Is(err, ErrNotJSON) {
		t.Fatalf("expected ErrNotJSON, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 APIError, got %v", err)
	}
}

func TestClient_BadJSONWithJSONContentType(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":`))
	})

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Stars(context.Background(), 1)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, ErrNotJSON) {
		t.Error("declared JSON should surface the decode error, not ErrNotJSON")
	}
}

func TestClient_TimeoutRecordsMetrics(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	c := NewClient(WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond), WithMetrics(m))
	if _, err := c.Stars(context.Background(), 1); err == nil {
		t.Fatal("expected timeout error")
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(EndpointStars, OutcomeTimeout)); got != 1 {
		t.Errorf("timeout requests = %v, want 1", got)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"stars":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg := prometheus.NewRegistry()
	m, _ := NewMetrics(reg)
	c := NewClient(WithBaseURL(srv.URL), WithMetrics(m))
	if _, err := c.Stars(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues(EndpointStars, OutcomeCanceled)); got != 1 {
		t.Errorf("canceled requests = %v, want 1", got)
	}
}

func TestClient_SuccessMetricsAndSpans(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	})

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c := NewClient(WithBaseURL(srv.URL), WithMetrics(m), WithTracerProvider(tp))
	if _, err := c.Search(context.Background(), "TOI", 1); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(EndpointSearch, OutcomeOK)); got != 1 {
		t.Errorf("ok requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StarsReturned.WithLabelValues(EndpointSearch)); got != 1 {
		t.Errorf("stars returned = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "catalog_request_duration_seconds", map[string]string{
		"endpoint": EndpointSearch,
	}); count != 1 {
		t.Errorf("catalog_request_duration_seconds sample_count = %d, want 1", count)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Name() != "catalog.search" {
		t.Errorf("span name = %q", spans[0].Name())
	}
}

func TestNewMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("first NewMetrics: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}
	if first.Requests != second.Requests {
		t.Error("expected the existing collector to be reused")
	}
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, _ := NewMetrics(reg)
	m.observe(EndpointStars, OutcomeOK, 10*time.Millisecond, 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "catalog_requests_total") {
		t.Errorf("metrics output missing catalog_requests_total:\n%s", rec.Body.String())
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	families, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func TestClient_Infos(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStars   string
		wantPlanets string
	}{
		{"both counts", `{"amountStars": 4312, "amountExoplanets": 5921}`, "4312", "5921"},
		{"string count", `{"amountStars": "many", "amountExoplanets": 12}`, "—", "12"},
		{"fractional and missing", `{"amountStars": 1.5}`, "—", "—"},
		{"negative", `{"amountStars": -1, "amountExoplanets": null}`, "—", "—"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotQuery string
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			infos, err := NewClient(WithBaseURL(srv.URL)).Infos(context.Background())
			if err != nil {
				t.Fatalf("Infos: %v", err)
			}
			if gotPath != "/getInfos" || gotQuery != "" {
				t.Errorf("request = %q?%q, want /getInfos", gotPath, gotQuery)
			}
			if got := FormatCount(infos.Stars); got != tt.wantStars {
				t.Errorf("stars = %q, want %q", got, tt.wantStars)
			}
			if got := FormatCount(infos.Planets); got != tt.wantPlanets {
				t.Errorf("planets = %q, want %q", got, tt.wantPlanets)
			}
		})
	}
}

func TestClient_InfosErrorMetricsAndSpans(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Error", http.StatusInternalServerError)
	})

	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c := NewClient(WithBaseURL(srv.URL), WithMetrics(m), WithTracerProvider(tp))
	infos, err := c.Infos(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v, want *APIError with status 500", err)
	}
	if infos != nil {
		t.Errorf("infos = %+v, want nil on error", infos)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues(EndpointInfos, OutcomeHTTPError)); got != 1 {
		t.Errorf("http_error requests = %v, want 1", got)
	}
	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "catalog.infos" {
		t.Fatalf("spans = %v, want one catalog.infos span", spans)
	}
}
