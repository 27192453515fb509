package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

type staticPlugin struct {
	info   plugin.PluginInfo
	routes []plugin.Route
}

func (p *staticPlugin) Info() plugin.PluginInfo { return p.info }

func (p *staticPlugin) Init(context.Context, plugin.Dependencies) error { return nil }

func (p *staticPlugin) Start(context.Context) error { return nil }

func (p *staticPlugin) Stop(context.Context) error { return nil }

type staticSource struct {
	plugins []*staticPlugin
}

func (s *staticSource) AllRoutes() map[string][]plugin.Route {
	out := make(map[string][]plugin.Route)
	for _, p := range s.plugins {
		if len(p.routes) > 0 {
			out[p.info.Name] = p.routes
		}
	}
	return out
}

func (s *staticSource) All() []plugin.Plugin {
	out := make([]plugin.Plugin, 0, len(s.plugins))
	for _, p := range s.plugins {
		out = append(out, p)
	}
	return out
}

func testServer(t *testing.T, src PluginSource, ready ReadinessChecker) *Server {
	t.Helper()
	return New("127.0.0.1:0", src, zap.NewNop(), ready)
}

func TestPluginRoutesMountedUnderModulePrefix(t *testing.T) {
	handled := false
	src := &staticSource{plugins: []*staticPlugin{{
		info: plugin.PluginInfo{Name: "beacon", Version: "0.1.0"},
		routes: []plugin.Route{{
			Method: "GET",
			Path:   "/history",
			Handler: func(w http.ResponseWriter, _ *http.Request) {
				handled = true
				w.WriteHeader(http.StatusOK)
			},
		}},
	}}}
	s := testServer(t, src, nil)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/beacon/history", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !handled {
		t.Error("module handler never invoked")
	}

	// Wrong method on the same path falls through to the API catch-all
	// and must not reach the handler.
	handled = false
	rr = httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/beacon/history", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("POST status = %d, want 404", rr.Code)
	}
	if handled {
		t.Error("module handler invoked for the wrong method")
	}
}

func TestUnknownAPIPathReturnsProblem(t *testing.T) {
	s := testServer(t, &staticSource{}, nil)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/nonsense", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q, want application/problem+json", ct)
	}
	var p Problem
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Type != ProblemTypeNotFound || p.Instance != "/api/v1/nonsense" {
		t.Errorf("problem = %+v", p)
	}
}

func TestRecoveryMiddlewareCatchesPanic(t *testing.T) {
	inner := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	})
	handler := RecoveryMiddleware(zap.NewNop())(inner)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/beacon/history", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q, want application/problem+json", ct)
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(t, &staticSource{}, nil)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("status = %q, want alive", body["status"])
	}
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s := testServer(t, &staticSource{}, func(context.Context) error { return nil })
		rr := httptest.NewRecorder()
		s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		s := testServer(t, &staticSource{}, func(context.Context) error {
			return errors.New("database unreachable")
		})
		rr := httptest.NewRecorder()
		s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rr.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["error"] != "database unreachable" {
			t.Errorf("error = %q", body["error"])
		}
	})

	t.Run("no checker means ready", func(t *testing.T) {
		s := testServer(t, &staticSource{}, nil)
		rr := httptest.NewRecorder()
		s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
	})
}

func TestHealthReportsService(t *testing.T) {
	s := testServer(t, &staticSource{}, nil)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Service != "presage" || body.Status != "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestModulesListsRegisteredPlugins(t *testing.T) {
	src := &staticSource{plugins: []*staticPlugin{
		{info: plugin.PluginInfo{Name: "beacon", Version: "0.1.0", Description: "Alert intake"}},
		{info: plugin.PluginInfo{Name: "seer", Version: "0.1.0", Description: "Pattern mining"}},
	}}
	s := testServer(t, src, nil)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/modules", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var mods []ModuleResponse
	if err := json.NewDecoder(rr.Body).Decode(&mods); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("got %d modules, want 2", len(mods))
	}
	if mods[0].Name != "beacon" || mods[1].Name != "seer" {
		t.Errorf("modules = %v", mods)
	}
}
