package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pokefinder/backend/config"
	"github.com/pokefinder/backend/internal/domain"
	"github.com/pokefinder/backend/internal/infrastructure/pokeapi/pokeapitest"
	"github.com/pokefinder/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	// Run tests
	exitCode := m.Run()

	// Exit with the test result code
	os.Exit(exitCode)
}

// setupTestRouter creates a router backed by a fake catalog holding pikachu and mewtwo
func setupTestRouter(t *testing.T) (*gin.Engine, *pokeapitest.Catalog) {
	t.Helper()

	catalog := pokeapitest.NewCatalog(t)
	catalog.Add(pokeapitest.Pikachu())
	catalog.Add(pokeapitest.Mewtwo())

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		RateLimit: config.RateLimitConfig{PerIP: 60000, Catalog: 60000},
	}
	return newTestRouter(t, cfg, catalog), catalog
}

// newTestRouter wires the full stack against catalog using cfg
func newTestRouter(t *testing.T, cfg *config.Config, catalog *pokeapitest.Catalog) *gin.Engine {
	t.Helper()

	lookup := usecase.NewLookupService(catalog.NewClient(), usecase.LookupServiceConfig{}, nil)
	sessions := NewSessionRegistry(time.Minute)
	t.Cleanup(sessions.Close)

	handler := NewHandler(lookup, sessions, cfg.Server.AllowedOrigins, nil)
	router := SetupRouter(cfg, handler, nil)
	if router == nil {
		t.Fatal("newTestRouter: SetupRouter returned nil *gin.Engine")
	}
	return router
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	w := doRequest(router, "POST", "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.SessionID == "" {
		t.Fatalf("create session response = %s, err = %v", w.Body.String(), err)
	}
	return resp.SessionID
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) OutcomeView {
	t.Helper()
	var view OutcomeView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to unmarshal outcome view: %v (body %s)", err, w.Body.String())
	}
	return view
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doRequest(router, "GET", "/health", "")

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "pokefinder-backend" {
			t.Errorf("service = %v, want pokefinder-backend", response["service"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doRequest(router, method, "/health", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	// Generate some catalog traffic first
	doRequest(router, "GET", "/api/v1/pokemon/pikachu", "")

	w := doRequest(router, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	for _, name := range []string{"pokefinder_catalog_requests_total", "pokefinder_lookup_outcomes_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestSessionSearch(t *testing.T) {
	t.Run("wait returns the found pokemon", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		id := createSession(t, router)

		w := doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"  Pikachu "}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
		}

		view := decodeView(t, w)
		if view.State != domain.StateFound {
			t.Fatalf("state = %s, want found", view.State)
		}
		if view.Query != "Pikachu" {
			t.Errorf("query = %q, want Pikachu", view.Query)
		}
		card := view.Pokemon
		if card.Number != "#0025" || card.Name != "Pikachu" {
			t.Errorf("card = %s %s, want #0025 Pikachu", card.Number, card.Name)
		}
		if card.Category != "Mouse Pokémon" {
			t.Errorf("category = %q, want Mouse Pokémon", card.Category)
		}
		if strings.ContainsAny(card.Description, "\n\f") {
			t.Errorf("description still contains line breaks: %q", card.Description)
		}
		if !strings.HasPrefix(card.Description, "When several of these") {
			t.Errorf("description = %q, want first English entry", card.Description)
		}
	})

	t.Run("without wait returns accepted with sequence", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		id := createSession(t, router)

		w := doRequest(router, "POST", "/api/v1/sessions/"+id+"/search", `{"name":"mewtwo"}`)
		if w.Code != http.StatusAccepted {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusAccepted)
		}
		var resp struct {
			Seq uint64 `json:"seq"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.Seq != 1 {
			t.Errorf("seq = %d, want 1", resp.Seq)
		}
	})

	t.Run("unknown name is not found and drops the previous pokemon", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		id := createSession(t, router)

		doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"pikachu"}`)
		w := doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"missingno"}`)

		view := decodeView(t, w)
		if view.State != domain.StateNotFound {
			t.Errorf("state = %s, want not_found", view.State)
		}
		if view.Pokemon != nil {
			t.Errorf("pokemon = %+v, want nil", view.Pokemon)
		}
		if view.Message != MessageNotFound {
			t.Errorf("message = %q, want %q", view.Message, MessageNotFound)
		}
	})

	t.Run("species failure is a transient error", func(t *testing.T) {
		router, catalog := setupTestRouter(t)
		catalog.FailSpecies(150, http.StatusBadGateway)
		id := createSession(t, router)

		w := doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"mewtwo"}`)

		view := decodeView(t, w)
		if view.State != domain.StateTransientError {
			t.Errorf("state = %s, want transient_error", view.State)
		}
		if view.Message != MessageTransientError {
			t.Errorf("message = %q, want %q", view.Message, MessageTransientError)
		}
	})

	t.Run("blank name is rejected and outcome is unchanged", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		id := createSession(t, router)

		doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"pikachu"}`)

		w := doRequest(router, "POST", "/api/v1/sessions/"+id+"/search", `{"name":"   "}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		view := decodeView(t, doRequest(router, "GET", "/api/v1/sessions/"+id+"/outcome", ""))
		if view.State != domain.StateFound || view.Pokemon.Name != "Pikachu" {
			t.Errorf("outcome = %s %+v, want found Pikachu", view.State, view.Pokemon)
		}
	})

	t.Run("invalid body is rejected", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		id := createSession(t, router)

		w := doRequest(router, "POST", "/api/v1/sessions/"+id+"/search", `{"name":`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("last query wins", func(t *testing.T) {
		router, catalog := setupTestRouter(t)
		id := createSession(t, router)

		release := catalog.Hold("pikachu")
		defer release()

		w := doRequest(router, "POST", "/api/v1/sessions/"+id+"/search", `{"name":"pikachu"}`)
		if w.Code != http.StatusAccepted {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusAccepted)
		}

		w = doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"mewtwo"}`)
		view := decodeView(t, w)
		if view.State != domain.StateFound || view.Pokemon.Name != "Mewtwo" {
			t.Fatalf("outcome = %s %+v, want found Mewtwo", view.State, view.Pokemon)
		}
		release()

		view = decodeView(t, doRequest(router, "GET", "/api/v1/sessions/"+id+"/outcome", ""))
		if view.Seq != 2 || view.Pokemon == nil || view.Pokemon.Name != "Mewtwo" {
			t.Errorf("outcome = seq %d %+v, want seq 2 Mewtwo", view.Seq, view.Pokemon)
		}
	})
}

func TestSessionOutcome(t *testing.T) {
	t.Run("new session is idle", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		id := createSession(t, router)

		w := doRequest(router, "GET", "/api/v1/sessions/"+id+"/outcome", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		view := decodeView(t, w)
		if view.State != domain.StateIdle || view.Pokemon != nil || view.Message != "" {
			t.Errorf("view = %+v, want empty idle view", view)
		}
	})

	t.Run("unknown session returns 404", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		paths := []struct{ method, path, body string }{
			{"GET", "/api/v1/sessions/nope/outcome", ""},
			{"POST", "/api/v1/sessions/nope/search", `{"name":"pikachu"}`},
			{"POST", "/api/v1/sessions/nope/sprite/toggle", ""},
			{"GET", "/api/v1/sessions/nope/stream", ""},
			{"DELETE", "/api/v1/sessions/nope", ""},
		}
		for _, p := range paths {
			w := doRequest(router, p.method, p.path, p.body)
			if w.Code != http.StatusNotFound {
				t.Errorf("%s %s: Status = %d, want %d", p.method, p.path, w.Code, http.StatusNotFound)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp["error"] != "session not found" {
				t.Errorf("%s %s: body = %s, want session not found", p.method, p.path, w.Body.String())
			}
		}
	})

	t.Run("deleted session is gone", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		id := createSession(t, router)

		w := doRequest(router, "DELETE", "/api/v1/sessions/"+id, "")
		if w.Code != http.StatusNoContent {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNoContent)
		}

		w = doRequest(router, "GET", "/api/v1/sessions/"+id+"/outcome", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestToggleSprite(t *testing.T) {
	router, _ := setupTestRouter(t)
	id := createSession(t, router)
	togglePath := "/api/v1/sessions/" + id + "/sprite/toggle"

	w := doRequest(router, "POST", togglePath, "")
	if w.Code != http.StatusConflict {
		t.Errorf("toggle while idle: Status = %d, want %d", w.Code, http.StatusConflict)
	}

	doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"pikachu"}`)

	w = doRequest(router, "POST", togglePath, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	view := decodeView(t, w)
	if !view.Pokemon.Shiny || !strings.Contains(*view.Pokemon.Sprite, "/shiny/") {
		t.Errorf("sprite = %v shiny=%v, want shiny artwork", *view.Pokemon.Sprite, view.Pokemon.Shiny)
	}

	w = doRequest(router, "POST", "/api/v1/sessions/"+id+"/search?wait=true", `{"name":"mewtwo"}`)
	view = decodeView(t, w)
	if view.Pokemon.Shiny {
		t.Errorf("shiny selection survived a new pokemon")
	}
}

func TestLookupPokemon(t *testing.T) {
	router, catalog := setupTestRouter(t)
	catalog.FailSpecies(150, http.StatusInternalServerError)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantState  domain.State
	}{
		{"found", "/api/v1/pokemon/Pikachu", http.StatusOK, domain.StateFound},
		{"not found", "/api/v1/pokemon/missingno", http.StatusNotFound, domain.StateNotFound},
		{"catalog failure", "/api/v1/pokemon/mewtwo", http.StatusServiceUnavailable, domain.StateTransientError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "GET", tt.path, "")
			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if view := decodeView(t, w); view.State != tt.wantState {
				t.Errorf("state = %s, want %s", view.State, tt.wantState)
			}
		})
	}

	t.Run("blank name", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/pokemon/%20%20", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestOutcomeStream(t *testing.T) {
	router, _ := setupTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	id := createSession(t, router)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/sessions/" + id + "/stream"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var view OutcomeView
	if err := conn.ReadJSON(&view); err != nil {
		t.Fatalf("ReadJSON() initial error = %v", err)
	}
	if view.State != domain.StateIdle {
		t.Errorf("initial state = %s, want idle", view.State)
	}

	doRequest(router, "POST", "/api/v1/sessions/"+id+"/search", `{"name":"pikachu"}`)

	// Intermediate querying views may be coalesced away
	for view.State != domain.StateFound {
		if err := conn.ReadJSON(&view); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
	}
	if view.Pokemon == nil || view.Pokemon.Name != "Pikachu" {
		t.Fatalf("streamed pokemon = %+v, want Pikachu", view.Pokemon)
	}

	doRequest(router, "POST", "/api/v1/sessions/"+id+"/sprite/toggle", "")
	if err := conn.ReadJSON(&view); err != nil {
		t.Fatalf("ReadJSON() after toggle error = %v", err)
	}
	if !view.Pokemon.Shiny {
		t.Errorf("streamed view after toggle is not shiny")
	}

	doRequest(router, "DELETE", "/api/v1/sessions/"+id, "")
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage() after delete error = %v, want normal closure", err)
	}
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	router, _ := setupTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	id := createSession(t, router)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/sessions/" + id + "/stream"

	header := http.Header{}
	header.Set("Origin", "http://evil.com")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("Dial() error = nil, want handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("handshake response = %v, want 403", resp)
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	router, _ := setupTestRouter(t)

	req, _ := http.NewRequest("POST", "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:5173")
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, "true")
	}
}

// TestRateLimitIntegration checks the router does not trust forwarded headers by default
func TestRateLimitIntegration(t *testing.T) {
	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "test"},
		RateLimit: config.RateLimitConfig{PerIP: 6, Catalog: 60000},
	}
	router := newTestRouter(t, cfg, pokeapitest.NewCatalog(t))

	codes := make([]int, 0, 3)
	for _, forwarded := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req, _ := http.NewRequest("POST", "/api/v1/sessions", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	want := []int{http.StatusCreated, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i, codes[i], want[i])
		}
	}
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router, _ := setupTestRouter(t)

	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doRequest(router, "GET", "/panic", "")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, "POST", "/api/sessions", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/sessions"},
		{"GET", "/api/v1/pokemon/pikachu"},
		{"GET", "/api/v1/sessions/unknown/outcome"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router, _ := setupTestRouter(t)

			w := doRequest(router, endpoint.method, endpoint.path, "")

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
