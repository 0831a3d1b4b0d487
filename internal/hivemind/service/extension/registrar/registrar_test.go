package registrar

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/modload"
	"github.com/kiosk404/nubabel/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

const forecastRoute = `package main

import "net/http"

func Handler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
	w.Write([]byte("sunny " + r.URL.Query().Get("city")))
}
`

const panickingRoute = `package main

import "net/http"

func Handler(w http.ResponseWriter, r *http.Request) {
	panic("boom")
}
`

func writeModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func newServer(t *testing.T) (*Registrar, *gin.Engine) {
	t.Helper()
	r := New(modload.NewLoader(modload.NewCache()))
	g := gin.New()
	r.Initialize(g)
	return r, g
}

func do(g *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRegisterAndDispatch(t *testing.T) {
	dir := t.TempDir()
	handler := writeModule(t, dir, "forecast.go", forecastRoute)
	r, g := newServer(t)

	for _, id := range []string{"weather", "@acme/weather"} {
		ext := &entity.LoadedExtension{
			ID:     id,
			Routes: []entity.Route{{Path: "/forecast", Method: "GET", HandlerPath: handler}},
		}
		if err := r.RegisterExtensionRoutes(ext); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	tests := []struct {
		name   string
		method string
		target string
		code   int
	}{
		{"plain id", http.MethodGet, "/ext/weather/forecast?city=oslo", http.StatusTeapot},
		{"trailing slash", http.MethodGet, "/ext/weather/forecast/", http.StatusTeapot},
		{"scoped id", http.MethodGet, "/ext/@acme/weather/forecast?city=oslo", http.StatusTeapot},
		{"wrong method", http.MethodPost, "/ext/weather/forecast", http.StatusNotFound},
		{"unknown path", http.MethodGet, "/ext/weather/history", http.StatusNotFound},
		{"unknown extension", http.MethodGet, "/ext/geo/forecast", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(g, tt.method, tt.target)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.code, rec.Body.String())
			}
			if tt.code == http.StatusTeapot && strings.Contains(tt.target, "city") && rec.Body.String() != "sunny oslo" {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}

	if got := r.Routes("@acme/weather"); !reflect.DeepEqual(got, []string{"GET /ext/@acme/weather/forecast"}) {
		t.Errorf("Routes = %v", got)
	}

	r.UnregisterExtensionRoutes("weather")
	if rec := do(g, http.MethodGet, "/ext/weather/forecast"); rec.Code != http.StatusNotFound {
		t.Errorf("after unregister status = %d", rec.Code)
	}
	if rec := do(g, http.MethodGet, "/ext/@acme/weather/forecast"); rec.Code != http.StatusTeapot {
		t.Errorf("other extension affected, status = %d", rec.Code)
	}
}

func TestRegisterIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	good := writeModule(t, dir, "good.go", forecastRoute)
	bad := writeModule(t, dir, "bad.go", "package main\n\nfunc helper() {}\n")
	r, g := newServer(t)

	ext := &entity.LoadedExtension{
		ID: "weather",
		Routes: []entity.Route{
			{Path: "/forecast", Method: "GET", HandlerPath: good},
			{Path: "/broken", Method: "GET", HandlerPath: bad},
		},
	}
	if err := r.RegisterExtensionRoutes(ext); err == nil {
		t.Fatal("expected error")
	}
	if rec := do(g, http.MethodGet, "/ext/weather/forecast"); rec.Code != http.StatusNotFound {
		t.Errorf("partial registration served, status = %d", rec.Code)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	handler := writeModule(t, t.TempDir(), "panic.go", panickingRoute)
	r, g := newServer(t)
	ext := &entity.LoadedExtension{
		ID:     "fragile",
		Routes: []entity.Route{{Path: "/", Method: "DELETE", HandlerPath: handler}},
	}
	if err := r.RegisterExtensionRoutes(ext); err != nil {
		t.Fatal(err)
	}
	if rec := do(g, http.MethodDelete, "/ext/fragile/"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
