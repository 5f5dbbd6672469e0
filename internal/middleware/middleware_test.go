package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pasur-go/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRouter(cfg config.Config) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(RequestID(), CORS(cfg))
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFrom(c)
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestRequestID(t *testing.T) {
	r, seen := newRouter(config.Config{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	got := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("generated id %q: %v", got, err)
	}
	if *seen != got {
		t.Fatalf("context id %q, header %q", *seen, got)
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != incoming {
		t.Fatalf("id = %q, want incoming %q", got, incoming)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not-an-id\r\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got == "not-an-id\r\n" {
		t.Fatalf("malformed id echoed back")
	}
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name   string
		cfg    config.Config
		origin string
		want   string
	}{
		{"configured origin", config.Config{AppEnv: "production", WSAllowedOrigins: []string{"https://pasur.example"}}, "https://pasur.example", "https://pasur.example"},
		{"other origin", config.Config{AppEnv: "production", WSAllowedOrigins: []string{"https://pasur.example"}}, "https://evil.example", ""},
		{"loopback in development", config.Config{AppEnv: "development"}, "http://127.0.0.1:5173", "http://127.0.0.1:5173"},
		{"loopback in production", config.Config{AppEnv: "production"}, "http://localhost:5173", ""},
		{"not a web origin", config.Config{AppEnv: "development"}, "file://localhost", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newRouter(tc.cfg)
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tc.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Fatalf("allow origin = %q, want %q", got, tc.want)
			}
		})
	}

	r, _ := newRouter(config.Config{AppEnv: "development"})
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", w.Code)
	}
}
