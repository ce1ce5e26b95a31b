package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// applySecurityHeaders runs a GET / through SecurityHeadersMiddleware and returns
// the response recorder so callers can inspect headers.
func applySecurityHeaders(cfg SecurityHeadersConfig) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// APISecurityHeadersConfig
// ---------------------------------------------------------------------------

func TestAPISecurityHeadersConfig(t *testing.T) {
	cfg := APISecurityHeadersConfig()
	if !cfg.EnableHSTS {
		t.Error("EnableHSTS = false, want true")
	}
	if cfg.HSTSMaxAge != 31536000 {
		t.Errorf("HSTSMaxAge = %d, want 31536000", cfg.HSTSMaxAge)
	}
	if !cfg.HSTSIncludeSubdomains {
		t.Error("HSTSIncludeSubdomains = false, want true")
	}
	if cfg.FrameOptionsValue != "DENY" {
		t.Errorf("FrameOptionsValue = %q, want DENY", cfg.FrameOptionsValue)
	}
	if !cfg.EnableContentTypeOptions {
		t.Error("EnableContentTypeOptions = false, want true")
	}
	if !strings.Contains(cfg.ContentSecurityPolicy, "default-src 'none'") {
		t.Errorf("ContentSecurityPolicy = %q, want default-src 'none'", cfg.ContentSecurityPolicy)
	}
	if cfg.ReferrerPolicy != "no-referrer" {
		t.Errorf("ReferrerPolicy = %q, want no-referrer", cfg.ReferrerPolicy)
	}
}

// ---------------------------------------------------------------------------
// SecurityHeadersMiddleware
// ---------------------------------------------------------------------------

func TestSecurityHeadersMiddleware_HSTS(t *testing.T) {
	t.Run("enabled with subdomains", func(t *testing.T) {
		w := applySecurityHeaders(SecurityHeadersConfig{
			EnableHSTS:            true,
			HSTSMaxAge:            31536000,
			HSTSIncludeSubdomains: true,
		})
		got := w.Header().Get("Strict-Transport-Security")
		if got != "max-age=31536000; includeSubDomains" {
			t.Errorf("Strict-Transport-Security = %q, want max-age with includeSubDomains", got)
		}
	})

	t.Run("enabled without subdomains", func(t *testing.T) {
		w := applySecurityHeaders(SecurityHeadersConfig{
			EnableHSTS: true,
			HSTSMaxAge: 600,
		})
		got := w.Header().Get("Strict-Transport-Security")
		if got != "max-age=600" {
			t.Errorf("Strict-Transport-Security = %q, want max-age=600", got)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		w := applySecurityHeaders(SecurityHeadersConfig{EnableHSTS: false})
		if got := w.Header().Get("Strict-Transport-Security"); got != "" {
			t.Errorf("Strict-Transport-Security should be absent when disabled, got %q", got)
		}
	})
}

func TestSecurityHeadersMiddleware_FrameOptions(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		w := applySecurityHeaders(SecurityHeadersConfig{
			EnableFrameOptions: true,
			FrameOptionsValue:  "DENY",
		})
		if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Errorf("X-Frame-Options = %q, want DENY", got)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		w := applySecurityHeaders(SecurityHeadersConfig{EnableFrameOptions: false})
		if got := w.Header().Get("X-Frame-Options"); got != "" {
			t.Errorf("X-Frame-Options should be absent when disabled, got %q", got)
		}
	})
}

func TestSecurityHeadersMiddleware_ContentTypeOptions(t *testing.T) {
	w := applySecurityHeaders(SecurityHeadersConfig{EnableContentTypeOptions: true})
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestSecurityHeadersMiddleware_CSP(t *testing.T) {
	csp := "default-src 'none'; frame-ancestors 'none'"
	w := applySecurityHeaders(SecurityHeadersConfig{ContentSecurityPolicy: csp})
	if got := w.Header().Get("Content-Security-Policy"); got != csp {
		t.Errorf("Content-Security-Policy = %q, want %q", got, csp)
	}
}

func TestSecurityHeadersMiddleware_ReferrerPolicy(t *testing.T) {
	w := applySecurityHeaders(SecurityHeadersConfig{ReferrerPolicy: "no-referrer"})
	if got := w.Header().Get("Referrer-Policy"); got != "no-referrer" {
		t.Errorf("Referrer-Policy = %q, want no-referrer", got)
	}
}

func TestSecurityHeadersMiddleware_AlwaysOnHeaders(t *testing.T) {
	// These are set regardless of config.
	w := applySecurityHeaders(SecurityHeadersConfig{})

	checks := map[string]string{
		"X-Permitted-Cross-Domain-Policies": "none",
		"Cross-Origin-Opener-Policy":        "same-origin",
		"Cross-Origin-Resource-Policy":      "same-origin",
	}
	for header, want := range checks {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestSecurityHeadersMiddleware_PresentOnErrorResponses(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(APISecurityHeadersConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("nosniff missing on error response, got %q", got)
	}
}
