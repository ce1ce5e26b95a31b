package colortools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	h := NewHandlers()
	r := gin.New()
	r.GET("/v1/color-tools/check_brightness", h.CheckBrightnessHandler())
	return r
}

func check(r *gin.Engine, color, format string) *httptest.ResponseRecorder {
	q := url.Values{}
	if color != "" {
		q.Set("color", color)
	}
	if format != "" {
		q.Set("color_format", format)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/color-tools/check_brightness?"+q.Encode(), nil))
	return w
}

func payload(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	d, _ := m["data"].(map[string]interface{})
	return d
}

func TestCheckBrightness_HexDark(t *testing.T) {
	r := newRouter()

	w := check(r, "#202020", "hex")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	d := payload(t, w)
	if d["is_dark"] != true || d["perception"] != "dark" {
		t.Errorf("expected dark, got %v", d)
	}
	rgb := d["rgb_values"].([]interface{})
	if len(rgb) != 3 || rgb[0].(float64) != 32 {
		t.Errorf("rgb_values = %v", rgb)
	}
}

func TestCheckBrightness_WhiteIsLight(t *testing.T) {
	r := newRouter()

	w := check(r, "#ffffff", "hex")
	d := payload(t, w)
	if d["brightness"].(float64) != 1.0 {
		t.Errorf("brightness = %v, want 1", d["brightness"])
	}
	if d["perception"] != "light" {
		t.Errorf("perception = %v, want light", d["perception"])
	}
}

func TestCheckBrightness_RGBFormat(t *testing.T) {
	r := newRouter()

	w := check(r, "rgb(255, 0, 0)", "rgb")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	d := payload(t, w)
	if d["brightness"].(float64) != 0.299 {
		t.Errorf("brightness = %v, want 0.299", d["brightness"])
	}
	if d["is_dark"] != true {
		t.Error("pure red should read as dark")
	}
}

func TestCheckBrightness_Rounding(t *testing.T) {
	r := newRouter()

	// 0.587 green channel only; rounded to three decimals.
	w := check(r, "0,255,0", "rgb")
	d := payload(t, w)
	if d["brightness"].(float64) != 0.587 {
		t.Errorf("brightness = %v, want 0.587", d["brightness"])
	}
}

func TestCheckBrightness_Errors(t *testing.T) {
	tests := []struct {
		name   string
		color  string
		format string
	}{
		{"missing color", "", "hex"},
		{"missing format", "#fff", ""},
		{"unknown format", "#fff", "hsl"},
		{"malformed hex", "zzz", "hex"},
		{"out of range rgb", "300,0,0", "rgb"},
		{"hex given as rgb", "#ffffff", "rgb"},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := check(r, tt.color, tt.format)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
		})
	}
}
