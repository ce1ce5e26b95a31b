package imagetools

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
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
	r.GET("/v1/image-tools/dominant_colors", h.DominantColorsHandler())
	return r
}

func analyze(r *gin.Engine, imageURL, nColors string) *httptest.ResponseRecorder {
	q := url.Values{}
	if imageURL != "" {
		q.Set("url", imageURL)
	}
	if nColors != "" {
		q.Set("n_colors", nColors)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/image-tools/dominant_colors?"+q.Encode(), nil))
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

// imageServer serves a solid red PNG at /red.png and garbage at /broken.png.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/red.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(buf.Bytes())
		case "/broken.png":
			w.Write([]byte("not a png"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDominantColors_SolidRed(t *testing.T) {
	srv := imageServer(t)
	r := newRouter()

	w := analyze(r, srv.URL+"/red.png", "1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	d := payload(t, w)
	hexColors := d["hex_colors"].([]interface{})
	if len(hexColors) != 1 || hexColors[0] != "#ff0000" {
		t.Errorf("hex_colors = %v, want [#ff0000]", hexColors)
	}
	rgbColors := d["rgb_colors"].([]interface{})
	first := rgbColors[0].([]interface{})
	if first[0].(float64) != 255 || first[1].(float64) != 0 || first[2].(float64) != 0 {
		t.Errorf("rgb_colors = %v, want [[255 0 0]]", rgbColors)
	}
}

func TestDominantColors_DefaultClusterCount(t *testing.T) {
	srv := imageServer(t)
	r := newRouter()

	w := analyze(r, srv.URL+"/red.png", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	// A solid image collapses to a single cluster regardless of the default.
	hexColors := payload(t, w)["hex_colors"].([]interface{})
	for _, h := range hexColors {
		if h != "#ff0000" {
			t.Errorf("unexpected color %v", h)
		}
	}
}

func TestDominantColors_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		nColors string
	}{
		{"missing url", "", "3"},
		{"bad scheme", "ftp://example.com/a.png", "3"},
		{"disallowed extension", "https://example.com/a.svg", "3"},
		{"no extension", "https://example.com/image", "3"},
		{"n_colors zero", "https://example.com/a.png", "0"},
		{"n_colors too large", "https://example.com/a.png", "11"},
		{"n_colors not a number", "https://example.com/a.png", "three"},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := analyze(r, tt.url, tt.nColors)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestDominantColors_UndecodableImage(t *testing.T) {
	srv := imageServer(t)
	r := newRouter()

	w := analyze(r, srv.URL+"/broken.png", "3")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", w.Code, w.Body.String())
	}
}

func TestDominantColors_DownloadFailure(t *testing.T) {
	srv := imageServer(t)
	r := newRouter()

	w := analyze(r, srv.URL+"/missing.png", "3")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502; body %s", w.Code, w.Body.String())
	}
}

func TestDominantColors_UnreachableHost(t *testing.T) {
	r := newRouter()

	w := analyze(r, "http://127.0.0.1:1/a.png", "3")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
