// Package imagetools implements the image analysis endpoints. Images are
// fetched from a caller-supplied URL, decoded, and clustered for their
// dominant colors.
package imagetools

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	// Registered decoders. Only these formats can actually be analyzed;
	// anything else fails at decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/colors"
	"github.com/lagden-dev/ldev-api/internal/telemetry"
)

const (
	// DownloadTimeout bounds the upstream image fetch
	DownloadTimeout = 10 * time.Second

	// MaxImageBytes caps the downloaded image size
	MaxImageBytes = 20 << 20 // 20 MiB

	// DefaultNColors is the cluster count when n_colors is not provided
	DefaultNColors = 3

	// MaxNColors is the upper bound on the requested cluster count
	MaxNColors = 10
)

// allowedExtensions is the set of accepted image URL extensions.
var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true,
}

// Handlers handles image tool endpoints
type Handlers struct {
	client *http.Client
}

// NewHandlers creates a new imagetools Handlers instance
func NewHandlers() *Handlers {
	return &Handlers{client: &http.Client{Timeout: DownloadTimeout}}
}

// @Summary      Extract dominant colors
// @Description  Download an image and return its dominant colors via k-means clustering.
// @Tags         ImageTools
// @Produce      json
// @Param        url       query  string  true   "Image URL"
// @Param        n_colors  query  int     false  "Number of colors to extract (1-10, default 3)"
// @Success      200  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Bad URL, unsupported type, or undecodable image"
// @Failure      502  {object}  respond.Envelope  "Image could not be downloaded"
// @Router       /v1/image-tools/dominant_colors [get]
// DominantColorsHandler extracts the dominant colors from an image
// GET /v1/image-tools/dominant_colors?url=&n_colors=
func (h *Handlers) DominantColorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawURL := c.Query("url")
		if rawURL == "" {
			respond.Error(c, http.StatusBadRequest, "No image URL provided")
			return
		}

		imageURL, err := url.Parse(rawURL)
		if err != nil || (imageURL.Scheme != "http" && imageURL.Scheme != "https") {
			respond.Error(c, http.StatusBadRequest, "Invalid image URL")
			return
		}

		ext := strings.ToLower(path.Ext(imageURL.Path))
		if !allowedExtensions[ext] {
			respond.Error(c, http.StatusBadRequest, "Unsupported image type")
			return
		}

		nColors := DefaultNColors
		if raw := c.Query("n_colors"); raw != "" {
			nColors, err = strconv.Atoi(raw)
			if err != nil || nColors < 1 || nColors > MaxNColors {
				respond.Error(c, http.StatusBadRequest, fmt.Sprintf("n_colors must be between 1 and %d", MaxNColors))
				return
			}
		}

		img, err := h.download(c, imageURL.String())
		if err != nil {
			return // download wrote the response
		}

		start := time.Now()
		dominant := colors.DominantColors(img, nColors)
		telemetry.ImageAnalysisDuration.Observe(time.Since(start).Seconds())

		hexColors := make([]string, 0, len(dominant))
		rgbColors := make([][]int, 0, len(dominant))
		for _, col := range dominant {
			hexColors = append(hexColors, col.Hex())
			rgbColors = append(rgbColors, []int{int(col.R), int(col.G), int(col.B)})
		}

		respond.OK(c, http.StatusOK, "Image analyzed", gin.H{
			"hex_colors": hexColors,
			"rgb_colors": rgbColors,
		})
	}
}

// download fetches and decodes the image, writing the error response itself
// on failure.
func (h *Handlers) download(c *gin.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, imageURL, nil)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "Invalid image URL")
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		slog.Warn("image download failed", "error", err, "url", imageURL)
		respond.Error(c, http.StatusBadGateway, "Could not download image")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respond.Error(c, http.StatusBadGateway, "Could not download image")
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, MaxImageBytes))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "Could not decode image")
		return nil, err
	}
	return img, nil
}
