// Package cmsproxy implements the CMS proxy endpoints. Entries come from the
// Contentful Delivery API and are cached in Redis for a short TTL so bursty
// portfolio traffic does not fan out to the upstream.
package cmsproxy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/cache"
	"github.com/lagden-dev/ldev-api/internal/cms"
	"github.com/lagden-dev/ldev-api/internal/telemetry"
)

// Handlers handles CMS proxy endpoints
type Handlers struct {
	client cms.Client
	cache  cache.Cache // nil when Redis is disabled
	ttl    time.Duration
}

// NewHandlers creates a new cmsproxy Handlers instance. cache may be nil, in
// which case every request hits the upstream.
func NewHandlers(client cms.Client, c cache.Cache, ttl time.Duration) *Handlers {
	return &Handlers{client: client, cache: c, ttl: ttl}
}

// @Summary      List people
// @Tags         CMS
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Failure      502  {object}  respond.Envelope  "Upstream CMS unavailable"
// @Router       /v1/ldev-cms/people [get]
// PeopleHandler lists all people
// GET /v1/ldev-cms/people
func (h *Handlers) PeopleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.serveList(c, cms.ContentTypePerson, "People retrieved", func() (interface{}, error) {
			return h.client.People(c.Request.Context())
		})
	}
}

// @Summary      Get person by slug
// @Tags         CMS
// @Produce      json
// @Param        slug  path  string  true  "Person slug"
// @Success      200  {object}  respond.Envelope
// @Failure      404  {object}  respond.Envelope  "Person not found"
// @Failure      502  {object}  respond.Envelope  "Upstream CMS unavailable"
// @Router       /v1/ldev-cms/people/{slug} [get]
// PersonHandler retrieves a person by slug
// GET /v1/ldev-cms/people/:slug
func (h *Handlers) PersonHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		h.serveEntry(c, cms.ContentTypePerson, slug, "Person retrieved", "Person not found", func() (interface{}, bool, error) {
			p, err := h.client.PersonBySlug(c.Request.Context(), slug)
			if err != nil || p == nil {
				return nil, false, err
			}
			return p, true, nil
		})
	}
}

// @Summary      List projects
// @Tags         CMS
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Failure      502  {object}  respond.Envelope  "Upstream CMS unavailable"
// @Router       /v1/ldev-cms/projects [get]
// ProjectsHandler lists all projects
// GET /v1/ldev-cms/projects
func (h *Handlers) ProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.serveList(c, cms.ContentTypeProject, "Projects retrieved", func() (interface{}, error) {
			return h.client.Projects(c.Request.Context())
		})
	}
}

// @Summary      Get project by slug
// @Tags         CMS
// @Produce      json
// @Param        slug  path  string  true  "Project slug"
// @Success      200  {object}  respond.Envelope
// @Failure      404  {object}  respond.Envelope  "Project not found"
// @Failure      502  {object}  respond.Envelope  "Upstream CMS unavailable"
// @Router       /v1/ldev-cms/projects/{slug} [get]
// ProjectHandler retrieves a project by slug
// GET /v1/ldev-cms/projects/:slug
func (h *Handlers) ProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		h.serveEntry(c, cms.ContentTypeProject, slug, "Project retrieved", "Project not found", func() (interface{}, bool, error) {
			p, err := h.client.ProjectBySlug(c.Request.Context(), slug)
			if err != nil || p == nil {
				return nil, false, err
			}
			return p, true, nil
		})
	}
}

func (h *Handlers) serveList(c *gin.Context, contentType, message string, fetch func() (interface{}, error)) {
	key := cache.CMSListKey(contentType)

	if payload, ok := h.cached(c, key); ok {
		telemetry.CMSRequestsTotal.WithLabelValues(contentType, "hit").Inc()
		respond.OK(c, http.StatusOK, message, payload)
		return
	}

	result, err := fetch()
	if err != nil {
		h.upstreamError(c, contentType, err)
		return
	}

	telemetry.CMSRequestsTotal.WithLabelValues(contentType, "miss").Inc()
	h.store(c, key, result)
	respond.OK(c, http.StatusOK, message, result)
}

func (h *Handlers) serveEntry(c *gin.Context, contentType, slug, message, notFound string, fetch func() (interface{}, bool, error)) {
	key := cache.CMSEntryKey(contentType, slug)

	if payload, ok := h.cached(c, key); ok {
		telemetry.CMSRequestsTotal.WithLabelValues(contentType, "hit").Inc()
		respond.OK(c, http.StatusOK, message, payload)
		return
	}

	result, found, err := fetch()
	if err != nil {
		h.upstreamError(c, contentType, err)
		return
	}
	if !found {
		// Missing slugs are not cached; a freshly published entry should be
		// visible on the next request.
		telemetry.CMSRequestsTotal.WithLabelValues(contentType, "miss").Inc()
		respond.Error(c, http.StatusNotFound, notFound)
		return
	}

	telemetry.CMSRequestsTotal.WithLabelValues(contentType, "miss").Inc()
	h.store(c, key, result)
	respond.OK(c, http.StatusOK, message, result)
}

// cached returns the decoded cache entry for key, if any. Cache failures are
// treated as misses.
func (h *Handlers) cached(c *gin.Context, key string) (interface{}, bool) {
	if h.cache == nil {
		return nil, false
	}

	raw, found, err := h.cache.Get(c.Request.Context(), key)
	if err != nil {
		slog.Warn("cms cache read failed", "error", err, "key", key)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		slog.Warn("cms cache entry corrupt", "error", err, "key", key)
		return nil, false
	}
	return payload, true
}

func (h *Handlers) store(c *gin.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cms cache encode failed", "error", err, "key", key)
		return
	}
	if err := h.cache.Set(c.Request.Context(), key, raw, h.ttl); err != nil {
		slog.Warn("cms cache write failed", "error", err, "key", key)
	}
}

func (h *Handlers) upstreamError(c *gin.Context, contentType string, err error) {
	telemetry.CMSRequestsTotal.WithLabelValues(contentType, "error").Inc()
	slog.Error("cms upstream request failed", "error", err, "content_type", contentType)

	message := "CMS temporarily unavailable"
	if errors.Is(err, cms.ErrCMSTimeout) {
		message = "CMS request timed out"
	}
	respond.Error(c, http.StatusBadGateway, message)
}
