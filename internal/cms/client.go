// Package cms implements a read-only client for the Contentful Delivery API.
// The service proxies two content types, people and projects, and never
// writes: content management happens in Contentful itself.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors for CMS client failures.
var (
	ErrCMSUnreachable = errors.New("cms unreachable")
	ErrCMSError       = errors.New("cms request error")
	ErrCMSTimeout     = errors.New("cms request timeout")
)

// Content type identifiers as configured in the Contentful space.
const (
	ContentTypePerson  = "person"
	ContentTypeProject = "project"
)

// Link is a labelled URL attached to a person entry.
type Link struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Person is a person entry mapped from the Contentful fields.
type Person struct {
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Occupation   string          `json:"occupation"`
	Location     string          `json:"location"`
	Pronouns     string          `json:"pronouns"`
	Skills       []string        `json:"skills"`
	Links        []Link          `json:"links"`
	Introduction json.RawMessage `json:"introduction"`
	PictureURL   string          `json:"picture_url"`
}

// Project is a project entry mapped from the Contentful fields.
type Project struct {
	Title               string          `json:"title"`
	Slug                string          `json:"slug"`
	Description         string          `json:"description"`
	Tags                []string        `json:"tags"`
	GithubRepoURL       *string         `json:"github_repo_url"`
	WebsiteURL          *string         `json:"website_url"`
	ProjectReadme       json.RawMessage `json:"project_readme"`
	PictureURL          string          `json:"picture_url"`
	BetterStackStatusID *string         `json:"better_stack_status_id"`
	IsFeatured          bool            `json:"is_featured"`
}

// Client is the interface for reading CMS content.
type Client interface {
	People(ctx context.Context) ([]Person, error)
	PersonBySlug(ctx context.Context, slug string) (*Person, error)
	Projects(ctx context.Context) ([]Project, error)
	ProjectBySlug(ctx context.Context, slug string) (*Project, error)
	Ready(ctx context.Context) error
}

// HTTPClient implements Client using the Contentful Delivery API.
type HTTPClient struct {
	baseURL     string
	spaceID     string
	environment string
	accessToken string
	client      *http.Client
}

// NewHTTPClient creates a new Contentful Delivery API client.
func NewHTTPClient(baseURL, spaceID, environment, accessToken string, timeout time.Duration) *HTTPClient {
	if environment == "" {
		environment = "master"
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		spaceID:     spaceID,
		environment: environment,
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
	}
}

// People returns all person entries.
func (c *HTTPClient) People(ctx context.Context) ([]Person, error) {
	resp, err := c.entries(ctx, url.Values{"content_type": {ContentTypePerson}})
	if err != nil {
		return nil, err
	}

	people := make([]Person, 0, len(resp.Items))
	for _, item := range resp.Items {
		person, err := mapPerson(item, resp.assetURLs())
		if err != nil {
			return nil, fmt.Errorf("mapping person entry: %w", err)
		}
		people = append(people, person)
	}
	return people, nil
}

// PersonBySlug returns the person with the given slug, or nil when no entry
// matches.
func (c *HTTPClient) PersonBySlug(ctx context.Context, slug string) (*Person, error) {
	resp, err := c.entries(ctx, url.Values{
		"content_type": {ContentTypePerson},
		"fields.slug":  {slug},
		"limit":        {"1"},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	person, err := mapPerson(resp.Items[0], resp.assetURLs())
	if err != nil {
		return nil, fmt.Errorf("mapping person entry: %w", err)
	}
	return &person, nil
}

// Projects returns all project entries.
func (c *HTTPClient) Projects(ctx context.Context) ([]Project, error) {
	resp, err := c.entries(ctx, url.Values{"content_type": {ContentTypeProject}})
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(resp.Items))
	for _, item := range resp.Items {
		project, err := mapProject(item, resp.assetURLs())
		if err != nil {
			return nil, fmt.Errorf("mapping project entry: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// ProjectBySlug returns the project with the given slug, or nil when no entry
// matches.
func (c *HTTPClient) ProjectBySlug(ctx context.Context, slug string) (*Project, error) {
	resp, err := c.entries(ctx, url.Values{
		"content_type": {ContentTypeProject},
		"fields.slug":  {slug},
		"limit":        {"1"},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	project, err := mapProject(resp.Items[0], resp.assetURLs())
	if err != nil {
		return nil, fmt.Errorf("mapping project entry: %w", err)
	}
	return &project, nil
}

// Ready checks that the configured space is reachable with the configured
// token. Used by the readiness endpoint.
func (c *HTTPClient) Ready(ctx context.Context) error {
	u := fmt.Sprintf("%s/spaces/%s", c.baseURL, url.PathEscape(c.spaceID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCMSUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: space not reachable (status %d)", ErrCMSUnreachable, resp.StatusCode)
	}
	return nil
}

// entries performs a Delivery API entries query.
func (c *HTTPClient) entries(ctx context.Context, params url.Values) (*entriesResponse, error) {
	u := fmt.Sprintf("%s/spaces/%s/environments/%s/entries?%s",
		c.baseURL, url.PathEscape(c.spaceID), url.PathEscape(c.environment), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCMSError, resp.StatusCode)
	}

	var entriesResp entriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&entriesResp); err != nil {
		return nil, fmt.Errorf("decoding cms response: %w", err)
	}
	return &entriesResp, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrCMSTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrCMSTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrCMSUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrCMSUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
