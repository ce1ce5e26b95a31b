// mapping.go converts raw Contentful Delivery API entries into the Person and
// Project shapes served by the proxy. Asset links are resolved against the
// response's includes block.
package cms

import (
	"encoding/json"
	"fmt"
)

// entriesResponse is the Delivery API entries envelope. Linked assets appear
// under includes.Asset rather than inline in the entry fields.
type entriesResponse struct {
	Items    []entry `json:"items"`
	Includes struct {
		Asset []asset `json:"Asset"`
	} `json:"includes"`
}

type entry struct {
	Sys struct {
		ID string `json:"id"`
	} `json:"sys"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type asset struct {
	Sys struct {
		ID string `json:"id"`
	} `json:"sys"`
	Fields struct {
		File struct {
			URL string `json:"url"`
		} `json:"file"`
	} `json:"fields"`
}

// assetLink is the shape of an entry field referencing an asset.
type assetLink struct {
	Sys struct {
		ID string `json:"id"`
	} `json:"sys"`
}

// assetURLs indexes included assets by sys.id. Contentful serves asset URLs
// protocol-relative (//images.ctfassets.net/...); normalized to https here.
func (r *entriesResponse) assetURLs() map[string]string {
	urls := make(map[string]string, len(r.Includes.Asset))
	for _, a := range r.Includes.Asset {
		u := a.Fields.File.URL
		if len(u) >= 2 && u[0] == '/' && u[1] == '/' {
			u = "https:" + u
		}
		urls[a.Sys.ID] = u
	}
	return urls
}

func mapPerson(e entry, assets map[string]string) (Person, error) {
	var p Person
	if err := fieldString(e, "name", &p.Name); err != nil {
		return Person{}, err
	}
	if err := fieldString(e, "slug", &p.Slug); err != nil {
		return Person{}, err
	}
	fieldStringOptional(e, "occupation", &p.Occupation)
	fieldStringOptional(e, "location", &p.Location)
	fieldStringOptional(e, "pronouns", &p.Pronouns)

	p.Skills = fieldStringSlice(e, "skills")

	if raw, ok := e.Fields["links"]; ok {
		if err := json.Unmarshal(raw, &p.Links); err != nil {
			return Person{}, fmt.Errorf("entry %s: links: %w", e.Sys.ID, err)
		}
	}
	if p.Links == nil {
		p.Links = []Link{}
	}

	p.Introduction = e.Fields["introduction"]
	p.PictureURL = resolveAsset(e, "picture", assets)

	return p, nil
}

func mapProject(e entry, assets map[string]string) (Project, error) {
	var p Project
	if err := fieldString(e, "title", &p.Title); err != nil {
		return Project{}, err
	}
	if err := fieldString(e, "slug", &p.Slug); err != nil {
		return Project{}, err
	}
	fieldStringOptional(e, "description", &p.Description)

	p.Tags = fieldStringSlice(e, "tags")
	p.GithubRepoURL = fieldStringPtr(e, "githubRepoUrl")
	p.WebsiteURL = fieldStringPtr(e, "websiteUrl")
	p.BetterStackStatusID = fieldStringPtr(e, "betterStackStatusId")
	p.ProjectReadme = e.Fields["projectReadme"]
	p.PictureURL = resolveAsset(e, "picture", assets)

	if raw, ok := e.Fields["isFeatured"]; ok {
		_ = json.Unmarshal(raw, &p.IsFeatured)
	}

	return p, nil
}

// fieldString unmarshals a required string field.
func fieldString(e entry, name string, dst *string) error {
	raw, ok := e.Fields[name]
	if !ok {
		return fmt.Errorf("entry %s: missing field %q", e.Sys.ID, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("entry %s: field %q: %w", e.Sys.ID, name, err)
	}
	return nil
}

// fieldStringOptional unmarshals a string field, leaving dst empty when the
// field is absent or malformed.
func fieldStringOptional(e entry, name string, dst *string) {
	if raw, ok := e.Fields[name]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}

func fieldStringPtr(e entry, name string) *string {
	raw, ok := e.Fields[name]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return nil
	}
	return &s
}

func fieldStringSlice(e entry, name string) []string {
	out := []string{}
	if raw, ok := e.Fields[name]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

// resolveAsset follows an asset link field into the includes block. A missing
// asset resolves to an empty URL rather than an error; a broken picture link
// should not take the whole listing down.
func resolveAsset(e entry, name string, assets map[string]string) string {
	raw, ok := e.Fields[name]
	if !ok {
		return ""
	}
	var link assetLink
	if err := json.Unmarshal(raw, &link); err != nil {
		return ""
	}
	return assets[link.Sys.ID]
}
