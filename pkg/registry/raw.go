package registry

import "github.com/matzehuels/pkgdocs/pkg/docs"

// readmeMarker is the non-content summary placed in Documentation.Readme
// whenever readme text is present.
const readmeMarker = "README available (see readmeContent)"

// packageResponse is the raw upstream shape of the registry's
// package-lookup endpoint. Fields are optional, nested, and occasionally
// inconsistent across real responses, so everything is modeled loosely
// and mapped through normalize before leaving this package.
type packageResponse struct {
	Collected struct {
		Metadata *rawMetadata `json:"metadata"`
	} `json:"collected"`
}

type rawMetadata struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Keywords        []string          `json:"keywords"`
	Author          any               `json:"author"`
	License         any               `json:"license"`
	Links           rawLinks          `json:"links"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Readme          string            `json:"readme"`
}

type rawLinks struct {
	Homepage   string `json:"homepage"`
	Repository string `json:"repository"`
}

// normalize maps the raw upstream shape into a Documentation record.
// It is total over well-formed metadata: every optional field defaults
// rather than erroring. Returns ok=false when the response carries no
// usable metadata, which callers treat the same as a 404.
func normalize(raw *packageResponse) (*docs.Documentation, bool) {
	meta := raw.Collected.Metadata
	if meta == nil || meta.Name == "" {
		return nil, false
	}

	doc := &docs.Documentation{
		Name:            meta.Name,
		Version:         meta.Version,
		Description:     meta.Description,
		Homepage:        meta.Links.Homepage,
		Repository:      meta.Links.Repository,
		Author:          extractField(meta.Author, "name"),
		License:         extractField(meta.License, "type"),
		Keywords:        meta.Keywords,
		Dependencies:    meta.Dependencies,
		DevDependencies: meta.DevDependencies,
	}

	if doc.Version == "" {
		doc.Version = docs.VersionUnknown
	}
	if meta.Readme != "" {
		doc.ReadmeContent = meta.Readme
		doc.Readme = readmeMarker
	}

	return doc, true
}

// extractField reads a string either directly or from a field of a loosely
// typed object. Registries serve fields like author and license both as
// plain strings and as objects.
func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}
