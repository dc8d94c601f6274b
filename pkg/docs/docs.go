// Package docs defines the normalized documentation record for a package.
//
// Documentation is the shape shared by the cache store, the fetch layer,
// and the API/CLI shells. It is produced exclusively by the registry
// client's normalization step; partially-populated upstream data never
// leaves that boundary.
package docs

// VersionUnknown is used when the upstream registry omits a version.
const VersionUnknown = "unknown"

// Documentation is the normalized metadata for one package.
//
// Name and Version are always populated on a successfully normalized
// record (Version falls back to VersionUnknown). All other fields are
// optional and may be absent without indicating an error.
type Documentation struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Homepage        string            `json:"homepage,omitempty"`
	Repository      string            `json:"repository,omitempty"`
	Author          string            `json:"author,omitempty"`
	License         string            `json:"license,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`

	// ReadmeContent holds the full readme text when the upstream payload
	// includes one. Readme is a short marker set only alongside content.
	ReadmeContent string `json:"readmeContent,omitempty"`
	Readme        string `json:"readme,omitempty"`
}

// HasReadme reports whether the record carries readme text.
func (d *Documentation) HasReadme() bool {
	return d.ReadmeContent != ""
}
