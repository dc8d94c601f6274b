package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// registryBody builds an npms-style response with the given metadata object.
func registryBody(metadata map[string]any) string {
	body, _ := json.Marshal(map[string]any{
		"collected": map[string]any{"metadata": metadata},
	})
	return string(body)
}

func TestFetch_Normalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, registryBody(map[string]any{
			"name":        "express",
			"version":     "4.18.2",
			"description": "Fast web framework",
			"keywords":    []string{"web", "framework"},
			"author":      map[string]any{"name": "TJ Holowaychuk"},
			"license":     "MIT",
			"links": map[string]any{
				"homepage":   "http://expressjs.com/",
				"repository": "https://github.com/expressjs/express",
			},
			"dependencies":    map[string]string{"accepts": "~1.3.8"},
			"devDependencies": map[string]string{"mocha": "10.2.0"},
			"readme":          "# Express\n\nFast web framework.",
		}))
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())
	doc, err := client.Fetch(context.Background(), "express")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	want := &docs.Documentation{
		Name:            "express",
		Version:         "4.18.2",
		Description:     "Fast web framework",
		Homepage:        "http://expressjs.com/",
		Repository:      "https://github.com/expressjs/express",
		Author:          "TJ Holowaychuk",
		License:         "MIT",
		Keywords:        []string{"web", "framework"},
		Dependencies:    map[string]string{"accepts": "~1.3.8"},
		DevDependencies: map[string]string{"mocha": "10.2.0"},
		ReadmeContent:   "# Express\n\nFast web framework.",
		Readme:          readmeMarker,
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Fetch() = %+v, want %+v", doc, want)
	}
}

func TestFetch_Defaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, registryBody(map[string]any{"name": "bare-package"}))
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())
	doc, err := client.Fetch(context.Background(), "bare-package")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if doc.Version != docs.VersionUnknown {
		t.Errorf("Version = %q, want %q", doc.Version, docs.VersionUnknown)
	}
	if doc.Description != "" {
		t.Errorf("Description = %q, want empty", doc.Description)
	}
	if doc.Readme != "" || doc.ReadmeContent != "" {
		t.Error("readme fields should be empty when upstream has no readme")
	}
	if doc.HasReadme() {
		t.Error("HasReadme() = true without readme content")
	}
}

func TestFetch_RequestShape(t *testing.T) {
	var gotPath, gotAccept, gotUA string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		io.WriteString(w, registryBody(map[string]any{"name": "@types/node"}))
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())
	if _, err := client.Fetch(context.Background(), "@types/node"); err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	// The scope slash must be escaped so the name stays one path segment.
	if want := "/package/@types%2Fnode"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
	if !strings.HasPrefix(gotUA, "pkgdocs/") {
		t.Errorf("User-Agent = %q, want pkgdocs/... prefix", gotUA)
	}
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())
	_, err := client.Fetch(context.Background(), "left-pad-xyz-missing")
	if err == nil {
		t.Fatal("Fetch() should fail for 404")
	}
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodePackageNotFound {
		t.Errorf("error code = %v, want %v", pkgerrors.GetCode(err), pkgerrors.ErrCodePackageNotFound)
	}
}

func TestFetch_MissingMetadataIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"no metadata", `{"collected": {}}`},
		{"empty metadata", registryBody(map[string]any{})},
		{"metadata without name", registryBody(map[string]any{"version": "1.0.0"})},
		{"unparsable body", `{"collected": [1,2,3]}`},
		{"not json", `<html>mirror outage</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL, testLogger())
			_, err := client.Fetch(context.Background(), "oddball")
			if pkgerrors.GetCode(err) != pkgerrors.ErrCodePackageNotFound {
				t.Errorf("error code = %v, want %v (err=%v)",
					pkgerrors.GetCode(err), pkgerrors.ErrCodePackageNotFound, err)
			}
		})
	}
}

func TestFetch_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())
	_, err := client.Fetch(context.Background(), "express")
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeNetwork {
		t.Errorf("error code = %v, want %v", pkgerrors.GetCode(err), pkgerrors.ErrCodeNetwork)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %v should carry the upstream status", err)
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewClient(server.URL, testLogger())
	_, err := client.Fetch(context.Background(), "express")
	if err == nil {
		t.Fatal("Fetch() should fail when upstream is unreachable")
	}
	if code := pkgerrors.GetCode(err); code != pkgerrors.ErrCodeNetwork && code != pkgerrors.ErrCodeTimeout {
		t.Errorf("error code = %v, want a network-class code", code)
	}
}

func TestFetch_LooseFieldForms(t *testing.T) {
	tests := []struct {
		name        string
		author      any
		license     any
		wantAuthor  string
		wantLicense string
	}{
		{"strings", "Jane Doe", "ISC", "Jane Doe", "ISC"},
		{"objects", map[string]any{"name": "Jane Doe"}, map[string]any{"type": "ISC"}, "Jane Doe", "ISC"},
		{"unusable", 42, []string{"MIT"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, registryBody(map[string]any{
					"name":    "loose",
					"author":  tt.author,
					"license": tt.license,
				}))
			}))
			defer server.Close()

			client := NewClient(server.URL, testLogger())
			doc, err := client.Fetch(context.Background(), "loose")
			if err != nil {
				t.Fatalf("Fetch() failed: %v", err)
			}
			if doc.Author != tt.wantAuthor {
				t.Errorf("Author = %q, want %q", doc.Author, tt.wantAuthor)
			}
			if doc.License != tt.wantLicense {
				t.Errorf("License = %q, want %q", doc.License, tt.wantLicense)
			}
		})
	}
}
