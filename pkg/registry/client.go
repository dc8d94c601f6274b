package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgdocs/pkg/buildinfo"
	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
	"github.com/matzehuels/pkgdocs/pkg/observability"
)

// httpTimeout bounds the single registry request.
const httpTimeout = 15 * time.Second

// DefaultBaseURL is the npms.io API used when no override is configured.
const DefaultBaseURL = "https://api.npms.io/v2"

// Client is the sole network boundary of the service: one bounded-timeout
// GET against the registry's package-lookup endpoint per Fetch call.
// There are no retries; the orchestrator surfaces the first outcome.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *log.Logger
}

// NewClient creates a registry client for the given base URL.
// An empty baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Fetch retrieves and normalizes the documentation for a package.
//
// Outcomes map onto the error taxonomy:
//   - HTTP 404, or a 200 whose metadata is missing or malformed,
//     yields PACKAGE_NOT_FOUND
//   - any other non-success status yields NETWORK_ERROR with the status
//   - a transport failure yields NETWORK_ERROR (or TIMEOUT) with the cause
func (c *Client) Fetch(ctx context.Context, name string) (*docs.Documentation, error) {
	endpoint := c.baseURL + "/package/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "failed to build registry request for %s", name)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		if isTimeout(err) {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeTimeout, err, "registry request for %s timed out", name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, err, "failed to reach registry for %s", name)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.ErrCodePackageNotFound, "package %s not found in registry", name)
	default:
		return nil, pkgerrors.New(pkgerrors.ErrCodeNetwork, "registry returned status %d for %s", resp.StatusCode, name)
	}

	var raw packageResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		// The registry occasionally serves a 200 with an unusable body;
		// treat it the same as an unknown package.
		c.logger.Debug("unparsable registry response", "package", name, "err", err)
		return nil, pkgerrors.New(pkgerrors.ErrCodePackageNotFound, "no documentation found for package %s", name)
	}

	doc, ok := normalize(&raw)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ErrCodePackageNotFound, "no documentation found for package %s", name)
	}
	return doc, nil
}

func isTimeout(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}
