package renderhttp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/sql2rest/internal/sqlerr"
)

// DefaultBaseURL is the REST endpoint of a local Supabase stack.
const DefaultBaseURL = "http://localhost:54321/rest/v1"

func parseBaseURL(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, sqlerr.NewRenderError(sqlerr.RendererHTTP, "invalid base URL %q", baseURL)
	}
	return u, nil
}

// URL joins the base URL and the request's full path.
func URL(baseURL string, req *Request) (string, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(u.Scheme+"://"+u.Host+u.Path, "/") + req.FullPath(), nil
}

// FormatHTTP renders the request as raw HTTP/1.1 text:
//
//	GET /rest/v1/books?select=title HTTP/1.1
//	Host: localhost:54321
func FormatHTTP(baseURL string, req *Request) (string, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return "", err
	}
	path := strings.TrimSuffix(u.Path, "/") + req.FullPath()
	return fmt.Sprintf("%s %s HTTP/1.1\nHost: %s", req.Method, path, u.Host), nil
}

// FormatCurl renders the request as a curl command, one parameter per
// line. Parameters are single-quoted; escaping leaves no quote or shell
// metacharacter other than "!" in them, which is inert in single quotes.
func FormatCurl(baseURL string, req *Request) (string, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimSuffix(u.Scheme+"://"+u.Host+u.Path, "/") + req.Path

	if len(req.Params) == 0 {
		return "curl " + endpoint, nil
	}

	lines := []string{"curl -G " + endpoint}
	for _, p := range req.Params {
		lines = append(lines, fmt.Sprintf("  -d '%s=%s'", escape(p.Key), escape(p.Value)))
	}
	return strings.Join(lines, " \\\n"), nil
}
