package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sql2rest/internal/sqlerr"
)

// Suite is a named group of conformance cases loaded from one file.
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description,omitempty"`

	// Cases run in order.
	Cases []Case `yaml:"cases"`

	// Path is the file the suite was loaded from.
	Path string `yaml:"-"`
}

// Case is one SQL statement and its expected translations.
type Case struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`

	// HTTP is the expected request path with query string.
	HTTP string `yaml:"http,omitempty"`

	// JS is the expected supabase-js code.
	JS string `yaml:"js,omitempty"`

	// Error is the error kind expected from processing. When set, the
	// renderers are not run.
	Error string `yaml:"error,omitempty"`

	// HTTPError and JSError are the error kinds expected from each
	// renderer.
	HTTPError string `yaml:"http_error,omitempty"`
	JSError   string `yaml:"js_error,omitempty"`
}

var processingKinds = map[string]bool{
	sqlerr.KindParsing:       true,
	sqlerr.KindUnsupported:   true,
	sqlerr.KindUnimplemented: true,
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	// Strict field validation catches typos like "http_eror:"
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}

	suite.Path = path
	return &suite, nil
}

// LoadSuites loads every .yaml and .yml file in dir, sorted by file name.
func LoadSuites(dir string) ([]*Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	suites := make([]*Suite, 0, len(files))
	for _, f := range files {
		s, err := LoadSuite(f)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// Filter returns a copy of the suite holding only the cases whose name
// matches the glob pattern. An empty pattern matches every case.
func (s *Suite) Filter(pattern string) (*Suite, error) {
	out := *s
	if pattern == "" {
		return &out, nil
	}

	out.Cases = nil
	for _, c := range s.Cases {
		ok, err := path.Match(pattern, c.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
		}
		if ok {
			out.Cases = append(out.Cases, c)
		}
	}
	return &out, nil
}

// Save writes the suite back to its file.
func (s *Suite) Save() error {
	if s.Path == "" {
		return fmt.Errorf("suite %q has no path", s.Name)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode suite: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode suite: %w", err)
	}

	if err := os.WriteFile(s.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write suite file: %w", err)
	}
	return nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.SQL == "" {
			return fmt.Errorf("cases[%d]: sql is required", i)
		}
		if c.Error != "" && !processingKinds[c.Error] {
			return fmt.Errorf("cases[%d]: unknown error kind %q", i, c.Error)
		}
		if c.Error != "" && (c.HTTP != "" || c.JS != "" || c.HTTPError != "" || c.JSError != "") {
			return fmt.Errorf("cases[%d]: error cannot be combined with renderer expectations", i)
		}
		if c.HTTPError != "" && c.HTTPError != sqlerr.KindRender {
			return fmt.Errorf("cases[%d]: http_error must be %q", i, sqlerr.KindRender)
		}
		if c.JSError != "" && c.JSError != sqlerr.KindRender {
			return fmt.Errorf("cases[%d]: js_error must be %q", i, sqlerr.KindRender)
		}
		if c.HTTP != "" && c.HTTPError != "" {
			return fmt.Errorf("cases[%d]: http and http_error are exclusive", i)
		}
		if c.JS != "" && c.JSError != "" {
			return fmt.Errorf("cases[%d]: js and js_error are exclusive", i)
		}
	}

	return nil
}
