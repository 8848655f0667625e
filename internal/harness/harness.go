package harness

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/sql2rest/internal/processor"
	"github.com/roach88/sql2rest/internal/renderhttp"
	"github.com/roach88/sql2rest/internal/renderjs"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

// Result is the outcome of running a suite.
type Result struct {
	// Suite is the suite name.
	Suite string `json:"suite"`

	// Pass is true when every case passed.
	Pass bool `json:"pass"`

	// Cases holds one entry per case, in suite order.
	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case, with the output actually
// produced so failures can be diffed and suites updated.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	HTTP      string `json:"http,omitempty"`
	JS        string `json:"js,omitempty"`
	Error     string `json:"error,omitempty"`
	HTTPError string `json:"http_error,omitempty"`
	JSError   string `json:"js_error,omitempty"`

	// Message is the text of the first error raised, if any.
	Message string `json:"message,omitempty"`
}

func (c *CaseResult) addError(err error) {
	c.Errors = append(c.Errors, err.Error())
	c.Pass = false
}

// Failed returns the cases that did not pass.
func (r *Result) Failed() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// Harness runs suites through the processor and both renderers.
type Harness struct {
	processor *processor.Processor
	jsOptions []renderjs.Option
	logger    *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithJSOptions sets the options passed to the supabase-js renderer.
func WithJSOptions(opts ...renderjs.Option) Option {
	return func(h *Harness) {
		h.jsOptions = opts
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.processor = processor.New(processor.WithLogger(h.logger))
	return h
}

// Run executes a suite with default options.
func Run(ctx context.Context, suite *Suite) *Result {
	return New().Run(ctx, suite)
}

// Run executes every case in the suite. A failing case does not stop
// the run; a cancelled context fails the remaining cases.
func (h *Harness) Run(ctx context.Context, suite *Suite) *Result {
	result := &Result{
		Suite: suite.Name,
		Pass:  true,
		Cases: make([]CaseResult, 0, len(suite.Cases)),
	}

	for _, c := range suite.Cases {
		cr := h.runCase(ctx, c)
		if !cr.Pass {
			result.Pass = false
		}
		h.logger.Debug("case finished",
			"suite", suite.Name,
			"case", c.Name,
			"pass", cr.Pass,
		)
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func (h *Harness) runCase(ctx context.Context, c Case) CaseResult {
	cr := CaseResult{Name: c.Name, Pass: true}

	stmt, err := h.processor.ProcessSQL(ctx, c.SQL)
	if err != nil {
		cr.Error = sqlerr.Kind(err)
		cr.Message = err.Error()
	}
	if c.Error != "" || err != nil {
		if aerr := assertErrorKind("error", c.Error, err); aerr != nil {
			cr.addError(aerr)
		}
		return cr
	}

	req, err := renderhttp.Render(stmt)
	if err != nil {
		cr.HTTPError = sqlerr.Kind(err)
		cr.Message = err.Error()
		if aerr := assertErrorKind("http_error", c.HTTPError, err); aerr != nil {
			cr.addError(aerr)
		}
	} else {
		cr.HTTP = req.FullPath()
		if aerr := assertOutput("http", c.HTTP, c.HTTPError, cr.HTTP); aerr != nil {
			cr.addError(aerr)
		}
	}

	q, err := renderjs.Render(stmt, h.jsOptions...)
	if err != nil {
		cr.JSError = sqlerr.Kind(err)
		if cr.Message == "" {
			cr.Message = err.Error()
		}
		if aerr := assertErrorKind("js_error", c.JSError, err); aerr != nil {
			cr.addError(aerr)
		}
	} else {
		cr.JS = q.Code
		if aerr := assertOutput("js", c.JS, c.JSError, cr.JS); aerr != nil {
			cr.addError(aerr)
		}
	}

	return cr
}

// Update copies the output recorded in result into the suite's
// expectations. Cases are matched by name; cases absent from the result
// and cases that failed outside the error taxonomy are left alone. It
// reports whether anything changed.
func Update(suite *Suite, result *Result) bool {
	byName := make(map[string]CaseResult, len(result.Cases))
	for _, cr := range result.Cases {
		byName[cr.Name] = cr
	}

	changed := false
	for i := range suite.Cases {
		cr, ok := byName[suite.Cases[i].Name]
		if !ok || cr.Error == sqlerr.KindOther {
			continue
		}
		updated := suite.Cases[i]
		updated.Error = cr.Error
		updated.HTTP = cr.HTTP
		updated.HTTPError = cr.HTTPError
		updated.JS = cr.JS
		updated.JSError = cr.JSError
		if updated != suite.Cases[i] {
			suite.Cases[i] = updated
			changed = true
		}
	}
	return changed
}
