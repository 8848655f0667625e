package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/renderhttp"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

// ValidTargets are the values accepted by translate --to.
var ValidTargets = []string{"http", "curl", "raw", "js", "ir", "all"}

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	File       string
	To         string
	BaseURL    string
	Client     string
	PrintWidth int
	Log        string
}

// TranslateResult is the JSON payload of the translate command. Fields
// for renderings that were not requested, or that failed, are omitted.
type TranslateResult struct {
	SQL         string          `json:"sql"`
	LogID       string          `json:"log_id,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	IR          json.RawMessage `json:"ir,omitempty"`
	HTTP        *HTTPResult     `json:"http,omitempty"`
	JS          string          `json:"js,omitempty"`
	Errors      []CLIError      `json:"errors,omitempty"`
}

// HTTPResult is the HTTP rendering in every requested form.
type HTTPResult struct {
	*renderhttp.Request
	FullPath string `json:"full_path"`
	URL      string `json:"url,omitempty"`
	Curl     string `json:"curl,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate [sql]",
		Short: "Translate a SQL SELECT statement",
		Long: `Translate a SQL SELECT statement to a PostgREST request and supabase-js code.

The statement is taken from the arguments, from --file, or from stdin.

Targets (--to):
  http  request path and query string
  curl  curl command against --base-url
  raw   raw HTTP/1.1 request text
  js    supabase-js query builder chain
  ir    canonical JSON of the intermediate representation
  all   every target above (default)

Exit codes:
  0 - Translation succeeded
  1 - The statement could not be translated
  2 - Command error (unreadable input, bad flags, etc.)

Examples:
  sql2rest translate "select title from books where id = 1"
  sql2rest translate -f query.sql --to js --client db
  echo "select * from books limit 5" | sql2rest translate --to curl
  sql2rest translate --log ./sql2rest.db --format json "select * from books"`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, cmd, args)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", `read SQL from a file ("-" for stdin)`)
	cmd.Flags().StringVar(&opts.To, "to", "all", "output target (http|curl|raw|js|ir|all)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "PostgREST base URL for curl and raw output")
	cmd.Flags().StringVar(&opts.Client, "client", "", "supabase-js client identifier")
	cmd.Flags().IntVar(&opts.PrintWidth, "print-width", 0, "supabase-js line width")
	cmd.Flags().StringVar(&opts.Log, "log", "", "append the translation to this SQLite log")

	return cmd
}

// settings applies flag overrides to the loaded config.
func (o *TranslateOptions) settings() Config {
	cfg := o.config()
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.Client != "" {
		cfg.Client = o.Client
	}
	if o.PrintWidth > 0 {
		cfg.PrintWidth = o.PrintWidth
	}
	if o.Log != "" {
		cfg.Log = o.Log
	}
	return cfg
}

func runTranslate(opts *TranslateOptions, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := opts.logger()

	if !isValidTarget(opts.To) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid target %q: must be one of %v", opts.To, ValidTargets))
	}

	sql, err := readSQL(cmd.InOrStdin(), args, opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read SQL", err)
	}

	cfg := opts.settings()
	tr := newTranslator(cfg, logger).translate(ctx, sql)

	result, errs := buildTranslateResult(tr, cfg, opts.To)

	if cfg.Log != "" {
		id, err := tr.record(ctx, cfg.Log, time.Now())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to log translation", err)
		}
		result.LogID = id
		logger.Debug("translation logged", "id", id, "log", cfg.Log)
	}

	if opts.Format == "json" {
		return outputTranslateJSON(opts.formatter(cmd), result, errs)
	}

	outputTranslateText(cmd.OutOrStdout(), result, errs, opts.To)
	if len(errs) > 0 {
		return reportedError(ExitFailure, "translation failed", errs[0])
	}
	return nil
}

// buildTranslateResult collects the requested renderings. Errors are
// returned in the order processing, http, js.
func buildTranslateResult(tr translation, cfg Config, target string) (TranslateResult, []error) {
	result := TranslateResult{SQL: tr.SQL}
	var errs []error

	if tr.Err != nil {
		errs = append(errs, tr.Err)
		result.Errors = append(result.Errors, cliError(tr.Err))
		return result, errs
	}

	fail := func(err error) {
		errs = append(errs, err)
		result.Errors = append(result.Errors, cliError(err))
	}

	if fp, err := ir.Fingerprint(tr.Stmt); err == nil {
		result.Fingerprint = fp
	} else {
		fail(err)
	}

	if wants(target, "ir") {
		data, err := ir.MarshalCanonical(tr.Stmt)
		if err != nil {
			fail(err)
		} else {
			result.IR = data
		}
	}

	if wants(target, "http") || wants(target, "curl") || wants(target, "raw") {
		if tr.HTTPErr != nil {
			fail(tr.HTTPErr)
		} else {
			result.HTTP = httpResult(tr.Request, cfg.BaseURL, target, fail)
		}
	}

	if wants(target, "js") {
		if tr.JSErr != nil {
			fail(tr.JSErr)
		} else {
			result.JS = tr.JS.Code
		}
	}

	return result, errs
}

func httpResult(req *renderhttp.Request, baseURL, target string, fail func(error)) *HTTPResult {
	out := &HTTPResult{Request: req, FullPath: req.FullPath()}
	if !wants(target, "curl") && !wants(target, "raw") {
		return out
	}

	u, err := renderhttp.URL(baseURL, req)
	if err != nil {
		// All three formatters reject the same base URLs.
		fail(err)
		return out
	}
	out.URL = u

	if wants(target, "curl") {
		out.Curl, _ = renderhttp.FormatCurl(baseURL, req)
	}
	if wants(target, "raw") {
		out.Raw, _ = renderhttp.FormatHTTP(baseURL, req)
	}
	return out
}

func wants(target, name string) bool {
	return target == "all" || target == name
}

func isValidTarget(target string) bool {
	for _, t := range ValidTargets {
		if t == target {
			return true
		}
	}
	return false
}

// readSQL takes the statement from args, a file, or stdin, in that order.
func readSQL(stdin io.Reader, args []string, file string) (string, error) {
	var sql string
	switch {
	case len(args) > 0 && file != "":
		return "", fmt.Errorf("give SQL as an argument or with --file, not both")
	case len(args) > 0:
		sql = strings.Join(args, " ")
	case file == "" || file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		sql = string(data)
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		sql = string(data)
	}

	sql = strings.TrimSpace(sql)
	if sql == "" {
		return "", fmt.Errorf("no SQL given")
	}
	return sql, nil
}

// outputTranslateJSON outputs the result as a CLIResponse. A failed
// translation still carries the renderings that succeeded.
func outputTranslateJSON(f *OutputFormatter, result TranslateResult, errs []error) error {
	if len(errs) == 0 {
		return f.Success(result)
	}
	return f.Failure(result, result.Errors[0], errs[0])
}

// outputTranslateText prints a single target bare, or every target under
// a heading for --to all.
func outputTranslateText(w io.Writer, result TranslateResult, errs []error, target string) {
	sections := translateSections(result)

	if target != "all" {
		if body, ok := sections[target]; ok {
			fmt.Fprintln(w, body)
		}
	} else {
		first := true
		for _, name := range []string{"http", "curl", "raw", "js", "ir"} {
			body, ok := sections[name]
			if !ok {
				continue
			}
			if !first {
				fmt.Fprintln(w)
			}
			first = false
			fmt.Fprintf(w, "# %s\n%s\n", name, body)
			if name == "http" && len(result.HTTP.Params) > 0 {
				fmt.Fprintln(w)
				rows := make([][]string, 0, len(result.HTTP.Params))
				for _, p := range result.HTTP.Params {
					rows = append(rows, []string{p.Key, p.Value})
				}
				writeTable(w, []string{"Param", "Value"}, rows)
			}
		}
	}

	for _, err := range errs {
		fmt.Fprintf(w, "Error [%s]: %s\n", sqlerr.CodeOf(err), err)
		if hint := sqlerr.HintOf(err); hint != "" {
			fmt.Fprintf(w, "Hint: %s\n", hint)
		}
	}
}

func translateSections(result TranslateResult) map[string]string {
	sections := map[string]string{}
	if result.HTTP != nil {
		sections["http"] = result.HTTP.FullPath
		if result.HTTP.Curl != "" {
			sections["curl"] = result.HTTP.Curl
		}
		if result.HTTP.Raw != "" {
			sections["raw"] = result.HTTP.Raw
		}
	}
	if result.JS != "" {
		sections["js"] = result.JS
	}
	if len(result.IR) > 0 {
		sections["ir"] = string(result.IR)
	}
	return sections
}
