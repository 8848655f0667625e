package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/processor"
	"github.com/roach88/sql2rest/internal/renderhttp"
	"github.com/roach88/sql2rest/internal/renderjs"
	"github.com/roach88/sql2rest/internal/sqlerr"
	"github.com/roach88/sql2rest/internal/store"
)

// translator runs the processor and both renderers with one set of
// settings. translate and history --replay share it so replays see
// exactly what a fresh translate would produce.
type translator struct {
	proc   *processor.Processor
	cfg    Config
	logger *slog.Logger
}

func newTranslator(cfg Config, logger *slog.Logger) *translator {
	return &translator{
		proc:   processor.New(processor.WithLogger(logger)),
		cfg:    cfg,
		logger: logger,
	}
}

// translation is the outcome of one run. Err is the processing error;
// when it is set, nothing was rendered.
type translation struct {
	SQL     string
	Stmt    ir.Statement
	Err     error
	Request *renderhttp.Request
	HTTPErr error
	JS      *renderjs.Query
	JSErr   error
}

func (t *translator) translate(ctx context.Context, sql string) translation {
	tr := translation{SQL: sql}

	tr.Stmt, tr.Err = t.proc.ProcessSQL(ctx, sql)
	if tr.Err != nil {
		t.logger.Debug("processing failed", "code", sqlerr.CodeOf(tr.Err), "error", tr.Err)
		return tr
	}

	tr.Request, tr.HTTPErr = renderhttp.Render(tr.Stmt)
	tr.JS, tr.JSErr = renderjs.Render(tr.Stmt,
		renderjs.WithClient(t.cfg.Client),
		renderjs.WithPrintWidth(t.cfg.PrintWidth),
	)
	t.logger.Debug("translated",
		"http_error", tr.HTTPErr,
		"js_error", tr.JSErr,
	)
	return tr
}

// fill copies the outcome into a log record.
func (tr translation) fill(rec *store.Translation) error {
	if tr.Err != nil {
		rec.SetError(tr.Err)
		return nil
	}
	if err := rec.SetStatement(tr.Stmt); err != nil {
		return err
	}
	if tr.Request != nil {
		rec.HTTPPath = tr.Request.FullPath()
	}
	if tr.JS != nil {
		rec.JSCode = tr.JS.Code
	}
	rec.SetError(tr.HTTPErr)
	rec.SetError(tr.JSErr)
	return nil
}

// record logs the translation to the store at path and returns its id.
func (tr translation) record(ctx context.Context, path string, now time.Time) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", fmt.Errorf("open log: %w", err)
	}
	defer st.Close()

	rec, err := store.NewTranslation(tr.SQL, now)
	if err != nil {
		return "", err
	}
	if err := tr.fill(&rec); err != nil {
		return "", err
	}
	if err := st.WriteTranslation(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// replayFunc adapts the translator for store.Replay. Context errors abort
// the replay; every other failure is an outcome to compare.
func (t *translator) replayFunc() store.TranslateFunc {
	return func(ctx context.Context, sql string) (store.Translation, error) {
		tr := t.translate(ctx, sql)
		if errors.Is(tr.Err, context.Canceled) || errors.Is(tr.Err, context.DeadlineExceeded) {
			return store.Translation{}, tr.Err
		}
		var rec store.Translation
		if err := tr.fill(&rec); err != nil {
			return store.Translation{}, err
		}
		return rec, nil
	}
}

// cliError converts a translation error for JSON output.
func cliError(err error) CLIError {
	e := CLIError{
		Code:    string(sqlerr.CodeOf(err)),
		Message: err.Error(),
	}

	details := map[string]any{}
	if hint := sqlerr.HintOf(err); hint != "" {
		details["hint"] = hint
	}
	var pe *sqlerr.ParsingError
	if errors.As(err, &pe) && pe.Position > 0 {
		details["position"] = pe.Position
	}
	var re *sqlerr.RenderError
	if errors.As(err, &re) {
		details["renderer"] = string(re.Renderer)
	}
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// writeTable renders rows as a borderless text table.
func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}
