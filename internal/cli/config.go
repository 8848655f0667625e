package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sql2rest/internal/renderhttp"
	"github.com/roach88/sql2rest/internal/renderjs"
)

// DefaultConfigFile is read from the working directory when --config is
// not given.
const DefaultConfigFile = "sql2rest.cue"

// configSchema constrains config files. #Config is closed, so unknown
// fields are rejected with their position.
const configSchema = `
#Config: {
	base_url?:    string & =~"^https?://"
	client?:      string & =~"^[A-Za-z_$][A-Za-z0-9_$.]*$"
	print_width?: int & >=20 & <=200
	log?:         string & !=""
}
`

// Config holds the settings a config file may provide. Flags given on the
// command line take precedence over it.
type Config struct {
	BaseURL    string `json:"base_url"`
	Client     string `json:"client"`
	PrintWidth int    `json:"print_width"`
	Log        string `json:"log"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		BaseURL:    renderhttp.DefaultBaseURL,
		Client:     renderjs.DefaultClient,
		PrintWidth: renderjs.DefaultPrintWidth,
	}
}

// LoadError is a config file error, positioned when CUE reports one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants shared by the CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeConfigSyntax  = "E004" // Config file does not parse
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeConfigInvalid = "E006" // Config file violates the schema
	ErrCodeInput         = "E007" // SQL input could not be read
	ErrCodeCheckFailed   = "E_CHECK_FAILED"
	ErrCodeDrift         = "E_DRIFT"
)

// LoadConfig reads a CUE config file and merges it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if err != nil {
		return cfg, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading config file: %v", err)}
	}

	return parseConfig(cfg, path, data)
}

func parseConfig(cfg Config, filename string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return cfg, fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return cfg, toLoadError(ErrCodeConfigSyntax, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cfg, toLoadError(ErrCodeConfigInvalid, err)
	}

	var file Config
	if err := unified.Decode(&file); err != nil {
		return cfg, toLoadError(ErrCodeConfigInvalid, err)
	}

	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.Client != "" {
		cfg.Client = file.Client
	}
	if file.PrintWidth != 0 {
		cfg.PrintWidth = file.PrintWidth
	}
	if file.Log != "" {
		cfg.Log = file.Log
	}
	return cfg, nil
}

// toLoadError keeps the first CUE error and its position.
func toLoadError(code string, err error) *LoadError {
	var cueErr cueerrors.Error
	if errors.As(err, &cueErr) {
		list := cueerrors.Errors(cueErr)
		if len(list) > 0 {
			first := list[0]
			format, args := first.Msg()
			return &LoadError{
				Code:    code,
				Message: fmt.Sprintf(format, args...),
				Pos:     first.Position(),
			}
		}
	}
	return &LoadError{Code: code, Message: err.Error()}
}

// resolveConfig loads the explicit config path, or the default file if it
// exists in the working directory.
func resolveConfig(path string) (Config, error) {
	if path != "" {
		return LoadConfig(path)
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return LoadConfig(DefaultConfigFile)
	}
	return DefaultConfig(), nil
}
