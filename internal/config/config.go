// Package config loads server configuration.
//
// Values are layered: built-in defaults, then a YAML or CUE file, then
// SHARESERVER_* environment variables. The result is validated against
// the embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/shareserver/internal/session"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHARESERVER_"

// Defaults.
const (
	DefaultListen          = "127.0.0.1:8080"
	DefaultDatabase        = "shareserver.db"
	DefaultBlobDir         = "blobs"
	DefaultBasePath        = "pictures"
	DefaultLogLevel        = "info"
	DefaultMaxRequestBytes = 16 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimitRPS    = 30
	DefaultRateLimitBurst  = 60
)

// Config is the complete server configuration.
type Config struct {
	Listen          string        `yaml:"listen" json:"listen" env:"LISTEN"`
	Database        string        `yaml:"database" json:"database" env:"DATABASE"`
	BlobDir         string        `yaml:"blob_dir" json:"blob_dir" env:"BLOB_DIR"`
	BasePath        string        `yaml:"base_path" json:"base_path" env:"BASE_PATH"`
	LogLevel        string        `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
	MaxRequestBytes int64         `yaml:"max_request_bytes" json:"max_request_bytes" env:"MAX_REQUEST_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" json:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" json:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	Tokens          []Token       `yaml:"tokens" json:"tokens" envPrefix:"TOKENS"`
}

// Token grants a static bearer token to a user. From the environment,
// tokens are given as SHARESERVER_TOKENS_<n>_TOKEN, _USER_ID and _PRIVILEGE.
type Token struct {
	Token     string            `yaml:"token" json:"token" env:"TOKEN"`
	UserID    int64             `yaml:"user_id" json:"user_id" env:"USER_ID"`
	Privilege session.Privilege `yaml:"privilege" json:"privilege" env:"PRIVILEGE"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Listen:          DefaultListen,
		Database:        DefaultDatabase,
		BlobDir:         DefaultBlobDir,
		BasePath:        DefaultBasePath,
		LogLevel:        DefaultLogLevel,
		MaxRequestBytes: DefaultMaxRequestBytes,
		ShutdownTimeout: DefaultShutdownTimeout,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		Tokens:          []Token{},
	}
}

// Load builds the configuration from path (optional) and the process
// environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ reads
// the process environment.
func LoadWithEnv(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		if err := c.decodeCUE(path, data); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	}
	return nil
}

// decodeCUE unifies a CUE config file with the schema and decodes the
// concrete result over c.
func (c *Config) decodeCUE(path string, data []byte) error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}

	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return formatCUEError(err)
	}

	defaults, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}

	// File values win over defaults; unset fields keep their default.
	merged := schema.Unify(file)
	iter, err := ctx.CompileBytes(defaults).Fields()
	if err != nil {
		return fmt.Errorf("iterate defaults: %w", err)
	}
	for iter.Next() {
		sel := cue.MakePath(iter.Selector())
		if !file.LookupPath(sel).Exists() {
			merged = merged.FillPath(sel, iter.Value())
		}
	}

	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	if err := merged.Decode(c); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate checks c against the embedded schema and cross-field rules.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	v := schema.Unify(ctx.CompileBytes(data))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate config: %w", formatCUEError(err))
	}

	if _, err := c.Resolver(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Resolver builds the session resolver for the configured tokens.
func (c *Config) Resolver() (*session.StaticResolver, error) {
	grants := make([]session.Grant, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		grants = append(grants, session.Grant{
			Token:     t.Token,
			UserID:    t.UserID,
			Privilege: t.Privilege,
		})
	}
	return session.NewStaticResolver(grants...)
}

// SlogLevel returns the configured log level. Unknown names map to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}

// ValidationError is a schema violation with its source position.
type ValidationError struct {
	Path    string
	Message string
	Line    int
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Path, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// formatCUEError reduces a CUE error list to its first violation.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	format, args := first.Msg()
	verr := &ValidationError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	for _, pos := range cueerrors.Positions(first) {
		if pos.Filename() != "schema.cue" {
			verr.Line = pos.Line()
			break
		}
	}
	return verr
}
