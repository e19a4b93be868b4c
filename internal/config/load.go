package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Format is a configuration file syntax.
type Format int

const (
	FormatYAML Format = iota + 1
	FormatCUE
)

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".cue":
		return FormatCUE, true
	}
	return 0, false
}

// fileConfig mirrors the schema. Pointers distinguish omitted fields from
// zero values so a file only overrides what it names.
type fileConfig struct {
	Serial     *string         `yaml:"serial" json:"serial"`
	Seed       *int64          `yaml:"seed" json:"seed"`
	Database   *string         `yaml:"database" json:"database"`
	Timing     *fileTiming     `yaml:"timing" json:"timing"`
	Generation *fileGeneration `yaml:"generation" json:"generation"`
}

type fileTiming struct {
	TickInterval     *string `yaml:"tick_interval" json:"tick_interval"`
	TimeoutTicks     *int    `yaml:"timeout_ticks" json:"timeout_ticks"`
	FlipStaggerTicks *int    `yaml:"flip_stagger_ticks" json:"flip_stagger_ticks"`
	FlipTicks        *int    `yaml:"flip_ticks" json:"flip_ticks"`
}

type fileGeneration struct {
	MaxAttempts *int `yaml:"max_attempts" json:"max_attempts"`
}

// Load reads a YAML or CUE file and returns Default overridden by its
// contents.
func Load(path string) (Config, error) {
	format, ok := FormatFor(path)
	if !ok {
		return Config{}, &Error{Code: ErrCodeUnsupported, Path: path, Message: "config files must be .yaml, .yml or .cue"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}
	return Parse(data, format, path)
}

// Parse decodes a config document. name is used in error messages and CUE
// positions.
func Parse(data []byte, format Format, name string) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var fc fileConfig
	switch format {
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, &Error{Code: ErrCodeParseFailed, Path: name, Message: err.Error()}
		}
		if raw != nil {
			doc := ctx.Encode(raw)
			if err := doc.Err(); err != nil {
				return Config{}, &Error{Code: ErrCodeParseFailed, Path: name, Message: err.Error()}
			}
			if _, err := unifyChecked(def, doc, name, false); err != nil {
				return Config{}, err
			}
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, &Error{Code: ErrCodeParseFailed, Path: name, Message: err.Error()}
		}

	case FormatCUE:
		doc := ctx.CompileBytes(data, cue.Filename(name))
		if err := doc.Err(); err != nil {
			return Config{}, cueError(ErrCodeParseFailed, name, err, true)
		}
		v, err := unifyChecked(def, doc, name, true)
		if err != nil {
			return Config{}, err
		}
		if err := v.Decode(&fc); err != nil {
			return Config{}, cueError(ErrCodeParseFailed, name, err, true)
		}

	default:
		return Config{}, &Error{Code: ErrCodeUnsupported, Path: name, Message: fmt.Sprintf("unknown format %d", format)}
	}

	cfg := Default()
	if err := fc.apply(&cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: name, Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = name
		}
		return Config{}, err
	}
	return cfg, nil
}

func unifyChecked(def, doc cue.Value, name string, positions bool) (cue.Value, error) {
	v := def.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, cueError(ErrCodeSchema, name, err, positions)
	}
	return v, nil
}

// cueError converts the first CUE error into an *Error. Positions are only
// kept when they point into the document itself.
func cueError(code, name string, err error, positions bool) *Error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Path: name, Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	path := first.Path()
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	out := &Error{
		Code:    code,
		Path:    name,
		Field:   strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions {
		for _, pos := range cueerrors.Positions(first) {
			if pos.Filename() == name {
				out.Pos = pos
				break
			}
		}
	}
	return out
}

func (fc fileConfig) apply(cfg *Config) error {
	if fc.Serial != nil {
		cfg.Serial = *fc.Serial
	}
	if fc.Seed != nil {
		cfg.Seed = *fc.Seed
	}
	if fc.Database != nil {
		cfg.Database = *fc.Database
	}
	if t := fc.Timing; t != nil {
		if t.TickInterval != nil {
			d, err := time.ParseDuration(*t.TickInterval)
			if err != nil {
				return fmt.Errorf("timing.tick_interval: %w", err)
			}
			cfg.Timing.TickInterval = d
		}
		if t.TimeoutTicks != nil {
			cfg.Timing.TimeoutTicks = *t.TimeoutTicks
		}
		if t.FlipStaggerTicks != nil {
			cfg.Timing.FlipStaggerTicks = *t.FlipStaggerTicks
		}
		if t.FlipTicks != nil {
			cfg.Timing.FlipTicks = *t.FlipTicks
		}
	}
	if g := fc.Generation; g != nil && g.MaxAttempts != nil {
		cfg.Generation.MaxAttempts = *g.MaxAttempts
	}
	return nil
}
