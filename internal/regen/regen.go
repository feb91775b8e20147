// Package regen keeps a project's generated script directory in step with
// its schema.
package regen

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/fentz26/blockwright/internal/codegen"
	"github.com/fentz26/blockwright/internal/schema"
)

const (
	// OutputDir is the scripts directory relative to the project root.
	OutputDir = "tests"
	// ScriptSuffix is appended to names derived from a suite name.
	ScriptSuffix = ".spec.ts"

	defaultCacheSize = 256
)

// ErrDuplicateFile is returned when two suites map to the same script file.
var ErrDuplicateFile = errors.New("script file already produced by another suite")

var nonWord = regexp.MustCompile(`\W+`)

// FileName derives the script filename for a suite. An explicit File wins
// but only its base name is kept, so the result always lands directly inside
// the output directory.
func FileName(suite schema.TestSuite) string {
	if suite.File != "" {
		base := path.Base(strings.ReplaceAll(suite.File, `\`, "/"))
		if base != "" && base != "." && base != ".." && base != "/" {
			return base
		}
	}
	name := strings.ToLower(strings.TrimSpace(suite.Name))
	return nonWord.ReplaceAllString(name, "_") + ScriptSuffix
}

// Orchestrator renders every suite of a project into OutputDir.
type Orchestrator struct {
	dir    string
	strict bool
	log    *zap.Logger
	cache  *lru.Cache[string, string]
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithStrict makes rendering fail on invalid actions instead of emitting a
// comment for them.
func WithStrict(strict bool) Option {
	return func(o *Orchestrator) { o.strict = strict }
}

// New creates an orchestrator for the project rooted at projectDir.
func New(projectDir string, opts ...Option) *Orchestrator {
	cache, _ := lru.New[string, string](defaultCacheSize)
	o := &Orchestrator{
		dir:   filepath.Join(projectDir, OutputDir),
		log:   zap.NewNop(),
		cache: cache,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Report lists what a regeneration wrote.
type Report struct {
	Written []string          `json:"written"`
	Failed  map[string]string `json:"failed,omitempty"`
	// Invalid lists, per suite, the actions rendered as comments because
	// they failed validation. Only filled in non-strict mode.
	Invalid map[string][]string `json:"invalid,omitempty"`
}

// Regenerate renders and overwrites the script of every suite. A failure on
// one suite does not undo files already written for others; all failures are
// returned joined. Files of suites no longer in meta are left alone.
func (o *Orchestrator) Regenerate(meta schema.ProjectMeta) (*Report, error) {
	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	report := &Report{}
	var errs []error
	owners := make(map[string]string, len(meta.Suites))

	for _, suite := range meta.Suites {
		name := FileName(suite)
		if owner, taken := owners[name]; taken {
			err := fmt.Errorf("suite %q -> %s (owned by %q): %w", suite.Name, name, owner, ErrDuplicateFile)
			errs = append(errs, err)
			report.fail(suite.Name, err)
			continue
		}
		owners[name] = suite.Name

		src, err := o.render(meta.Env, suite)
		if err != nil {
			err = fmt.Errorf("render suite %q: %w", suite.Name, err)
			errs = append(errs, err)
			report.fail(suite.Name, err)
			continue
		}

		target := filepath.Join(o.dir, name)
		if err := os.WriteFile(target, []byte(src), 0644); err != nil {
			err = fmt.Errorf("write %s: %w", target, err)
			errs = append(errs, err)
			report.fail(suite.Name, err)
			continue
		}
		report.Written = append(report.Written, target)
		if problems := codegen.Problems(suite); len(problems) > 0 {
			if report.Invalid == nil {
				report.Invalid = make(map[string][]string)
			}
			report.Invalid[suite.Name] = problems
			o.log.Warn("invalid actions commented out", zap.String("suite", suite.Name), zap.Int("count", len(problems)))
		}
		o.log.Debug("suite regenerated", zap.String("suite", suite.Name), zap.String("file", target))
	}

	o.log.Info("regeneration finished",
		zap.Int("written", len(report.Written)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("invalid", len(report.Invalid)))
	return report, errors.Join(errs...)
}

func (r *Report) fail(suite string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]string)
	}
	r.Failed[suite] = err.Error()
}

// render memoises generator output by a fingerprint of its inputs.
func (o *Orchestrator) render(env schema.Env, suite schema.TestSuite) (string, error) {
	key, err := fingerprint(env, suite, o.strict)
	if err == nil {
		if src, ok := o.cache.Get(key); ok {
			return src, nil
		}
	}

	gen := codegen.New(env)
	gen.Strict = o.strict
	src, renderErr := gen.Render(suite)
	if renderErr != nil {
		return "", renderErr
	}
	if err == nil {
		o.cache.Add(key, src)
	}
	return src, nil
}

func fingerprint(env schema.Env, suite schema.TestSuite, strict bool) (string, error) {
	data, err := json.Marshal(struct {
		BaseURL string           `json:"baseUrl"`
		Timeout int              `json:"timeout"`
		Strict  bool             `json:"strict"`
		Suite   schema.TestSuite `json:"suite"`
	}{env.BaseURL, env.Timeout, strict, suite})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Orphans returns script files in the output directory that no suite in meta
// maps to, sorted by name.
func (o *Orchestrator) Orphans(meta schema.ProjectMeta) ([]string, error) {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	live := make(map[string]bool, len(meta.Suites))
	for _, s := range meta.Suites {
		live[FileName(s)] = true
	}

	var orphans []string
	for _, e := range entries {
		if e.IsDir() || live[e.Name()] || !isScript(e.Name()) {
			continue
		}
		orphans = append(orphans, filepath.Join(o.dir, e.Name()))
	}
	sort.Strings(orphans)
	return orphans, nil
}

// Prune deletes the files Orphans reports and returns them.
func (o *Orchestrator) Prune(meta schema.ProjectMeta) ([]string, error) {
	orphans, err := o.Orphans(meta)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, f := range orphans {
		if err := os.Remove(f); err != nil {
			return removed, fmt.Errorf("remove %s: %w", f, err)
		}
		o.log.Info("pruned orphaned script", zap.String("file", f))
		removed = append(removed, f)
	}
	return removed, nil
}

func isScript(name string) bool {
	for _, ext := range []string{".ts", ".js", ".mjs", ".cjs"} {
		if strings.HasSuffix(name, ".spec"+ext) || strings.HasSuffix(name, ".test"+ext) {
			return true
		}
	}
	return false
}
