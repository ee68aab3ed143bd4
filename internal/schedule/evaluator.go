package schedule

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/whenever-systemd/internal/config"
	"github.com/vk/whenever-systemd/internal/ctxlog"
	ihcl "github.com/vk/whenever-systemd/internal/hcl"
	"github.com/vk/whenever-systemd/internal/project"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

//go:embed setup.hcl
var setupSource []byte

const setupName = "<setup>"

// Config holds everything an evaluation needs besides the script itself.
type Config struct {
	// Presets is a "name=value&other=value" string of preset variables.
	Presets string
	// PresetVars are preset variables applied after Presets, so a name
	// given in both keeps its Presets value.
	PresetVars map[string]string
	// Defaults are script values applied before the setup preamble runs.
	// The runner and bundle commands fall back to those of a project
	// without any detected tooling.
	Defaults map[string]any
	// Roles restricts the jobs a JobList renders. Empty means all jobs.
	Roles []string
	// TempPath is where scripts stage new units and back up old ones.
	TempPath string
	// WorkDir is the default working directory of jobs.
	WorkDir string
}

// Kind is a job kind registered with job_type.
type Kind struct {
	Name     string
	Template string
}

var functions = map[string]function.Function{
	"upper":     stdlib.UpperFunc,
	"lower":     stdlib.LowerFunc,
	"format":    stdlib.FormatFunc,
	"join":      stdlib.JoinFunc,
	"split":     stdlib.SplitFunc,
	"replace":   stdlib.ReplaceFunc,
	"trimspace": stdlib.TrimSpaceFunc,
	"concat":    stdlib.ConcatFunc,
	"merge":     stdlib.MergeFunc,
	"lookup":    stdlib.LookupFunc,
	"coalesce":  stdlib.CoalesceFunc,
	"length":    stdlib.LengthFunc,
	"min":       stdlib.MinFunc,
	"max":       stdlib.MaxFunc,
}

type directiveFunc func(ctx context.Context, blk *hclsyntax.Block) error

type evaluator struct {
	vars       *Variables
	scope      *scope
	kinds      map[string]Kind
	directives map[string]directiveFunc
	list       *JobList
	workDir    string
}

// Evaluate runs the setup preamble and then every file of script, and
// returns the jobs they declare. A nil or empty script yields an empty list.
func Evaluate(ctx context.Context, cfg Config, script *config.Script) (*JobList, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Schedule evaluation started.")

	e, err := newEvaluator(cfg)
	if err != nil {
		return nil, err
	}

	setup, err := ihcl.Parse(setupName, setupSource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse setup preamble: %w", err)
	}
	if err := e.runFile(ctx, setup); err != nil {
		return nil, err
	}
	logger.Debug("Setup preamble evaluated.", "kinds", len(e.kinds))

	if !script.Empty() {
		for _, f := range script.Files {
			if err := e.runFile(ctx, f); err != nil {
				return nil, err
			}
		}
	}

	e.list.prefix = e.vars.String(varPrefix)
	logger.Debug("Schedule evaluation finished.", "jobs", len(e.list.jobs), "prefix", e.list.prefix)
	return e.list, nil
}

func newEvaluator(cfg Config) (*evaluator, error) {
	vars := NewVariables()
	for _, p := range ParsePresets(cfg.Presets) {
		vars.Preset(p.Name, cty.StringVal(p.Value))
	}
	for _, name := range sortedKeys(cfg.PresetVars) {
		vars.Preset(name, cty.StringVal(cfg.PresetVars[name]))
	}
	for _, name := range sortedKeys(cfg.Defaults) {
		v, err := ihcl.FromGo(cfg.Defaults[name])
		if err != nil {
			return nil, &config.ConfigurationError{Err: fmt.Errorf("default %q: %w", name, err)}
		}
		vars.Set(name, v)
	}
	for name, v := range (project.Info{}).Defaults() {
		if _, ok := vars.Lookup(name); !ok {
			vars.Set(name, cty.StringVal(v))
		}
	}

	tempPath := cfg.TempPath
	if tempPath == "" {
		tempPath = filepath.Join(os.TempDir(), "whenever-systemd")
	}

	e := &evaluator{
		vars:    vars,
		scope:   newScope(),
		kinds:   make(map[string]Kind),
		workDir: cfg.WorkDir,
		list: &JobList{
			vars:     vars,
			roles:    append([]string(nil), cfg.Roles...),
			tempPath: tempPath,
		},
	}
	e.directives = e.builtins()
	return e, nil
}

func (e *evaluator) runFile(ctx context.Context, f *config.File) error {
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return &EvaluationError{
			Diags: hcl.Diagnostics{{Severity: hcl.DiagError, Summary: "Unsupported schedule syntax", Detail: f.Name + " is not in HCL native syntax."}},
		}
	}
	ctx = ctxlog.With(ctx, "file", f.Name)
	ctxlog.FromContext(ctx).Debug("Evaluating schedule file.")
	return e.runBody(ctx, body)
}

// statement is a top-level attribute or a block, positioned in its file.
type statement struct {
	pos   int
	attr  *hclsyntax.Attribute
	block *hclsyntax.Block
}

// runBody runs the attributes (as set statements) and blocks of body in
// source order.
func (e *evaluator) runBody(ctx context.Context, body *hclsyntax.Body) error {
	stmts := make([]statement, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		stmts = append(stmts, statement{pos: attr.SrcRange.Start.Byte, attr: attr})
	}
	for _, blk := range body.Blocks {
		stmts = append(stmts, statement{pos: blk.TypeRange.Start.Byte, block: blk})
	}
	sort.Slice(stmts, func(i, j int) bool { return stmts[i].pos < stmts[j].pos })

	for _, st := range stmts {
		var err error
		if st.attr != nil {
			err = e.setAttribute(ctx, st.attr)
		} else {
			err = e.runBlock(ctx, st.block)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// runBlocks runs the blocks of a scheduling block body.
func (e *evaluator) runBlocks(ctx context.Context, blocks hclsyntax.Blocks) error {
	for _, blk := range blocks {
		if err := e.runBlock(ctx, blk); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluator) runBlock(ctx context.Context, blk *hclsyntax.Block) error {
	d, err := e.lookup(blk.Type, blk.TypeRange)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Running directive.", "directive", blk.Type, "labels", blk.Labels, "depth", e.scope.depth())
	return d(ctx, blk)
}

// lookup resolves a directive name: built-ins first, then registered job
// kinds, then variables.
func (e *evaluator) lookup(name string, rng hcl.Range) (directiveFunc, error) {
	if d, ok := e.directives[name]; ok {
		return d, nil
	}
	if k, ok := e.kinds[name]; ok {
		return e.invoke(k), nil
	}
	if _, ok := e.vars.Lookup(name); ok {
		return e.variableReference, nil
	}
	return nil, &UnknownDirectiveError{Name: name, Range: rng}
}

func (e *evaluator) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: e.vars.Values(),
		Functions: functions,
	}
}

func (e *evaluator) value(expr hcl.Expression) (cty.Value, error) {
	v, diags := expr.Value(e.evalContext())
	if diags.HasErrors() {
		return cty.NilVal, diagsError(diags)
	}
	return v, nil
}

// goValue evaluates expr into a plain Go value.
func (e *evaluator) goValue(expr hcl.Expression) (any, error) {
	v, err := e.value(expr)
	if err != nil {
		return nil, err
	}
	gv, err := ihcl.ToGo(v)
	if err != nil {
		return nil, errorAt(expr.Range(), "Invalid value", err)
	}
	return gv, nil
}

// stringValue evaluates expr into a string.
func (e *evaluator) stringValue(expr hcl.Expression) (string, error) {
	v, err := e.value(expr)
	if err != nil {
		return "", err
	}
	s, err := ihcl.ToString(v)
	if err != nil {
		return "", errorAt(expr.Range(), "Invalid value", err)
	}
	return s, nil
}

// sortedAttributes returns the attributes of body in source order.
func sortedAttributes(body *hclsyntax.Body) []*hclsyntax.Attribute {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})
	return attrs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
