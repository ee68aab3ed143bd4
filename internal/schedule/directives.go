package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/mohae/deepcopy"
	"github.com/vk/whenever-systemd/internal/calendar"
	"github.com/vk/whenever-systemd/internal/ctxlog"
	ihcl "github.com/vk/whenever-systemd/internal/hcl"
	"github.com/vk/whenever-systemd/internal/job"
	"github.com/zclconf/go-cty/cty"
)

// Variables with a meaning to the evaluator.
const (
	varPrefix  = "prefix"
	varInstall = "install"
	keyAtAttr  = "at"
)

// builtins returns the built-in directive table.
func (e *evaluator) builtins() map[string]directiveFunc {
	d := map[string]directiveFunc{
		"set":      e.set,
		"env":      e.env,
		"job_type": e.jobType,
		"every":    e.every,
		"at":       e.at,
		"weekly":   e.weekly,
	}
	for _, name := range calendar.Symbolic {
		if _, ok := d[name]; !ok {
			d[name] = e.shorthand(name)
		}
	}
	return d
}

func expectLabels(blk *hclsyntax.Block, lo, hi int, usage string) error {
	if n := len(blk.Labels); n < lo || n > hi {
		return errorfAt(blk.DefRange(), "Invalid %s block", blk.Type).withDetail("Usage: " + usage)
	}
	return nil
}

func noBlocks(blk *hclsyntax.Block) error {
	if len(blk.Body.Blocks) > 0 {
		inner := blk.Body.Blocks[0]
		return errorfAt(inner.DefRange(), "Unexpected %s block inside %s", inner.Type, blk.Type)
	}
	return nil
}

func noAttributes(blk *hclsyntax.Block) error {
	if attrs := sortedAttributes(blk.Body); len(attrs) > 0 {
		return errorfAt(attrs[0].SrcRange, "Unexpected attribute %q inside %s", attrs[0].Name, blk.Type)
	}
	return nil
}

// setAttribute handles a top-level "name = value" statement.
func (e *evaluator) setAttribute(ctx context.Context, attr *hclsyntax.Attribute) error {
	v, err := e.value(attr.Expr)
	if err != nil {
		return err
	}
	if err := e.checkPrefixChange(attr, v); err != nil {
		return err
	}
	if !e.vars.Set(attr.Name, v) {
		ctxlog.FromContext(ctx).Debug("Preset variable kept, script value ignored.", "variable", attr.Name)
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Variable set.", "variable", attr.Name)
	return nil
}

// checkPrefixChange rejects a new prefix once jobs exist. Job names carry
// the prefix of their declaration while the generated scripts match units
// by the final one, so both must agree.
func (e *evaluator) checkPrefixChange(attr *hclsyntax.Attribute, v cty.Value) error {
	if attr.Name != varPrefix || len(e.list.jobs) == 0 || e.vars.IsPreset(varPrefix) {
		return nil
	}
	s, err := ihcl.ToString(v)
	if err != nil {
		return errorAt(attr.Expr.Range(), "Invalid prefix", err)
	}
	if current := e.vars.String(varPrefix); s != current {
		return errorfAt(attr.SrcRange, "The prefix cannot change after jobs are declared").
			withDetail(fmt.Sprintf("Jobs were already declared with prefix %q. Set the prefix before the first job.", current))
	}
	return nil
}

// set { name = value ... }
func (e *evaluator) set(ctx context.Context, blk *hclsyntax.Block) error {
	if err := expectLabels(blk, 0, 0, `set { name = value }`); err != nil {
		return err
	}
	if err := noBlocks(blk); err != nil {
		return err
	}
	for _, attr := range sortedAttributes(blk.Body) {
		if err := e.setAttribute(ctx, attr); err != nil {
			return err
		}
	}
	return nil
}

// env { NAME = value ... }
func (e *evaluator) env(ctx context.Context, blk *hclsyntax.Block) error {
	if err := expectLabels(blk, 0, 0, `env { NAME = "value" }`); err != nil {
		return err
	}
	if err := noBlocks(blk); err != nil {
		return err
	}
	for _, attr := range sortedAttributes(blk.Body) {
		s, err := e.stringValue(attr.Expr)
		if err != nil {
			return err
		}
		e.list.setEnv(attr.Name, s)
	}
	return nil
}

type jobTypeBody struct {
	Template string `hcl:"template"`
}

// job_type "name" { template = "..." }
func (e *evaluator) jobType(ctx context.Context, blk *hclsyntax.Block) error {
	if err := expectLabels(blk, 1, 1, `job_type "name" { template = "..." }`); err != nil {
		return err
	}
	name := blk.Labels[0]
	if !hclsyntax.ValidIdentifier(name) {
		return errorfAt(blk.LabelRanges[0], "Invalid job kind name %q", name)
	}
	if _, builtin := e.directives[name]; builtin {
		return errorfAt(blk.LabelRanges[0], "Job kind %q shadows a built-in directive", name)
	}

	var body jobTypeBody
	if diags := gohcl.DecodeBody(blk.Body, e.evalContext(), &body); diags.HasErrors() {
		return diagsError(diags)
	}

	if _, exists := e.kinds[name]; exists {
		ctxlog.FromContext(ctx).Debug("Job kind redefined.", "kind", name)
	}
	e.kinds[name] = Kind{Name: name, Template: body.Template}
	ctxlog.FromContext(ctx).Debug("Job kind registered.", "kind", name)
	return nil
}

// every "<frequency>" { at = "..."  <timer options>  <statements> }
func (e *evaluator) every(ctx context.Context, blk *hclsyntax.Block) error {
	if err := expectLabels(blk, 1, 1, `every "<frequency>" { ... }`); err != nil {
		return err
	}
	freq, err := calendar.ParseFrequency(blk.Labels[0])
	if err != nil {
		return errorAt(blk.LabelRanges[0], "Invalid frequency", err)
	}
	return e.schedule(ctx, blk, freq)
}

// shorthand returns the directive for a symbolic frequency such as "daily".
func (e *evaluator) shorthand(name string) directiveFunc {
	return func(ctx context.Context, blk *hclsyntax.Block) error {
		if err := expectLabels(blk, 0, 0, name+" { ... }"); err != nil {
			return err
		}
		return e.schedule(ctx, blk, calendar.Frequency{Name: name})
	}
}

// weekly ["Mon" "Fri"] { ... }
func (e *evaluator) weekly(ctx context.Context, blk *hclsyntax.Block) error {
	if len(blk.Labels) == 0 {
		return e.schedule(ctx, blk, calendar.Frequency{Name: "weekly"})
	}
	return e.schedule(ctx, blk, calendar.Frequency{Name: calendar.Weekdays(blk.Labels...)})
}

// schedule pushes a frame for freq, runs the block body and releases the
// frame again.
func (e *evaluator) schedule(ctx context.Context, blk *hclsyntax.Block, freq calendar.Frequency) error {
	overlay := Options{job.KeyInterval: calendar.Encode(freq)}
	timer := map[string]any{}
	hasAt := false

	for _, attr := range sortedAttributes(blk.Body) {
		if attr.Name == keyAtAttr {
			at, err := e.stringValue(attr.Expr)
			if err != nil {
				return err
			}
			overlay[job.KeyAt] = at
			hasAt = at != ""
			continue
		}
		v, err := e.goValue(attr.Expr)
		if err != nil {
			return err
		}
		timer[attr.Name] = v
	}
	if len(timer) > 0 {
		overlay["timer"] = timer
	}

	if freq.Complete {
		if hasAt || e.inheritedAt() != "" {
			return errorfAt(blk.DefRange(), "Frequency %q already sets the time of day and cannot be combined with at", blk.Labels[0])
		}
		// A cron frequency replaces any time of day set by an outer block.
		overlay[job.KeyAt] = ""
	}

	release := e.scope.push(overlay, freq.Complete)
	defer release()
	ctxlog.FromContext(ctx).Debug("Scheduling frame pushed.", "interval", overlay[job.KeyInterval], "at", e.scope.current()[job.KeyAt], "depth", e.scope.depth())

	return e.runBlocks(ctx, blk.Body.Blocks)
}

func (e *evaluator) inheritedAt() string {
	at, _ := e.scope.current()[job.KeyAt].(string)
	return at
}

// at "<time>" { <statements> }
func (e *evaluator) at(ctx context.Context, blk *hclsyntax.Block) error {
	if err := expectLabels(blk, 1, 1, `at "<time>" { ... }`); err != nil {
		return err
	}
	if err := noAttributes(blk); err != nil {
		return err
	}
	if e.scope.complete() {
		return errorfAt(blk.DefRange(), "The enclosing frequency already sets the time of day")
	}

	release := e.scope.push(Options{job.KeyAt: blk.Labels[0]}, false)
	defer release()
	ctxlog.FromContext(ctx).Debug("Time frame pushed.", "at", blk.Labels[0], "depth", e.scope.depth())

	return e.runBlocks(ctx, blk.Body.Blocks)
}

// variableReference is the directive of a block named after a variable. It
// resolves the variable and has no further effect.
func (e *evaluator) variableReference(ctx context.Context, blk *hclsyntax.Block) error {
	ctxlog.FromContext(ctx).Debug("Block resolved to a variable, nothing to do.", "variable", blk.Type)
	return nil
}

// invoke returns the directive constructing jobs of kind k:
//
//	<kind> "<job>" ["<task>"] { <options> }
func (e *evaluator) invoke(k Kind) directiveFunc {
	return func(ctx context.Context, blk *hclsyntax.Block) error {
		usage := fmt.Sprintf(`%s "<job>" "<task>" { <options> }`, k.Name)
		if err := expectLabels(blk, 1, 2, usage); err != nil {
			return err
		}
		if err := noBlocks(blk); err != nil {
			return err
		}

		callsite := Options{job.KeyTemplate: k.Template}
		for _, attr := range sortedAttributes(blk.Body) {
			v, err := e.goValue(attr.Expr)
			if err != nil {
				return err
			}
			callsite[attr.Name] = v
		}

		if len(blk.Labels) == 2 {
			if _, dup := callsite[job.KeyTask]; dup {
				return errorfAt(blk.LabelRanges[1], "Task of job %q is given twice", blk.Labels[0])
			}
			callsite[job.KeyTask] = blk.Labels[1]
		}
		if _, ok := callsite[job.KeyTask]; !ok {
			return errorfAt(blk.DefRange(), "Job %q has no task", blk.Labels[0]).withDetail("Usage: " + usage)
		}
		if _, ok := callsite[job.KeyDescription]; !ok {
			callsite[job.KeyDescription] = job.DefaultDescription
		}

		return e.addJob(ctx, blk, callsite)
	}
}

func (e *evaluator) addJob(ctx context.Context, blk *hclsyntax.Block, callsite Options) error {
	prefix := e.vars.String(varPrefix)
	if prefix == "" {
		return errorfAt(blk.DefRange(), "The prefix variable must not be empty")
	}
	name := prefix + "-" + blk.Labels[0]
	for _, existing := range e.list.jobs {
		if existing.Name() == name {
			return errorfAt(blk.LabelRanges[0], "Job %q is already defined", name)
		}
	}

	vars, err := e.vars.Options()
	if err != nil {
		return errorAt(blk.DefRange(), "Invalid variable", err)
	}
	merged := mergeOptions(e.scope.current(), vars, callsite)
	opts, ok := deepcopy.Copy(map[string]any(merged)).(map[string]any)
	if !ok {
		return errorAt(blk.DefRange(), "Invalid job options", errors.New("options could not be copied"))
	}

	j, err := job.New(name, opts, job.Defaults{Path: e.workDir})
	if err != nil {
		return errorAt(blk.DefRange(), fmt.Sprintf("Invalid job %q", name), err)
	}
	e.list.jobs = append(e.list.jobs, j)

	ctxlog.FromContext(ctx).Debug("Job created.", "job", name, "on_calendar", j.OnCalendar())
	return nil
}
