package schedule

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// EvaluationError reports a schedule that could not be evaluated. Evaluation
// stops at the first one; no partial job list is returned.
type EvaluationError struct {
	Diags hcl.Diagnostics
	// Err is the underlying cause when the failure did not originate in HCL.
	Err error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return "evaluation error: " + e.Diags.Error()
}

// Unwrap exposes both the diagnostics and the underlying cause.
func (e *EvaluationError) Unwrap() []error {
	errs := []error{e.Diags}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UnknownDirectiveError reports a block that is neither a built-in
// directive, a registered job kind nor a variable.
type UnknownDirectiveError struct {
	Name  string
	Range hcl.Range
}

// Error implements the error interface.
func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("%s: unknown directive %q", e.Range, e.Name)
}

func diagsError(diags hcl.Diagnostics) *EvaluationError {
	return &EvaluationError{Diags: diags}
}

func errorAt(rng hcl.Range, summary string, err error) *EvaluationError {
	diag := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Subject:  rng.Ptr(),
	}
	if err != nil {
		diag.Detail = err.Error()
	}
	return &EvaluationError{Diags: hcl.Diagnostics{diag}, Err: err}
}

func errorfAt(rng hcl.Range, format string, args ...any) *EvaluationError {
	return errorAt(rng, fmt.Sprintf(format, args...), nil)
}

// withDetail sets the detail of the error's first diagnostic.
func (e *EvaluationError) withDetail(detail string) *EvaluationError {
	if len(e.Diags) > 0 {
		e.Diags[0].Detail = detail
	}
	return e
}
