package job

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/vk/whenever-systemd/internal/calendar"
	"github.com/vk/whenever-systemd/internal/output"
	"github.com/vk/whenever-systemd/internal/subst"
	"github.com/vk/whenever-systemd/internal/unitfmt"
)

// Defaults applied to options a job does not set.
const (
	DefaultDescription         = "WheneverSystemd-generated Job"
	DefaultJobTemplate         = ":job"
	DefaultEnvironmentVariable = "RAILS_ENV"
	DefaultEnvironment         = "production"
	DefaultServiceType         = "oneshot"
)

// Option keys the job model consumes itself. Every other option is only
// available to template placeholders.
const (
	KeyAt                  = "at"
	KeyInterval            = "interval"
	KeyTemplate            = "template"
	KeyJobTemplate         = "job_template"
	KeyRoles               = "roles"
	KeyMailto              = "mailto"
	KeyOutput              = "output"
	KeyDescription         = "description"
	KeyPath                = "path"
	KeyEnvironment         = "environment"
	KeyEnvironmentVariable = "environment_variable"
	KeyTask                = "task"
)

// ErrEmptyCalendar is returned for a job without interval, at-time or an
// explicit timer calendar.
var ErrEmptyCalendar = errors.New("job has no calendar: set an interval, an at-time or timer.on_calendar")

// Defaults holds the environment-dependent fallbacks of a job.
type Defaults struct {
	// Path is the working directory used when the job sets none.
	Path string
}

// Job is one scheduled task.
type Job struct {
	name        string
	at          string
	interval    string
	roles       []string
	mailto      string
	description string
	command     string

	service unitfmt.Unit
	timer   unitfmt.Unit
}

// New builds a job from its merged options. options is consumed as is; the
// caller must not modify it afterwards.
func New(name string, options map[string]any, defaults Defaults) (*Job, error) {
	if name == "" {
		return nil, errors.New("job name must not be empty")
	}

	j := &Job{name: name}
	var err error

	if j.at, err = stringOption(options, KeyAt); err != nil {
		return nil, err
	}
	if j.interval, err = stringOption(options, KeyInterval); err != nil {
		return nil, err
	}
	if j.mailto, err = stringOption(options, KeyMailto); err != nil {
		return nil, err
	}
	if j.roles, err = stringList(options[KeyRoles]); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyRoles, err)
	}

	if j.description, err = stringOption(options, KeyDescription); err != nil {
		return nil, err
	}
	if j.description == "" {
		j.description = DefaultDescription
	}

	if j.command, err = buildCommand(options, defaults); err != nil {
		return nil, err
	}
	if j.service, err = serviceUnit(options, j.description, j.command); err != nil {
		return nil, err
	}
	if j.timer, err = timerUnit(options, j.description, calendar.Compose(j.interval, j.at)); err != nil {
		return nil, err
	}

	return j, nil
}

// buildCommand resolves the two-level command template against the
// stringified options.
func buildCommand(options map[string]any, defaults Defaults) (string, error) {
	template, err := stringOption(options, KeyTemplate)
	if err != nil {
		return "", err
	}
	if template == "" {
		return "", errors.New("job has no command template")
	}

	jobTemplate, err := stringOption(options, KeyJobTemplate)
	if err != nil {
		return "", err
	}
	if jobTemplate == "" {
		jobTemplate = DefaultJobTemplate
	}

	vars := make(map[string]string, len(options)+4)
	for k, v := range options {
		if _, nested := v.(map[string]any); nested {
			continue
		}
		vars[k] = unitfmt.FormatValue(v)
	}
	delete(vars, KeyTemplate)
	delete(vars, KeyJobTemplate)

	vars[KeyOutput] = ""
	if spec, ok := options[KeyOutput]; ok {
		if vars[KeyOutput], err = output.Redirection(spec); err != nil {
			return "", err
		}
	}

	if options[KeyEnvironmentVariable] == nil {
		vars[KeyEnvironmentVariable] = DefaultEnvironmentVariable
	}
	if options[KeyEnvironment] == nil {
		vars[KeyEnvironment] = DefaultEnvironment
	}

	path := vars[KeyPath]
	if options[KeyPath] == nil {
		path = defaults.Path
	}
	if path == "" {
		path = "."
	}
	vars[KeyPath] = shellquote.Join(path)

	return subst.Expand(template, jobTemplate, vars), nil
}

func serviceUnit(options map[string]any, description, command string) (unitfmt.Unit, error) {
	unitSection, err := section(options, unitfmt.SectionUnit)
	if err != nil {
		return nil, err
	}
	service, err := section(options, unitfmt.SectionService)
	if err != nil {
		return nil, err
	}

	if _, ok := service.Lookup("type"); !ok {
		service = service.With("type", DefaultServiceType)
	}

	return unitfmt.Unit{
		unitfmt.SectionUnit:    unitSection.With(KeyDescription, description),
		unitfmt.SectionService: service.With("exec_start", command),
	}, nil
}

func timerUnit(options map[string]any, description, onCalendar string) (unitfmt.Unit, error) {
	timer, err := section(options, unitfmt.SectionTimer)
	if err != nil {
		return nil, err
	}
	install, err := section(options, unitfmt.SectionInstall)
	if err != nil {
		return nil, err
	}

	if v, ok := timer.Lookup("on_calendar"); !ok || unitfmt.FormatValue(v) == "" {
		if onCalendar == "" {
			return nil, ErrEmptyCalendar
		}
		timer = timer.With("on_calendar", onCalendar)
	}
	if _, ok := install.Lookup("wanted_by"); !ok {
		install = install.With("wanted_by", unitfmt.DefaultWantedBy)
	}

	return unitfmt.Unit{
		unitfmt.SectionUnit:    {{Key: KeyDescription, Value: description}},
		unitfmt.SectionTimer:   timer,
		unitfmt.SectionInstall: install,
	}, nil
}

// section converts one option map into a section with keys in lexical order.
func section(options map[string]any, name string) (unitfmt.Section, error) {
	raw, ok := options[name]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("option %q must be a map, got %T", name, raw)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := make(unitfmt.Section, 0, len(keys))
	for _, k := range keys {
		if _, nested := m[k].(map[string]any); nested {
			return nil, fmt.Errorf("option %s.%s must not be a map", name, k)
		}
		s = append(s, unitfmt.Entry{Key: k, Value: m[k]})
	}
	return s, nil
}

func stringOption(options map[string]any, key string) (string, error) {
	switch v := options[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		return "", fmt.Errorf("option %q must not be a map", key)
	default:
		return unitfmt.FormatValue(v), nil
	}
}

func stringList(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got element of type %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or a list of strings, got %T", v)
	}
}

// Name returns the qualified job name, "<prefix>-<job>".
func (j *Job) Name() string { return j.name }

// At returns the time of day the job was scheduled at, if any.
func (j *Job) At() string { return j.at }

// Interval returns the encoded interval of the job, if any.
func (j *Job) Interval() string { return j.interval }

// Roles returns the roles the job is restricted to.
func (j *Job) Roles() []string { return append([]string(nil), j.roles...) }

// Mailto returns the notification target of the job.
func (j *Job) Mailto() string { return j.mailto }

// Description returns the unit description.
func (j *Job) Description() string { return j.description }

// Command returns the rendered ExecStart command line.
func (j *Job) Command() string { return j.command }

// OnCalendar returns the calendar expression of the timer.
func (j *Job) OnCalendar() string {
	v, _ := j.timer[unitfmt.SectionTimer].Lookup("on_calendar")
	return unitfmt.FormatValue(v)
}

// WantedBy returns the install target of the timer.
func (j *Job) WantedBy() string {
	v, _ := j.timer[unitfmt.SectionInstall].Lookup("wanted_by")
	return unitfmt.FormatValue(v)
}

// ServiceName returns the service unit file name.
func (j *Job) ServiceName() string { return j.name + ".service" }

// TimerName returns the timer unit file name.
func (j *Job) TimerName() string { return j.name + ".timer" }

// SystemdService renders the service unit.
func (j *Job) SystemdService() string {
	return unitfmt.RenderService(j.service)
}

// SystemdTimer renders the timer unit.
func (j *Job) SystemdTimer() string {
	return unitfmt.RenderTimer(j.timer)
}

// SystemdUnits returns the service and timer artifacts placed in basePath.
func (j *Job) SystemdUnits(basePath string) []unitfmt.Artifact {
	return []unitfmt.Artifact{
		{Path: basePath, Filename: j.ServiceName(), Content: j.SystemdService()},
		{Path: basePath, Filename: j.TimerName(), Content: j.SystemdTimer()},
	}
}

// UnprefixedName strips "<prefix>-" from the start of the job name. Names
// that do not start with it are returned unchanged.
func (j *Job) UnprefixedName(prefix string) string {
	if rest, ok := strings.CutPrefix(j.name, prefix+"-"); ok {
		return rest
	}
	return j.name
}

// HasRole reports whether the job runs on a host with the given role. Jobs
// without roles run everywhere.
func (j *Job) HasRole(role string) bool {
	if len(j.roles) == 0 {
		return true
	}
	for _, r := range j.roles {
		if r == role {
			return true
		}
	}
	return false
}
