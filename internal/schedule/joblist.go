package schedule

import (
	"fmt"
	"path"
	"strings"

	"github.com/kballard/go-shellquote"
	ihcl "github.com/vk/whenever-systemd/internal/hcl"
	"github.com/vk/whenever-systemd/internal/job"
	"github.com/vk/whenever-systemd/internal/unitfmt"
)

const (
	defaultUnitExt    = "{service,timer}"
	targetDescription = "Timers target"
)

// EnvVar is one deploy-time environment assignment from an env block.
type EnvVar struct {
	Name  string
	Value string
}

// JobList is the result of an evaluation: the declared jobs in declaration
// order plus the state needed to render them.
type JobList struct {
	jobs     []*job.Job
	env      []EnvVar
	vars     *Variables
	prefix   string
	roles    []string
	tempPath string
}

func (l *JobList) setEnv(name, value string) {
	for i := range l.env {
		if l.env[i].Name == name {
			l.env[i].Value = value
			return
		}
	}
	l.env = append(l.env, EnvVar{Name: name, Value: value})
}

// Jobs returns the jobs selected by the roles filter, in declaration order.
func (l *JobList) Jobs() []*job.Job {
	if len(l.roles) == 0 {
		return append([]*job.Job(nil), l.jobs...)
	}
	var out []*job.Job
	for _, j := range l.jobs {
		for _, role := range l.roles {
			if j.HasRole(role) {
				out = append(out, j)
				break
			}
		}
	}
	return out
}

// Env returns the env assignments in declaration order.
func (l *JobList) Env() []EnvVar {
	return append([]EnvVar(nil), l.env...)
}

// Prefix returns the unit name prefix.
func (l *JobList) Prefix() string {
	return l.prefix
}

// Roles returns the roles filter.
func (l *JobList) Roles() []string {
	return append([]string(nil), l.roles...)
}

// TempPath returns the staging directory of generated scripts.
func (l *JobList) TempPath() string {
	return l.tempPath
}

// Variable returns a script variable converted to a Go value.
func (l *JobList) Variable(name string) (any, bool) {
	v, ok := l.vars.Lookup(name)
	if !ok {
		return nil, false
	}
	gv, err := ihcl.ToGo(v)
	if err != nil {
		return nil, false
	}
	return gv, true
}

// WantedBy returns the install target from the install variable, or the
// default timers target.
func (l *JobList) WantedBy() string {
	install, _ := l.Variable(varInstall)
	m, _ := install.(map[string]any)
	if wb := unitfmt.FormatValue(m["wanted_by"]); wb != "" {
		return wb
	}
	return unitfmt.DefaultWantedBy
}

// umbrella reports whether jobs are grouped under their own target.
func (l *JobList) umbrella() bool {
	return l.WantedBy() != unitfmt.DefaultWantedBy
}

// SystemdUnits returns the artifacts of all jobs placed in dir. With an
// umbrella target the target comes first, placed in dir, and the job
// artifacts move to dir/<target>.wants.
func (l *JobList) SystemdUnits(dir string) []unitfmt.Artifact {
	var artifacts []unitfmt.Artifact
	jobDir := dir
	if l.umbrella() {
		artifacts = append(artifacts, l.target(dir))
		jobDir = path.Join(dir, l.WantedBy()+".wants")
	}
	for _, j := range l.Jobs() {
		artifacts = append(artifacts, j.SystemdUnits(jobDir)...)
	}
	return artifacts
}

func (l *JobList) target(dir string) unitfmt.Artifact {
	return unitfmt.Artifact{
		Path:     dir,
		Filename: l.WantedBy(),
		Content: unitfmt.RenderTarget(unitfmt.Unit{
			unitfmt.SectionUnit: {{Key: "description", Value: targetDescription}},
		}),
	}
}

// DryUnits previews every artifact for dir without writing anything.
func (l *JobList) DryUnits(dir string) string {
	return unitfmt.PreviewAll(l.SystemdUnits(dir))
}

// GenerateUnitsScript returns shell commands writing every artifact to dir.
func (l *JobList) GenerateUnitsScript(dir string) string {
	return unitfmt.MaterializeAll(l.SystemdUnits(dir))
}

func (l *JobList) backupDir() string {
	return path.Join(l.tempPath, "backup")
}

func (l *JobList) stagingDir() string {
	return path.Join(l.tempPath, "units")
}

// UpdateSteps returns the fragments of the update script for installPath:
//
//  1. create the backup directory
//  2. back up every unit under the prefix, best effort
//  3. disable and stop every live timer under the prefix
//  4. write the new units to the staging directory
//  5. copy the staged units into installPath
//  6. reload systemd
//  7. enable and start the timers of this list
//
// The last step is left out when no job is selected.
func (l *JobList) UpdateSteps(installPath string) []string {
	stage := l.stagingDir()
	steps := []string{
		l.makeBackupDir(),
		l.backupUnits(installPath),
		l.disableTimers(),
		shellquote.Join("mkdir", "-p", stage) + "\n\n" + strings.TrimSuffix(l.GenerateUnitsScript(stage), "\n"),
		fmt.Sprintf("cp -bfruv %s/. %s/", shellquote.Join(stage), shellquote.Join(installPath)),
		shellquote.Join("systemctl", "daemon-reload"),
	}
	if enable := l.enableTimers(); enable != "" {
		steps = append(steps, enable)
	}
	return steps
}

// GenerateUpdateScript joins UpdateSteps with blank lines.
func (l *JobList) GenerateUpdateScript(installPath string) string {
	return joinSteps(l.UpdateSteps(installPath))
}

// ClearSteps returns the fragments of the clear script for installPath:
// backup, disable and stop, interactive removal of every unit under the
// prefix, reload.
func (l *JobList) ClearSteps(installPath string) []string {
	targets := []string{shellquote.Join(installPath) + "/" + l.UnitsExpansion("", true, false)}
	if l.umbrella() {
		targets = append(targets, l.targetPaths(installPath)...)
	}
	return []string{
		l.makeBackupDir(),
		l.backupUnits(installPath),
		l.disableTimers(),
		"rm -rfI " + strings.Join(targets, " "),
		shellquote.Join("systemctl", "daemon-reload"),
	}
}

// GenerateClearScript joins ClearSteps with blank lines.
func (l *JobList) GenerateClearScript(installPath string) string {
	return joinSteps(l.ClearSteps(installPath))
}

func joinSteps(steps []string) string {
	return strings.Join(steps, "\n\n") + "\n"
}

func (l *JobList) makeBackupDir() string {
	return shellquote.Join("mkdir", "-p", l.backupDir())
}

// backupUnits copies all units of the prefix, orphans included.
func (l *JobList) backupUnits(installPath string) string {
	sources := []string{shellquote.Join(installPath) + "/" + l.UnitsExpansion("", true, false)}
	if l.umbrella() {
		sources = append(sources, l.targetPaths(installPath)...)
	}
	return fmt.Sprintf("cp -bfruv %s %s || true", strings.Join(sources, " "), shellquote.Join(l.backupDir()))
}

// targetPaths returns the umbrella target and its wants directory.
func (l *JobList) targetPaths(installPath string) []string {
	wb := l.WantedBy()
	return []string{
		shellquote.Join(path.Join(installPath, wb)),
		shellquote.Join(path.Join(installPath, wb+".wants")),
	}
}

// disableTimers acts on the timers systemd knows, not on the declared ones.
func (l *JobList) disableTimers() string {
	return "systemctl disable --now " + l.UnitsExpansion("timer", true, true)
}

func (l *JobList) enableTimers() string {
	timers := l.UnitsExpansion("timer", false, false)
	if timers == "" {
		return ""
	}
	if l.umbrella() {
		return "systemctl enable --now " + shellquote.Join(l.WantedBy()) + " " + timers
	}
	return "systemctl enable --now " + timers
}

// UnitsExpansion builds the shell pattern of unit files under the prefix:
// "<prefix>-*.<ext>" when all is set, "<prefix>-{a,b}.<ext>" over the
// selected jobs otherwise. ext defaults to "{service,timer}".
//
// With sub the pattern becomes a command substitution: for all it lists
// the matching units systemd has loaded, otherwise it echoes the pattern.
// Without jobs and without all the result is empty.
func (l *JobList) UnitsExpansion(ext string, all, sub bool) string {
	if ext == "" {
		ext = defaultUnitExt
	}

	if all {
		if sub {
			pattern := l.prefix + "-*." + ext
			return "$(systemctl list-unit-files --no-legend --plain " + singleQuote(pattern) + " | cut -d' ' -f1)"
		}
		return shellquote.Join(l.prefix) + "-*." + ext
	}

	jobs := l.Jobs()
	if len(jobs) == 0 {
		return ""
	}
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = shellquote.Join(j.UnprefixedName(l.prefix))
	}
	suffix := names[0]
	if len(names) > 1 {
		suffix = "{" + strings.Join(names, ",") + "}"
	}

	pattern := shellquote.Join(l.prefix) + "-" + suffix + "." + ext
	if sub {
		return "$(echo " + pattern + ")"
	}
	return pattern
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
