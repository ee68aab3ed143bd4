package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installDir = "/etc/systemd/system"

const twoJobs = `
prefix = "app"
daily {
  command "sync" "bin/sync" {}
  command "cleanup" "bin/cleanup" {}
}
`

func TestJobList_UnitsExpansion(t *testing.T) {
	t.Parallel()

	two := mustEvaluate(t, Config{}, twoJobs)
	one := mustEvaluate(t, Config{}, "prefix = \"app\"\ndaily {\n  command \"sync\" \"x\" {}\n}\n")
	none := mustEvaluate(t, Config{}, `prefix = "app"`)

	testCases := []struct {
		name     string
		list     *JobList
		ext      string
		all      bool
		sub      bool
		expected string
	}{
		{name: "selected jobs", list: two, expected: "app-{sync,cleanup}.{service,timer}"},
		{name: "selected timers", list: two, ext: "timer", expected: "app-{sync,cleanup}.timer"},
		{name: "selected timers as substitution", list: two, ext: "timer", sub: true, expected: "$(echo app-{sync,cleanup}.timer)"},
		{name: "all units", list: two, all: true, expected: "app-*.{service,timer}"},
		{
			name:     "all loaded timers",
			list:     two,
			ext:      "timer",
			all:      true,
			sub:      true,
			expected: "$(systemctl list-unit-files --no-legend --plain 'app-*.timer' | cut -d' ' -f1)",
		},
		{name: "single job has no braces", list: one, ext: "timer", expected: "app-sync.timer"},
		{name: "no jobs", list: none, expected: ""},
		{name: "no jobs but all", list: none, all: true, expected: "app-*.{service,timer}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.list.UnitsExpansion(tc.ext, tc.all, tc.sub))
		})
	}
}

func TestJobList_UpdateSteps(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	list := mustEvaluate(t, Config{TempPath: "/tmp/ws"}, twoJobs)

	// --- Act ---
	steps := list.UpdateSteps(installDir)

	// --- Assert ---
	require.Len(t, steps, 7)
	assert.Equal(t, "mkdir -p /tmp/ws/backup", steps[0])
	assert.Equal(t, "cp -bfruv /etc/systemd/system/app-*.{service,timer} /tmp/ws/backup || true", steps[1])
	assert.Equal(t, "systemctl disable --now $(systemctl list-unit-files --no-legend --plain 'app-*.timer' | cut -d' ' -f1)", steps[2])
	assert.True(t, strings.HasPrefix(steps[3], "mkdir -p /tmp/ws/units\n\ncat > /tmp/ws/units/app-sync.service <<'EOF'\n"), steps[3])
	assert.Contains(t, steps[3], "cat > /tmp/ws/units/app-cleanup.timer <<'EOF'\n")
	assert.True(t, strings.HasSuffix(steps[3], "\nEOF"), "the step must not end in a blank line")
	assert.Equal(t, "cp -bfruv /tmp/ws/units/. /etc/systemd/system/", steps[4])
	assert.Equal(t, "systemctl daemon-reload", steps[5])
	assert.Equal(t, "systemctl enable --now app-{sync,cleanup}.timer", steps[6])

	script := list.GenerateUpdateScript(installDir)
	assert.Equal(t, strings.Join(steps, "\n\n")+"\n", script)
	assert.Less(t, strings.Index(script, "systemctl disable"), strings.Index(script, "cp -bfruv /tmp/ws/units/."),
		"live timers must be stopped before units are replaced")
	assert.Less(t, strings.Index(script, "daemon-reload"), strings.Index(script, "systemctl enable"))
	assert.NotContains(t, script, "\n\n\n", "steps are separated by exactly one blank line")
}

func TestJobList_UpdateStepsWithoutJobs(t *testing.T) {
	t.Parallel()

	list := mustEvaluate(t, Config{TempPath: "/tmp/ws"}, `prefix = "app"`)

	steps := list.UpdateSteps(installDir)

	require.Len(t, steps, 6)
	assert.Equal(t, "systemctl daemon-reload", steps[5])
	assert.NotContains(t, list.GenerateUpdateScript(installDir), "systemctl enable")
}

func TestJobList_ClearSteps(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	list := mustEvaluate(t, Config{TempPath: "/tmp/ws"}, twoJobs)

	// --- Act ---
	steps := list.ClearSteps(installDir)

	// --- Assert ---
	assert.Equal(t, []string{
		"mkdir -p /tmp/ws/backup",
		"cp -bfruv /etc/systemd/system/app-*.{service,timer} /tmp/ws/backup || true",
		"systemctl disable --now $(systemctl list-unit-files --no-legend --plain 'app-*.timer' | cut -d' ' -f1)",
		"rm -rfI /etc/systemd/system/app-*.{service,timer}",
		"systemctl daemon-reload",
	}, steps)
	assert.Equal(t, strings.Join(steps, "\n\n")+"\n", list.GenerateClearScript(installDir))
}

func TestJobList_UmbrellaTarget(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := `
prefix  = "app"
install = { wanted_by = "app.target" }
daily {
  command "sync" "bin/sync" {}
}
`
	list := mustEvaluate(t, Config{TempPath: "/tmp/ws"}, src)

	// --- Act ---
	artifacts := list.SystemdUnits(installDir)

	// --- Assert ---
	assert.Equal(t, "app.target", list.WantedBy())
	require.Len(t, artifacts, 3)

	target := artifacts[0]
	assert.Equal(t, installDir+"/app.target", target.FullPath())
	opts := unitOptions(t, target.Content)
	assert.Equal(t, "Timers target", opts["Unit.Description"])
	assert.Equal(t, "timers.target", opts["Install.WantedBy"])

	assert.Equal(t, installDir+"/app.target.wants/app-sync.service", artifacts[1].FullPath())
	assert.Equal(t, installDir+"/app.target.wants/app-sync.timer", artifacts[2].FullPath())
	assert.Equal(t, "app.target", unitOptions(t, artifacts[2].Content)["Install.WantedBy"])

	update := list.UpdateSteps(installDir)
	assert.Equal(t, "cp -bfruv /etc/systemd/system/app-*.{service,timer} /etc/systemd/system/app.target /etc/systemd/system/app.target.wants /tmp/ws/backup || true", update[1])
	assert.Equal(t, "systemctl enable --now app.target app-sync.timer", update[len(update)-1])

	clearSteps := list.ClearSteps(installDir)
	assert.Equal(t, "rm -rfI /etc/systemd/system/app-*.{service,timer} /etc/systemd/system/app.target /etc/systemd/system/app.target.wants", clearSteps[3])
}

func TestJobList_WantedByDefault(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		src  string
	}{
		{name: "no install variable", src: `prefix = "app"`},
		{name: "install without wanted_by", src: `install = { after = "network.target" }`},
		{name: "explicit default", src: `install = { wanted_by = "timers.target" }`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			list := mustEvaluate(t, Config{}, tc.src)

			assert.Equal(t, "timers.target", list.WantedBy())
		})
	}
}

func TestJobList_RolesFilter(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := `
prefix = "app"
daily {
  command "web" "x" {
    roles = ["web"]
  }
  command "db" "x" {
    roles = ["db", "backup"]
  }
  command "any" "x" {}
}
`

	// --- Act ---
	list := mustEvaluate(t, Config{Roles: []string{"db"}}, src)

	// --- Assert ---
	names := []string{}
	for _, j := range list.Jobs() {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{"app-db", "app-any"}, names)
	assert.Equal(t, []string{"db"}, list.Roles())
	assert.Equal(t, "app-{db,any}.timer", list.UnitsExpansion("timer", false, false))
	assert.NotContains(t, list.DryUnits(installDir), "app-web")
}

func TestJobList_DryUnits(t *testing.T) {
	t.Parallel()

	list := mustEvaluate(t, Config{}, twoJobs)

	preview := list.DryUnits("/units")

	assert.True(t, strings.HasPrefix(preview, "# filepath: /units/app-sync.service\n[Unit]\n"), preview)
	assert.Contains(t, preview, "# filepath: /units/app-cleanup.timer\n")
	assert.NotContains(t, preview, "<<'EOF'")
	assert.Contains(t, list.GenerateUnitsScript("/units"), "cat > /units/app-sync.service <<'EOF'\n")
}

func TestJobList_TempPathDefault(t *testing.T) {
	t.Parallel()

	list := mustEvaluate(t, Config{}, `prefix = "app"`)

	assert.True(t, strings.HasSuffix(list.TempPath(), "whenever-systemd"), list.TempPath())
}
