package unitfmt

import (
	"io"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

// DefaultWantedBy is the target timers are installed into unless configured
// otherwise.
const DefaultWantedBy = "timers.target"

// RenderService renders the [Unit] and [Service] sections of u.
func RenderService(u Unit) string {
	return serialize(
		section("Unit", u[SectionUnit]),
		section("Service", u[SectionService]),
	)
}

// RenderTimer renders the [Unit], [Timer] and [Install] sections of u.
func RenderTimer(u Unit) string {
	return serialize(
		section("Unit", u[SectionUnit]),
		section("Timer", u[SectionTimer]),
		section("Install", u[SectionInstall]),
	)
}

// RenderTarget renders an umbrella target. Its [Install] section is fixed to
// DefaultWantedBy.
func RenderTarget(u Unit) string {
	return serialize(
		section("Unit", u[SectionUnit]),
		section("Install", Section{{Key: "wanted_by", Value: DefaultWantedBy}}),
	)
}

func section(name string, s Section) *unit.UnitSection {
	return &unit.UnitSection{Section: name, Entries: entries(s)}
}

// entries converts s into go-systemd entries. Both the unit serializer and
// RenderSection go through it.
func entries(s Section) []*unit.UnitEntry {
	out := make([]*unit.UnitEntry, 0, len(s))
	for _, e := range s {
		out = append(out, &unit.UnitEntry{
			Name:  ParamKey(e.Key),
			Value: FormatValue(e.Value),
		})
	}
	return out
}

func serialize(sections ...*unit.UnitSection) string {
	var b strings.Builder
	// SerializeSections writes into a bytes.Buffer; copying cannot fail.
	_, _ = io.Copy(&b, unit.SerializeSections(sections))
	return b.String()
}
