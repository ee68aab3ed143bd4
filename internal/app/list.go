package app

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

type jobSummary struct {
	Name        string   `yaml:"name"`
	Interval    string   `yaml:"interval,omitempty"`
	At          string   `yaml:"at,omitempty"`
	OnCalendar  string   `yaml:"on_calendar"`
	Command     string   `yaml:"command"`
	Description string   `yaml:"description"`
	Roles       []string `yaml:"roles,omitempty"`
	Mailto      string   `yaml:"mailto,omitempty"`
}

type envSummary struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type listing struct {
	Prefix   string       `yaml:"prefix"`
	WantedBy string       `yaml:"wanted_by"`
	Roles    []string     `yaml:"roles,omitempty"`
	Env      []envSummary `yaml:"env,omitempty"`
	Jobs     []jobSummary `yaml:"jobs"`
}

// list prints a YAML summary of the selected jobs.
func (a *App) list(ctx context.Context) error {
	list, err := a.jobList(ctx)
	if err != nil {
		return err
	}

	out := listing{
		Prefix:   list.Prefix(),
		WantedBy: list.WantedBy(),
		Roles:    list.Roles(),
		Jobs:     []jobSummary{},
	}
	for _, e := range list.Env() {
		out.Env = append(out.Env, envSummary{Name: e.Name, Value: e.Value})
	}
	for _, j := range list.Jobs() {
		out.Jobs = append(out.Jobs, jobSummary{
			Name:        j.Name(),
			Interval:    j.Interval(),
			At:          j.At(),
			OnCalendar:  j.OnCalendar(),
			Command:     j.Command(),
			Description: j.Description(),
			Roles:       j.Roles(),
			Mailto:      j.Mailto(),
		})
	}

	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode job list: %w", err)
	}
	return enc.Close()
}
