package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"evonft/internal/evolution/models"
	dErrors "evonft/pkg/domain-errors"
)

// Scenario is an ordered list of commands with their expected outcomes.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one command. ExpectError names the error code the command must
// fail with; empty means it must succeed.
type Step struct {
	models.Command `yaml:",inline"`
	ExpectError    dErrors.Code `yaml:"expect_error,omitempty"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	for i, step := range sc.Steps {
		if !step.Kind.IsValid() {
			return nil, fmt.Errorf("step %d: unknown op %q, want one of %v", i+1, step.Kind, models.CommandKinds)
		}
	}
	return &sc, nil
}

func (s *Scenario) commands() []models.Command {
	cmds := make([]models.Command, len(s.Steps))
	for i, step := range s.Steps {
		cmds[i] = step.Command
	}
	return cmds
}
