package harness

import (
	"fmt"
	"log/slog"

	"github.com/SpareCarry/sparecarry-sub004/internal/client"
	"github.com/SpareCarry/sparecarry-sub004/internal/query"
)

// StepWarnings lists the descriptor warnings of one step.
type StepWarnings struct {
	Step     int      `json:"step"`
	Request  string   `json:"request"`
	Warnings []string `json:"warnings"`
}

// Lint builds every step without executing it and reports the steps whose
// descriptors carry warnings.
func Lint(scenario *Scenario) ([]StepWarnings, error) {
	c := client.New(client.WithLogger(slog.New(slog.DiscardHandler)))

	var out []StepWarnings
	for i, step := range scenario.Steps {
		b, err := buildChain(c, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		d := b.Descriptor()
		if v := query.Validate(d); !v.OK {
			out = append(out, StepWarnings{Step: i, Request: d.String(), Warnings: v.Warnings})
		}
	}
	return out, nil
}
