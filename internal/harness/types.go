package harness

import "github.com/SpareCarry/sparecarry-sub004/internal/record"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int             `json:"step"`
	Op      string          `json:"op"`
	Request string          `json:"request"`
	Rows    []record.Record `json:"rows"`
	Count   *int            `json:"count,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State holds every table after the last step.
	State map[string][]record.Record `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string][]record.Record),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
