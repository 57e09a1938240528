package shell

import "context"

// Fake is a scripted Runner for tests. Handler decides the outcome of each
// command; every invocation is recorded in Calls in order.
type Fake struct {
	Handler func(cmd Command) (Result, error)
	Calls   []Command
}

// Run records cmd and dispatches to Handler. With no Handler every command
// succeeds with empty output.
func (f *Fake) Run(_ context.Context, cmd Command) (Result, error) {
	f.Calls = append(f.Calls, cmd)
	if f.Handler == nil {
		return Result{}, nil
	}
	return f.Handler(cmd)
}

// CommandLines renders all recorded calls, one invocation per entry. Handy
// for asserting on call order.
func (f *Fake) CommandLines() []string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}
