// Package task runs long-lived parts of a program, such as the frame loop, the admin
// server and the bridge runtime, and stops them together.
package task

import "context"

// Task is a long-running part of a program.
type Task interface {
	// Run does the work and blocks until ctx ends or the task cannot continue.
	Run(ctx context.Context) error

	// Name is used in logs.
	Name() string
}

// Func adapts a function to a Task.
type Func struct {
	name string
	run  func(context.Context) error
}

// NewFunc creates a Task named name that calls run.
func NewFunc(name string, run func(context.Context) error) *Func {
	return &Func{name: name, run: run}
}

// Run implements Task.
func (f *Func) Run(ctx context.Context) error {
	return f.run(ctx)
}

// Name implements Task.
func (f *Func) Name() string {
	return f.name
}
