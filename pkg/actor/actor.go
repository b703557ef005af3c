// Package actor turns interfaces whose methods return nothing into actor
// facades.
//
// Calling a facade method never runs the target's method on the caller's
// goroutine. The call is packaged into a deferred-call unit (target plus the
// argument values) and submitted to a Queue, which runs it later on whatever
// goroutine it chooses. Ordering, concurrency and backpressure are entirely
// the queue's business.
//
// Facades come from two places:
//
//   - Code generated by cmd/actorgen registers a constructor for each
//     interface from init. Create binds it and returns a value of the
//     interface type itself.
//   - New builds a reflective Proxy for any interface at run time, without
//     generation.
//
// Both paths share the same Registry, which extracts and validates the
// method set once per interface and publishes one FacadeType for it, safely
// under concurrent first use.
package actor

// Task is a deferred unit of work.
type Task interface {
	Run()
}

// TaskFunc adapts a function to Task.
type TaskFunc func()

func (f TaskFunc) Run() { f() }

// Queue accepts tasks for later execution. Submit must not wait for the task
// to run. An error means the task was rejected and will never run.
type Queue interface {
	Submit(t Task) error
}

// Submit hands t to q. Generated facade methods have no result to carry a
// rejection, so a queue error is raised as a panic with the queue's error
// value, unchanged.
func Submit(q Queue, t Task) {
	if err := q.Submit(t); err != nil {
		panic(err)
	}
}
