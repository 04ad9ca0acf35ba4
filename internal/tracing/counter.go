package tracing

import (
	"context"
	"sync/atomic"
)

// ErrorCounter decorates a Tracer and counts RelatedError calls made on any
// activity it started, nested ones included.
type ErrorCounter struct {
	inner  Tracer
	errors atomic.Int64
	warns  atomic.Int64
}

// CountErrors wraps t.
func CountErrors(t Tracer) *ErrorCounter {
	return &ErrorCounter{inner: t}
}

// StartActivity delegates to the wrapped tracer.
func (c *ErrorCounter) StartActivity(ctx context.Context, name string, fields Fields) Activity {
	return &countedActivity{Activity: c.inner.StartActivity(ctx, name, fields), counter: c}
}

// Errors returns the number of errors seen so far.
func (c *ErrorCounter) Errors() int {
	return int(c.errors.Load())
}

// Warnings returns the number of warnings seen so far.
func (c *ErrorCounter) Warnings() int {
	return int(c.warns.Load())
}

type countedActivity struct {
	Activity
	counter *ErrorCounter
}

func (a *countedActivity) RelatedWarning(msg string, fields Fields) {
	a.counter.warns.Add(1)
	a.Activity.RelatedWarning(msg, fields)
}

func (a *countedActivity) RelatedError(msg string, fields Fields) {
	a.counter.errors.Add(1)
	a.Activity.RelatedError(msg, fields)
}

func (a *countedActivity) StartActivity(name string, fields Fields) Activity {
	return &countedActivity{Activity: a.Activity.StartActivity(name, fields), counter: a.counter}
}
