package trace

import "context"

type ctxKey struct{}

// FromContext extracts the Tracer from ctx, falling back to Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type spanKey struct{}

// CurrentSpan returns the ID of the innermost span stored in ctx, or 0.
func CurrentSpan(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(spanKey{}).(uint64); ok {
		return id
	}
	return 0
}

// WithSpan records s as the parent for spans started from the returned context.
func WithSpan(ctx context.Context, s *Span) context.Context {
	id := s.ID()
	if id == 0 {
		return ctx
	}
	return context.WithValue(ctx, spanKey{}, id)
}

// Start begins a span under the tracer and parent span found in ctx and
// returns a context carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	s := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx))
	return WithSpan(ctx, s), s
}
