package provider

import "context"

// RequestResponse takes one input and returns one output: a transcription
// upload, a chat completion, an ffmpeg conversion.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Func adapts a plain function to RequestResponse. It is always available.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &funcRR[I, O]{name: name, fn: fn}
}

// Adapt exposes inner under domain types: mapIn builds the backend input,
// mapOut converts the backend output. Availability follows inner.
func Adapt[I, O, BI, BO any](
	inner RequestResponse[BI, BO],
	name string,
	mapIn func(ctx context.Context, input I) (BI, error),
	mapOut func(output BO) (O, error),
) RequestResponse[I, O] {
	return &funcRR[I, O]{
		name:      name,
		available: inner.IsAvailable,
		fn: func(ctx context.Context, input I) (O, error) {
			var zero O
			in, err := mapIn(ctx, input)
			if err != nil {
				return zero, err
			}
			out, err := inner.Execute(ctx, in)
			if err != nil {
				return zero, err
			}
			return mapOut(out)
		},
	}
}

type funcRR[I, O any] struct {
	name      string
	available func(context.Context) bool
	fn        func(ctx context.Context, input I) (O, error)
}

func (f *funcRR[I, O]) Name() string { return f.name }

func (f *funcRR[I, O]) IsAvailable(ctx context.Context) bool {
	return f.available == nil || f.available(ctx)
}

func (f *funcRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}
