package transcription

import (
	"context"

	"github.com/kbukum/audioscribe/provider"
)

// Middleware wraps the Transcribe calls of a Provider.
type Middleware = provider.Middleware[Request, *Response]

// Wrap applies mws to p, the first outermost, and returns the result as a
// Provider. Name and availability still come from p.
func Wrap(p Provider, mws ...Middleware) Provider {
	if len(mws) == 0 {
		return p
	}
	return wrapped{provider.Chain(mws...)(executor{p})}
}

// executor exposes a Provider as a RequestResponse.
type executor struct{ Provider }

func (e executor) Execute(ctx context.Context, req Request) (*Response, error) {
	return e.Transcribe(ctx, req)
}

type wrapped struct {
	provider.RequestResponse[Request, *Response]
}

func (w wrapped) Transcribe(ctx context.Context, req Request) (*Response, error) {
	return w.Execute(ctx, req)
}
