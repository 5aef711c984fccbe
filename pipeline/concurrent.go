package pipeline

import "context"

// Buffer reads ahead of the consumer: a goroutine pulls from p and keeps up
// to size values waiting. Closing the stream stops the goroutine and closes
// the source.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	size = max(size, 1)
	return FromFunc(func(ctx context.Context) Iterator[T] {
		ctx, cancel := context.WithCancel(ctx)
		src := p.create(ctx)
		out := make(chan result[T], size)
		go readAhead(ctx, src, out)
		return &channelIter[T]{
			ch: out,
			closer: func() error {
				cancel()
				return src.Close()
			},
		}
	})
}

// readAhead forwards src into out until src ends, fails or ctx is done.
func readAhead[T any](ctx context.Context, src Iterator[T], out chan<- result[T]) {
	defer close(out)
	for {
		var r result[T]
		r.val, r.ok, r.err = src.Next(ctx)
		if !r.ok && r.err == nil {
			return
		}
		select {
		case out <- r:
		case <-ctx.Done():
			return
		}
		if r.err != nil {
			return
		}
	}
}
