package monitor

import "context"

// Handle owns a monitor loop running on its own goroutine. Whoever starts the
// loop keeps the handle; there is no ambient registry of workers.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start launches the loop in the background and returns its handle.
func (m *Monitor) Start(ctx context.Context) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	handle := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(handle.done)
		handle.err = m.Run(runCtx)
	}()

	return handle
}

// Stop cancels the loop and waits for it to unwind.
func (h *Handle) Stop() error {
	h.cancel()
	<-h.done
	return h.err
}

// Done closes once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err is the loop's exit error, valid after Done closes.
func (h *Handle) Err() error {
	return h.err
}
