package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// InterruptHandler reports an interrupted review session. Review decisions
// are only submitted at the end, so an interrupted job stays pending.
type InterruptHandler struct {
	writer      io.Writer
	done        chan struct{}
	jobID       string
	interrupted bool
	stopOnce    sync.Once
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
		done:   make(chan struct{}),
	}
}

// HandleInterrupts returns a context canceled when ctx is canceled before
// Stop is called. The first interruption prints a message naming jobID.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, jobID string) context.Context {
	child, cancel := context.WithCancel(context.Background())
	h.jobID = jobID

	go func() {
		defer cancel()
		select {
		case <-ctx.Done():
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage()
			}
			h.mu.Unlock()
		case <-h.done:
		}
	}()

	return child
}

// Stop ends the session normally.
func (h *InterruptHandler) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Review interrupted! No decisions were submitted.")
	if h.jobID != "" {
		msg += "\n" + FormatInfo(fmt.Sprintf("Job %s is still pending. Resume with: financesync review %s", h.jobID, h.jobID))
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the session was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
