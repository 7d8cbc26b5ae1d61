package exporters

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel/sdk/trace"
)

// ConsoleExporter writes one line per finished span. Intended for local debugging.
type ConsoleExporter struct {
	mu     sync.Mutex
	Writer io.Writer
}

func (c *ConsoleExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.Writer
	if w == nil {
		w = os.Stdout
	}
	for _, s := range spans {
		_, err := fmt.Fprintf(w, "span %s trace=%s span=%s duration=%s status=%s\n",
			s.Name(),
			s.SpanContext().TraceID(),
			s.SpanContext().SpanID(),
			s.EndTime().Sub(s.StartTime()),
			s.Status().Code,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ConsoleExporter) Shutdown(ctx context.Context) error {
	return nil
}
