package app

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// NewLogger builds the service logger. Pretty logs use zap's console encoder.
func NewLogger(level string, pretty bool) (ectologger.Logger, *zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zapConfig := zap.NewProductionConfig()
	if pretty {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = lvl

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, withRequestFields), zapLogger, nil
}

// withRequestFields copies request identity from the log context into the fields
func withRequestFields(msg ectologger.EctoLogMessage) ectologger.EctoLogMessage {
	if msg.Ctx == nil {
		return msg
	}
	fields := make(map[string]any, len(msg.Fields)+3)
	for k, v := range msg.Fields {
		fields[k] = v
	}
	if id := fernctx.GetRequestID(msg.Ctx); id != "" {
		fields["request_id"] = id
	}
	if source := fernctx.GetSource(msg.Ctx); source != "" {
		fields["source"] = source
	}
	if traceID := tracing.GetTraceID(msg.Ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	msg.Fields = fields
	return msg
}
