package matching

import (
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/alias"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

func ptr[T any](v T) *T { return &v }

// sqft returns a listing size in square feet that converts back to sqm
func sqft(sqm float64) *float64 {
	v := sqm / normalizers.SqmPerSqft
	return &v
}

type logSink struct {
	mu       sync.Mutex
	messages []ectologger.EctoLogMessage
}

func (s *logSink) logger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(m ectologger.EctoLogMessage) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.messages = append(s.messages, m)
	})
}

func (s *logSink) byLevel(level string) []ectologger.EctoLogMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ectologger.EctoLogMessage
	for _, m := range s.messages {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

const testAliases = `
areas:
  - name: "North"
    projects:
      - canonical: "Harbour Point"
        variants: ["Harbour Point", "Harbour Pt.", "HP Tower"]
    master_projects:
      - canonical: "North Bay"
        variants: ["North Bay", "N. Bay District"]
name_variations:
  - canonical: "Harbour Point"
    variants: ["Harbour Point Residences"]
contextual:
  - name: "Tower B (East 4)"
    project: "EAST 4"
    master_project: "Central Bay"
`

func testIndex(t *testing.T) *alias.Index {
	t.Helper()
	ds, err := alias.ParseDataset([]byte(testAliases), "yaml")
	require.NoError(t, err)
	idx, err := alias.NewIndex(ds)
	require.NoError(t, err)
	return idx
}
