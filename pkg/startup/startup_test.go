package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) dep(name string, requires ...string) Dependency {
	return Dependency{
		Name:     name,
		Requires: requires,
		OnStart: func(context.Context) error {
			r.events = append(r.events, "start "+name)
			return nil
		},
		OnStop: func(context.Context) error {
			r.events = append(r.events, "stop "+name)
			return nil
		},
	}
}

func newStartup(attempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}), attempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartup(t *testing.T) {
	ctx := context.Background()

	t.Run("should start requirements first and stop in reverse", func(t *testing.T) {
		rec := &recorder{}
		s := newStartup(1)
		s.AddDependency(rec.dep("http", "database", "cache"))
		s.AddDependency(rec.dep("database"))
		s.AddDependency(rec.dep("cache"))

		require.NoError(t, s.Start(ctx))
		assert.Equal(t, []string{"start database", "start cache", "start http"}, rec.events)
		assert.Equal(t, StartupStatusStarted, s.Status("http"))

		rec.events = nil
		require.NoError(t, s.Stop(ctx))
		assert.Equal(t, []string{"stop http", "stop cache", "stop database"}, rec.events)
		assert.Equal(t, StartupStatusStopped, s.Status("database"))
	})

	t.Run("should retry until a dependency comes up", func(t *testing.T) {
		calls := 0
		s := newStartup(3)
		s.AddDependency(Dependency{Name: "database", OnStart: func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		}})

		require.NoError(t, s.Start(ctx))
		assert.Equal(t, 3, calls)
	})

	t.Run("should give up after the last attempt", func(t *testing.T) {
		s := newStartup(2)
		s.AddDependency(Dependency{Name: "database", OnStart: func(context.Context) error {
			return errors.New("connection refused")
		}})

		err := s.Start(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
		assert.Equal(t, StartupStatusFailed, s.Status("database"))
	})

	t.Run("should reject unknown requirements", func(t *testing.T) {
		s := newStartup(1)
		s.AddDependency(Dependency{Name: "http", Requires: []string{"database"}})
		assert.ErrorContains(t, s.Start(ctx), "unknown dependency")
	})

	t.Run("should detect cycles", func(t *testing.T) {
		s := newStartup(1)
		s.AddDependency(Dependency{Name: "a", Requires: []string{"b"}})
		s.AddDependency(Dependency{Name: "b", Requires: []string{"a"}})
		assert.ErrorContains(t, s.Start(ctx), "cycle")
	})
}
