package fiber

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/idle"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *host.Memory, *idle.Manual) {
	t.Helper()
	m := host.NewMemory()
	slicer := idle.NewManual()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return NewScheduler(m, m.Root(), slicer, opts...), m, slicer
}

func mustFlush(t *testing.T, s *Scheduler) {
	t.Helper()
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
}

func opStrings(m *host.Memory) []string {
	var out []string
	for _, op := range m.Ops() {
		out = append(out, op.String())
	}
	return out
}

// childEffects returns the effects of the children of id in the committed tree.
func childEffects(s *Scheduler, id UnitID) []EffectTag {
	var out []EffectTag
	for _, c := range s.current.childrenOf(id) {
		out = append(out, s.current.units[c].effect)
	}
	return out
}

// firstChild returns the first child of the committed root.
func firstChild(s *Scheduler) UnitID {
	return s.current.units[rootID].child
}
