package middleware

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/fibertree/pkg/fiber"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/idle"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

func newScheduler(t *testing.T, obs fiber.Observer) *fiber.Scheduler {
	t.Helper()
	m := host.NewMemory()
	return fiber.NewScheduler(m, m.Root(), idle.NewManual(),
		fiber.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		fiber.WithObserver(obs),
	)
}

func page(text string) *vdom.VNode {
	return vdom.Div(vdom.ID("app"), vdom.P(text))
}

func broken(vdom.Hooks, vdom.Props) *vdom.VNode {
	panic("boom")
}
