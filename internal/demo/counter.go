package demo

import (
	"strconv"

	"github.com/vango-dev/fibertree/pkg/fiber"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// Counter renders a count with increment, decrement and reset buttons.
// The optional "start" prop sets the initial count.
func Counter(h vdom.Hooks, props vdom.Props) *vdom.VNode {
	start, _ := props["start"].(int)
	count, setCount := fiber.UseState(h, start)
	step, setStep := fiber.UseState(h, 1)

	return vdom.Div(vdom.Class("counter"),
		vdom.H1(vdom.Textf("Count: %d", count)),
		vdom.Button(vdom.ID("dec"), vdom.OnClick(func() { setCount(count - step) }), "-"),
		vdom.Button(vdom.ID("inc"), vdom.OnClick(func() { setCount(count + step) }), "+"),
		vdom.Label("Step ",
			vdom.Input(
				vdom.ID("step"),
				vdom.Type_("number"),
				vdom.Value(strconv.Itoa(step)),
				vdom.OnInput(func(v string) {
					if n, err := strconv.Atoi(v); err == nil && n > 0 {
						setStep(n)
					}
				}),
			),
		),
		vdom.Button(vdom.ID("reset"),
			vdom.Disabled(count == start),
			vdom.OnClick(func() { setCount(start) }),
			"Reset",
		),
	)
}
