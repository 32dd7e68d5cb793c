package middleware

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/fibertree/pkg/vdom"
)

func TestLoggingObserver(t *testing.T) {
	tests := []struct {
		name  string
		opts  []LoggingOption
		trees []*vdom.VNode
		want  []string
		not   []string
	}{
		{
			name:  "committed",
			trees: []*vdom.VNode{page("hello")},
			want:  []string{`"msg":"render cycle committed"`, `"trigger":"render"`, `"component":"cycles"`},
		},
		{
			name:  "slow",
			opts:  []LoggingOption{WithSlowThreshold(time.Nanosecond)},
			trees: []*vdom.VNode{page("hello")},
			want:  []string{`"level":"WARN"`, `"msg":"slow render cycle"`},
		},
		{
			name:  "failed",
			trees: []*vdom.VNode{page("first"), vdom.Comp(broken, nil)},
			want:  []string{`"msg":"render cycle failed"`, `"code":"E102"`},
			not:   []string{"render cycle abandoned"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			s := newScheduler(t, Logging(logger, tt.opts...))
			for _, tree := range tt.trees {
				s.Render(tree)
			}
			_ = s.Flush()

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("log output missing %s:\n%s", w, out)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(out, n) {
					t.Errorf("log output should not contain %s at info level:\n%s", n, out)
				}
			}
		})
	}
}
