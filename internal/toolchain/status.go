package toolchain

import (
	"context"
	"fmt"

	"github.com/pdiddy/scriptkit/pkg/types"
)

// Status reports the availability of one tool.
type Status struct {
	Name      string
	Command   string
	Used      string
	Available bool
	Detail    string
}

var toolUsage = map[string]string{
	BinFFmpeg:  "audio2video, convert-audio",
	BinFFprobe: "duration probes",
}

// Check evaluates ffmpeg and ffprobe as configured in cfg.
func Check(ctx context.Context, cfg types.ToolConfig) []Status {
	return check(ctx, []Tool{FFmpeg(cfg), FFprobe(cfg)})
}

func check(ctx context.Context, tools []Tool) []Status {
	results := make([]Status, 0, len(tools))
	for _, t := range tools {
		st := Status{
			Name:    t.Name(),
			Command: t.Path(),
			Used:    toolUsage[t.Name()],
		}
		if t.Available(ctx) {
			st.Available = true
		} else {
			st.Detail = fmt.Sprintf("binary %q not found or not runnable", t.Path())
		}
		results = append(results, st)
	}
	return results
}

// Missing returns the statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available {
			out = append(out, s)
		}
	}
	return out
}
