package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/amatiych/llm-work/pkg/plan"
	"github.com/amatiych/llm-work/pkg/render"
	"github.com/amatiych/llm-work/pkg/replay"
)

// ReplayRunner returns a RunFunc that loads the job's plan, replays it and
// writes the rendered document into the job's output directory, falling
// back to defaultDir.
func ReplayRunner(store plan.Store, replayer *replay.Replayer, defaultDir string) RunFunc {
	return func(ctx context.Context, job Job) (string, error) {
		p, err := store.Load(ctx, job.Plan)
		if err != nil {
			return "", err
		}

		res, err := replayer.Replay(ctx, p, job.FundID, job.Theme)
		if err != nil {
			return "", err
		}
		if len(res.Document) == 0 {
			return "", errors.New("replay produced no document")
		}

		dir := job.OutputDir
		if dir == "" {
			dir = defaultDir
		}
		return render.WriteDocument(dir, render.DocumentName(job.Name, res.FundID, time.Now()), res.Format, res.Document)
	}
}
