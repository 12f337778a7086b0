package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/sorazip/sorazip/internal/fetch"
	"github.com/sorazip/sorazip/internal/output"
	"github.com/sorazip/sorazip/internal/pipeline"
	"github.com/sorazip/sorazip/internal/save"
	"github.com/sorazip/sorazip/internal/utils"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newFetchClient(rc utils.RunConfig) (*fetch.Client, error) {
	return fetch.NewClient(rc.Endpoint, rc.MetaEndpoint, utils.NewSorazipHTTPClient(rc.HTTPClientConfig))
}

func newSaver(ctx context.Context, rc utils.RunConfig) (save.Saver, error) {
	if rc.S3Destination != "" {
		return save.NewS3(ctx, rc.S3Destination, rc.S3Profile)
	}
	return save.NewLocal(rc.OutputDir), nil
}

// runTask is one pipeline run to show on the display.
type runTask struct {
	label  string
	prefix string
	text   string
}

type runOutcome struct {
	task   runTask
	result *pipeline.Result
	err    error
}

// runTasks executes tasks one after another under a single display. A
// failing task does not stop the ones after it.
func runTasks(ctx context.Context, rc utils.RunConfig, tasks []runTask) ([]runOutcome, error) {
	client, err := newFetchClient(rc)
	if err != nil {
		return nil, err
	}
	saver, err := newSaver(ctx, rc)
	if err != nil {
		return nil, err
	}

	mgr := output.NewManager()
	ids := make([]int, len(tasks))
	for i, task := range tasks {
		ids[i] = mgr.Register(task.label)
	}
	mgr.StartDisplay()
	defer mgr.StopDisplay()

	var outcomes []runOutcome
	for i, task := range tasks {
		if ctx.Err() != nil {
			mgr.ReportError(ids[i], ctx.Err())
			outcomes = append(outcomes, runOutcome{task: task, err: ctx.Err()})
			continue
		}
		id := ids[i]
		p := pipeline.New(client, saver, pipeline.Options{
			Prefix:     task.prefix,
			ResetDelay: -1,
			OnProgress: func(s pipeline.Snapshot) {
				if s.Status == pipeline.StatusRunning && s.Total > 0 {
					mgr.SetProgress(id, s.Current, s.Total, "videos")
					mgr.SetMessage(id, fmt.Sprintf("Fetched %d of %d, creating ZIP file... please wait", s.Current, s.Total))
				}
			},
		})
		result, err := p.Run(ctx, task.text)
		if err != nil {
			mgr.ReportError(id, err)
			log.Error().Str("op", "cmd/run").Str("task", task.label).Err(err).Msg("run failed")
		} else {
			mgr.Complete(id, fmt.Sprintf("%s %s %s", p.State().Message, output.StyleSymbols["arrow"], result.Location))
		}
		outcomes = append(outcomes, runOutcome{task: task, result: result, err: err})
	}
	return outcomes, nil
}
