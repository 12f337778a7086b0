// Package pipeline drives a bulk run: parse references, fetch each one in
// turn, pack the successes into one archive and save it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sorazip/sorazip/internal/archive"
	"github.com/sorazip/sorazip/internal/fetch"
	"github.com/sorazip/sorazip/internal/refs"
	"github.com/sorazip/sorazip/internal/save"
	"github.com/sorazip/sorazip/internal/utils"
)

var (
	ErrInputEmpty           = errors.New("no video links found, paste at least one link")
	ErrNoSuccesses          = errors.New("no videos were downloaded, check your links")
	ErrArchiveSerialization = fmt.Errorf("failed to create ZIP, try fewer videos (max %d recommended)", utils.MaxRecommendedItems)
	ErrSaveFailed           = errors.New("failed to save archive")
	ErrBusy                 = errors.New("a run is already in progress")
)

const (
	DefaultPrefix     = "Sora_Pakistan"
	DefaultResetDelay = 7 * time.Second
)

type Fetcher interface {
	Fetch(ctx context.Context, ref refs.Reference) (*fetch.Item, error)
}

// Packer collects fetched payloads and serializes them once at the end.
type Packer interface {
	Add(name string, data []byte) string
	Len() int
	Bytes() ([]byte, error)
}

type Options struct {
	// Prefix starts every archive name.
	Prefix string
	// ResetDelay is how long a finished run keeps its terminal status before
	// the state returns to idle. Zero means DefaultResetDelay; negative
	// keeps the terminal status until the next run.
	ResetDelay time.Duration
	// OnProgress is called synchronously on every state change.
	OnProgress func(Snapshot)
	Now        func() time.Time
	NewPacker  func(modified time.Time) Packer
}

type Result struct {
	RunID      string
	References []refs.Reference
	Attempted  int
	// Failures holds one error per reference that could not be fetched.
	Failures    []error
	Entries     []string
	ArchiveName string
	Location    string
	Size        int
}

// Successes is the number of videos in the archive.
func (r *Result) Successes() int {
	return len(r.Entries)
}

type Pipeline struct {
	fetcher Fetcher
	saver   save.Saver
	opts    Options
	state   runState
}

func New(fetcher Fetcher, saver save.Saver, opts Options) *Pipeline {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.ResetDelay == 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewPacker == nil {
		opts.NewPacker = func(modified time.Time) Packer {
			return archive.New(modified)
		}
	}
	p := &Pipeline{fetcher: fetcher, saver: saver, opts: opts}
	p.state.state.Status = StatusIdle
	return p
}

// State returns the current run state.
func (p *Pipeline) State() Snapshot {
	return p.state.snapshot()
}

// Run performs one bulk run over the links pasted in text. Items that fail
// to download are recorded in the result and skipped. The returned error is
// one of the package sentinels (possibly wrapped) or the context error; the
// result is non-nil whenever the run started.
func (p *Pipeline) Run(ctx context.Context, text string) (*Result, error) {
	generation, ok := p.state.tryStart()
	if !ok {
		return nil, ErrBusy
	}
	result := &Result{RunID: uuid.NewString()}
	logger := log.With().Str("op", "pipeline/run").Str("run", result.RunID).Logger()
	p.notify(p.state.snapshot())

	result.References = refs.Parse(text)
	total := len(result.References)
	if total == 0 {
		return result, p.fail(generation, ErrInputEmpty)
	}
	if total > utils.MaxRecommendedItems {
		logger.Warn().Int("total", total).Msgf("more than %d videos are held in memory at once", utils.MaxRecommendedItems)
	}
	p.state.setTotal(total)
	p.notify(p.state.snapshot())

	now := p.opts.Now()
	packer := p.opts.NewPacker(now)
	attempted, err := Process(ctx, result.References, p.fetcher.Fetch, func(attempted int, ref refs.Reference, item *fetch.Item, err error) {
		if err == nil && item == nil {
			err = &fetch.ItemError{Ref: ref, Err: errors.New("empty result")}
		}
		if err != nil {
			logger.Warn().Err(err).Str("ref", ref.String()).Msg("skipping video")
			result.Failures = append(result.Failures, err)
		} else {
			result.Entries = append(result.Entries, packer.Add(item.Filename, item.Data))
		}
		p.notify(p.state.advance(attempted, err == nil))
	})
	result.Attempted = attempted
	if err != nil {
		return result, p.fail(generation, fmt.Errorf("run interrupted after %d of %d videos: %w", attempted, total, err))
	}
	logger.Info().Int("succeeded", packer.Len()).Int("failed", len(result.Failures)).Msg("fetch loop finished")
	if packer.Len() == 0 {
		return result, p.fail(generation, ErrNoSuccesses)
	}

	data, err := packer.Bytes()
	if err != nil {
		logger.Error().Err(err).Msg("archive serialization failed")
		return result, p.fail(generation, fmt.Errorf("%w: %v", ErrArchiveSerialization, err))
	}
	result.Size = len(data)
	result.ArchiveName = save.ArchiveName(p.opts.Prefix, packer.Len(), now)
	location, err := p.saver.Save(ctx, result.ArchiveName, data)
	if err != nil {
		return result, p.fail(generation, fmt.Errorf("%w: %v", ErrSaveFailed, err))
	}
	result.Location = location
	p.finish(generation, StatusSuccess, fmt.Sprintf("Downloaded %d videos as ZIP!", packer.Len()))
	return result, nil
}

func (p *Pipeline) fail(generation int, err error) error {
	p.finish(generation, StatusError, err.Error())
	return err
}

func (p *Pipeline) finish(generation int, status Status, message string) {
	p.notify(p.state.finish(status, message))
	if p.opts.ResetDelay > 0 {
		time.AfterFunc(p.opts.ResetDelay, func() {
			p.state.reset(generation)
		})
	}
}

func (p *Pipeline) notify(snapshot Snapshot) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(snapshot)
	}
}
