// Package monitor watches the clipboard and replaces copied URLs with
// their cleaned form.
//
// The poll loop is the only owner of the Snapshot. Cleaning runs on a
// worker goroutine so a slow redirect never blocks polling; at most one
// worker exists at a time and a newer clipboard change cancels it.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/landaire/stoptrackingme/internal/weburl"
)

// Clipboard is read and written by the monitor.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Rewriter cleans clipboard text. *pipeline.Pipeline satisfies it.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (weburl.URL, bool)
}

// State is the monitor's processing state.
type State int

const (
	Idle State = iota
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is the last clipboard text the monitor saw or wrote.
type Snapshot struct {
	Text    string
	Seq     uint64
	Written bool // Text was written by the monitor itself
}

// Options configures a Monitor.
type Options struct {
	PollInterval     time.Duration
	CleanOnStart     bool
	LogClipboardText bool
}

type result struct {
	seq     uint64
	cleaned string
	ok      bool
}

type job struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan result
}

// Monitor polls a Clipboard and writes back cleaned URLs.
type Monitor struct {
	clip     Clipboard
	rewriter Rewriter
	opts     Options
	logger   zerolog.Logger

	// owned by the Run loop
	snapshot Snapshot
	state    State
	job      *job
}

// New creates a Monitor.
func New(clip Clipboard, rewriter Rewriter, opts Options, logger zerolog.Logger) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	return &Monitor{
		clip:     clip,
		rewriter: rewriter,
		opts:     opts,
		logger:   logger.With().Str("component", "monitor").Logger(),
	}
}

// Run polls until ctx is cancelled. Any in-flight worker is cancelled and
// awaited before Run returns.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()
	defer m.stopWorker()

	m.seed(ctx)
	m.logger.Info().Dur("poll_interval", m.opts.PollInterval).Msg("Watching clipboard")

	for {
		var done <-chan result
		if m.job != nil {
			done = m.job.done
		}

		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Stopped watching clipboard")
			return nil
		case <-ticker.C:
			m.poll(ctx)
		case res := <-done:
			m.complete(res)
		}
	}
}

// seed records the clipboard content present at startup.
func (m *Monitor) seed(ctx context.Context) {
	text, err := m.clip.ReadText()
	if err != nil {
		m.logger.Debug().Err(err).Msg("Clipboard empty or unreadable at startup")
		return
	}
	m.snapshot = Snapshot{Text: text, Seq: 1}
	if m.opts.CleanOnStart {
		m.start(ctx)
	}
}

// poll reads the clipboard and starts a worker when its text changed.
func (m *Monitor) poll(ctx context.Context) {
	text, err := m.clip.ReadText()
	if err != nil {
		m.logger.Debug().Err(err).Msg("Clipboard read failed")
		return
	}
	if text == m.snapshot.Text {
		return
	}

	m.snapshot = Snapshot{Text: text, Seq: m.snapshot.Seq + 1}
	m.logger.Debug().
		Uint64("seq", m.snapshot.Seq).
		Stringer("state", m.state).
		Str("text", m.redact(text)).
		Msg("Clipboard changed")
	m.start(ctx)
}

// start launches a worker for the current snapshot, replacing any stale
// one.
func (m *Monitor) start(ctx context.Context) {
	if m.job != nil {
		m.logger.Debug().Uint64("seq", m.job.seq).Msg("Superseded, cancelling worker")
		m.stopWorker()
	}
	if !weburl.IsURL(m.snapshot.Text) {
		return
	}

	jctx, cancel := context.WithCancel(ctx)
	j := &job{seq: m.snapshot.Seq, cancel: cancel, done: make(chan result, 1)}
	text := m.snapshot.Text
	go func() {
		u, ok := m.rewriter.Rewrite(jctx, text)
		res := result{seq: j.seq, ok: ok}
		if ok {
			res.cleaned = u.String()
		}
		j.done <- res
	}()

	m.job = j
	m.state = Processing
}

// stopWorker cancels the running worker, waits for it and drops its
// result.
func (m *Monitor) stopWorker() {
	if m.job == nil {
		return
	}
	m.job.cancel()
	<-m.job.done
	m.job = nil
	m.state = Idle
}

// complete applies a worker's result if it is still current.
func (m *Monitor) complete(res result) {
	m.job.cancel()
	m.job = nil
	m.state = Idle

	if res.seq != m.snapshot.Seq {
		m.logger.Debug().Uint64("seq", res.seq).Uint64("current", m.snapshot.Seq).Msg("Discarding stale result")
		return
	}
	if !res.ok || res.cleaned == m.snapshot.Text {
		return
	}

	// Record our own write first so the next poll does not pick it up.
	candidate := m.snapshot
	m.snapshot = Snapshot{Text: res.cleaned, Seq: candidate.Seq + 1, Written: true}
	if err := m.clip.WriteText(res.cleaned); err != nil {
		m.snapshot = candidate
		m.logger.Warn().Err(err).Msg("Failed to write cleaned URL to clipboard")
		return
	}

	m.logger.Info().
		Str("from", m.redact(candidate.Text)).
		Str("to", m.redact(res.cleaned)).
		Msg("Cleaned URL")
}

// redact hides clipboard content from logs unless explicitly enabled.
func (m *Monitor) redact(text string) string {
	if m.opts.LogClipboardText {
		return text
	}
	if u, err := weburl.Parse(text); err == nil {
		return fmt.Sprintf("%s://%s/[%d bytes]", u.Scheme, u.CanonicalHost(), len(text))
	}
	return fmt.Sprintf("[%d bytes]", len(text))
}
