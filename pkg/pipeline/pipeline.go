// Package pipeline wires AudioSource through Resampler, VadGate, the scan
// buffer, the Transcriber pool, the DraftAssembler, the EventBus, and the
// DraftStore into the single running system, and owns its startup and
// shutdown order.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lokutor-ai/lokutor-dictation/pkg/audio"
	"github.com/lokutor-ai/lokutor-dictation/pkg/config"
	"github.com/lokutor-ai/lokutor-dictation/pkg/draft"
	"github.com/lokutor-ai/lokutor-dictation/pkg/eventbus"
	"github.com/lokutor-ai/lokutor-dictation/pkg/httpapi"
	"github.com/lokutor-ai/lokutor-dictation/pkg/logging"
	"github.com/lokutor-ai/lokutor-dictation/pkg/scan"
	"github.com/lokutor-ai/lokutor-dictation/pkg/store"
	"github.com/lokutor-ai/lokutor-dictation/pkg/transcribe"
	"github.com/lokutor-ai/lokutor-dictation/pkg/vad"
)

// Pipeline owns every component instance and drives startup/shutdown in
// the order spec §4.J requires.
type Pipeline struct {
	cfg config.Config
	log logging.Logger

	source    audio.Source
	resampler *audio.Resampler
	gate      *vad.Gate
	ring      *vad.Ring
	scanBuf   *scan.Buffer
	pool      *transcribe.Pool
	assembler *draft.Assembler
	bus       *eventbus.Bus
	draftDB   store.DraftStore
	http      *httpapi.Server

	sourceID string

	errCh chan error

	shutdownOnce sync.Once
	workerDone   sync.WaitGroup

	counters struct {
		framesIn     int64
		windowsOut   int64
		draftsOpen   int64
		draftsClosed int64
		softErrors   int64
	}
}

// New builds every component per cfg and wires the callback chain, but
// does not yet start the source or the HTTP server.
func New(cfg config.Config, log logging.Logger) (*Pipeline, error) {
	var draftDB store.DraftStore
	var err error
	switch {
	case cfg.DisablePersistence:
		// draftDB stays nil: the REST draft/revision endpoints answer 503
		// and closed drafts are published on the bus but never stored.
	case cfg.DatabaseDSN != "":
		draftDB, err = store.OpenPostgres(context.Background(), cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("pipeline: open store: %w", err)
		}
	default:
		draftDB = store.NewMemory()
	}

	p := &Pipeline{
		cfg:      cfg,
		log:      log,
		sourceID: "mic-0",
		resampler: audio.NewResampler(),
		ring:     vad.NewRing(cfg.RingRetentionSeconds),
		scanBuf:  scan.NewBuffer(cfg.SecondsPerScan, audio.TargetSampleRate),
		bus:      eventbus.New(),
		draftDB:  draftDB,
		errCh:    make(chan error, 16),
	}

	p.gate = vad.NewGate(
		vad.NewEnergyClassifier(cfg.VADThreshold, 3),
		vad.Config{Threshold: cfg.VADThreshold, PadMs: cfg.VADPadMs, SilenceMs: cfg.VADSilenceMs},
		p.onSpeechFrame,
		p.onSpeechMarker,
	)
	p.gate.OnEscalate(func(err error) { p.reportFatal(fmt.Errorf("vad: %w", err)) })

	p.pool = transcribe.NewPool(
		time.Duration(cfg.WhisperTimeoutSec*float64(time.Second)),
		cfg.WorkerCount*2,
	)

	p.assembler = draft.New(cfg.StartPhrases, cfg.EndPhrases, cfg.MatchThreshold, p.onDraftEvent)

	p.http = httpapi.New(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), p.bus, p.draftDB, p, p.log)

	p.source = p.buildSource()
	p.source.AddSink(audio.SinkFuncs{Frame: p.onRawFrame, Marker: p.onRawMarker})

	return p, nil
}

func (p *Pipeline) buildSource() audio.Source {
	switch {
	case p.cfg.AudioURL != "":
		return audio.NewNetSource(p.sourceID, p.cfg.AudioURL, audio.TargetSampleRate, audio.TargetChannels, 480)
	default:
		return audio.NewMicSource(p.sourceID, 44100, 1, 480)
	}
}

// Run starts the transcriber pool, the HTTP/websocket server, and the
// audio source, then blocks until ctx is cancelled or a fatal error is
// reported, at which point it runs the shutdown sequence.
func (p *Pipeline) Run(ctx context.Context) error {
	// The pool and the transcript readers run on their own context so that
	// shutdown can still drain them after ctx is cancelled.
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.pool.Start(runCtx, p.buildTranscribers())

	p.workerDone.Add(2)
	go p.drainTranscripts(runCtx)
	go p.drainSoftErrors(runCtx)

	srvErrCh := make(chan error, 1)
	p.http.Start(srvErrCh)

	if err := p.source.Start(); err != nil {
		cancel()
		p.shutdown(5 * time.Second)
		return fmt.Errorf("pipeline: source start: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-p.errCh:
		runErr = err
	case err := <-srvErrCh:
		runErr = err
	}

	p.shutdown(5 * time.Second)
	return runErr
}

// shutdown implements spec §4.J's teardown order: stop source, drain
// resampler/VAD (implicit — no more frames arrive once source.Stop
// returns), flush ScanBuffer, wait for the transcriber pool, close the
// assembler with end_of_input, unregister bus subscribers (handled by
// each websocket handler's own context cancellation), close the store.
// Errors are logged, never fatal to subsequent steps.
func (p *Pipeline) shutdown(drain time.Duration) {
	p.shutdownOnce.Do(func() {
		if err := p.source.Stop(); err != nil {
			p.log.Error("pipeline: source stop failed", "error", err)
		}

		if w, ok := p.scanBuf.Flush(); ok {
			p.submitWindow(w)
		}

		p.pool.Shutdown(drain)
		p.workerDone.Wait()

		p.assembler.EndOfInput()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := p.http.Shutdown(shutdownCtx); err != nil {
			p.log.Error("pipeline: http shutdown failed", "error", err)
		}

		if p.draftDB != nil {
			if err := p.draftDB.Close(); err != nil {
				p.log.Error("pipeline: store close failed", "error", err)
			}
		}
	})
}

func (p *Pipeline) buildTranscribers() []transcribe.Transcriber {
	workers := make([]transcribe.Transcriber, p.cfg.WorkerCount)
	for i := range workers {
		workers[i] = transcribe.NewHTTPTranscriber(
			fmt.Sprintf("whisper-%d", i),
			p.cfg.WhisperURL,
			p.cfg.WhisperAPIKey,
			p.cfg.ModelPath,
		)
	}
	return workers
}

func (p *Pipeline) reportFatal(err error) {
	select {
	case p.errCh <- err:
	default:
	}
}

// Status implements httpapi.StatusProvider for GET /status.
func (p *Pipeline) Status() map[string]interface{} {
	return map[string]interface{}{
		"frames_in":     atomic.LoadInt64(&p.counters.framesIn),
		"windows_out":   atomic.LoadInt64(&p.counters.windowsOut),
		"drafts_open":   atomic.LoadInt64(&p.counters.draftsOpen),
		"drafts_closed": atomic.LoadInt64(&p.counters.draftsClosed),
		"soft_errors":   atomic.LoadInt64(&p.counters.softErrors),
	}
}

func newEventID() string { return uuid.NewString() }
