package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cmdetect/internal/config"
	"cmdetect/internal/detection"
	"cmdetect/internal/history"
	"cmdetect/internal/logging"
	"cmdetect/internal/media/ffmpeg"
	"cmdetect/internal/media/ffprobe"
	"cmdetect/internal/report"
	"cmdetect/internal/silencelog"
)

// ErrMultipleStdin is returned when stdin is named more than once.
var ErrMultipleStdin = errors.New("standard input can only be read once")

// Recorder stores completed runs.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (history.Run, error)
}

// Outcome is the result of processing one input.
type Outcome struct {
	Input    Input
	RunID    string
	Document report.Document
	Result   detection.Result
	Stats    silencelog.Stats
	Elapsed  time.Duration
	Err      error
}

// Options configures a Runner.
type Options struct {
	// Stdin is read for the "-" input; os.Stdin when nil.
	Stdin io.Reader
	// Recorder receives every successful run; nil disables history.
	Recorder Recorder
}

// Runner processes inputs through the detection engine.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	stdin    io.Reader
	recorder Recorder
}

// New constructs a Runner.
func New(cfg *config.Config, logger *slog.Logger, opts Options) *Runner {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	return &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "batch"),
		stdin:    stdin,
		recorder: opts.Recorder,
	}
}

// Run processes inputs with at most batch.workers in flight and returns one
// outcome per input in input order. The returned error joins every per-input
// failure; successful outcomes are still returned alongside it.
func (r *Runner) Run(ctx context.Context, inputs []Input) ([]Outcome, error) {
	stdinCount := 0
	for _, in := range inputs {
		if in.IsStdin() {
			stdinCount++
		}
	}
	if stdinCount > 1 {
		return nil, ErrMultipleStdin
	}

	outcomes := make([]Outcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Batch.Workers, 1))
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = Outcome{Input: in, Err: err}
				return nil
			}
			outcomes[i] = r.Process(gctx, in)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, out := range outcomes {
		if out.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", out.Input.Path, out.Err))
		}
	}
	if len(errs) > 0 {
		return outcomes, fmt.Errorf("%d of %d inputs failed: %w", len(errs), len(inputs), errors.Join(errs...))
	}
	return outcomes, nil
}

// Process runs detection on a single input.
func (r *Runner) Process(ctx context.Context, in Input) Outcome {
	start := time.Now()
	out := Outcome{Input: in, RunID: history.NewRunID()}
	ctx = logging.WithRun(ctx, out.RunID, in.Path)
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("processing input", logging.String("kind", string(in.Kind)))

	var err error
	switch in.Kind {
	case KindMedia:
		out.Result, out.Stats, err = r.detectMedia(ctx, logger, in.Path)
	case KindResult:
		out.Result, err = r.detectResult(in)
	case KindLog, "":
		out.Result, out.Stats, err = r.detectLog(in)
	default:
		err = fmt.Errorf("unknown input kind %q", in.Kind)
	}
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Err = err
		logger.Error("detection failed", logging.Error(err))
		return out
	}

	r.reportAnomalies(logger, out)
	out.Document = report.NewDocument(documentName(in), out.Result)
	logger.Info("detection complete",
		logging.Int("silences", len(out.Result.SilenceSegments)),
		logging.Int("candidates", out.Result.Candidates),
		logging.Int("cm_blocks", len(out.Result.Blocks)),
		logging.Int64("start_offset_ms", out.Result.StartOffsetMs),
		logging.Duration("elapsed", out.Elapsed),
	)

	if r.recorder != nil {
		if err := r.record(ctx, out); err != nil {
			logging.WarnWithContext(logger, "history record failed", "history_write_failed",
				"run is missing from the history ledger", logging.Error(err))
		}
	}
	return out
}

func documentName(in Input) string {
	if in.IsStdin() {
		return StdinPath
	}
	return in.Path
}

func (r *Runner) detectLog(in Input) (detection.Result, silencelog.Stats, error) {
	var reader io.Reader = r.stdin
	if !in.IsStdin() {
		file, err := os.Open(in.Path)
		if err != nil {
			return detection.Result{}, silencelog.Stats{}, fmt.Errorf("open silence log: %w", err)
		}
		defer file.Close()
		reader = file
	}
	intervals, stats, err := silencelog.Parse(reader)
	if err != nil {
		return detection.Result{}, stats, err
	}
	return detection.Detect(intervals), stats, nil
}

func (r *Runner) detectResult(in Input) (detection.Result, error) {
	file, err := os.Open(in.Path)
	if err != nil {
		return detection.Result{}, fmt.Errorf("open result document: %w", err)
	}
	defer file.Close()
	doc, err := report.Decode(file)
	if err != nil {
		return detection.Result{}, err
	}
	return detection.Detect(doc.Intervals()), nil
}

func (r *Runner) detectMedia(ctx context.Context, logger *slog.Logger, path string) (detection.Result, silencelog.Stats, error) {
	if r.cfg.FFmpeg.Probe {
		probe, err := ffprobe.Inspect(ctx, r.cfg.FFmpeg.FFprobeBinary, path)
		if err != nil {
			return detection.Result{}, silencelog.Stats{}, err
		}
		if err := probe.RequireAudio(); err != nil {
			return detection.Result{}, silencelog.Stats{}, err
		}
		logger.Debug("media probed",
			logging.Int("audio_streams", len(probe.AudioStreams())),
			logging.Int64("duration_ms", probe.DurationMs()),
		)
	}

	if timeout := r.cfg.FFmpegTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stream := detection.NewStream()
	opts := ffmpeg.Options{
		Binary:      r.cfg.FFmpeg.Binary,
		NoiseDB:     r.cfg.FFmpeg.NoiseDB,
		MinSilence:  r.cfg.MinSilence(),
		AudioStream: r.cfg.FFmpeg.AudioStream,
	}
	stats, err := ffmpeg.DetectSilence(ctx, path, opts, func(iv detection.Interval) error {
		if err := stream.Push(iv); err != nil && !errors.Is(err, detection.ErrMalformedInterval) {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return detection.Result{}, stats, fmt.Errorf("silencedetect timed out after %s: %w", r.cfg.FFmpegTimeout(), err)
		}
		return detection.Result{}, stats, err
	}
	return stream.Finish(), stats, nil
}

func (r *Runner) reportAnomalies(logger *slog.Logger, out Outcome) {
	for _, iv := range out.Result.Malformed {
		logging.WarnWithContext(logger, "dropped malformed silence", "malformed_interval",
			"silence ignored by detection",
			logging.Int64("start_ms", iv.StartMs),
			logging.Int64("end_ms", iv.EndMs),
		)
	}
	if out.Stats.Unmatched > 0 {
		logging.WarnWithContext(logger, "unpaired silence_start lines", "unmatched_silence_start",
			"silences without an end were ignored",
			logging.Int("count", out.Stats.Unmatched),
		)
	}
	if len(out.Result.SilenceSegments) == 0 {
		logger.Info("no silences found")
	}
}

func (r *Runner) record(ctx context.Context, out Outcome) error {
	doc, err := json.Marshal(out.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	source := history.SourceLog
	switch out.Input.Kind {
	case KindMedia:
		source = history.SourceMedia
	case KindResult:
		source = history.SourceResult
	}
	_, err = r.recorder.Record(ctx, history.Run{
		ID:            out.RunID,
		Input:         out.Document.InputFile,
		Source:        source,
		Elapsed:       out.Elapsed,
		Silences:      len(out.Result.SilenceSegments),
		Blocks:        len(out.Result.Blocks),
		StartOffsetMs: out.Result.StartOffsetMs,
		Document:      doc,
	})
	return err
}
