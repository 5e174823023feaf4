package pipeline

import (
	"context"
	"fmt"
	"time"

	"frame-pipeline/internal/classifier"
	"frame-pipeline/internal/models"
	"frame-pipeline/internal/table"
	"frame-pipeline/internal/tracker"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Classifier classifies one document text.
type Classifier interface {
	Classify(ctx context.Context, text string) classifier.Result
}

// Pacer waits between external calls.
type Pacer interface {
	Pace(ctx context.Context) error
}

// Config for a classification run
type Config struct {
	Input    string
	Output   string
	Progress bool // draw a progress bar on stderr
}

// Summary describes a finished run.
type Summary struct {
	RunID          string
	Total          int // input rows
	Recorded       int // already in the output before the run
	Duplicates     int
	Pending        int
	Classified     int // rows appended during this run
	Errors         int // rows appended with the ERROR sentinel
	ShortCircuited int
	Duration       time.Duration
}

// Runner drives the classify stage: load input, diff against the output
// table, then classify, append and pace one document at a time.
type Runner struct {
	classifier Classifier
	pacer      Pacer
	cfg        Config
	logger     *zap.Logger
}

// NewRunner creates a new classification runner
func NewRunner(c Classifier, pacer Pacer, cfg Config, logger *zap.Logger) *Runner {
	return &Runner{
		classifier: c,
		pacer:      pacer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run classifies every input document not yet present in the output table.
// Input problems are returned before any document is classified. A cancelled
// ctx stops the run between documents; rows already appended stay on disk.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	summary := &Summary{RunID: uuid.New().String()}
	logger := r.logger.With(zap.String("run_id", summary.RunID))

	header, docs, err := table.ReadDocuments(r.cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to load input table: %w", err)
	}
	summary.Total = len(docs)

	recorded, err := tracker.RecordedIDs(r.cfg.Output)
	if err != nil {
		return nil, err
	}
	if len(recorded) > 0 {
		logger.Info("Output file already exists, resuming",
			zap.String("output", r.cfg.Output),
			zap.Int("recorded", len(recorded)))
	}

	plan := tracker.Pending(docs, recorded)
	summary.Recorded = plan.Recorded
	summary.Duplicates = plan.Duplicates
	summary.Pending = len(plan.Pending)
	if plan.Duplicates > 0 {
		logger.Warn("Input contains repeated doc_ids, keeping the first occurrence",
			zap.Int("duplicates", plan.Duplicates))
	}

	logger.Info("Starting classification",
		zap.String("input", r.cfg.Input),
		zap.Int("total", summary.Total),
		zap.Int("pending", summary.Pending))

	if len(plan.Pending) == 0 {
		summary.Duration = time.Since(started)
		logger.Info("Nothing to classify")
		return summary, nil
	}

	appender, err := table.OpenAppender(r.cfg.Output, models.OutputHeader(header), logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := appender.Close(); cerr != nil {
			logger.Error("Failed to close output file", zap.Error(cerr))
		}
	}()

	var bar *progressbar.ProgressBar
	if r.cfg.Progress {
		bar = progressbar.Default(int64(len(plan.Pending)), "Classifying documents")
		defer bar.Close()
	}

	for i, doc := range plan.Pending {
		if err := ctx.Err(); err != nil {
			return r.finish(summary, started, logger), err
		}

		result := r.classifier.Classify(ctx, doc.TextCleaned)
		if !result.OK() && ctx.Err() != nil {
			// the call was interrupted, not answered; leave the row for the next run
			return r.finish(summary, started, logger), ctx.Err()
		}

		frame, justification := result.Row()
		row := models.OutputRow{Document: doc, Frame: frame, Justification: justification}
		if err := appender.Append(row.Record()); err != nil {
			return r.finish(summary, started, logger), err
		}

		summary.Classified++
		if result.ShortCircuited {
			summary.ShortCircuited++
		}
		if !result.OK() {
			summary.Errors++
			logger.Error("Failed to classify document",
				zap.String("doc_id", doc.DocID),
				zap.String("kind", string(result.Kind)),
				zap.String("error", result.Message))
		} else {
			logger.Info("Document classified",
				zap.String("doc_id", doc.DocID),
				zap.String("frame", frame),
				zap.Int("index", i+1),
				zap.Int("pending", len(plan.Pending)))
		}
		if bar != nil {
			_ = bar.Add(1)
		}

		// no model call was made for short texts, so there is no quota to protect
		if result.ShortCircuited || i == len(plan.Pending)-1 {
			continue
		}
		if err := r.pacer.Pace(ctx); err != nil {
			return r.finish(summary, started, logger), err
		}
	}

	r.finish(summary, started, logger)
	logger.Info("Classification finished", zap.String("output", r.cfg.Output))
	return summary, nil
}

func (r *Runner) finish(summary *Summary, started time.Time, logger *zap.Logger) *Summary {
	summary.Duration = time.Since(started)
	logger.Info("Run summary",
		zap.Int("classified", summary.Classified),
		zap.Int("errors", summary.Errors),
		zap.Int("short_circuited", summary.ShortCircuited),
		zap.Int("remaining", summary.Pending-summary.Classified),
		zap.Duration("duration", summary.Duration))
	return summary
}
