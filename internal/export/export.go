// Package export turns the loaded record into a PDF file on disk. Exports
// are single-flight: while one is running every further request fails fast
// with ErrExportInFlight instead of queueing.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"taxreview/internal/derive"
	"taxreview/internal/document"
	"taxreview/internal/logging"
	"taxreview/internal/pdf"
	"taxreview/internal/taxrecord"
)

var (
	// ErrExportInFlight is returned when an export is already running.
	ErrExportInFlight = errors.New("an export is already in progress")
	// ErrExportFailure wraps every engine or write failure.
	ErrExportFailure = errors.New("export failed")
)

// Result describes a finished export.
type Result struct {
	JobID    string
	Path     string
	Bytes    int
	Engine   string
	Duration time.Duration
}

// Exporter writes PDFs for records using one engine.
type Exporter struct {
	engine pdf.Engine
	dir    string
	now    func() time.Time
	sem    *semaphore.Weighted
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithClock overrides the time source used for file names and headers.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New creates an Exporter writing into dir.
func New(engine pdf.Engine, dir string, opts ...Option) *Exporter {
	if dir == "" {
		dir = "."
	}
	e := &Exporter{
		engine: engine,
		dir:    dir,
		now:    time.Now,
		sem:    semaphore.NewWeighted(1),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// InFlight reports whether an export is running.
func (e *Exporter) InFlight() bool {
	if e.sem.TryAcquire(1) {
		e.sem.Release(1)
		return false
	}
	return true
}

// Filename derives the output name for rec generated at t:
// tax-research-{jurisdiction}-{vertical-label-dashed}-{YYYY-MM-DD}.pdf
// The date is the UTC calendar day of t.
func Filename(rec *taxrecord.Record, t time.Time) string {
	name := fmt.Sprintf("tax-research-%s-%s-%s.pdf",
		rec.Jurisdiction.Name,
		derive.DashedLabel(rec.Vertical.Label),
		t.UTC().Format("2006-01-02"),
	)
	return sanitize(name)
}

// sanitize keeps the name on one path segment.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
}

// Export renders rec and writes it into the output directory. The file
// appears only once it is complete.
func (e *Exporter) Export(ctx context.Context, rec *taxrecord.Record) (*Result, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: no record loaded", ErrExportFailure)
	}
	if !e.sem.TryAcquire(1) {
		logging.Audit().ExportBlocked(rec.Jurisdiction.Name)
		return nil, ErrExportInFlight
	}
	defer e.sem.Release(1)

	jobID := uuid.NewString()
	audit := logging.AuditWithJob(jobID)
	log := logging.Get(logging.CategoryExport).With("job", jobID)

	now := e.now()
	target := filepath.Join(e.dir, Filename(rec, now))
	audit.ExportStart(e.engine.Name(), target)
	log.Info("exporting %q with %s engine", target, e.engine.Name())

	start := time.Now()
	data, err := e.engine.Render(ctx, document.Build(rec, now))
	if err != nil {
		err = fmt.Errorf("%w: %s engine: %w", ErrExportFailure, e.engine.Name(), err)
		audit.ExportComplete(target, 0, time.Since(start), err)
		log.Error("render failed: %v", err)
		return nil, err
	}

	if err := writeAtomic(target, data); err != nil {
		err = fmt.Errorf("%w: %w", ErrExportFailure, err)
		audit.ExportComplete(target, 0, time.Since(start), err)
		log.Error("write failed: %v", err)
		return nil, err
	}

	res := &Result{
		JobID:    jobID,
		Path:     target,
		Bytes:    len(data),
		Engine:   e.engine.Name(),
		Duration: time.Since(start),
	}
	audit.ExportComplete(target, int64(len(data)), res.Duration, nil)
	audit.FileOp(logging.AuditFileWrite, target, int64(len(data)), nil)
	return res, nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, so a failed export never leaves a partial file behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".taxreview-*.pdf.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
