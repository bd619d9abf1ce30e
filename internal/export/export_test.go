package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"taxreview/internal/document"
	"taxreview/internal/pdf"
	"taxreview/internal/taxrecord"
)

type fakeEngine struct {
	data    []byte
	err     error
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Render(ctx context.Context, doc *document.Box) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.data, f.err
}

var fixed = time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)

func record() *taxrecord.Record {
	return &taxrecord.Record{
		Jurisdiction: taxrecord.Jurisdiction{Name: "France"},
		Vertical:     taxrecord.Vertical{Label: "value_added_tax"},
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "tax-research-France-value-added-tax-2024-03-09.pdf", Filename(record(), fixed))

	rec := record()
	rec.Jurisdiction.Name = "Bosnia/Herzegovina"
	assert.Equal(t, "tax-research-Bosnia_Herzegovina-value-added-tax-2024-03-09.pdf", Filename(rec, fixed))
}

func TestFilename_UTCDate(t *testing.T) {
	// 23:30 on 9 March in UTC-5 is already 10 March in UTC.
	evening := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*60*60))
	assert.Equal(t, "tax-research-France-value-added-tax-2024-03-10.pdf", Filename(record(), evening))

	// 00:30 on 10 March in UTC+9 is still 9 March in UTC.
	morning := time.Date(2024, 3, 10, 0, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	assert.Equal(t, "tax-research-France-value-added-tax-2024-03-09.pdf", Filename(record(), morning))
}

func TestExport_WritesFile(t *testing.T) {
	dir := t.TempDir()
	e := New(&fakeEngine{data: []byte("%PDF-1.4 fake")}, dir, WithClock(func() time.Time { return fixed }))

	res, err := e.Export(context.Background(), record())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tax-research-France-value-added-tax-2024-03-09.pdf"), res.Path)
	assert.Equal(t, "fake", res.Engine)
	assert.NotEmpty(t, res.JobID)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExport_FailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("engine exploded")
	e := New(&fakeEngine{err: boom}, dir)

	res, err := e.Export(context.Background(), record())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrExportFailure)
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, e.InFlight(), "guard released after failure")
}

func TestExport_NilRecord(t *testing.T) {
	_, err := New(&fakeEngine{}, t.TempDir()).Export(context.Background(), nil)
	assert.ErrorIs(t, err, ErrExportFailure)
}

func TestExport_SingleFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := &fakeEngine{
		data:    []byte("%PDF"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	e := New(engine, t.TempDir())

	done := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), record())
		done <- err
	}()

	<-engine.started
	assert.True(t, e.InFlight())
	_, err := e.Export(context.Background(), record())
	assert.ErrorIs(t, err, ErrExportInFlight)

	close(engine.release)
	require.NoError(t, <-done)
	assert.False(t, e.InFlight())
	assert.Equal(t, 1, engine.calls)
}

func TestExport_NativeEngine(t *testing.T) {
	dir := t.TempDir()
	e := New(pdf.NewNative(), dir, WithClock(func() time.Time { return fixed }))

	res, err := e.Export(context.Background(), record())
	require.NoError(t, err)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))
	assert.Equal(t, len(data), res.Bytes)
}
