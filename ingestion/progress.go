package ingestion

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/studyops/core"
)

// progressReporter writes running ingestion counters every interval files.
// The number of files is not known up front, so it reports counts and rate
// rather than a percentage. Callers serialize access.
type progressReporter struct {
	writer       io.Writer
	interval     int
	lastReported int
	startTime    time.Time
}

func newProgressReporter(writer io.Writer, interval int) *progressReporter {
	return &progressReporter{
		writer:    writer,
		interval:  interval,
		startTime: time.Now(),
	}
}

// update reports if at least interval files completed since the last report.
func (p *progressReporter) update(res core.IngestResult) {
	done := res.DocsOK + res.DocsSkipped
	if done-p.lastReported >= p.interval {
		p.report(res)
		p.lastReported = done
	}
}

// finish prints final counters followed by a newline.
func (p *progressReporter) finish(res core.IngestResult) {
	p.report(res)
	fmt.Fprintln(p.writer)
}

func (p *progressReporter) report(res core.IngestResult) {
	done := res.DocsOK + res.DocsSkipped
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(done) / elapsed
	}

	fmt.Fprintf(p.writer, "\rProgress: %d files (%d ok, %d skipped), %d chunks - %.1f files/s",
		done, res.DocsOK, res.DocsSkipped, res.ChunksWritten, rate)
}
