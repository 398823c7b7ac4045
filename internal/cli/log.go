package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

const logTimeFormat = "15:04:05.00"

// newLogger returns the CLI logger, e.g. "14:32:01.45 INFO bundled edges=42".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// progress measures one command from start to finish.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to the millisecond, followed
// by the per-stage timings at debug level.
func (p *progress) done(msg string, stats pipeline.Stats) {
	p.logger.Info(msg, "elapsed", time.Since(p.start).Round(time.Millisecond))
	logTimings(p.logger, stats)
}

// logTimings reports where a pipeline run spent its time. Stages served
// from the cache report zero and are left out.
func logTimings(l *log.Logger, s pipeline.Stats) {
	kv := make([]any, 0, 6)
	for _, stage := range []struct {
		name string
		d    time.Duration
	}{
		{"parse", s.ParseTime},
		{"layout", s.LayoutTime},
		{"render", s.RenderTime},
	} {
		if stage.d > 0 {
			kv = append(kv, stage.name, stage.d.Round(time.Microsecond))
		}
	}
	if len(kv) == 0 {
		return
	}
	l.Debug("stage timings", kv...)
}
