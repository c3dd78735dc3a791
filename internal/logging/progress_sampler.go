package logging

import (
	"time"

	"go.uber.org/zap"
)

// DefaultProgressSteps is the number of intermediate progress lines per
// recording.
const DefaultProgressSteps = 10

// windowSampler picks the window counts worth a log line: the first
// report, one per stride of total/steps windows and the final window.
// A new total starts a new recording.
type windowSampler struct {
	steps    int
	total    int
	next     int
	finished bool
}

func (s *windowSampler) due(done, total int) bool {
	if total <= 0 || done < 0 {
		return false
	}
	if total != s.total {
		s.total = total
		s.next = 0
		s.finished = false
	}
	if done >= total {
		if s.finished {
			return false
		}
		s.finished = true
		return true
	}
	if done < s.next {
		return false
	}
	stride := max(1, (total+s.steps-1)/s.steps)
	s.next = (done/stride + 1) * stride
	return true
}

// ProgressLogger logs noise-map window progress of one recording. It
// satisfies rmsmap.Progress.
type ProgressLogger struct {
	logger    *zap.Logger
	recording string
	sampler   windowSampler
	clock     func() time.Time
	start     time.Time
}

// NewProgressLogger returns a ProgressLogger emitting about steps lines
// per recording; steps <= 0 selects DefaultProgressSteps.
func NewProgressLogger(logger *zap.Logger, recording string, steps int) *ProgressLogger {
	if steps <= 0 {
		steps = DefaultProgressSteps
	}
	return &ProgressLogger{
		logger:    logger,
		recording: recording,
		sampler:   windowSampler{steps: steps},
		clock:     time.Now,
	}
}

// Report logs done of total windows when the sampler lets it through.
func (p *ProgressLogger) Report(done, total int) {
	if p == nil || p.logger == nil {
		return
	}
	if !p.sampler.due(done, total) {
		return
	}
	now := p.clock()
	if done == 0 || p.start.IsZero() {
		p.start = now
	}
	msg := "noise map windows"
	if done >= total {
		msg = "noise map windows done"
	}
	p.logger.Info(msg,
		zap.String("recording", p.recording),
		zap.Int("window", done),
		zap.Int("windows", total),
		zap.Int("percent", 100*done/total),
		zap.Duration("elapsed", now.Sub(p.start)),
	)
}
