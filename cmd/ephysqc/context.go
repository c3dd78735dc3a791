package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-ephys/internal/config"
	"github.com/cwbudde/algo-ephys/internal/logging"
	"github.com/cwbudde/algo-ephys/rmsmap"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error
	runID      string
}

func newCommandContext(configFlag, levelFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
		runID:      uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.levelFlag != nil && strings.TrimSpace(*c.levelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.levelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the run logger; every entry carries the run id.
func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Fields: []zap.Field{zap.String("run_id", c.runID)},
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) close() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// outDir resolves the output folder: flag, then config, then empty for
// "next to the recording".
func (c *commandContext) outDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if c.config != nil {
		return c.config.Output.Dir
	}
	return ""
}

// newProgress returns a terminal progress bar when stderr is a TTY and
// sampled log lines otherwise.
func (c *commandContext) newProgress(path string) rmsmap.Progress {
	name := filepath.Base(path)
	if stderrIsTerminal() {
		return &barProgress{bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)}
	}
	return logging.NewProgressLogger(c.logger, name, logging.DefaultProgressSteps)
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// barProgress drives a progress bar from window counts.
type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Report(done, total int) {
	if p.bar.GetMax() != total {
		p.bar.ChangeMax(total)
	}
	_ = p.bar.Set(done)
	if done >= total {
		_ = p.bar.Finish()
	}
}
