// Package logging owns the process-wide zerolog logger and the daily log
// file it writes to.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger. It writes to stdout until Init is called.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const maxRetentionDays = 7

type Config struct {
	Level         string
	JSON          bool
	Dir           string
	RetentionDays int
	// Output replaces stdout; tests use it to capture lines.
	Output io.Writer
}

// Init configures the global logger. When Dir is set, every line is also
// appended as JSON to Dir/app-YYYY-MM-DD.log; the returned func stops the
// rotation loop and closes the file.
func Init(cfg Config) (func(), error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	var console io.Writer = out
	if !cfg.JSON {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if cfg.Dir == "" {
		Logger = zerolog.New(console).With().Timestamp().Logger()
		return func() {}, nil
	}

	retention := cfg.RetentionDays
	if retention <= 0 || retention > maxRetentionDays {
		retention = maxRetentionDays
	}
	file, err := newDailyFile(cfg.Dir, retention)
	if err != nil {
		Logger = zerolog.New(console).With().Timestamp().Logger()
		return func() {}, err
	}
	Logger = zerolog.New(zerolog.MultiLevelWriter(console, file)).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if err := file.rotate(now); err != nil {
					Logger.Warn().Err(err).Msg("log rotation failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		_ = file.Close()
	}, nil
}

// WithComponent creates a child logger with a component field.
func WithComponent(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}

// dailyFile is an io.Writer that switches to a new file when the date
// changes and prunes files past the retention window.
type dailyFile struct {
	mu        sync.Mutex
	dir       string
	retention int
	date      string
	file      *os.File
}

func newDailyFile(dir string, retention int) (*dailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &dailyFile{dir: dir, retention: retention}
	if err := d.rotate(time.Now()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return len(p), nil
	}
	return d.file.Write(p)
}

func (d *dailyFile) rotate(now time.Time) error {
	date := now.Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	if date == d.date && d.file != nil {
		return nil
	}
	next, err := openLogFile(d.dir, date)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = next
	d.date = date
	cleanupOldLogs(d.dir, d.retention, now)
	return nil
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func openLogFile(dir, date string) (*os.File, error) {
	filename := filepath.Join(dir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func cleanupOldLogs(dir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	today, _ := time.Parse("2006-01-02", now.Format("2006-01-02"))
	cutoff := today.AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		logDate, err := time.Parse("2006-01-02", datePart)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}
