package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias of logrus.Fields
type Fields = logrus.Fields

// Logger wraps logrus with component-scoped entries and optional file rotation
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
	mu   sync.Mutex
}

// FileConfig controls rotated file output
type FileConfig struct {
	Dir        string
	Name       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a JSON logger whose level comes from LOG_LEVEL
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(levelFromEnv())
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "time",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "msg",
		},
	})
	return &Logger{Logger: l}
}

// Default returns the process-wide logger
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New()
	})
	return defaultLogger
}

// WithComponent returns an entry tagged with the component name
func WithComponent(component string) *logrus.Entry {
	return Default().WithComponent(component)
}

// WithComponent returns an entry tagged with the component name
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// EnableFile tees output into a size-rotated file under cfg.Dir
func (l *Logger) EnableFile(cfg FileConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg.Dir == "" {
		cfg.Dir = "logs"
	}
	if cfg.Name == "" {
		cfg.Name = "exchange.log"
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return err
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 50
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 14
	}

	l.file = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, cfg.Name),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	l.Logger.SetOutput(io.MultiWriter(os.Stderr, l.file))
	return nil
}

// SetLevelString sets the level by name, keeping the current one on bad input
func (l *Logger) SetLevelString(level string) {
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		l.Logger.SetLevel(lvl)
	}
}

// Close flushes and closes the rotated file if one is open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.Logger.SetOutput(os.Stderr)
	return err
}

func levelFromEnv() logrus.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		return logrus.InfoLevel
	}
	if lvl, err := logrus.ParseLevel(strings.ToLower(levelStr)); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}
