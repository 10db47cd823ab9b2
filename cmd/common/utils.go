package common

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/config"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger prints human-oriented progress lines for CLI applications. Machine
// logs go through internal/logger.
type Logger struct {
	Level      LogLevel
	ShowEmojis bool
	SilentMode bool
	Out        io.Writer
}

// NewLogger creates a new logger with default settings. Output goes to
// stderr so stdout only carries results.
func NewLogger() *Logger {
	return &Logger{
		Level:      LogLevelInfo,
		ShowEmojis: true,
		Out:        os.Stderr,
	}
}

// SetSilentMode enables or disables silent mode
func (l *Logger) SetSilentMode(silent bool) {
	l.SilentMode = silent
}

func (l *Logger) print(emoji, plain, format string, args ...interface{}) {
	prefix := emoji
	if !l.ShowEmojis {
		prefix = plain
	}
	fmt.Fprintf(l.Out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Header prints a formatted header
func (l *Logger) Header(title string) {
	if l.SilentMode {
		return
	}

	emoji := "🎯"
	if !l.ShowEmojis {
		emoji = "***"
	}

	fmt.Fprintf(l.Out, "\n%s %s\n", emoji, strings.ToUpper(title))
	fmt.Fprintf(l.Out, "%s\n", strings.Repeat("=", len(title)+5))
}

// Info prints an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.SilentMode || l.Level < LogLevelInfo {
		return
	}
	l.print("ℹ️ ", "[INFO]", format, args...)
}

// Error prints an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.print("❌", "[ERROR]", format, args...)
}

// Success prints a success message
func (l *Logger) Success(format string, args ...interface{}) {
	if l.SilentMode {
		return
	}
	l.print("✅", "[SUCCESS]", format, args...)
}

// Warn prints a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.SilentMode || l.Level < LogLevelWarn {
		return
	}
	l.print("⚠️ ", "[WARN]", format, args...)
}

// Debug prints a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Level < LogLevelDebug {
		return
	}
	l.print("🔍", "[DEBUG]", format, args...)
}

// Progress prints a progress message
func (l *Logger) Progress(format string, args ...interface{}) {
	if l.SilentMode {
		return
	}
	l.print("🔄", "[PROGRESS]", format, args...)
}

// StringUtils provides string manipulation utilities
type StringUtils struct{}

// NewStringUtils creates a new string utilities instance
func NewStringUtils() *StringUtils {
	return &StringUtils{}
}

// ParseDuration parses duration strings with day and week suffixes
func (s *StringUtils) ParseDuration(str string) (time.Duration, error) {
	str = strings.ToLower(strings.TrimSpace(str))

	// Handle day suffix
	if strings.HasSuffix(str, "d") || strings.HasSuffix(str, "days") {
		str = strings.TrimSuffix(str, "days")
		str = strings.TrimSuffix(str, "d")
		days, err := strconv.Atoi(str)
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	// Handle week suffix
	if strings.HasSuffix(str, "w") || strings.HasSuffix(str, "weeks") {
		str = strings.TrimSuffix(str, "weeks")
		str = strings.TrimSuffix(str, "w")
		weeks, err := strconv.Atoi(str)
		if err != nil {
			return 0, err
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	// Fall back to standard parsing
	return time.ParseDuration(str)
}

// ParseSince converts a -since value into a millisecond timestamp. It
// accepts milliseconds, RFC 3339, a YYYY-MM-DD date, or a duration back from
// now such as 90m or 7d. Empty means unset.
func (s *StringUtils) ParseSince(str string, now time.Time) (int64, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(str, 10, 64); err == nil {
		return ms, nil
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse("2006-01-02", str); err == nil {
		return t.UnixMilli(), nil
	}
	d, err := s.ParseDuration(str)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid since %q: expected milliseconds, RFC 3339, YYYY-MM-DD or a duration like 7d", str)
	}
	return now.Add(-d).UnixMilli(), nil
}

// FormatDuration formats a duration in a human-readable way
func (s *StringUtils) FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}

// EnvLoader provides environment loading utilities
type EnvLoader struct {
	logger *Logger
}

// NewEnvLoader creates a new environment loader
func NewEnvLoader(logger *Logger) *EnvLoader {
	return &EnvLoader{logger: logger}
}

// LoadEnvFile loads environment variables from a file
func (e *EnvLoader) LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		e.logger.Debug("Environment file %s not found, using system environment", path)
		return nil
	}

	if err := config.LoadEnvFile(path); err != nil {
		e.logger.Warn("Could not load environment file %s: %v", path, err)
		return err
	}

	e.logger.Debug("Environment loaded from %s", path)
	return nil
}

// Global instances for convenience
var (
	DefaultLogger    = NewLogger()
	DefaultStrUtils  = NewStringUtils()
	DefaultEnvLoader = NewEnvLoader(DefaultLogger)
)

// Convenience functions using global instances
func Header(title string) { DefaultLogger.Header(title) }
func Info(format string, args ...interface{}) { DefaultLogger.Info(format, args...) }
func Error(format string, args ...interface{}) { DefaultLogger.Error(format, args...) }
func Success(format string, args ...interface{}) { DefaultLogger.Success(format, args...) }
func Warn(format string, args ...interface{}) { DefaultLogger.Warn(format, args...) }
func Debug(format string, args ...interface{}) { DefaultLogger.Debug(format, args...) }
func Progress(format string, args ...interface{}) { DefaultLogger.Progress(format, args...) }

func FormatDuration(d time.Duration) string { return DefaultStrUtils.FormatDuration(d) }

func LoadEnvFile(path string) error { return DefaultEnvLoader.LoadEnvFile(path) }
func ParseSince(str string, now time.Time) (int64, error) { return DefaultStrUtils.ParseSince(str, now) }
