package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct {
	Root string
}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{Root: "results"}
}

// GetDefaultOutputDir returns results/<exchange>_<operation>
func (p *DefaultPathManager) GetDefaultOutputDir(exchange, operation string) string {
	e := strings.ToLower(strings.TrimSpace(exchange))
	o := strings.ToLower(strings.TrimSpace(operation))
	if e == "" {
		e = "unknown"
	}
	if o == "" {
		o = "unknown"
	}

	return filepath.Join(p.Root, fmt.Sprintf("%s_%s", e, o))
}

// OutputFile names the file for one operation, e.g.
// results/coinmetro_ohlcv/BTC-EUR.csv
func (p *DefaultPathManager) OutputFile(exchange, operation, symbol string, format Format) string {
	name := strings.NewReplacer("/", "-", ":", "-").Replace(strings.ToUpper(strings.TrimSpace(symbol)))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(operation))
	}
	return filepath.Join(p.GetDefaultOutputDir(exchange, operation), name+format.Extension())
}

// EnsureDirectoryExists creates directory if it doesn't exist
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// Package-level convenience function
func DefaultOutputDir(exchange, operation string) string {
	return NewDefaultPathManager().GetDefaultOutputDir(exchange, operation)
}
