package common

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagValidator(t *testing.T) {
	v := NewFlagValidator()
	v.ValidateChoice("format", "json", []string{"table", "json"}).
		ValidateInt("limit", 10, 0, 1000).
		ValidateRequired("exchange", "coinmetro")
	assert.False(t, v.HasErrors())

	var buf bytes.Buffer
	v.PrintErrors(&buf)
	assert.Empty(t, buf.String())

	v.ValidateChoice("format", "yaml", []string{"table", "json"})
	require.True(t, v.HasErrors())
	assert.Equal(t, []string{"format must be one of [table, json], got: yaml"}, v.GetErrors())

	v.ValidateInt("limit", -1, 0, 1000).ValidateRequired("exchange", " ")
	assert.Len(t, v.GetErrors(), 3)

	v.PrintErrors(&buf)
	out := buf.String()
	assert.Contains(t, out, "Flag validation errors:\n")
	assert.Contains(t, out, "   - exchange is required\n")
}

func TestRegisterCommonFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cf := RegisterCommonFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", "prod", "-verbose"}))

	assert.Equal(t, ".env", *cf.EnvFile)
	assert.Equal(t, "prod", *cf.ConfigFile)
	assert.True(t, *cf.Verbose)
	assert.False(t, *cf.Silent)
}

func TestUsageFormatter(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterCommonFlags(fs)
	u := NewUsageFormatter("exchange-cli", "query exchanges").
		AddExample("exchange-cli -exchange bitbns -op ticker -symbol BTC/INR", "Latest ticker")

	var buf bytes.Buffer
	u.PrintUsage(&buf, fs)
	out := buf.String()
	assert.Contains(t, out, "exchange-cli - query exchanges")
	assert.Contains(t, out, "# Latest ticker")
	assert.Contains(t, out, "-config")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Level: LogLevelInfo, Out: &buf}

	l.Info("loaded %d markets", 3)
	l.Debug("hidden")
	l.Success("done")
	assert.Equal(t, "[INFO] loaded 3 markets\n[SUCCESS] done\n", buf.String())

	buf.Reset()
	l.SetSilentMode(true)
	l.Info("hidden")
	l.Warn("hidden")
	l.Error("boom")
	assert.Equal(t, "[ERROR] boom\n", buf.String())
}

func TestLogger_HeaderProgressDebug(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Level: LogLevelDebug, Out: &buf}

	l.Header("coinmetro history")
	l.Progress("page %d", 2)
	l.Debug("limit=%d", 500)
	assert.Equal(t, "\n*** COINMETRO HISTORY\n======================\n[PROGRESS] page 2\n[DEBUG] limit=500\n", buf.String())

	buf.Reset()
	l.SetSilentMode(true)
	l.Header("hidden")
	l.Progress("hidden")
	assert.Empty(t, buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1.5m"},
		{3 * time.Hour, "3.0h"},
		{36 * time.Hour, "1.5d"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestParseDuration(t *testing.T) {
	s := NewStringUtils()
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"2days", 48 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := s.ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"1700000000000", 1700000000000, false},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), false},
		{"2024-03-01T10:00:00Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli(), false},
		{"1d", now.Add(-24 * time.Hour).UnixMilli(), false},
		{"yesterday", 0, true},
		{"-5m", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSince(tt.in, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvLoader(t *testing.T) {
	var buf bytes.Buffer
	loader := NewEnvLoader(&Logger{Level: LogLevelDebug, Out: &buf})

	require.NoError(t, loader.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.Contains(t, buf.String(), "not found")

	path := filepath.Join(t.TempDir(), "cli.env")
	require.NoError(t, os.WriteFile(path, []byte("EXCHANGE_CLI_TEST=1\n"), 0o600))
	t.Setenv("EXCHANGE_CLI_TEST", "")
	os.Unsetenv("EXCHANGE_CLI_TEST")
	require.NoError(t, loader.LoadEnvFile(path))
	assert.Equal(t, "1", os.Getenv("EXCHANGE_CLI_TEST"))
}

func TestVersion(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, ProjectName, info.ProjectName)
	assert.Equal(t, ProjectVersion, info.Version)
	assert.Contains(t, GetFullVersion(), ProjectVersion+"-")
	assert.True(t, IsDevBuild())
}
