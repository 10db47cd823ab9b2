package common

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
)

// CommonFlags contains flags that are shared across multiple commands
type CommonFlags struct {
	// Environment and configuration
	EnvFile    *string
	ConfigFile *string

	// Logging and output
	Verbose  *bool
	Silent   *bool
	NoEmojis *bool

	// Help and version
	Version *bool
	Help    *bool
}

// RegisterCommonFlags registers common flags with fs
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		EnvFile:    fs.String("env", ".env", "Environment file path"),
		ConfigFile: fs.String("config", "", "Exchange config file (name under configs/ or path)"),

		Verbose:  fs.Bool("verbose", false, "Enable debug logging"),
		Silent:   fs.Bool("silent", false, "Only log errors"),
		NoEmojis: fs.Bool("no-emojis", false, "Disable emoji output"),

		Version: fs.Bool("version", false, "Show version information"),
		Help:    fs.Bool("help", false, "Show help information"),
	}
}

// FlagValidator provides flag validation utilities
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateChoice validates that a string is one of the allowed choices
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	for _, choice := range choices {
		if value == choice {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateRequired validates that a string flag is set
func (v *FlagValidator) ValidateRequired(name, value string) *FlagValidator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
	}
	return v
}

// AddError adds a custom validation error
func (v *FlagValidator) AddError(message string) *FlagValidator {
	v.errors = append(v.errors, message)
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetErrors returns all validation errors
func (v *FlagValidator) GetErrors() []string {
	return v.errors
}

// PrintErrors writes the validation errors to w, one per line
func (v *FlagValidator) PrintErrors(w io.Writer) {
	errs := v.GetErrors()
	if len(errs) == 0 {
		return
	}

	bullet := "❌ Flag validation errors:"
	if !DefaultLogger.ShowEmojis {
		bullet = "[ERROR] Flag validation errors:"
	}
	fmt.Fprintln(w, bullet)
	for _, err := range errs {
		fmt.Fprintf(w, "   - %s\n", err)
	}
}

// UsageFormatter provides utilities for formatting flag usage
type UsageFormatter struct {
	AppName        string
	AppDescription string
	Examples       []UsageExample
}

// UsageExample represents a usage example
type UsageExample struct {
	Command     string
	Description string
}

// NewUsageFormatter creates a new usage formatter
func NewUsageFormatter(appName, description string) *UsageFormatter {
	return &UsageFormatter{
		AppName:        appName,
		AppDescription: description,
		Examples:       make([]UsageExample, 0),
	}
}

// AddExample adds a usage example
func (u *UsageFormatter) AddExample(command, description string) *UsageFormatter {
	u.Examples = append(u.Examples, UsageExample{
		Command:     command,
		Description: description,
	})
	return u
}

// PrintUsage prints formatted usage information followed by the flags of fs
func (u *UsageFormatter) PrintUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "%s - %s\n\n", u.AppName, u.AppDescription)

	fmt.Fprintf(w, "USAGE:\n")
	fmt.Fprintf(w, "  %s [OPTIONS]\n\n", filepath.Base(os.Args[0]))

	if len(u.Examples) > 0 {
		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, example := range u.Examples {
			fmt.Fprintf(w, "  # %s\n", example.Description)
			fmt.Fprintf(w, "  %s\n\n", example.Command)
		}
	}

	fmt.Fprintf(w, "OPTIONS:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// CheckHelpAndVersion handles -help and -version and reports whether the
// command should exit
func CheckHelpAndVersion(appName string, commonFlags *CommonFlags, formatter *UsageFormatter, fs *flag.FlagSet) bool {
	if *commonFlags.Version {
		PrintVersion(appName)
		return true
	}

	if *commonFlags.Help {
		formatter.PrintUsage(os.Stdout, fs)
		return true
	}

	return false
}

// SetupLogger applies -verbose, -silent and -no-emojis to the console
// printer and the structured logger. An explicit flag wins over LOG_LEVEL.
func SetupLogger(commonFlags *CommonFlags) {
	console := DefaultLogger

	if *commonFlags.Silent {
		console.SetSilentMode(true)
		logger.Default().SetLevel(logrus.ErrorLevel)
	}

	if *commonFlags.Verbose {
		console.Level = LogLevelDebug
		logger.Default().SetLevel(logrus.DebugLevel)
	}

	if *commonFlags.NoEmojis {
		console.ShowEmojis = false
	}
}
