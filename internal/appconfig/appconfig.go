// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// DefaultPort is the port the page under test is served on.
	DefaultPort = 3001
	// DefaultIterations is the number of measured iterations per mode.
	DefaultIterations = 5
	// DefaultWarmup is the number of unmeasured warmup rounds.
	DefaultWarmup = 1
	// DefaultResultsDir is where artifacts are written.
	DefaultResultsDir = "benchmarks/results"
	// DefaultFrameCap bounds one frame sampling pass.
	DefaultFrameCap = 180
	// DefaultJankThreshold is the 60fps frame budget in milliseconds.
	DefaultJankThreshold = 16.67
	// defaultStepTimeout bounds every remote browser step.
	defaultStepTimeout = 60 * time.Second
)

// Config holds the immutable parameters of one benchmark run.
type Config struct {
	Host          string  `json:"host"`
	Port          int     `json:"port"`
	Path          string  `json:"path"`
	Iterations    int     `json:"iterations"`
	Warmup        int     `json:"warmup"`
	Headed        bool    `json:"headed"`
	ResultsDir    string  `json:"resultsDir"`
	FrameCap      int     `json:"frameCap"`
	JankThreshold float64 `json:"jankThreshold"`
	StepTimeout   int     `json:"stepTimeout,omitempty"`
	ChromePath    string  `json:"chromePath,omitempty"`
	LogFile       string  `json:"logFile,omitempty"`
	Debug         bool    `json:"debug"`
	Progress      bool    `json:"progress"`
	ConfigPath    string  `json:"-"`
}

// Defaults returns a Config populated with every default value.
func Defaults() Config {
	return Config{
		Host:          "localhost",
		Port:          DefaultPort,
		Path:          "/",
		Iterations:    DefaultIterations,
		Warmup:        DefaultWarmup,
		ResultsDir:    DefaultResultsDir,
		FrameCap:      DefaultFrameCap,
		JankThreshold: DefaultJankThreshold,
		StepTimeout:   int(defaultStepTimeout.Seconds()),
	}
}

// Validate reports the first invalid run parameter.
func (c Config) Validate() error {
	var problems []string
	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.Path, "/") {
		problems = append(problems, fmt.Sprintf("path %q must start with /", c.Path))
	}
	if c.Iterations < 1 {
		problems = append(problems, "iterations must be at least 1")
	}
	if c.Warmup < 0 {
		problems = append(problems, "warmup must not be negative")
	}
	if c.FrameCap < 2 {
		problems = append(problems, "frameCap must be at least 2")
	}
	if c.JankThreshold <= 0 {
		problems = append(problems, "jankThreshold must be positive")
	}
	if strings.TrimSpace(c.ResultsDir) == "" {
		problems = append(problems, "resultsDir must not be empty")
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// HostName returns the configured host, defaulting to localhost.
func (c Config) HostName() string {
	if h := strings.TrimSpace(c.Host); h != "" {
		return h
	}
	return "localhost"
}

// BaseURL returns the server root used by the availability probe.
func (c Config) BaseURL() string {
	u := url.URL{Scheme: "http", Host: c.HostName() + ":" + strconv.Itoa(c.Port), Path: "/"}
	return u.String()
}

// TargetURL returns the URL of the page under test.
func (c Config) TargetURL() string {
	return strings.TrimSuffix(c.BaseURL(), "/") + c.Path
}

// StepTimeoutDuration returns the per-step timeout, falling back to the default if not specified.
func (c Config) StepTimeoutDuration() time.Duration {
	if c.StepTimeout <= 0 {
		return defaultStepTimeout
	}
	return time.Duration(c.StepTimeout) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "modebench.log"
}
