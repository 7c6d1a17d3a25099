// Package startup holds the gateway's process-lifecycle logging and
// preflight checks: the startup banner, route table dump, FFmpeg/FFprobe
// availability checks, and shutdown logging. Adapted from the teacher's
// startup.go, with LoadConfig's responsibilities moved to
// internal/config (now backed by viper) and the media-library-specific
// directory setup replaced by the gateway's single HLS root check.
package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"hlsgateway/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables, injected via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is the JSON body the /version endpoint reports.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// PrintBanner and LogSystemInfo are called once at process start, right
// after configuration has been loaded, mirroring the teacher's boot sequence.
func PrintBanner() {
	banner := `
------------------------------------------------------------
  _     _        ___       _
 | |__ | |___   __ _ __ _| |_ _____ __ ____ _ _   _
 | '_ \| / __| / _' / _' | __/ _ \ \ /\ / / _' | | | |
 | | | | \__ \| (_| | (_| | ||  __/\ V  V / (_| | |_| |
 |_| |_|_|___/ \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
               |___/                             |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

// LogSystemInfo logs the runtime environment the process is executing
// under.
func LogSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

// EnsureHLSRoot implements the HLS-root half of the teacher's
// ensureDirectory/testWriteAccess pair: the gateway needs exactly one
// directory, and needs it writable, since every session directory lives
// under it.
func EnsureHLSRoot(path string) error {
	logging.Info("  Checking HLS root: %s", path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create HLS root: %w", err)
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("HLS root is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("  failed to remove write test file %s: %v", testFile, err)
	}

	logging.Info("  [OK] HLS root is writable")
	return nil
}

// CheckFFmpeg and CheckFFprobe probe PATH (or an explicit path) for the
// two external binaries the gateway depends on and return an error if
// either cannot be run. cmd/gateway treats that error as fatal, so a
// process with a missing binary never starts serving.
func CheckFFmpeg(path string) error   { return checkVersion(path, "ffmpeg", "-version") }
func CheckFFprobe(path string) error  { return checkVersion(path, "ffprobe", "-version") }

func checkVersion(path, fallbackName string, args ...string) error {
	if path == "" {
		resolved, err := exec.LookPath(fallbackName)
		if err != nil {
			return fmt.Errorf("%s not found in PATH", fallbackName)
		}
		path = resolved
	}
	logging.Debug("  %s path: %s", fallbackName, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", fallbackName, err)
	}

	if lines := strings.Split(string(output), "\n"); len(lines) > 0 {
		logging.Debug("  %s version: %s", fallbackName, strings.TrimSpace(lines[0]))
	}
	return nil
}

// GetRoutes extracts all registered routes from a mux.Router.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()
		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: pathTemplate, Name: name})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes, grouped by their first
// path segment, at debug level.
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			groups[routeGroup(route.Path)] = append(groups[routeGroup(route.Path)], route)
		}

		keys := make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, group := range keys {
			label := group
			if label == "" {
				label = "root"
			}
			logging.Debug("  [%s]", label)
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF")
	}
}

func routeGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// ServerConfig holds the values the startup-complete banner reports.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint URLs.
func LogServerStarted(config ServerConfig) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time: %v", config.StartupDuration)
	logging.Info("  Application:  http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:      http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:      DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated, LogShutdownStep, LogShutdownStepComplete, and
// LogShutdownComplete mirror the teacher's shutdown sequence logging.
func LogShutdownInitiated(signal string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

func LogShutdownStep(step string)         { logging.Debug("  %s...", step) }
func LogShutdownStepComplete(step string) { logging.Info("  [OK] %s", step) }
func LogShutdownComplete()                { logging.Info("  [OK] Shutdown complete") }

// LogFatal logs a fatal error and exits the process.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}
