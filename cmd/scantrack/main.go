// Command scantrack runs the track-while-scan engine over a detections CSV
// and reports the resulting tracks.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/scantrack/internal/version"
)

var (
	inputPath   = flag.String("input", "", "Detections CSV: range,azimuth,elevation,time,doppler")
	configPath  = flag.String("config", "", "Tracker tuning JSON (built-in defaults when empty)")
	dbPath      = flag.String("db", "", "SQLite track archive (disabled when empty)")
	logFormat   = flag.String("log-format", logFormatText, "Log format: text or json")
	verbose     = flag.Bool("verbose", false, "Log a summary line per batch")
	trace       = flag.Bool("trace", false, "Log every evaluated track/detection pair")
	speedUnits  = flag.String("speed-units", "mps", "Units for reported track speeds: mps, mph, kmph, kph")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	opts := options{
		InputPath:  *inputPath,
		ConfigPath: *configPath,
		DBPath:     *dbPath,
		LogFormat:  *logFormat,
		Verbose:    *verbose,
		Trace:      *trace,
		SpeedUnits: *speedUnits,
	}
	if err := run(opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "scantrack: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command-line settings.
type options struct {
	InputPath  string
	ConfigPath string
	DBPath     string
	LogFormat  string
	Verbose    bool
	Trace      bool
	SpeedUnits string
}
