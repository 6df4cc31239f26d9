// Package main is the entry point for the launchkey2daw CLI
package main

import (
	"fmt"
	"os"

	"github.com/james-see/launchkey2daw/pkg/config"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	inPort     string
	outPort    string
	quiet      bool
	debug      bool
	logFile    string
	apiAddr    string
	serveAddr  string
	recordPath string
	useTUI     bool
	outputFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "launchkey2daw",
	Short: "Translate Launchkey MIDI into DAW-friendly messages",
	Long: `launchkey2daw listens to a MIDI controller, rewrites its messages through a
mapping table and sends the result to a (virtual) output port for the DAW.

Faders and device knobs follow the active bank, so eight physical controls can
drive any number of mixer channels.

Examples:
  launchkey2daw ports
  launchkey2daw probe --in Launchkey
  launchkey2daw config default -o mapping.yaml
  launchkey2daw run --config mapping.yaml --out "MK3 to Cubase"
  launchkey2daw run --tui --log-file bridge.log
  launchkey2daw translate "B0 15 64" "99 30 7F"
  launchkey2daw serve --addr :8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the translator between the controller and the DAW port",
	Args:  cobra.NoArgs,
	RunE:  runBridge,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the translator with the live terminal monitor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		useTUI = true
		return runBridge(cmd, args)
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input and output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print raw messages from an input port",
	Long:  `Prints every message the controller sends, with timing and raw bytes, so mappings can be written against real numbers.`,
	Args:  cobra.NoArgs,
	RunE:  runProbe,
}

var translateCmd = &cobra.Command{
	Use:   "translate <hex>...",
	Short: "Translate messages offline, e.g. \"B0 15 64\"",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTranslate,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server without MIDI ports",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect mapping files",
}

var configCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a mapping file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigCheck,
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print or write the built-in mapping",
	Args:  cobra.NoArgs,
	RunE:  runConfigDefault,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Mapping file (default: built-in Launchkey MK3 mapping)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug logging with source locations")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	// run and tui commands
	for _, c := range []*cobra.Command{runCmd, tuiCmd} {
		c.Flags().StringVarP(&inPort, "in", "i", "", "Input port name substring (default from config)")
		c.Flags().StringVarP(&outPort, "out", "o", "", "Output port name, created as a virtual port if missing (default from config)")
		c.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not log every message")
		c.Flags().StringVar(&apiAddr, "api", "", "Also serve the API on this address, e.g. :8080")
		c.Flags().StringVar(&recordPath, "record", "", "Record the output stream to this .mid file")
	}
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "Show the live terminal monitor")

	// probe command
	probeCmd.Flags().StringVarP(&inPort, "in", "i", "", "Input port name substring (default from config)")

	// serve command
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")

	// config default command
	configDefaultCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write to file instead of stdout")

	// Add commands
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configDefaultCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads --config or falls back to the built-in mapping
func loadConfig() (*config.File, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
