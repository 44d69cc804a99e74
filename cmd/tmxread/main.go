package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/dyuri/tmxread/internal/config"
	"github.com/dyuri/tmxread/internal/diag"
	"github.com/dyuri/tmxread/internal/export"
	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/pkg/tmxread"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfg is loaded before any command runs.
var cfg = config.Default()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tmxread",
	Short: "Inspect and validate TMX tile maps",
	Long: `tmxread is a tool for working with TMX tile maps and TSX tilesets.

It loads maps with their external tilesets and images, reports every
problem found on the way, and exports a summary as JSON, YAML or
MessagePack. Maps may be compressed as .tmx.gz, .tmx.zst, .tmx.xz or
.tmx.lz4. Use "-" to read a map from stdin.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().String("config", "tmxread.yaml", "Config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("base-dir", "", "Base directory for maps read from stdin")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(tilesetCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	// Flags win over the file
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("base-dir") {
		cfg.BaseDir, _ = cmd.Flags().GetString("base-dir")
	}
	return setupLogging(cfg)
}

func setupLogging(c *config.Config) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	if strings.EqualFold(c.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return nil
}

// readMap loads path, or stdin for "-". When mirror is set, diagnostics
// are also logged as they happen.
func readMap(path string, mirror bool) (*model.Map, []diag.Entry, error) {
	opts := &tmxread.Options{BaseDir: cfg.BaseDir}
	if mirror {
		opts.Logger = logrus.WithField("file", path)
	}
	if path == "-" {
		return tmxread.ReadMap(os.Stdin, opts)
	}
	return tmxread.ReadMapFile(path, opts)
}

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// info command
var infoCmd = &cobra.Command{
	Use:   "info <map.tmx>",
	Short: "Display map information",
	Long: `Display metadata and statistics about a map.

Shows size, orientation, tilesets and layers together with the file's
size and timestamps.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
}

// fileStats are reported next to the map; zero for stdin.
type fileStats struct {
	Size     int64      `json:"file_size"`
	Modified time.Time  `json:"modified"`
	Created  *time.Time `json:"created,omitempty"`
}

func statFile(path string) (fileStats, error) {
	var fs fileStats
	if path == "-" {
		return fs, nil
	}
	st, err := os.Stat(path)
	if err != nil {
		return fs, fmt.Errorf("stat input file: %w", err)
	}
	fs.Size = st.Size()

	ts, err := times.Stat(path)
	if err != nil {
		return fs, fmt.Errorf("stat input file: %w", err)
	}
	fs.Modified = ts.ModTime()
	if ts.HasBirthTime() {
		created := ts.BirthTime()
		fs.Created = &created
	}
	return fs, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	stats, err := statFile(inputPath)
	if err != nil {
		return err
	}

	m, entries, err := readMap(inputPath, !jsonOutput)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputInfoJSON(os.Stdout, export.FromMap(m, entries), stats)
	}
	return outputInfoText(os.Stdout, inputPath, m, stats, brief)
}

func outputInfoText(w io.Writer, path string, m *model.Map, stats fileStats, brief bool) error {
	if brief {
		fmt.Fprintf(w, "%s: %dx%d %s Tilesets=%d Layers=%d\n",
			path, m.Width, m.Height, m.Orientation, len(m.Tilesets), len(m.Layers))
		return nil
	}

	fmt.Fprintf(w, "Map File: %s\n", path)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Map:")
	fmt.Fprintf(w, "  Size:             %d x %d cells\n", m.Width, m.Height)
	fmt.Fprintf(w, "  Cell size:        %d x %d px\n", m.TileWidth, m.TileHeight)
	fmt.Fprintf(w, "  Orientation:      %s\n", m.Orientation)
	fmt.Fprintf(w, "  Properties:       %d\n", len(m.Properties))
	fmt.Fprintln(w)

	if stats.Size > 0 {
		fmt.Fprintf(w, "File Size:          %s (%d bytes)\n", formatBytes(stats.Size), stats.Size)
		fmt.Fprintf(w, "Modified:           %s\n", stats.Modified.Format(time.RFC3339))
		if stats.Created != nil {
			fmt.Fprintf(w, "Created:            %s\n", stats.Created.Format(time.RFC3339))
		}
		fmt.Fprintln(w)
	}

	if len(m.Tilesets) > 0 {
		fmt.Fprintln(w, "Tilesets:")
		for _, ts := range m.Tilesets {
			fmt.Fprintf(w, "  %-16s firstgid %-5d %d tiles", ts.Name, ts.FirstGID, ts.Size())
			if ts.Source != "" {
				fmt.Fprintf(w, " (%s)", ts.Source)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(m.Layers) > 0 {
		fmt.Fprintln(w, "Layers:")
		for _, l := range m.Layers {
			info := l.Info()
			fmt.Fprintf(w, "  %-8s %-16s %dx%d opacity %.2f", layerKind(l), info.Name, info.Width, info.Height, info.Opacity)
			if !info.Visible {
				fmt.Fprint(w, " hidden")
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func outputInfoJSON(w io.Writer, s *export.Summary, stats fileStats) error {
	info := struct {
		*export.Summary
		fileStats
	}{s, stats}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func layerKind(l model.Layer) string {
	switch layer := l.(type) {
	case *model.TileLayer:
		return fmt.Sprintf("tiles[%d]", layer.Count())
	case *model.ObjectGroup:
		return fmt.Sprintf("objects[%d]", len(layer.Objects))
	default:
		return "layer"
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <map.tmx>",
	Short: "Validate a map",
	Long: `Load a map and report every problem found.

Reader diagnostics are combined with checks on the loaded map such as
empty tilesets and overlapping GID ranges.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	strict := cfg.Strict
	if cmd.Flags().Changed("strict") {
		strict, _ = cmd.Flags().GetBool("strict")
	}

	m, entries, err := readMap(inputPath, false)
	if err != nil {
		return err
	}

	v := newValidator(strict)
	v.addDiagnostics(entries)
	v.validate(m, inputPath)
	v.printResults(os.Stdout)

	if v.hasErrors() || (strict && v.hasWarnings()) {
		return fmt.Errorf("validation failed")
	}
	return nil
}

// dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <map.tmx>",
	Short: "Export a map summary",
	Long: `Write a summary of the map including every layer's GID grid.

Formats: json, yaml, msgpack.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	dumpCmd.Flags().String("format", "", "Output format: json, yaml, msgpack (default from config)")
}

func runDump(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.OutputFormat
	}

	m, entries, err := readMap(inputPath, true)
	if err != nil {
		return err
	}

	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	return export.Encode(out, format, export.FromMap(m, entries))
}

// tileset command
var tilesetCmd = &cobra.Command{
	Use:   "tileset <tiles.tsx>",
	Short: "Display tileset information",
	Args:  cobra.ExactArgs(1),
	RunE:  runTileset,
}

func init() {
	tilesetCmd.Flags().String("format", "", "Output format: json, yaml, msgpack (default from config)")
}

func runTileset(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.OutputFormat
	}

	ts, _, err := tmxread.ReadTilesetFile(args[0], &tmxread.Options{
		Logger: logrus.WithField("file", args[0]),
	})
	if err != nil {
		return err
	}
	return export.Encode(os.Stdout, format, export.FromTileset(ts))
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tmxread version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
