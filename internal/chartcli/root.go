// Package chartcli is the offline chart converter: it runs the export service's chart
// pipeline on SVG files from the command line.
package chartcli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/osbi/saiku_services/internal/export_service/app"
	"github.com/osbi/saiku_services/internal/export_service/converter"
	"github.com/osbi/saiku_services/internal/export_service/domain"
	"github.com/osbi/saiku_services/internal/platform/logger"
)

// CLI holds the output streams shared by all commands.
type CLI struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logLevel string
	rsvgPath string
}

func New(stdin io.Reader, stdout, stderr io.Writer) *CLI {
	return &CLI{stdin: stdin, stdout: stdout, stderr: stderr}
}

// RootCommand builds the chart_converter command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "chart_converter",
		Short:         "Convert SVG charts the way the export service does",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.rsvgPath, "rsvg-convert", "rsvg-convert", "rsvg-convert binary used for PNG, JPEG and PDF output")

	root.AddCommand(c.convertCommand(), c.typesCommand())
	return root
}

func (c *CLI) registry() *converter.Registry {
	return converter.NewRegistry(converter.WithRsvgConvert(c.rsvgPath))
}

func (c *CLI) logger() *slog.Logger {
	return logger.NewWithWriter(c.stderr, c.logLevel, "text").With("component", "chart_converter")
}

func (c *CLI) convertCommand() *cobra.Command {
	var (
		chartType string
		size      int
		name      string
		outDir    string
		version   string
	)

	cmd := &cobra.Command{
		Use:   "convert [chart.svg|-]",
		Short: "Convert an SVG chart to png, jpeg, pdf or svg",
		Long: `Convert an SVG chart to png, jpeg, pdf or svg.

The output is written to <out>/<name>.<ext>. Without --name the file is called
chart-<timestamp>. Unless --version names an enterprise build (contains "EE"),
the community watermark is added before conversion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svg, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			req := domain.ChartRequest{Type: chartType, SVG: string(svg), Name: name}
			if size > 0 {
				req.Size = &size
			}

			exporter := app.NewChartExporter(c.registry(), version, c.logger())
			artifact, err := exporter.Export(cmd.Context(), req)
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, artifact.Filename)
			if err := os.WriteFile(path, artifact.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintln(c.stdout, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&chartType, "type", "t", "png", "output type (see 'chart_converter types')")
	cmd.Flags().IntVarP(&size, "size", "s", 0, "output width in pixels (0 keeps the SVG size)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "output file name without extension")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&version, "version", "", "build version; enterprise versions skip the watermark")
	return cmd
}

func (c *CLI) readInput(arg string) ([]byte, error) {
	if arg == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", arg, err)
	}
	return data, nil
}

func (c *CLI) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the supported output types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := c.registry()
			for _, t := range reg.Types() {
				conv, _ := reg.Resolve(string(t))
				fmt.Fprintf(c.stdout, "%-5s %-16s .%s\n", t, conv.ContentType(), conv.Extension())
			}
			return nil
		},
	}
}
