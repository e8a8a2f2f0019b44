package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/export"
	"github.com/spf13/cobra"
)

var (
	format     string
	outputPath string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the transcript to a file",
	Long: `Export the current play-through to one of jsonl, md, yaml or json.

The export lists the chapters visited in order and every transcript entry
with image and audio references resolved to their resource paths. Without
--out the export is written to standard output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		var transcript *export.Transcript
		_ = rt.Do(func(st *internal.State) error {
			transcript = export.NewTranscript(st.Engine, st.Session)
			return nil
		})

		if outputPath == "" || outputPath == "-" {
			if err := exporter.Export(transcript, cmd.OutOrStdout()); err != nil {
				return &internal.ExportError{Format: format, Path: "stdout", Err: err}
			}
			return nil
		}

		path := outputPath
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, fmt.Sprintf("transcript.%s", exporter.Extension()))
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}

		err = internal.ShowProgress(context.Background(), fmt.Sprintf("Exporting %d entries to %s", len(transcript.Entries), path), func() error {
			return writeExport(exporter, transcript, path)
		})
		if err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %s", path))
		return nil
	},
}

func writeExport(exporter export.Exporter, t *export.Transcript, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Export(t, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file or directory (default stdout)")
}
