package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/promptstash/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the collection to a JSON document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		path := exportOutput
		if path == "" {
			path = export.DefaultExportName(time.Now())
		}
		if path == "-" {
			_, err := a.export.Export(cmd.Context(), os.Stdout)
			return err
		}

		result, err := a.export.ExportToFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		cmd.Println(a.printer.Message("export.success", result.ItemCount, path))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import prompts from an export document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		result := a.export.ImportFile(cmd.Context(), args[0])
		if !result.OK() {
			return fmt.Errorf("%s", a.printer.Message(result.MessageKey()))
		}
		cmd.Println(a.printer.Message(result.MessageKey(), result.Added, result.Skipped))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: timestamped name, - for stdout)")
}
