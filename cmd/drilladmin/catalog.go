package main

import (
	"fmt"
	"os"
	"path/filepath"

	"deutschdrill/internal/importer"
	"deutschdrill/internal/models"
	"deutschdrill/internal/repository"
	"deutschdrill/internal/service"

	"github.com/spf13/cobra"
)

var kindArgs = []string{"words", "verbs"}

func (a *app) catalog() *service.CatalogService {
	return service.NewCatalogService(repository.NewCatalogRepository(a.db), a.logger.Named("catalog"))
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "import {words|verbs} <file.csv|file.xlsx>",
		Short:     "Load a word or verb list; rows already in the catalog are skipped",
		Args:      cobra.ExactArgs(2),
		ValidArgs: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseItemKind(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := a.catalog().Import(cmd.Context(), kind, f, filepath.Base(args[1]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d, skipped %d, rejected %d\n", result.Imported, result.Skipped, len(result.Errors))
			for _, rowErr := range result.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", rowErr.Row, rowErr.Message)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:       "export {words|verbs}",
		Short:     "Write a catalog to a file in the import layout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseItemKind(args[0])
			if err != nil {
				return err
			}
			f, err := importer.ParseFormat(format)
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("%ss.%s", kind, f)
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			file, err := os.Create(output)
			if err != nil {
				return err
			}
			n, err := a.catalog().Export(cmd.Context(), kind, file, f)
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d %ss to %s\n", n, kind, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <kind>s.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", string(importer.FormatXLSX), "csv or xlsx")
	return cmd
}
