// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const indexFile = "index.yaml"

var mboxCmd = &cobra.Command{
	Use:   "mbox <file.mbox>",
	Short: "Convert every message of an mbox file to its own bundle",
	Long: `Mbox splits an mbox file into messages and converts each one to a Markdown
bundle named <mbox>_<n> (1-based). Archives and an index.yaml describing
them are written to --out-dir.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out-dir")

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening mbox: %w", err)
		}
		defer f.Close()

		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		cfg := conversionConfig(viper.GetViper(), loadedSecrets)
		p := buildPipeline(cfg, slog.Default())

		result, err := p.ConvertMbox(cmd.Context(), f, name, outDir, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("encoding index: %w", err)
		}
		if err := os.WriteFile(filepath.Join(outDir, indexFile), data, 0o644); err != nil {
			return fmt.Errorf("writing index: %w", err)
		}

		if result.HasFailures() {
			return fmt.Errorf("%d of %d messages failed", result.Failed, result.Total())
		}
		return nil
	},
}

func init() {
	mboxCmd.Flags().String("out-dir", ".", "directory for archives and index.yaml")

	rootCmd.AddCommand(mboxCmd)
}
