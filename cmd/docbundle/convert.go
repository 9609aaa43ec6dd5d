// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docbundle/internal/convert"
	"github.com/pdiddy/docbundle/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert one file or URL to a Markdown bundle",
	Long: `Convert turns a document (office file, PDF, image, HTML, or .eml/.msg email)
or a web page into Markdown. Images embedded as data URIs or referenced by
URL are written out as files and the Markdown is rewritten to point at them.

The Markdown is printed to stdout; the archive is written to --out (default
<name>.zip in the current directory). With --summary a YAML description of
the bundle is printed instead of the Markdown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL, _ := cmd.Flags().GetString("url")
		out, _ := cmd.Flags().GetString("out")
		summary, _ := cmd.Flags().GetBool("summary")

		req := convert.Request{URL: rawURL}
		if len(args) == 1 {
			req.Path = args[0]
		}
		if req.Path == "" && req.URL == "" {
			return convert.ErrNoInput
		}
		if req.Path != "" && convert.IsImage(convert.InfoFor(req.Path, "")) {
			slog.Info("image input may be sent to an external captioning service", "file", req.Path)
		}

		cfg := conversionConfig(viper.GetViper(), loadedSecrets)
		p := buildPipeline(cfg, slog.Default())

		res, err := p.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		if res.ArchivePath != "" {
			if out == "" {
				out = strings.TrimSuffix(res.Bundle.MarkdownName, ".md") + ".zip"
			}
			if err := convert.MoveFile(res.ArchivePath, out); err != nil {
				return fmt.Errorf("saving archive: %w", err)
			}
			res.ArchivePath = out
		}

		w := cmd.OutOrStdout()
		if summary {
			data, err := yaml.Marshal(newBundleSummary(res))
			if err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
			_, err = w.Write(data)
			return err
		}

		fmt.Fprintln(w, res.Markdown)
		if res.ArchivePath == "" {
			return errors.New("no archive produced")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "archive: %s\n", res.ArchivePath)
		return nil
	},
}

// bundleSummary is the YAML shape printed by convert --summary.
type bundleSummary struct {
	Title    string                    `yaml:"title,omitempty"`
	Markdown string                    `yaml:"markdown"`
	Archive  string                    `yaml:"archive,omitempty"`
	Outcome  string                    `yaml:"outcome"`
	Assets   []types.MaterializedAsset `yaml:"assets"`
}

func newBundleSummary(res convert.Result) bundleSummary {
	return bundleSummary{
		Title:    res.Title,
		Markdown: res.Bundle.MarkdownName,
		Archive:  res.ArchivePath,
		Outcome:  res.Outcome.String(),
		Assets:   res.Bundle.Assets,
	}
}

func init() {
	convertCmd.Flags().String("url", "", "convert the page at this URL instead of a file")
	convertCmd.Flags().StringP("out", "o", "", "archive path (default: <name>.zip)")
	convertCmd.Flags().Bool("summary", false, "print a YAML summary of the bundle instead of the Markdown")

	rootCmd.AddCommand(convertCmd)
}
