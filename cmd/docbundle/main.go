// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docbundle CLI. docbundle converts
// documents and email messages to Markdown and packages the Markdown with
// its images into a zip archive.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docbundle/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// logCleanup closes the log file opened by setupLogger, if any.
var logCleanup = func() error { return nil }

// rootCmd is the base command for the docbundle CLI.
var rootCmd = &cobra.Command{
	Use:   "docbundle",
	Short: "Convert documents to Markdown bundles",
	Long: `docbundle converts office documents, PDFs, web pages, and email messages
into Markdown. Embedded and remote images are extracted into standalone files
and the Markdown is rewritten to reference them. The Markdown and its images
are packaged into a single zip archive.

Subcommands: convert (one file or URL), mbox (every message of an mbox file),
and serve (HTTP service).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, cleanup, err := setupLogger(viper.GetString("log.level"), viper.GetString("log.dir"), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logCleanup = cleanup
		slog.SetDefault(logger)

		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logCleanup()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docbundle.yaml or ~/.config/docbundle/docbundle.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-dir", "", "also write logs to a timestamped file in this directory")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of secret files (openai-api-key)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	_ = viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docbundle")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docbundle"))
		}
	}

	viper.SetEnvPrefix("DOCBUNDLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogger builds a text logger at the named level writing to w and,
// when logDir is set, to a timestamped file as well.
func setupLogger(levelName, logDir string, w io.Writer) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch strings.ToLower(levelName) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info", "":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		return nil, nil, fmt.Errorf("unknown log level %q", levelName)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(logDir, fmt.Sprintf("docbundle-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(w, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	return slog.New(slog.NewTextHandler(w, opts)), cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
