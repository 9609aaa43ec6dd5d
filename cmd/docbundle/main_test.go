// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docbundle/internal/convert"
	"github.com/pdiddy/docbundle/pkg/types"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := setupLogger("warn", "", &buf)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "key=value")

	_, _, err = setupLogger("loud", "", &buf)
	assert.Error(t, err)
}

func TestSetupLogger_LogDir(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, cleanup, err := setupLogger("info", dir, &buf)
	require.NoError(t, err)

	logger.Info("to both")
	require.NoError(t, cleanup())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, buf.String(), "to both")
}

func TestConversionConfig(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("http.timeout", "30s")

	cfg := conversionConfig(v, map[string]string{"openai-api-key": "sk-file"})
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "docbundle/0.1", cfg.UserAgent)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, convert.DefaultMarkitdownImage, cfg.MarkitdownImage)
	assert.Equal(t, "sk-file", cfg.CaptionAPIKey)

	v.Set("convert.caption_api_key", "sk-env")
	assert.Equal(t, "sk-env", conversionConfig(v, nil).CaptionAPIKey)

	assert.Equal(t, ":8080", serverConfig(v).Addr)
}

func TestBundleSummaryYAML(t *testing.T) {
	res := convert.Result{
		Title:       "Report",
		ArchivePath: "report.zip",
		Bundle: types.OutputBundle{
			MarkdownName: "report.md",
			Assets: []types.MaterializedAsset{{
				Filename: "report_base64_0.png",
				Content:  []byte("ABC"),
				Source:   types.AssetReference{Kind: types.AssetEmbedded, MediaType: "image/png"},
			}},
		},
	}

	data, err := yaml.Marshal(newBundleSummary(res))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "markdown: report.md")
	assert.Contains(t, out, "outcome: standard")
	assert.Contains(t, out, "filename: report_base64_0.png")
	assert.Contains(t, out, "kind: embedded")
	assert.NotContains(t, out, "ABC")
}
