package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("export_api_service")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ExportAPIServicePort)
	assert.Equal(t, "nats", cfg.QueryEngineTransport)
	assert.Equal(t, "saiku.query", cfg.QueryEngineSubjectPrefix)
	assert.Equal(t, 5*time.Minute, cfg.QueryEngineTimeout)
	assert.Equal(t, []string{"json", "html"}, cfg.ParamSubstitutionFormats)
	assert.Equal(t, "rsvg-convert", cfg.RsvgConvertPath)
	assert.Equal(t, "saiku.export.chart", cfg.ChartExportSubject)
	assert.Equal(t, "chart_export_workers", cfg.ChartExportQueueGroup)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_SAIKU_VERSION", "3.17-EE")
	t.Setenv("APP_EXPORT_API_SERVICE_PORT", "9090")
	t.Setenv("APP_QUERY_ENGINE_TIMEOUT", "30s")
	t.Setenv("APP_PARAM_SUBSTITUTION_FORMATS", "json,html,xls,csv")

	cfg, err := Load("export_api_service")
	require.NoError(t, err)

	assert.Equal(t, "3.17-EE", cfg.SaikuVersion)
	assert.Equal(t, 9090, cfg.ExportAPIServicePort)
	assert.Equal(t, 30*time.Second, cfg.QueryEngineTimeout)
	assert.Equal(t, []string{"json", "html", "xls", "csv"}, cfg.ParamSubstitutionFormats)
}

func TestLoad_VersionPropertiesFileWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.properties")
	require.NoError(t, os.WriteFile(path, []byte("VERSION=3.90-EE\nBUILD=42\n"), 0o600))

	t.Setenv("APP_SAIKU_VERSION", "3.90")
	t.Setenv("APP_VERSION_PROPERTIES_FILE", path)

	cfg, err := Load("export_api_service")
	require.NoError(t, err)
	assert.Equal(t, "3.90-EE", cfg.SaikuVersion)
}

func TestLoadVersion_MissingFile(t *testing.T) {
	_, err := LoadVersion(filepath.Join(t.TempDir(), "nope.properties"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading version properties")
}
