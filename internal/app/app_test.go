package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/sweepgridgo/internal/hclconfig"
	"github.com/specialistvlad/sweepgridgo/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const trainHCL = `
workflow "train" {
  replicate_ids = ["r1"]
  train_sizes   = [100, 200]
  test_size     = 20
  lin_cost      = 1000
}

backend {
  poll_interval = "1ms"
}
`

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRun_WritesReport(t *testing.T) {
	// --- Arrange ---
	reportPath := filepath.Join(t.TempDir(), "report.yaml")
	cfg, err := NewConfig(Config{
		ConfigPaths: []string{writeConfig(t, trainHCL)},
		ReportPath:  reportPath,
		Workdir:     t.TempDir(),
		LogFormat:   "json",
	})
	require.NoError(t, err)
	a, logs := SetupAppTest(t, cfg, hclconfig.NewLoader())

	// --- Act ---
	err = a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var rep struct {
		Workflow string `yaml:"workflow"`
		Backend  string `yaml:"backend"`
		Summary  struct {
			Total     int `yaml:"total"`
			Completed int `yaml:"completed"`
		} `yaml:"summary"`
		Sinks []map[string]any `yaml:"sinks"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &rep))
	assert.Equal(t, "train", rep.Workflow)
	assert.Equal(t, "local", rep.Backend)
	assert.Equal(t, rep.Summary.Total, rep.Summary.Completed)
	assert.Len(t, rep.Sinks, 2)
	assert.Contains(t, logs.String(), "Workflow execution finished.")
}

func TestRun_PlanDoesNotExecute(t *testing.T) {
	cfg, err := NewConfig(Config{ConfigPaths: []string{writeConfig(t, trainHCL)}, Plan: true})
	require.NoError(t, err)
	a, out := SetupAppTest(t, cfg, hclconfig.NewLoader())

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "batch 1 (1 nodes): existing_smiles\n")
	assert.NotContains(t, out.String(), "Starting workflow execution.")
}

func TestRun_ConfigurationErrors(t *testing.T) {
	cfg, err := NewConfig(Config{ConfigPaths: []string{writeConfig(t, `workflow "bake" {}`)}})
	require.NoError(t, err)
	a, _ := SetupAppTest(t, cfg, hclconfig.NewLoader())

	err = a.Run(context.Background())
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), `workflow "bake" is none of crossval, train`)
}

func TestRun_FailedSinksReturnFailureError(t *testing.T) {
	src := trainHCL + `
command "assess_lin" {
  run = "exit 1"
}
`
	cfg, err := NewConfig(Config{ConfigPaths: []string{writeConfig(t, src)}, Workdir: t.TempDir()})
	require.NoError(t, err)
	a, out := SetupAppTest(t, cfg, hclconfig.NewLoader())

	err = a.Run(context.Background())
	var fe *report.FailureError
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe.Sinks, 2)
	assert.Contains(t, out.String(), "problems:")
}

func TestHealthMux(t *testing.T) {
	cfg, err := NewConfig(Config{ConfigPaths: []string{"workflow.hcl"}})
	require.NoError(t, err)
	a, _ := SetupAppTest(t, cfg, hclconfig.NewLoader())
	a.Metrics().TaskSubmitted("local", "train_lin")
	srv := httptest.NewServer(a.healthMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "configuration path is required")

	_, err = NewConfig(Config{ConfigPaths: []string{"a.hcl"}, HealthcheckPort: 70000})
	assert.ErrorContains(t, err, "out of range")

	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := NewConfig(Config{ConfigPaths: []string{"a.hcl"}})
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.Workdir)

	cfg, err = NewConfig(Config{ConfigPaths: []string{"a.hcl"}, Workdir: "out"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "out"), cfg.Workdir)
}
