package hclconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/config"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func load(t *testing.T, src string) (*config.Model, error) {
	t.Helper()
	dir := writeFiles(t, map[string]string{"workflow.hcl": src})
	return NewLoader(WithEnv(map[string]string{"PROJECT": "b2013262"})).Load(context.Background(), filepath.Join(dir, "workflow.hcl"))
}

func TestLoad_CrossValidate(t *testing.T) {
	// --- Arrange ---
	src := `
workflow "crossval" {
  dataset_name = "acd_logd"
  replicate_id = "r1"
  folds        = 10
  costs        = [for e in range(1, 4) : format("%d", pow(10, e))]
  runmode      = "hpc"
  project      = env.PROJECT
}

resources "train_lin" {
  cores = 2
  time  = "1-00:00:00"
}

backend {
  threads       = 8
  max_jobs      = 32
  query_retries = 5
  query_backoff = "20ms"
  poll_interval = "10ms"
}

command "train_lin" {
  run = "train -c $lin_cost -o $out_model $in_traindata"
}
`
	// --- Act ---
	model, err := load(t, src)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, config.CrossValidate, model.Workflow.Type)
	cv := model.Workflow.CrossValidate
	assert.Equal(t, "acd_logd", cv.DatasetName)
	assert.Equal(t, 10, cv.FoldsCount)
	assert.Equal(t, []string{"10", "100", "1000"}, cv.Costs)
	assert.Equal(t, resource.RunModeHPC, cv.RunMode)
	assert.Equal(t, "b2013262", cv.Project)
	assert.Equal(t, resource.Spec{Cores: 2, Time: "1-00:00:00"}, cv.Overrides["train_lin"])
	assert.Equal(t, resource.RunModeHPC, model.Workflow.RunMode())

	assert.Equal(t, config.Backend{
		Threads: 8, MaxJobs: 32, QueryRetries: 5,
		QueryBackoff: 20 * time.Millisecond, PollInterval: 10 * time.Millisecond,
	}, model.Backend)
	assert.Equal(t, "train -c $lin_cost -o $out_model $in_traindata", model.Commands["train_lin"])
	assert.Len(t, model.Files, 1)
}

func TestLoad_TrainConvertsNumbers(t *testing.T) {
	model, err := load(t, `
workflow "train" {
  replicate_ids = formatlist("r%d", range(1, 3))
  train_sizes   = [500, 1000]
  test_size     = 50
  method        = "svmrbf"
  svm_gamma     = 0.01
}
`)
	require.NoError(t, err)

	tr := model.Workflow.Train
	assert.Equal(t, config.Train, model.Workflow.Type)
	assert.Equal(t, []string{"r1", "r2"}, tr.ReplicateIDs)
	assert.Equal(t, []string{"500", "1000"}, tr.TrainSizes)
	assert.Equal(t, "50", tr.TestSize)
	assert.Equal(t, "0.01", tr.SVMGamma)
	assert.Equal(t, workflow.SVMRBF, tr.Method)
	assert.Equal(t, resource.RunModeLocal, model.Workflow.RunMode())
	assert.Nil(t, tr.Overrides)
}

func TestLoad_MergesDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.hcl": `
workflow "train" {
  replicate_ids = ["r1"]
  train_sizes   = ["100"]
  test_size     = "10"
  lin_cost      = "1000"
}`,
		"profiles/hpc.hcl": `
resources "create_sparse_train" {
  partition = "node"
  cores     = 16
}`,
		"README.md": "not configuration",
	})

	model, err := NewLoader().Load(context.Background(), dir, filepath.Join(dir, "missing.hcl"))
	require.NoError(t, err)
	assert.Len(t, model.Files, 2)
	assert.Equal(t, 16, model.Workflow.Train.Overrides["create_sparse_train"].Cores)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no workflow", `backend { threads = 2 }`, `Missing "workflow" block`},
		{"two workflows", `
workflow "crossval" {
  dataset_name = "a"
  replicate_id = "r1"
  folds = 2
}
workflow "crossval" {
  dataset_name = "b"
  replicate_id = "r1"
  folds = 2
}`, `Duplicate "workflow" block`},
		{"unknown workflow", `workflow "bake" {}`, `workflow "bake" is none of crossval, train`},
		{"missing attribute", `workflow "crossval" { dataset_name = "a" }`, `Missing required argument`},
		{"unknown attribute", `
workflow "crossval" {
  dataset_name = "a"
  replicate_id = "r1"
  folds = 2
  colour = "blue"
}`, `Unsupported argument`},
		{"bad runmode", `
workflow "crossval" {
  dataset_name = "a"
  replicate_id = "r1"
  folds = 2
  runmode = "cloud"
}`, `runmode "cloud" is none of local, hpc, nor mpi`},
		{"bad method", `
workflow "train" {
  replicate_ids = ["r1"]
  train_sizes = ["1"]
  test_size = "1"
  method = "forest"
}`, `train method "forest" is none of liblinear, svmrbf`},
		{"duplicate resources", `
workflow "train" {
  replicate_ids = ["r1"]
  train_sizes = ["1"]
  test_size = "1"
}
resources "train_lin" { cores = 1 }
resources "train_lin" { cores = 2 }`, `Duplicate "resources" block`},
		{"bad wall time", `
workflow "train" {
  replicate_ids = ["r1"]
  train_sizes = ["1"]
  test_size = "1"
}
resources "train_lin" { time = "forever" }`, `Invalid resources for "train_lin"`},
		{"bad poll interval", `
workflow "train" {
  replicate_ids = ["r1"]
  train_sizes = ["1"]
  test_size = "1"
}
backend { poll_interval = "soon" }`, `Invalid poll_interval`},
		{"negative threads", `
workflow "train" {
  replicate_ids = ["r1"]
  train_sizes = ["1"]
  test_size = "1"
}
backend { threads = -1 }`, `threads must not be negative`},
		{"unknown block", `pipeline "x" {}`, `Unsupported block type`},
		{"syntax", `workflow "train" {`, `failed to parse HCL file`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "no .hcl configuration found")
}
