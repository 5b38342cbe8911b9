// Package liblinear declares the linear-regression kinds: training a
// liblinear model, predicting the test set with it and assessing the
// prediction by RMSD.
package liblinear

import (
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

const (
	KindTrain   = "train_lin"
	KindPredict = "predict_lin"
	KindAssess  = "assess_lin"

	// DefaultType is liblinear's L2-regularized L2-loss support vector
	// regression (dual).
	DefaultType = "12"
	// CrossValidationType is the solver the cost search trains with.
	CrossValidationType = "0"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register declares the liblinear kinds.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Kind{
		Name: KindTrain,
		Ports: []port.Spec{
			port.InSpec("traindata", port.SparseMatrix),
			port.OutSpec("model", port.ModelArtifact),
		},
		Params: []registry.Param{
			{Name: "lin_cost", Required: true},
			{Name: "lin_type", Default: DefaultType},
			{Name: "replicate_id"},
			{Name: "dataset_name"},
			{Name: "train_size"},
			{Name: "test_size"},
		},
		Resources: resource.Spec{Partition: "core", Cores: 1, Time: "4-00:00:00", JobName: "trainlin", Threads: 1},
	})

	r.Register(&registry.Kind{
		Name: KindPredict,
		Ports: []port.Spec{
			port.InSpec("model", port.ModelArtifact),
			port.InSpec("sparse_testdata", port.SparseMatrix),
			port.OutSpec("prediction", port.Prediction),
		},
		Params: []registry.Param{
			{Name: "replicate_id"},
			{Name: "dataset_name"},
		},
		Resources: resource.Spec{Partition: "core", Cores: 1, Time: "4:00:00", JobName: "predlin", Threads: 1},
	})

	r.Register(&registry.Kind{
		Name: KindAssess,
		Ports: []port.Spec{
			port.InSpec("model", port.ModelArtifact),
			port.InSpec("prediction", port.Prediction),
			port.InSpec("sparse_testdata", port.SparseMatrix),
			port.OutSpec("assessment", port.ScalarMetric),
		},
		Params: []registry.Param{
			{Name: "lin_cost", Required: true},
			{Name: "replicate_id"},
			{Name: "dataset_name"},
		},
		Resources: resource.Spec{Partition: "core", Cores: 1, Time: "15:00", JobName: "assesslin", Threads: 1},
	})
}
