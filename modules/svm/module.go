// Package svm declares the RBF-kernel support vector regression kinds.
package svm

import (
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

const (
	KindTrain   = "train_svm"
	KindPredict = "predict_svm"
	KindAssess  = "assess_svm"

	DefaultGamma      = "0.001"
	DefaultCost       = "100"
	DefaultType       = "3"
	DefaultKernelType = "2"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func hyperparams() []registry.Param {
	return []registry.Param{
		{Name: "svm_gamma", Default: DefaultGamma},
		{Name: "svm_cost", Default: DefaultCost},
		{Name: "svm_type", Default: DefaultType},
		{Name: "svm_kernel_type", Default: DefaultKernelType},
	}
}

// Register declares the svm kinds.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Kind{
		Name: KindTrain,
		Ports: []port.Spec{
			port.InSpec("traindata", port.SparseMatrix),
			port.OutSpec("model", port.ModelArtifact),
		},
		Params: append(hyperparams(),
			registry.Param{Name: "replicate_id"},
			registry.Param{Name: "dataset_name"},
			registry.Param{Name: "train_size"},
		),
		Resources: resource.Spec{Partition: "core", Cores: 1, Time: "4-00:00:00", JobName: "trainsvm", Threads: 1},
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
		Resources: resource.Spec{Partition: "core", Cores: 1, Time: "4:00:00", JobName: "predsvm", Threads: 1},
	})

	r.Register(&registry.Kind{
		Name: KindAssess,
		Ports: []port.Spec{
			port.InSpec("model", port.ModelArtifact),
			port.InSpec("prediction", port.Prediction),
			port.InSpec("sparse_testdata", port.SparseMatrix),
			port.OutSpec("assessment", port.ScalarMetric),
		},
		Params: append(hyperparams(),
			registry.Param{Name: "replicate_id"},
			registry.Param{Name: "dataset_name"},
		),
		Resources: resource.Spec{Partition: "core", Cores: 1, Time: "15:00", JobName: "assesssvm", Threads: 1},
	})
}
