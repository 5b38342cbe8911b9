// Package dataset declares the kinds that turn a named SMILES dataset into
// sparse train and test matrices: signature generation, replicate copies,
// train/test sampling, sparse encoding and fold splitting.
package dataset

import (
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

const (
	KindExistingSmiles      = "existing_smiles"
	KindGenSignFilterSubst  = "gen_sign_filter_subst"
	KindCreateReplicateCopy = "create_replicate_copy"
	KindSampleTrainAndTest  = "sample_train_and_test"
	KindCreateSparseTrain   = "create_sparse_train"
	KindCreateSparseTest    = "create_sparse_test"
	KindCreateFolds         = "create_folds"
)

const (
	DefaultFoldSeed          = "0.637"
	DefaultSamplingMethod    = "random"
	DefaultTrainSize         = "rest"
	DefaultSignatureMinLevel = "1"
	DefaultSignatureMaxLevel = "3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register declares the dataset kinds. Bodies are attached separately.
func (m *Module) Register(r *registry.Registry) {
	light := resource.Spec{Partition: "core", Cores: 1, Time: "1:00:00", Threads: 1}
	r.Register(&registry.Kind{
		Name:  KindExistingSmiles,
		Ports: []port.Spec{port.OutSpec("smiles", port.SmilesList)},
		Params: []registry.Param{
			{Name: "dataset_name", Required: true},
			{Name: "replicate_id"},
		},
		Resources: light,
	})

	r.Register(&registry.Kind{
		Name: KindGenSignFilterSubst,
		Ports: []port.Spec{
			port.InSpec("smiles", port.SmilesList),
			port.OutSpec("signatures", port.SignatureFile),
		},
		Params: []registry.Param{
			{Name: "min_height", Default: DefaultSignatureMinLevel},
			{Name: "max_height", Default: DefaultSignatureMaxLevel},
			{Name: "dataset_name"},
			{Name: "replicate_id"},
		},
		Resources: resource.Spec{Partition: "core", Cores: 8, Time: "1:00:00", JobName: "mmgensign", Threads: 8},
	})

	r.Register(&registry.Kind{
		Name: KindCreateReplicateCopy,
		Ports: []port.Spec{
			port.InSpec("file", port.SignatureFile),
			port.OutSpec("copy", port.SignatureFile),
		},
		Params:    []registry.Param{{Name: "replicate_id", Required: true}},
		Resources: light,
	})

	r.Register(&registry.Kind{
		Name: KindSampleTrainAndTest,
		Ports: []port.Spec{
			port.InSpec("signatures", port.SignatureFile),
			port.OutSpec("traindata", port.Dataset),
			port.OutSpec("testdata", port.Dataset),
		},
		Params: []registry.Param{
			{Name: "test_size", Required: true},
			{Name: "train_size", Default: DefaultTrainSize},
			{Name: "sampling_method", Default: DefaultSamplingMethod},
			{Name: "seed", Default: "1"},
			{Name: "dataset_name"},
			{Name: "replicate_id"},
		},
		Resources: resource.Spec{Partition: "core", Cores: 12, Time: "1:00:00", JobName: "mmsampletraintest", Threads: 1},
	})

	r.Register(&registry.Kind{
		Name: KindCreateSparseTrain,
		Ports: []port.Spec{
			port.InSpec("traindata", port.Dataset),
			port.OutSpec("sparse_traindata", port.SparseMatrix),
			port.OutSpec("signatures", port.SignatureFile),
		},
		Params: []registry.Param{
			{Name: "dataset_name"},
			{Name: "replicate_id"},
		},
		Resources: resource.Spec{Partition: "node", Cores: 16, Time: "1-00:00:00", JobName: "mmsparsetrain", Threads: 16},
	})

	r.Register(&registry.Kind{
		Name: KindCreateSparseTest,
		Ports: []port.Spec{
			port.InSpec("testdata", port.Dataset),
			port.InSpec("signatures", port.SignatureFile),
			port.OutSpec("sparse_testdata", port.SparseMatrix),
		},
		Params: []registry.Param{
			{Name: "dataset_name"},
			{Name: "replicate_id"},
		},
		Resources: resource.Spec{Partition: "node", Cores: 16, Time: "1-00:00:00", JobName: "mmsparsetest", Threads: 16},
	})

	r.Register(&registry.Kind{
		Name: KindCreateFolds,
		Ports: []port.Spec{
			port.InSpec("dataset", port.SparseMatrix),
			port.OutSpec("traindata", port.SparseMatrix),
			port.OutSpec("testdata", port.SparseMatrix),
		},
		Params: []registry.Param{
			{Name: "fold_index", Required: true},
			{Name: "folds_count", Required: true},
			{Name: "seed", Default: DefaultFoldSeed},
		},
		Resources: light,
	})
}
