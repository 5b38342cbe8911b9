package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/sweepgridgo/internal/builder"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/sweep"
	"github.com/specialistvlad/sweepgridgo/modules/dataset"
	"github.com/specialistvlad/sweepgridgo/modules/files"
	"github.com/specialistvlad/sweepgridgo/modules/liblinear"
	"github.com/specialistvlad/sweepgridgo/modules/svm"
)

// TrainMethod selects the model family of the Train workflow.
type TrainMethod string

const (
	LibLinear TrainMethod = "liblinear"
	SVMRBF    TrainMethod = "svmrbf"
)

// ParseTrainMethod validates a training method selector.
func ParseTrainMethod(s string) (TrainMethod, error) {
	switch m := TrainMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case LibLinear, SVMRBF:
		return m, nil
	default:
		return "", fmt.Errorf("train method %q is none of liblinear, svmrbf", s)
	}
}

// TrainParams are the top-level parameters of the train/predict/assess
// workflow.
type TrainParams struct {
	DatasetName    string
	ReplicateIDs   []string
	TrainSizes     []string
	TestSize       string
	SamplingMethod string
	SamplingSeed   string
	Method         TrainMethod

	LinType string
	LinCost string

	SVMGamma      string
	SVMCost       string
	SVMType       string
	SVMKernelType string

	Placement
}

func (p *TrainParams) defaults() {
	if p.DatasetName == "" {
		p.DatasetName = "mm_test_small"
	}
	if p.SamplingMethod == "" {
		p.SamplingMethod = dataset.DefaultSamplingMethod
	}
	if p.Method == "" {
		p.Method = LibLinear
	}
	if p.LinType == "" {
		p.LinType = liblinear.DefaultType
	}
	if p.SVMGamma == "" {
		p.SVMGamma = svm.DefaultGamma
	}
	if p.SVMCost == "" {
		p.SVMCost = svm.DefaultCost
	}
	if p.SVMType == "" {
		p.SVMType = svm.DefaultType
	}
	if p.SVMKernelType == "" {
		p.SVMKernelType = svm.DefaultKernelType
	}
}

func (p *TrainParams) validate() error {
	if _, err := ParseTrainMethod(string(p.Method)); err != nil {
		return err
	}
	if p.TestSize == "" {
		return fmt.Errorf("test size is required")
	}
	if p.Method == LibLinear && p.LinCost == "" {
		return fmt.Errorf("lin_cost is required for the %s method", LibLinear)
	}
	return nil
}

// Train declares the molecular-property training workflow for every
// combination of replicate id and train size. The SMILES source and the
// signature generation are shared by all combinations; each replicate gets
// its own copy of the signatures. Every combination ends in an assessment
// node, and all of them are sinks.
func Train(ctx context.Context, b *builder.Builder, p TrainParams) ([]string, error) {
	p.defaults()
	if err := p.validate(); err != nil {
		return nil, err
	}
	exp, err := sweep.Expand(sweep.Values("replicate", p.ReplicateIDs...), sweep.Values("trn", p.TrainSizes...))
	if err != nil {
		return nil, err
	}
	if exp.Len() == 0 {
		return nil, &sweep.ConfigurationError{Axis: "replicate", Reason: "at least one replicate id and one train size are required"}
	}
	ctxlog.FromContext(ctx).Info("Declaring train workflow.", "dataset", p.DatasetName, "method", p.Method, "combinations", exp.Len())

	d := &decl{ctx: ctx, b: b}
	d.task(dataset.KindExistingSmiles, "existing_smiles", map[string]string{"dataset_name": p.DatasetName},
		p.spec(dataset.KindExistingSmiles, "existing_smiles", resource.Spec{}))
	d.task(dataset.KindGenSignFilterSubst, "gen_sign_filter_subst", map[string]string{
		"min_height": "1", "max_height": "3", "dataset_name": p.DatasetName,
	}, p.spec(dataset.KindGenSignFilterSubst, "MMLinGenSign", resource.Spec{}))
	d.wire("existing_smiles", "smiles", "gen_sign_filter_subst", "smiles")

	var sinks []string
	for c := range exp.All() {
		rep, _ := c.Get("replicate")
		size, _ := c.Get("trn")
		tag := fmt.Sprintf("trn%s_tst%s_c%s", size, p.TestSize, p.LinCost)
		common := map[string]string{"dataset_name": p.DatasetName, "replicate_id": rep}

		signCopy := "create_unique_sign_copy_" + rep
		d.shared(dataset.KindCreateReplicateCopy, signCopy, map[string]string{"replicate_id": rep},
			p.spec(dataset.KindCreateReplicateCopy, signCopy, resource.Spec{}))
		d.wireOnce("gen_sign_filter_subst", "signatures", signCopy, "file")

		sample := c.ID("sample_train_and_test")
		d.task(dataset.KindSampleTrainAndTest, sample, with(common, map[string]string{
			"seed": p.SamplingSeed, "test_size": p.TestSize, "train_size": size, "sampling_method": p.SamplingMethod,
		}), p.spec(dataset.KindSampleTrainAndTest, "MMLinSampleTrainTest", resource.Spec{}))
		sparseTrain := c.ID("create_sparse_train")
		d.task(dataset.KindCreateSparseTrain, sparseTrain, common,
			p.spec(dataset.KindCreateSparseTrain, "MMLinCreateSparseTrain", resource.Spec{}))
		sparseTest := c.ID("create_sparse_test")
		d.task(dataset.KindCreateSparseTest, sparseTest, common,
			p.spec(dataset.KindCreateSparseTest, "sparse_"+tag, resource.Spec{}))
		ungzipTest := c.ID("ungzip_testdata")
		d.task(files.KindUngzip, ungzipTest, nil, p.spec(files.KindUngzip, "ungziptest_"+tag, resource.Spec{}))
		ungzipTrain := c.ID("ungzip_traindata")
		d.task(files.KindUngzip, ungzipTrain, nil, p.spec(files.KindUngzip, "ungziptrain_"+tag, resource.Spec{}))

		d.wire(signCopy, "copy", sample, "signatures")
		d.wire(sample, "traindata", sparseTrain, "traindata")
		d.wire(sample, "testdata", sparseTest, "testdata")
		d.wire(sparseTrain, "signatures", sparseTest, "signatures")
		d.wire(sparseTest, "sparse_testdata", ungzipTest, "gzipped")
		d.wire(sparseTrain, "sparse_traindata", ungzipTrain, "gzipped")

		var train, predict, assess string
		switch p.Method {
		case LibLinear:
			train, predict, assess = c.ID("train_lin"), c.ID("predict_lin"), c.ID("assess_lin")
			d.task(liblinear.KindTrain, train, with(common, map[string]string{
				"train_size": size, "test_size": p.TestSize, "lin_type": p.LinType, "lin_cost": p.LinCost,
			}), p.spec(liblinear.KindTrain, "trainlin_"+tag, resource.Spec{}))
			d.task(liblinear.KindPredict, predict, common, p.spec(liblinear.KindPredict, "predlin_"+tag, resource.Spec{}))
			d.task(liblinear.KindAssess, assess, with(common, map[string]string{"lin_cost": p.LinCost}),
				p.spec(liblinear.KindAssess, "assesslin_"+tag, resource.Spec{}))
		case SVMRBF:
			svmTag := fmt.Sprintf("tr%s_ts%s_g%s_c%s", size, p.TestSize, p.SVMGamma, p.SVMCost)
			hyper := map[string]string{
				"svm_gamma": p.SVMGamma, "svm_cost": p.SVMCost, "svm_type": p.SVMType, "svm_kernel_type": p.SVMKernelType,
			}
			train, predict, assess = c.ID("train_svm"), c.ID("predict_svm"), c.ID("assess_svm")
			d.task(svm.KindTrain, train, with(common, hyper, map[string]string{"train_size": size}),
				p.spec(svm.KindTrain, "trainsvm_"+svmTag, resource.Spec{}))
			d.task(svm.KindPredict, predict, common, p.spec(svm.KindPredict, "predsvm_"+svmTag, resource.Spec{}))
			d.task(svm.KindAssess, assess, with(common, hyper), p.spec(svm.KindAssess, "assesssvm_"+svmTag, resource.Spec{}))
		}

		d.wire(ungzipTrain, "ungzipped", train, "traindata")
		d.wire(train, "model", predict, "model")
		d.wire(ungzipTest, "ungzipped", predict, "sparse_testdata")
		d.wire(predict, "prediction", assess, "prediction")
		d.wire(train, "model", assess, "model")
		d.wire(ungzipTest, "ungzipped", assess, "sparse_testdata")
		d.sink(assess)
		sinks = append(sinks, assess)
	}

	if d.err != nil {
		return nil, d.err
	}
	return sinks, nil
}
