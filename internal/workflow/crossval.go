package workflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/specialistvlad/sweepgridgo/internal/builder"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/reduce"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/sweep"
	"github.com/specialistvlad/sweepgridgo/modules/dataset"
	"github.com/specialistvlad/sweepgridgo/modules/files"
	"github.com/specialistvlad/sweepgridgo/modules/liblinear"
)

// SelectLowestRMSD is the id of the cross-validation sink.
const SelectLowestRMSD = "select_lowest_rmsd"

// DefaultCosts is the cost grid 10^1 ... 10^8.
func DefaultCosts() []string {
	return sweep.Powers("cost", 10, 1, 8).Values()
}

// CrossValidateParams are the top-level parameters of the liblinear cost
// search.
type CrossValidateParams struct {
	DatasetName string
	ReplicateID string
	FoldsCount  int
	// Costs defaults to DefaultCosts. Every cost must be an integer.
	Costs     []string
	MinHeight string
	MaxHeight string
	TestSize  string
	TrainSize string
	// LinType defaults to liblinear.CrossValidationType.
	LinType string
	Placement
}

func (p *CrossValidateParams) defaults() {
	if len(p.Costs) == 0 {
		p.Costs = DefaultCosts()
	}
	if p.MinHeight == "" {
		p.MinHeight = dataset.DefaultSignatureMinLevel
	}
	if p.MaxHeight == "" {
		p.MaxHeight = dataset.DefaultSignatureMaxLevel
	}
	if p.TestSize == "" {
		p.TestSize = "50000"
	}
	if p.TrainSize == "" {
		p.TrainSize = dataset.DefaultTrainSize
	}
	if p.LinType == "" {
		p.LinType = liblinear.CrossValidationType
	}
}

func (p *CrossValidateParams) validate() error {
	if p.FoldsCount < 1 {
		return &sweep.ConfigurationError{Axis: "fold", Reason: fmt.Sprintf("folds count must be positive, got %d", p.FoldsCount)}
	}
	seen := make(map[string]struct{}, len(p.Costs))
	for _, c := range p.Costs {
		if _, dup := seen[c]; dup {
			return &sweep.ConfigurationError{Axis: "cost", Reason: fmt.Sprintf("cost %q listed twice", c)}
		}
		seen[c] = struct{}{}
		if _, err := strconv.ParseInt(c, 10, 64); err != nil {
			return &sweep.ConfigurationError{Axis: "cost", Reason: fmt.Sprintf("cost %q is not an integer", c)}
		}
	}
	return nil
}

// CrossValidate declares a k-fold cross-validation of a liblinear model over
// a grid of cost values. For every (fold, cost) it trains, predicts and
// assesses; it averages the RMSD of every cost over its folds and selects
// the cost with the lowest average. The single sink is SelectLowestRMSD.
func CrossValidate(ctx context.Context, b *builder.Builder, p CrossValidateParams) ([]string, error) {
	p.defaults()
	if err := p.validate(); err != nil {
		return nil, err
	}
	exp, err := sweep.Expand(sweep.Ints("fold", 0, p.FoldsCount), sweep.Values("cost", p.Costs...))
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Declaring cross-validation workflow.", "dataset", p.DatasetName, "folds", p.FoldsCount, "costs", len(p.Costs), "branches", exp.Len())

	d := &decl{ctx: ctx, b: b}
	replicate := map[string]string{"replicate_id": p.ReplicateID}

	d.task(dataset.KindExistingSmiles, "mmtestdata", map[string]string{
		"dataset_name": p.DatasetName, "replicate_id": p.ReplicateID,
	}, p.spec(dataset.KindExistingSmiles, "mmtestdata", resource.Spec{}))
	d.task(dataset.KindGenSignFilterSubst, "gensign", map[string]string{
		"replicate_id": p.ReplicateID, "min_height": p.MinHeight, "max_height": p.MaxHeight,
	}, p.spec(dataset.KindGenSignFilterSubst, "mmgensign", resource.Spec{}))
	d.task(dataset.KindCreateReplicateCopy, "replcopy", replicate,
		p.spec(dataset.KindCreateReplicateCopy, "replcopy", resource.Spec{}))
	d.task(dataset.KindSampleTrainAndTest, "sampletraintest", map[string]string{
		"replicate_id": p.ReplicateID, "sampling_method": dataset.DefaultSamplingMethod, "seed": "1",
		"test_size": p.TestSize, "train_size": p.TrainSize,
	}, p.spec(dataset.KindSampleTrainAndTest, "mmsampletraintest", resource.Spec{}))
	d.task(dataset.KindCreateSparseTrain, "sparsetrain", replicate,
		p.spec(dataset.KindCreateSparseTrain, "mmsparsetrain", resource.Spec{}))
	d.task(files.KindUngzip, "gunzip_sparsetrain", nil,
		p.spec(files.KindUngzip, "gunzip_sparsetrain", resource.Spec{}))

	d.wire("mmtestdata", "smiles", "gensign", "smiles")
	d.wire("gensign", "signatures", "replcopy", "file")
	d.wire("replcopy", "copy", "sampletraintest", "signatures")
	d.wire("sampletraintest", "traindata", "sparsetrain", "traindata")
	d.wire("sparsetrain", "sparse_traindata", "gunzip_sparsetrain", "gzipped")

	assessments := make(map[string][]port.Ref, len(p.Costs))
	for c := range exp.All() {
		foldStr, _ := c.Get("fold")
		cost, _ := c.Get("cost")
		fold, _ := strconv.Atoi(foldStr)
		costN, _ := strconv.ParseInt(cost, 10, 64)

		folds := fmt.Sprintf("create_fold_%d", fold)
		d.shared(dataset.KindCreateFolds, folds, map[string]string{
			"fold_index": foldStr, "folds_count": strconv.Itoa(p.FoldsCount), "seed": dataset.DefaultFoldSeed,
		}, p.spec(dataset.KindCreateFolds, folds, resource.Spec{}))
		d.wireOnce("gunzip_sparsetrain", "ungzipped", folds, "dataset")

		train := c.ID("trainlin")
		d.task(liblinear.KindTrain, train, map[string]string{
			"replicate_id": p.ReplicateID, "lin_type": p.LinType, "lin_cost": cost,
		}, p.spec(liblinear.KindTrain, fmt.Sprintf("trnlin_f%02d_c%010d", fold, costN), resource.Spec{}))
		predict := c.ID("predlin")
		d.task(liblinear.KindPredict, predict, replicate,
			p.spec(liblinear.KindPredict, fmt.Sprintf("predlin_f%02d_c%010d", fold, costN), resource.Spec{Time: "8:00:00"}))
		assess := c.ID("assesslin")
		d.task(liblinear.KindAssess, assess, map[string]string{"lin_cost": cost},
			p.spec(liblinear.KindAssess, fmt.Sprintf("assesslin_f%02d_c%010d", fold, costN), resource.Spec{}))

		d.wire(folds, "traindata", train, "traindata")
		d.wire(train, "model", predict, "model")
		d.wire(folds, "testdata", predict, "sparse_testdata")
		d.wire(train, "model", assess, "model")
		d.wire(folds, "testdata", assess, "sparse_testdata")
		d.wire(predict, "prediction", assess, "prediction")

		assessments[cost] = append(assessments[cost], port.R(assess, "assessment"))
	}

	averages := make([]port.Ref, 0, len(p.Costs))
	for _, cost := range p.Costs {
		avg := "average_rmsd_cost_" + cost
		d.task(reduce.KindAverageRMSD, avg, map[string]string{"lin_cost": cost},
			p.spec(reduce.KindAverageRMSD, avg, resource.Spec{}))
		d.fanIn(assessments[cost], avg, "assessments")
		averages = append(averages, port.R(avg, "rmsdavg"))
	}
	d.task(reduce.KindSelectLowestRMSD, SelectLowestRMSD, nil,
		p.spec(reduce.KindSelectLowestRMSD, SelectLowestRMSD, resource.Spec{}))
	d.fanIn(averages, SelectLowestRMSD, "values")
	d.sink(SelectLowestRMSD)

	if d.err != nil {
		return nil, d.err
	}
	return []string{SelectLowestRMSD}, nil
}
