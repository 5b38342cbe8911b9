package hclconfig

import "github.com/hashicorp/hcl/v2"

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "workflow", LabelNames: []string{"type"}},
		{Type: "resources", LabelNames: []string{"kind"}},
		{Type: "backend"},
		{Type: "command", LabelNames: []string{"kind"}},
	},
}

type crossvalBlock struct {
	DatasetName string   `hcl:"dataset_name"`
	ReplicateID string   `hcl:"replicate_id"`
	Folds       int      `hcl:"folds"`
	Costs       []string `hcl:"costs,optional"`
	MinHeight   string   `hcl:"min_height,optional"`
	MaxHeight   string   `hcl:"max_height,optional"`
	TestSize    string   `hcl:"test_size,optional"`
	TrainSize   string   `hcl:"train_size,optional"`
	LinType     string   `hcl:"lin_type,optional"`
	RunMode     string   `hcl:"runmode,optional"`
	Project     string   `hcl:"project,optional"`
}

type trainBlock struct {
	DatasetName    string   `hcl:"dataset_name,optional"`
	ReplicateIDs   []string `hcl:"replicate_ids"`
	TrainSizes     []string `hcl:"train_sizes"`
	TestSize       string   `hcl:"test_size"`
	SamplingMethod string   `hcl:"sampling_method,optional"`
	SamplingSeed   string   `hcl:"sampling_seed,optional"`
	Method         string   `hcl:"method,optional"`
	LinType        string   `hcl:"lin_type,optional"`
	LinCost        string   `hcl:"lin_cost,optional"`
	SVMGamma       string   `hcl:"svm_gamma,optional"`
	SVMCost        string   `hcl:"svm_cost,optional"`
	SVMType        string   `hcl:"svm_type,optional"`
	SVMKernelType  string   `hcl:"svm_kernel_type,optional"`
	RunMode        string   `hcl:"runmode,optional"`
	Project        string   `hcl:"project,optional"`
}

type backendBlock struct {
	Threads      int    `hcl:"threads,optional"`
	Ensemble     int    `hcl:"ensemble,optional"`
	MaxJobs      int    `hcl:"max_jobs,optional"`
	QueryRetries int    `hcl:"query_retries,optional"`
	QueryBackoff string `hcl:"query_backoff,optional"`
	PollInterval string `hcl:"poll_interval,optional"`
}

type commandBlock struct {
	Run string `hcl:"run"`
}

// findUniqueBlock returns the single block of the given type, with an error
// diagnostic for every extra one. It returns nil if there is none.
func findUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics
	for _, block := range blocks.OfType(name) {
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"" + name + "\" block",
				Detail:   "Only one \"" + name + "\" block is allowed; the first one is at " + found.DefRange.String() + ".",
				Subject:  &block.DefRange,
			})
			continue
		}
		found = block
	}
	return found, diags
}

// byLabel indexes labelled blocks of one type, reporting repeated labels.
func byLabel(blocks hcl.Blocks, name string) (map[string]*hcl.Block, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	out := make(map[string]*hcl.Block)
	for _, block := range blocks.OfType(name) {
		label := block.Labels[0]
		if first, dup := out[label]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"" + name + "\" block",
				Detail:   "A \"" + name + "\" block for \"" + label + "\" is already defined at " + first.DefRange.String() + ".",
				Subject:  &block.DefRange,
			})
			continue
		}
		out[label] = block
	}
	return out, diags
}
