package hclconfig

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/sweepgridgo/internal/config"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/workflow"
)

func translate(blocks hcl.Blocks, evalCtx *hcl.EvalContext) (*config.Model, hcl.Diagnostics) {
	model := &config.Model{
		Resources: make(map[string]resource.Spec),
		Commands:  make(map[string]string),
	}

	wfBlock, diags := findUniqueBlock(blocks, "workflow")
	if wfBlock == nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing \"workflow\" block",
			Detail:   "A configuration must declare exactly one workflow block, e.g. workflow \"crossval\" { ... }.",
		})
	} else {
		diags = append(diags, translateWorkflow(wfBlock, evalCtx, &model.Workflow)...)
	}

	if b, bDiags := findUniqueBlock(blocks, "backend"); b != nil || bDiags.HasErrors() {
		diags = append(diags, bDiags...)
		if b != nil {
			diags = append(diags, translateBackend(b, evalCtx, &model.Backend)...)
		}
	}

	resources, rDiags := byLabel(blocks, "resources")
	diags = append(diags, rDiags...)
	for kind, b := range resources {
		var spec resource.Spec
		if d := gohcl.DecodeBody(b.Body, evalCtx, &spec); d.HasErrors() {
			diags = append(diags, d...)
			continue
		}
		if err := spec.Validate(); err != nil {
			diags = append(diags, errorAt(b.DefRange, fmt.Sprintf("Invalid resources for %q", kind), err))
			continue
		}
		model.Resources[kind] = spec
	}

	commands, cDiags := byLabel(blocks, "command")
	diags = append(diags, cDiags...)
	for kind, b := range commands {
		var cmd commandBlock
		if d := gohcl.DecodeBody(b.Body, evalCtx, &cmd); d.HasErrors() {
			diags = append(diags, d...)
			continue
		}
		model.Commands[kind] = cmd.Run
	}

	if len(model.Resources) > 0 {
		model.Workflow.Placement().Overrides = model.Resources
	}
	return model, diags
}

func translateWorkflow(b *hcl.Block, evalCtx *hcl.EvalContext, wf *config.Workflow) hcl.Diagnostics {
	typ, err := config.ParseWorkflowType(b.Labels[0])
	if err != nil {
		return hcl.Diagnostics{errorAt(b.LabelRanges[0], "Unsupported workflow", err)}
	}
	wf.Type = typ

	var runMode, project string
	switch typ {
	case config.CrossValidate:
		var cv crossvalBlock
		if diags := gohcl.DecodeBody(b.Body, evalCtx, &cv); diags.HasErrors() {
			return diags
		}
		wf.CrossValidate = workflow.CrossValidateParams{
			DatasetName: cv.DatasetName,
			ReplicateID: cv.ReplicateID,
			FoldsCount:  cv.Folds,
			Costs:       cv.Costs,
			MinHeight:   cv.MinHeight,
			MaxHeight:   cv.MaxHeight,
			TestSize:    cv.TestSize,
			TrainSize:   cv.TrainSize,
			LinType:     cv.LinType,
		}
		runMode, project = cv.RunMode, cv.Project
	case config.Train:
		var tr trainBlock
		if diags := gohcl.DecodeBody(b.Body, evalCtx, &tr); diags.HasErrors() {
			return diags
		}
		var method workflow.TrainMethod
		if tr.Method != "" {
			if method, err = workflow.ParseTrainMethod(tr.Method); err != nil {
				return hcl.Diagnostics{errorAt(b.DefRange, "Invalid train method", err)}
			}
		}
		wf.Train = workflow.TrainParams{
			DatasetName:    tr.DatasetName,
			ReplicateIDs:   tr.ReplicateIDs,
			TrainSizes:     tr.TrainSizes,
			TestSize:       tr.TestSize,
			SamplingMethod: tr.SamplingMethod,
			SamplingSeed:   tr.SamplingSeed,
			Method:         method,
			LinType:        tr.LinType,
			LinCost:        tr.LinCost,
			SVMGamma:       tr.SVMGamma,
			SVMCost:        tr.SVMCost,
			SVMType:        tr.SVMType,
			SVMKernelType:  tr.SVMKernelType,
		}
		runMode, project = tr.RunMode, tr.Project
	}

	placement := wf.Placement()
	placement.Project = project
	if runMode != "" {
		mode, err := resource.ParseRunMode(runMode)
		if err != nil {
			return hcl.Diagnostics{errorAt(b.DefRange, "Invalid runmode", err)}
		}
		placement.RunMode = mode
	}
	return nil
}

func translateBackend(b *hcl.Block, evalCtx *hcl.EvalContext, out *config.Backend) hcl.Diagnostics {
	var bb backendBlock
	if diags := gohcl.DecodeBody(b.Body, evalCtx, &bb); diags.HasErrors() {
		return diags
	}
	var diags hcl.Diagnostics
	for name, v := range map[string]int{
		"threads": bb.Threads, "ensemble": bb.Ensemble, "max_jobs": bb.MaxJobs, "query_retries": bb.QueryRetries,
	} {
		if v < 0 {
			diags = append(diags, errorAt(b.DefRange, "Invalid backend setting", fmt.Errorf("%s must not be negative, got %d", name, v)))
		}
	}
	backoff, err := parseDuration(bb.QueryBackoff)
	if err != nil {
		diags = append(diags, errorAt(b.DefRange, "Invalid query_backoff", err))
	}
	poll, err := parseDuration(bb.PollInterval)
	if err != nil {
		diags = append(diags, errorAt(b.DefRange, "Invalid poll_interval", err))
	}
	if diags.HasErrors() {
		return diags
	}

	*out = config.Backend{
		Threads:      bb.Threads,
		Ensemble:     bb.Ensemble,
		MaxJobs:      bb.MaxJobs,
		QueryRetries: uint64(bb.QueryRetries),
		QueryBackoff: backoff,
		PollInterval: poll,
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

func errorAt(rng hcl.Range, summary string, err error) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   err.Error(),
		Subject:  rng.Ptr(),
	}
}
