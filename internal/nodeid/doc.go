// internal/nodeid/doc.go

/*
Package nodeid provides a structured representation for task node
identifiers, based on the canonical format `base[_name_value]*`.

Sweep expansion qualifies a base name with one (name, value) pair per active
axis, in axis declaration order, e.g. `trainlin_fold_3_cost_1000000`. The
rendering is deterministic so that rebuilding a graph from identical
parameters yields identical identifiers.
*/
package nodeid
