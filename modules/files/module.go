// Package files declares generic file-handling kinds.
package files

import (
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

// KindUngzip decompresses a gzipped artifact of any type.
const KindUngzip = "ungzip"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register declares the file kinds.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Kind{
		Name: KindUngzip,
		Ports: []port.Spec{
			port.InSpec("gzipped", port.Any),
			port.OutSpec("ungzipped", port.Any),
		},
		Resources: resource.Spec{Partition: "core", Cores: 1, Time: "1:00:00", JobName: "gunzip", Threads: 1},
	})
}
