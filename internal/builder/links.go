package builder

import (
	"context"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"github.com/specialistvlad/sweepgridgo/internal/port"
)

// Wire binds an output port to an input port.
func (b *Builder) Wire(ctx context.Context, from, to port.Ref) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}
	src, err := b.endpoint(ctx, from, port.Out)
	if err != nil {
		return err
	}
	dst, err := b.endpoint(ctx, to, port.In)
	if err != nil {
		return err
	}
	if dst.Wired() {
		return &AlreadyWiredError{To: to, Existing: dst.Producers}
	}
	if !src.Spec.Type.Compatible(dst.Spec.Type) {
		return &PortTypeError{From: from, To: to, FromType: src.Spec.Type, ToType: dst.Spec.Type}
	}
	return b.link(ctx, src, dst, 0)
}

// ConnectMany binds a sequence of output ports to a variadic input port.
// Supply order is preserved and becomes the order the consumer receives
// its values in.
func (b *Builder) ConnectMany(ctx context.Context, from []port.Ref, toTask, toPort string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	to := port.R(toTask, toPort)
	if b.sealed {
		return ErrSealed
	}
	if len(from) == 0 {
		return &EmptyFanInError{To: to}
	}
	dst, err := b.endpoint(ctx, to, port.In)
	if err != nil {
		return err
	}
	if !dst.Spec.Variadic && len(from) > 1 {
		return &PortArityError{To: to, Producers: len(from)}
	}
	if dst.Wired() {
		return &AlreadyWiredError{To: to, Existing: dst.Producers}
	}

	// Validate the whole fan-in before recording any wire of it.
	sources := make([]*node.Port, len(from))
	for i, ref := range from {
		src, err := b.endpoint(ctx, ref, port.Out)
		if err != nil {
			return err
		}
		if !src.Spec.Type.Compatible(dst.Spec.Type) {
			return &PortTypeError{From: ref, To: to, FromType: src.Spec.Type, ToType: dst.Spec.Type}
		}
		sources[i] = src
	}
	for slot, src := range sources {
		if err := b.link(ctx, src, dst, slot); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("Connected fan-in.", "to", to.String(), "producers", len(from))
	return nil
}

// endpoint resolves a ref to a materialized port of the wanted direction.
func (b *Builder) endpoint(ctx context.Context, ref port.Ref, want port.Direction) (*node.Port, error) {
	n, ok := b.topology.GetNode(ctx, ref.Task)
	if !ok {
		return nil, &UnknownNodeError{ID: ref.Task}
	}
	if p, ok := n.Port(ref.Port, want); ok {
		return p, nil
	}
	other := port.In
	if want == port.In {
		other = port.Out
	}
	if _, ok := n.Port(ref.Port, other); ok {
		return nil, &PortDirectionError{Ref: ref, Want: want}
	}
	return nil, &UnknownPortError{Task: ref.Task, Kind: n.Kind, Port: ref.Port, Direction: want}
}

func (b *Builder) link(ctx context.Context, src, dst *node.Port, slot int) error {
	w := port.Wire{From: src.Ref(), To: dst.Ref(), Slot: slot}
	if err := b.topology.AddWire(ctx, w); err != nil {
		return err
	}
	dst.Producers = append(dst.Producers, w.From)
	src.Consumers = append(src.Consumers, w.To)
	ctxlog.FromContext(ctx).Debug("Wired ports.", "from", w.From.String(), "to", w.To.String(), "slot", slot)
	return nil
}
