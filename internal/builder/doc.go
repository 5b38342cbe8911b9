/*
Package builder constructs the execution graph from task node creations and
wiring directives.

The construction is a three-phase process:

 1. Node Creation: CreateTask looks the kind up in the registry, checks the
    parameter schema, merges the kind's default resource profile under the
    per-node request and materializes every schema port on a *node.Node.

 2. Wiring: Wire binds one output port to one input port. ConnectMany binds an
    ordered sequence of output ports to a variadic input port, recording each
    producer's supply position as the wire's slot. Each input accepts exactly
    one producer or one fan-in; outputs fan out freely.

 3. Build: Sink declares result nodes. Build seals the builder, checks that
    every non-sink node has a consumer and that every node is reachable
    upstream from a sink, and hands out a graph.Graph over the populated
    stores.

Every failure in these phases is a build-time error. Cycles and dangling
inputs are graph-integrity errors and are reported by the scheduler once the
graph is sealed.
*/
package builder
