// Package graph defines the composite constraint graph: parts with seed
// poses, tracks, constraints and motions. Documents (JSON or YAML) are
// decoded into closed tagged unions so every constraint, track and motion
// carries only its valid argument set, and reference errors are reported
// at load time rather than at solve time.
package graph
