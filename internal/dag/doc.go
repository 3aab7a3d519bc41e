// Package dag builds the dependency graph of a set of unit declarations.
//
// Build is a pure function from declarations to a Graph: it creates one node
// per unit, links an edge for every argument reference and explicit
// depends_on entry, and rejects unknown references and cycles before anything
// is deployed. The resulting Graph exposes a deterministic execution order in
// which ties between simultaneously eligible units are broken by declaration
// order.
package dag
