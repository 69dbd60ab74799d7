// Package ids provides explicit identifier generators.
//
// Nothing in efsmcheck mints ids from a package-level counter. Every
// component that needs ids takes a Generator, so runs are reproducible:
// production wires UUIDv7Generator, tests wire FixedGenerator, and model
// compilation uses a Sequence seeded from the ids already present.
package ids
