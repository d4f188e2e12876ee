// Package protocol owns the hashdragons OP_RETURN wire contract.
//
// Ownership boundary:
// - fixed header (OP_RETURN, LOKAD id, command byte)
// - per-event record layouts and their byte order
// - hex and human-readable renderings
// - the timestamp-keyed byte order policy
package protocol
