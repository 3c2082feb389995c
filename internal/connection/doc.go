// Package connection implements the Connection Registry.
//
// The Registry owns, per model, the set of named connection pools:
//   - exactly one "master" entry per established model
//   - zero or more replica entries, named by the model's replications spec
//
// Resolution (Get) is the hot path and only takes a read lock. Establish,
// Remove and the Clear fan-outs are rare and take the write lock or work on
// a snapshot.
package connection
