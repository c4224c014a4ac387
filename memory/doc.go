// Package memory provides an in-memory implementation of core.Store.
//
// The store keeps every object as a byte blob in a single map guarded
// by one mutex for reads and writes, trading throughput for simplicity.
// Its primary uses are tests and small-scale caching, not
// high-throughput storage. Listings are sorted segment-wise so test
// output is deterministic.
package memory
