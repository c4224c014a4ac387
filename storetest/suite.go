// Package storetest provides a conformance test suite for validating
// store implementations against the core.Store interface contracts.
//
// This package contains test functions that backend packages import and
// execute to verify they honor the shared contract: round-trip reads,
// range semantics, segment-wise prefix listing, the delimiter union
// property, conditional renames, and the multipart lifecycle.
//
// The suite validates interface contracts, not backend-specific
// behavior. Behavioral differences between backends (e.g. the minimum
// part size remote stores enforce) are expressed through Config rather
// than skipped assertions.
//
// Example usage:
//
//	func TestMyStore(t *testing.T) {
//	    storetest.TestSuite(t, func(t *testing.T) core.Store {
//	        return mystore.New()
//	    })
//	}
package storetest

import (
	"testing"

	"github.com/jmgilman/objstore/core"
)

// Factory returns a fresh, empty store for one test group. Tests
// create and modify objects, so each invocation must start clean.
type Factory func(t *testing.T) core.Store

// Config adapts the suite to backend behavior characteristics.
type Config struct {
	// MinPartSize is the smallest part a backend accepts for non-final
	// multipart parts (S3-compatible services enforce 5 MiB). When set,
	// the multipart tests pad their parts up to this size. Zero means
	// no minimum.
	MinPartSize int64

	// SkipTests lists test group names to skip (e.g. "Multipart") for
	// documented backend gaps.
	SkipTests []string
}

// DefaultConfig returns the configuration for backends with no
// behavioral restrictions (memory, local, billy).
func DefaultConfig() Config {
	return Config{}
}

// S3Config returns the configuration for S3-compatible remote backends.
func S3Config() Config {
	return Config{MinPartSize: 5 * 1024 * 1024}
}

// TestSuite runs all conformance tests against stores produced by
// factory, using DefaultConfig.
func TestSuite(t *testing.T, factory Factory) {
	TestSuiteWithConfig(t, factory, DefaultConfig())
}

// TestSuiteWithConfig runs all conformance tests with behavior
// configuration.
func TestSuiteWithConfig(t *testing.T, factory Factory, config Config) {
	shouldSkip := func(name string) bool {
		for _, skip := range config.SkipTests {
			if skip == name {
				return true
			}
		}
		return false
	}

	groups := []struct {
		name string
		run  func(t *testing.T, store core.Store, config Config)
	}{
		{"ReadWrite", TestReadWrite},
		{"Ranges", TestRanges},
		{"List", TestList},
		{"Delimiter", TestDelimiter},
		{"Move", TestMove},
		{"Multipart", TestMultipart},
	}

	for _, group := range groups {
		t.Run(group.name, func(t *testing.T) {
			if shouldSkip(group.name) {
				t.Skip("Skipped by backend configuration")
				return
			}
			group.run(t, factory(t), config)
		})
	}
}
