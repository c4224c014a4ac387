package core_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/jmgilman/objstore/core"
)

// TestReexportedErrorsMatchStdlib verifies aliased errors match stdlib
// sentinels so errors.Is interoperates with io/fs callers.
func TestReexportedErrorsMatchStdlib(t *testing.T) {
	tests := []struct {
		name      string
		coreErr   error
		stdlibErr error
	}{
		{"ErrNotFound", core.ErrNotFound, fs.ErrNotExist},
		{"ErrAlreadyExists", core.ErrAlreadyExists, fs.ErrExist},
		{"ErrPermission", core.ErrPermission, fs.ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.coreErr, tt.stdlibErr) || !errors.Is(tt.stdlibErr, tt.coreErr) {
				t.Errorf("%s does not match stdlib: core=%v, stdlib=%v",
					tt.name, tt.coreErr, tt.stdlibErr)
			}
		})
	}
}

// TestOpErrorWrapping verifies *Error preserves the taxonomy sentinel
// through errors.Is and errors.As.
func TestOpErrorWrapping(t *testing.T) {
	location := core.MustParsePath("a/b")
	err := core.OpError("get", location, core.ErrNotFound)

	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false, want true")
	}

	var opErr *core.Error
	if !errors.As(err, &opErr) {
		t.Fatal("errors.As(*core.Error) = false, want true")
	}
	if opErr.Op != "get" || !opErr.Location.Equal(location) {
		t.Errorf("Error fields = %q, %q, want get, a/b", opErr.Op, opErr.Location)
	}

	if msg := err.Error(); msg != "get a/b: file does not exist" {
		t.Errorf("Error() = %q", msg)
	}
}

// TestOpErrorNil verifies OpError passes nil through.
func TestOpErrorNil(t *testing.T) {
	if err := core.OpError("put", core.Path{}, nil); err != nil {
		t.Errorf("OpError(nil) = %v, want nil", err)
	}
}

// TestTaxonomySentinelsDistinct verifies the new sentinels do not alias
// each other or the stdlib set.
func TestTaxonomySentinelsDistinct(t *testing.T) {
	sentinels := []error{
		core.ErrNotFound,
		core.ErrAlreadyExists,
		core.ErrPermission,
		core.ErrInvalidRange,
		core.ErrInvalidInput,
		core.ErrUnavailable,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v aliases %v", a, b)
			}
		}
	}
}
