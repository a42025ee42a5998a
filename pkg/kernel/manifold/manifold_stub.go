//go:build !manifold

// Package manifold is the exact-boolean kernel backed by the Manifold C
// library. Without the "manifold" build tag this stub is compiled and New
// reports that the kernel is unavailable.
//
// Build with: go build -tags=manifold
package manifold

import (
	"github.com/chazu/zfight/pkg/kernel"
)

// New returns ErrUnavailable. Build with -tags=manifold to enable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
