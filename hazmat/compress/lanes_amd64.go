//go:build !purego

package compress

import "github.com/klauspost/cpuid/v2"

func init() {
	if cpuid.CPU.Has(cpuid.SSE2) {
		Lanes = 4
	}
}
