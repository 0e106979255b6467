// Package dsp implements the sample-level primitives of the inter search:
// block distortion (SAD, SATD, SSE), the 8-tap separable luma interpolation
// filter, weighted bi-prediction and the gradient filters of the affine
// search. Samples are uint16 so that 8- to 12-bit content share one code path.
package dsp

import (
	"log/slog"

	"golang.org/x/sys/cpu"
)

// Backend identifies the row-kernel family selected at init.
type Backend int

const (
	BackendScalar Backend = iota
	BackendWide
)

func (b Backend) String() string {
	switch b {
	case BackendWide:
		return "wide"
	case BackendScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Row kernel variables for dispatch. Init sets them to the portable
// implementations and upgrades to the 8-wide unrolled kernels when the CPU
// has vector units that the compiler can exploit for them. Both families
// produce identical results.
var (
	sadRow func(a, b []uint16) uint64
	sseRow func(a, b []uint16) uint64
)

var activeBackend Backend

// ActiveBackend reports which row-kernel family is in use.
func ActiveBackend() Backend { return activeBackend }

// Init selects the row kernels. forceScalar pins the portable versions.
func Init(forceScalar bool) {
	sadRow = sadRowScalar
	sseRow = sseRowScalar
	activeBackend = BackendScalar
	if forceScalar {
		return
	}
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		sadRow = sadRowWide
		sseRow = sseRowWide
		activeBackend = BackendWide
	}
	slog.Debug("dsp kernels initialized", "backend", activeBackend.String())
}

func init() {
	Init(false)
}

// Metric selects a distortion measure.
type Metric int

const (
	MetricSAD Metric = iota
	MetricSATD
	MetricSSE
)

func (m Metric) String() string {
	switch m {
	case MetricSAD:
		return "SAD"
	case MetricSATD:
		return "SATD"
	case MetricSSE:
		return "SSE"
	default:
		return "unknown"
	}
}

// Distortion evaluates metric m between two w×h sample blocks.
func Distortion(m Metric, a []uint16, aStride int, b []uint16, bStride int, w, h int) uint64 {
	switch m {
	case MetricSATD:
		return SATD(a, aStride, b, bStride, w, h)
	case MetricSSE:
		return SSE(a, aStride, b, bStride, w, h)
	default:
		return SAD(a, aStride, b, bStride, w, h)
	}
}
