package mv

import "math"

// costShift is the fixed-point precision of a lambda multiplier.
const costShift = 16

// MaxCost is the cost of an unevaluated or rejected candidate.
const MaxCost = math.MaxUint64

// CostModel folds an estimated bit count into a distortion:
//
//	cost = distortion + lambda * bits
//
// Lambda is held in 16.16 fixed point so that the score is an exact integer
// function of its inputs on every platform.
type CostModel struct {
	lambda uint64
}

// NewCostModel returns a cost model for the given lambda multiplier.
// Negative lambdas are treated as zero.
func NewCostModel(lambda float64) CostModel {
	if lambda <= 0 || math.IsNaN(lambda) {
		return CostModel{}
	}
	return CostModel{lambda: uint64(math.Floor(lambda*(1<<costShift) + 0.5))}
}

// Lambda returns the multiplier as a float, for logging.
func (c CostModel) Lambda() float64 {
	return float64(c.lambda) / (1 << costShift)
}

// BitCost returns lambda*bits rounded to an integer.
func (c CostModel) BitCost(bits int) uint64 {
	if bits <= 0 {
		return 0
	}
	return (c.lambda*uint64(bits) + 1<<(costShift-1)) >> costShift
}

// Cost returns distortion + lambda*bits.
func (c CostModel) Cost(bits int, distortion uint64) uint64 {
	return distortion + c.BitCost(bits)
}

// Costs bundles the two multipliers used by the search: Motion scales bits
// against SAD/SATD (square root of the mode lambda), Mode scales bits against
// SSE.
type Costs struct {
	Motion CostModel
	Mode   CostModel
}

// NewCosts derives both multipliers from the mode-decision lambda.
func NewCosts(lambda float64) Costs {
	if lambda < 0 {
		lambda = 0
	}
	return Costs{
		Motion: NewCostModel(math.Sqrt(lambda)),
		Mode:   NewCostModel(lambda),
	}
}

// LambdaForQP returns the HEVC-style inter lambda for a quantisation
// parameter: 0.57 * 2^((qp-12)/3) scaled by the B-picture factor.
func LambdaForQP(qp int) float64 {
	return 0.57 * 0.68 * math.Pow(2, float64(qp-12)/3)
}
