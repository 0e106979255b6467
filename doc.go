// Package motion is the inter-prediction search and mode-decision engine of
// a block-based video encoder.
//
// For every prediction block it finds the reference pictures, quarter-sample
// motion vectors and prediction mode (merge, uni-prediction, bi-prediction
// with generalized weights, 4- or 6-parameter affine) that minimise
// distortion plus lambda times the estimated coding bits. The interpolation
// filter, candidate list order and motion vector legality follow the
// decoder contract exactly, so the decisions can be entropy coded as they
// are.
//
// The package supports:
//   - Full, TZ diamond, enhanced diamond and selective integer search
//   - Half and quarter sample refinement with cascaded interpolation
//   - AMVP, merge and affine AMVP candidate derivation with POC scaling
//   - Iterative bi-prediction and GBi weights
//   - Gradient-based affine search
//   - Integer and four-sample motion vector precision
//
// Basic usage:
//
//	eng, err := motion.NewEngine(motion.DefaultConfig())
//	sess, err := eng.BeginPicture(cur, refs, field)
//	defer sess.Close()
//	for _, b := range blocksInCodingOrder {
//		d, err := sess.Decide(b)
//		...
//	}
//
// Blocks of a picture must be decided in coding order: candidate derivation
// reads the motion committed by earlier blocks.
package motion
