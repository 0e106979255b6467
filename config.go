package motion

import (
	"errors"
	"fmt"

	"github.com/deepteams/motion/internal/inter"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/search"
)

// Errors returned at the engine boundary.
var (
	ErrInvalidConfig  = errors.New("motion: invalid config")
	ErrInvalidPicture = errors.New("motion: invalid picture")
	ErrInvalidBlock   = errors.New("motion: invalid block")
	ErrSessionClosed  = errors.New("motion: session closed")
)

// Limits of the tunable parameters.
const (
	MaxSearchRange  = 256
	MaxBiIterations = 8
	MaxMergeCand    = 6
	MaxQP           = 51
)

// MaxFirstSearchRounds covers every diamond round of the largest range.
const MaxFirstSearchRounds = 9

// SearchMethod selects the integer motion search strategy.
type SearchMethod = search.Method

const (
	SearchFull            = search.MethodFull
	SearchDiamond         = search.MethodDiamond
	SearchEnhancedDiamond = search.MethodEnhancedDiamond
	SearchSelective       = search.MethodSelective
)

// ParseSearchMethod maps a method name (full, diamond, enhanced-diamond,
// selective) to its SearchMethod.
func ParseSearchMethod(s string) (SearchMethod, error) {
	return search.ParseMethod(s)
}

// IMV selects the motion vector precisions a block may be coded at.
type IMV int

const (
	// IMVOff codes every vector at quarter-sample precision.
	IMVOff IMV = iota
	// IMVInt also tries integer precision.
	IMVInt
	// IMVFour also tries integer and four-sample precision.
	IMVFour
)

func (m IMV) precisions() []mv.Precision {
	switch m {
	case IMVInt:
		return []mv.Precision{mv.Quarter, mv.Integer}
	case IMVFour:
		return []mv.Precision{mv.Quarter, mv.Integer, mv.Four}
	default:
		return []mv.Precision{mv.Quarter}
	}
}

// Preset selects a speed/quality trade-off.
type Preset int

const (
	PresetMedium Preset = iota
	PresetFast
	PresetSlow
)

// Config controls the search. It is resolved once per sequence.
type Config struct {
	// SearchMethod selects the integer search strategy (default
	// SearchDiamond).
	SearchMethod SearchMethod

	// SearchRange is the uni-prediction search radius in integer samples
	// around the motion vector predictor (1-256, default 64).
	SearchRange int

	// FirstSearchRounds stops the expanding diamond of the test-zone
	// methods after that many rounds without improvement (0-9, 0 disables
	// the early stop).
	FirstSearchRounds int

	// BipredSearchRange is the radius of the full search run per list
	// inside the bi-prediction loop (1-256, default 4).
	BipredSearchRange int

	// BiIterations bounds the joint bi-prediction loop (1-8, default 4).
	BiIterations int

	// FastBi runs a single bi-prediction iteration refining only the list
	// whose uni-prediction was worse, and limits GBi to two weights.
	FastBi bool

	// FastAffine uses fewer gradient rounds and skips the 6-parameter
	// model when the 4-parameter one is clearly worse than the best
	// translational mode.
	FastAffine bool

	// FastMerge evaluates only the first half of the merge list.
	FastMerge bool

	// Affine enables 4-parameter affine motion; Affine6Param additionally
	// enables the 6-parameter model.
	Affine       bool
	Affine6Param bool

	// GBi enables generalized bi-prediction weights.
	GBi bool

	// IMV selects the motion vector precisions tried (default IMVOff).
	IMV IMV

	// MaxMergeCand is the merge list length (0-6, 0 disables merge,
	// default 5).
	MaxMergeCand int

	// TemporalMVP enables temporal candidates from the collocated motion
	// field, when the session has one.
	TemporalMVP bool

	// Lambda is the mode-decision lambda. Zero derives it from QP.
	Lambda float64

	// QP is the quantisation parameter lambda is derived from (0-51,
	// default 32).
	QP int

	// BitDepth is the sample bit depth of every picture (8-12, default 8).
	BitDepth int

	// Bits estimates coding lengths. Nil uses the Exp-Golomb estimator.
	Bits BitEstimator
}

// DefaultConfig returns the medium preset.
func DefaultConfig() *Config {
	return &Config{
		SearchMethod:      SearchDiamond,
		SearchRange:       64,
		BipredSearchRange: 4,
		BiIterations:      4,
		Affine:            true,
		Affine6Param:      true,
		GBi:               true,
		IMV:               IMVOff,
		MaxMergeCand:      5,
		TemporalMVP:       true,
		QP:                32,
		BitDepth:          8,
	}
}

// ConfigForPreset returns a config tuned for the given preset.
func ConfigForPreset(p Preset) *Config {
	cfg := DefaultConfig()
	switch p {
	case PresetFast:
		cfg.SearchRange = 32
		cfg.FirstSearchRounds = 3
		cfg.BiIterations = 1
		cfg.FastBi = true
		cfg.FastAffine = true
		cfg.FastMerge = true
		cfg.Affine6Param = false
	case PresetSlow:
		cfg.SearchMethod = SearchEnhancedDiamond
		cfg.BipredSearchRange = 8
		cfg.IMV = IMVFour
		cfg.MaxMergeCand = MaxMergeCand
	case PresetMedium:
		// defaults
	}
	return cfg
}

// Validate reports the first out-of-range parameter. Nothing is clamped.
func (c *Config) Validate() error {
	switch c.SearchMethod {
	case SearchFull, SearchDiamond, SearchEnhancedDiamond, SearchSelective:
	default:
		return fmt.Errorf("%w: SearchMethod %d", ErrInvalidConfig, c.SearchMethod)
	}
	if c.SearchRange < 1 || c.SearchRange > MaxSearchRange {
		return fmt.Errorf("%w: SearchRange %d (must be 1-%d)", ErrInvalidConfig, c.SearchRange, MaxSearchRange)
	}
	if c.FirstSearchRounds < 0 || c.FirstSearchRounds > MaxFirstSearchRounds {
		return fmt.Errorf("%w: FirstSearchRounds %d (must be 0-%d)", ErrInvalidConfig, c.FirstSearchRounds, MaxFirstSearchRounds)
	}
	if c.BipredSearchRange < 1 || c.BipredSearchRange > MaxSearchRange {
		return fmt.Errorf("%w: BipredSearchRange %d (must be 1-%d)", ErrInvalidConfig, c.BipredSearchRange, MaxSearchRange)
	}
	if c.BiIterations < 1 || c.BiIterations > MaxBiIterations {
		return fmt.Errorf("%w: BiIterations %d (must be 1-%d)", ErrInvalidConfig, c.BiIterations, MaxBiIterations)
	}
	if c.Affine6Param && !c.Affine {
		return fmt.Errorf("%w: Affine6Param requires Affine", ErrInvalidConfig)
	}
	if c.IMV < IMVOff || c.IMV > IMVFour {
		return fmt.Errorf("%w: IMV %d", ErrInvalidConfig, c.IMV)
	}
	if c.MaxMergeCand < 0 || c.MaxMergeCand > MaxMergeCand {
		return fmt.Errorf("%w: MaxMergeCand %d (must be 0-%d)", ErrInvalidConfig, c.MaxMergeCand, MaxMergeCand)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("%w: Lambda %g (must be >= 0)", ErrInvalidConfig, c.Lambda)
	}
	if c.QP < 0 || c.QP > MaxQP {
		return fmt.Errorf("%w: QP %d (must be 0-%d)", ErrInvalidConfig, c.QP, MaxQP)
	}
	if c.BitDepth < 8 || c.BitDepth > 12 {
		return fmt.Errorf("%w: BitDepth %d (must be 8-12)", ErrInvalidConfig, c.BitDepth)
	}
	return nil
}

// lambda returns the mode-decision lambda in effect.
func (c *Config) lambda() float64 {
	if c.Lambda > 0 {
		return c.Lambda
	}
	return mv.LambdaForQP(c.QP)
}

// searchConfig resolves c into the per-sequence search configuration.
func (c *Config) searchConfig() inter.Config {
	bits := c.Bits
	if bits == nil {
		bits = mv.GolombEstimator{}
	}
	return inter.Config{
		Strategy:     search.New(c.SearchMethod, c.FirstSearchRounds),
		SearchRange:  c.SearchRange,
		BipredRange:  c.BipredSearchRange,
		BiIterations: c.BiIterations,
		FastBi:       c.FastBi,
		FastAffine:   c.FastAffine,
		FastMerge:    c.FastMerge,
		Affine:       c.Affine,
		Affine6:      c.Affine6Param,
		GBi:          c.GBi,
		Precisions:   c.IMV.precisions(),
		MaxMergeCand: c.MaxMergeCand,
		Costs:        mv.NewCosts(c.lambda()),
		Bits:         bits,
	}
}
