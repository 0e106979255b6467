package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepteams/motion"
	"github.com/deepteams/motion/internal/logging"
	"github.com/deepteams/motion/internal/mv"
)

// estimateArgs holds the parsed arguments of the estimate command.
type estimateArgs struct {
	refs0    []string
	refs1    []string
	preset   string
	method   string
	rng      int
	rounds   int
	bipred   int
	iters    int
	imv      string
	qp       int
	lambda   float64
	block    int
	maxWidth int
	fast     bool
	noAffine bool
	noSix    bool
	noGBi    bool
	merge    int
	csvPath  string
	progress bool
	verbose  bool
	jsonLog  bool
}

func newEstimateCmd() *cobra.Command {
	var ea estimateArgs
	cmd := &cobra.Command{
		Use:   "estimate [flags] <current-frame>",
		Short: "Decide the motion of every block of a frame",
		Long: `Decide the motion of every block of a frame against one or more
reference frames. Frames may be PNG, JPEG, GIF, BMP, TIFF or WebP; only
their luma is searched. Blocks are visited in raster order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd.Context(), ea, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&ea.refs0, "ref", "r", nil, "list-0 reference frames, nearest first (required)")
	f.StringSliceVar(&ea.refs1, "ref1", nil, "list-1 (following) reference frames, nearest first")
	f.StringVar(&ea.preset, "preset", "medium", "preset: fast, medium, slow")
	f.StringVar(&ea.method, "method", "", "integer search: full, diamond, enhanced-diamond, selective")
	f.IntVar(&ea.rng, "range", 0, "search range in samples (0 = preset)")
	f.IntVar(&ea.rounds, "first-search-rounds", -1, "stop the diamond after this many rounds without a gain (0 = never, -1 = preset)")
	f.IntVar(&ea.bipred, "bipred-range", 0, "bi-prediction search range (0 = preset)")
	f.IntVar(&ea.iters, "bi-iterations", 0, "bi-prediction iterations (0 = preset)")
	f.StringVar(&ea.imv, "imv", "", "MV precisions: off, int, four (empty = preset)")
	f.IntVar(&ea.qp, "qp", 32, "quantisation parameter lambda is derived from")
	f.Float64Var(&ea.lambda, "lambda", 0, "mode-decision lambda (0 = from --qp)")
	f.IntVar(&ea.block, "block", 16, "block size (power of two, 4-128)")
	f.IntVar(&ea.maxWidth, "max-width", 0, "downscale frames wider than this (0 = never)")
	f.BoolVar(&ea.fast, "fast", false, "enable every fast-search shortcut")
	f.BoolVar(&ea.noAffine, "no-affine", false, "disable affine motion")
	f.BoolVar(&ea.noSix, "no-affine6", false, "disable the 6-parameter affine model")
	f.BoolVar(&ea.noGBi, "no-gbi", false, "disable generalized bi-prediction weights")
	f.IntVar(&ea.merge, "merge", -1, "merge candidates 0-6 (-1 = preset)")
	f.StringVar(&ea.csvPath, "csv", "", `write the motion field as CSV ("-" for stdout)`)
	f.BoolVar(&ea.progress, "progress", true, "show a progress bar")
	f.BoolVarP(&ea.verbose, "verbose", "v", false, "log every block decision")
	f.BoolVar(&ea.jsonLog, "json-log", false, "log as JSON")
	_ = cmd.MarkFlagRequired("ref")
	return cmd
}

func parsePreset(s string) (motion.Preset, error) {
	switch strings.ToLower(s) {
	case "fast":
		return motion.PresetFast, nil
	case "medium", "":
		return motion.PresetMedium, nil
	case "slow":
		return motion.PresetSlow, nil
	}
	return 0, fmt.Errorf("unknown preset %q (want fast, medium or slow)", s)
}

func parseIMV(s string) (motion.IMV, error) {
	switch strings.ToLower(s) {
	case "off":
		return motion.IMVOff, nil
	case "int":
		return motion.IMVInt, nil
	case "four", "4":
		return motion.IMVFour, nil
	}
	return 0, fmt.Errorf("unknown IMV mode %q (want off, int or four)", s)
}

// buildConfig starts from the preset and applies explicitly set flags.
func buildConfig(ea estimateArgs) (*motion.Config, error) {
	p, err := parsePreset(ea.preset)
	if err != nil {
		return nil, err
	}
	cfg := motion.ConfigForPreset(p)
	if ea.method != "" {
		if cfg.SearchMethod, err = motion.ParseSearchMethod(ea.method); err != nil {
			return nil, err
		}
	}
	if ea.rng > 0 {
		cfg.SearchRange = ea.rng
	}
	if ea.rounds >= 0 {
		cfg.FirstSearchRounds = ea.rounds
	}
	if ea.bipred > 0 {
		cfg.BipredSearchRange = ea.bipred
	}
	if ea.iters > 0 {
		cfg.BiIterations = ea.iters
	}
	if ea.imv != "" {
		if cfg.IMV, err = parseIMV(ea.imv); err != nil {
			return nil, err
		}
	}
	if ea.fast {
		cfg.FastBi, cfg.FastAffine, cfg.FastMerge = true, true, true
	}
	if ea.noAffine {
		cfg.Affine, cfg.Affine6Param = false, false
	}
	if ea.noSix {
		cfg.Affine6Param = false
	}
	if ea.noGBi {
		cfg.GBi = false
	}
	if ea.merge >= 0 {
		cfg.MaxMergeCand = ea.merge
	}
	cfg.QP = ea.qp
	cfg.Lambda = ea.lambda
	return cfg, cfg.Validate()
}

func setupLogging(ea estimateArgs, stderr io.Writer) {
	lc := logging.DefaultConfig()
	lc.Output = stderr
	lc.JSON = ea.jsonLog
	lc.Level = slog.LevelWarn
	if ea.verbose {
		lc.Level = slog.LevelDebug
	}
	logging.SetGlobal(logging.New(lc))
}

func runEstimate(ctx context.Context, ea estimateArgs, curPath string, stdout, stderr io.Writer) error {
	setupLogging(ea, stderr)
	if ea.block < 4 || ea.block > 128 || ea.block&(ea.block-1) != 0 {
		return fmt.Errorf("block size %d is not a power of two in 4-128", ea.block)
	}
	if len(ea.refs0) == 0 {
		return errors.New("at least one list-0 reference (--ref) is required")
	}
	cfg, err := buildConfig(ea)
	if err != nil {
		return err
	}
	eng, err := motion.NewEngine(cfg)
	if err != nil {
		return err
	}

	// The current frame sits at POC 1, list-0 references count down from
	// 0 and list-1 references count up from 2.
	cur, err := loadFrame(curPath, ea.maxWidth, 1)
	if err != nil {
		return err
	}
	refs := &motion.RefLists{}
	for i, path := range ea.refs0 {
		p, err := loadFrame(path, ea.maxWidth, -i)
		if err != nil {
			return err
		}
		refs.L[0] = append(refs.L[0], p)
	}
	for i, path := range ea.refs1 {
		p, err := loadFrame(path, ea.maxWidth, 2+i)
		if err != nil {
			return err
		}
		refs.L[1] = append(refs.L[1], p)
	}

	field := motion.NewMotionField(cur.Width, cur.Height)
	sess, err := eng.BeginPicture(cur, refs, field)
	if err != nil {
		return err
	}
	defer sess.Close()

	blocks := tile(cur.Width, cur.Height, ea.block)
	rep := newReporter(stdout, stderr, ea.progress)
	rep.start(len(blocks))

	var rows [][]string
	begin := time.Now()
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			rep.abort()
			return err
		}
		d, err := sess.Decide(b)
		if err != nil {
			rep.abort()
			return err
		}
		if ea.csvPath != "" {
			rows = append(rows, csvRow(d))
		}
		rep.step()
	}
	rep.finish()

	if ea.csvPath != "" {
		if err := writeCSV(ea.csvPath, rows, stdout); err != nil {
			return err
		}
	}
	rep.summary(summaryFor(cur, curPath, cfg, sess.Stats(), time.Since(begin)))
	return nil
}

var csvHeader = []string{
	"x", "y", "w", "h", "mode", "dir",
	"ref0", "mv0x", "mv0y", "ref1", "mv1x", "mv1y",
	"affine", "merge_idx", "bits", "dist", "sse",
}

func csvRow(d motion.Decision) []string {
	itoa := strconv.Itoa
	row := []string{
		itoa(d.Block.X), itoa(d.Block.Y), itoa(d.Block.W), itoa(d.Block.H),
		d.Mode.String(), d.Motion.Dir.String(),
	}
	for l := range 2 {
		if d.Motion.Dir.Uses(mv.List(l)) {
			v := d.Motion.MV[l]
			row = append(row, itoa(d.Motion.RefIdx[l]), itoa(v.X), itoa(v.Y))
		} else {
			row = append(row, "", "", "")
		}
	}
	affine := ""
	if d.Motion.Affine {
		affine = strconv.Itoa(int(d.Motion.AffineType))
	}
	mergeIdx := ""
	if d.Mode == motion.ModeMerge {
		mergeIdx = itoa(d.MergeIdx)
	}
	return append(row, affine, mergeIdx, itoa(d.Bits),
		strconv.FormatUint(d.Dist, 10), strconv.FormatUint(d.SSE, 10))
}

func writeCSV(path string, rows [][]string, stdout io.Writer) (err error) {
	w := stdout
	if path != "-" {
		var f *os.File
		if f, err = os.Create(path); err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
