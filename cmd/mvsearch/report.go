package main

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/deepteams/motion"
)

// summary is what the estimate command reports once a frame is done.
type summary struct {
	File    string
	Width   int
	Height  int
	Method  string
	Stats   motion.Stats
	PSNR    float64
	Elapsed time.Duration
}

func summaryFor(cur *motion.Plane, path string, cfg *motion.Config, st motion.Stats, elapsed time.Duration) summary {
	s := summary{
		File:    filepath.Base(path),
		Width:   cur.Width,
		Height:  cur.Height,
		Method:  cfg.SearchMethod.String(),
		Stats:   st,
		Elapsed: elapsed,
	}
	s.PSNR = psnr(st.SSE, st.Samples, cur.BitDepth)
	return s
}

// psnr returns the prediction PSNR in dB, or +Inf for a perfect match.
func psnr(sse uint64, samples, bitDepth int) float64 {
	if sse == 0 || samples == 0 {
		return math.Inf(1)
	}
	peak := float64(int(1)<<bitDepth - 1)
	mse := float64(sse) / float64(samples)
	return 10 * math.Log10(peak*peak/mse)
}

// reporter prints progress to stderr and the summary to stdout.
type reporter struct {
	out      io.Writer
	errOut   io.Writer
	progress bool
	bar      *progressbar.ProgressBar
	cyan     *color.Color
	green    *color.Color
	bold     *color.Color
	faint    *color.Color
}

func newReporter(out, errOut io.Writer, progress bool) *reporter {
	return &reporter{
		out:      out,
		errOut:   errOut,
		progress: progress,
		cyan:     color.New(color.FgCyan, color.Bold),
		green:    color.New(color.FgGreen),
		bold:     color.New(color.Bold),
		faint:    color.New(color.Faint),
	}
}

func (r *reporter) start(blocks int) {
	if !r.progress {
		return
	}
	r.bar = progressbar.NewOptions64(
		int64(blocks),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Searching [",
			BarEnd:        "]",
		}),
	)
}

func (r *reporter) step() {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *reporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

func (r *reporter) abort() {
	if r.bar != nil {
		_ = r.bar.Exit()
		r.bar = nil
	}
}

func (r *reporter) label(width int, label, value string) {
	padded := fmt.Sprintf("%-*s", width, label)
	fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(padded), value)
}

func (r *reporter) summary(s summary) {
	const w = 11
	_, _ = r.cyan.Fprintln(r.out, "MOTION")
	r.label(w, "Frame:", fmt.Sprintf("%s (%dx%d)", s.File, s.Width, s.Height))
	r.label(w, "Search:", s.Method)
	r.label(w, "Blocks:", fmt.Sprint(s.Stats.Blocks))
	modes := []motion.Mode{motion.ModeMerge, motion.ModeUni, motion.ModeBi, motion.ModeAffine}
	for _, m := range modes {
		n := s.Stats.Modes[m]
		share := 0.0
		if s.Stats.Blocks > 0 {
			share = 100 * float64(n) / float64(s.Stats.Blocks)
		}
		r.label(w, "  "+m.String()+":", fmt.Sprintf("%d %s", n, r.faint.Sprintf("(%.1f%%)", share)))
	}
	quality := "lossless"
	if !math.IsInf(s.PSNR, 1) {
		quality = fmt.Sprintf("%.2f dB", s.PSNR)
	}
	r.label(w, "PSNR:", r.green.Sprint(quality))
	r.label(w, "Bits:", fmt.Sprint(s.Stats.Bits))
	lookups := s.Stats.CacheHits + s.Stats.CacheMisses
	if lookups > 0 {
		r.label(w, "Cache:", fmt.Sprintf("%d/%d hits", s.Stats.CacheHits, lookups))
	}
	r.label(w, "Elapsed:", s.Elapsed.Round(time.Millisecond).String())
}
