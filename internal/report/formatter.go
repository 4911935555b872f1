// Package report renders trial and experiment output as text and CSV.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"PegSim/internal/analysis"
	"PegSim/internal/engine"
	"PegSim/internal/model"
)

// FormatStep renders the per-step diagnostic line.
func FormatStep(rec engine.StepRecord) string {
	s := rec.State
	return fmt.Sprintf("step %d regime %s su_total %.2f demand_delta %.2f su_delta %.2f reserve_total %.4f reserve_delta %.4f bond_total %.2f reserve_value %.4f reserve_ratio %.4f",
		rec.Step, rec.Regime, s.StableCirculation, rec.CirculationDelta, rec.StableDelta+rec.RebaseDelta,
		s.ReserveQuantity, rec.ReserveDelta, s.BondCirculation, s.ReserveValue, s.ReserveRatio)
}

// FormatTrialSummary formats the terminal state of a trial.
func FormatTrialSummary(asset string, s model.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Trial finished after %d steps\n\n", s.Step))
	b.WriteString(fmt.Sprintf("SU: %s\n", humanize.CommafWithDigits(s.StableCirculation, 2)))
	b.WriteString(fmt.Sprintf("%s: %s\n", asset, humanize.CommafWithDigits(s.ReserveQuantity, 4)))
	b.WriteString(fmt.Sprintf("%sv: %s\n", asset, humanize.CommafWithDigits(s.ReserveValue, 2)))
	b.WriteString(fmt.Sprintf("%s price: %s\n", asset, humanize.CommafWithDigits(s.ReservePrice, 2)))
	if s.BondCirculation > 0 {
		b.WriteString(fmt.Sprintf("Bonds: %s\n", humanize.CommafWithDigits(s.BondCirculation, 2)))
	}
	b.WriteString(fmt.Sprintf("R: %.4f\n", s.ReserveRatio))
	b.WriteString(fmt.Sprintf("CD: %.6f\n", s.CumulativeDemand))
	return b.String()
}

const histogramWidth = 40

// FormatExperiment formats the distribution of terminal states.
func FormatExperiment(sum analysis.ExperimentSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Experiment: %s trials", humanize.Comma(int64(sum.Trials))))
	if sum.Failed > 0 {
		b.WriteString(fmt.Sprintf(", %d failed", sum.Failed))
	}
	if sum.Depleted > 0 {
		b.WriteString(fmt.Sprintf(", %d depleted", sum.Depleted))
	}
	b.WriteString("\n")

	for _, m := range sum.Metrics {
		s := m.Summary
		b.WriteString(fmt.Sprintf("\n%s (n=%d", m.Name, s.Count))
		if s.Dropped > 0 {
			b.WriteString(fmt.Sprintf(", %d non-finite", s.Dropped))
		}
		b.WriteString(")\n")
		b.WriteString(fmt.Sprintf("  mean %+.6f  sd %.6f\n", s.Mean, s.StdDev))
		b.WriteString(fmt.Sprintf("  min %+.6f  p05 %+.6f  p50 %+.6f  p95 %+.6f  max %+.6f\n",
			s.Min, s.P05, s.Median, s.P95, s.Max))

		peak := 0
		for _, bin := range m.Histogram {
			peak = max(peak, bin.Count)
		}
		for _, bin := range m.Histogram {
			bar := 0
			if peak > 0 {
				bar = bin.Count * histogramWidth / peak
			}
			b.WriteString(fmt.Sprintf("  [%+.4f, %+.4f) %6d %s\n",
				bin.Lower, bin.Upper, bin.Count, strings.Repeat("#", bar)))
		}
	}
	return b.String()
}
