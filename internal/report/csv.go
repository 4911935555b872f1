package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"PegSim/internal/model"
	"PegSim/internal/runner"
)

// SeriesHeader is the column order of a trial series export.
var SeriesHeader = []string{
	"step", "reserve_price", "cumulative_demand", "reserve_value",
	"stable_circulation", "bond_circulation", "reserve_ratio", "reserve_quantity",
}

// OutcomesHeader is the column order of an experiment export.
var OutcomesHeader = []string{
	"trial", "steps", "reason", "reserve_ratio", "supply_drift", "price_drift",
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// WriteSeriesCSV writes one row per step.
func WriteSeriesCSV(w io.Writer, series []model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SeriesHeader); err != nil {
		return err
	}
	for _, s := range series {
		row := []string{
			strconv.Itoa(s.Step),
			ftoa(s.ReservePrice),
			ftoa(s.CumulativeDemand),
			ftoa(s.ReserveValue),
			ftoa(s.StableCirculation),
			ftoa(s.BondCirculation),
			ftoa(s.ReserveRatio),
			ftoa(s.ReserveQuantity),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOutcomesCSV writes one row per finished trial.
func WriteOutcomesCSV(w io.Writer, outcomes []runner.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutcomesHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		row := []string{
			strconv.Itoa(o.Trial),
			strconv.Itoa(o.Steps),
			string(o.Reason),
			ftoa(o.Terminal.ReserveRatio),
			ftoa(o.SupplyDrift()),
			ftoa(o.PriceDrift()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
