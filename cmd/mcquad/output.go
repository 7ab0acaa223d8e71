package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/baxromumarov/mcquad"
	"gopkg.in/yaml.v3"
)

// jobReport is the printed form of one run.
type jobReport struct {
	Name          string      `json:"name" yaml:"name"`
	RunID         string      `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	State         string      `json:"state" yaml:"state"`
	Estimate      reportFloat `json:"estimate" yaml:"estimate"`
	ErrorEstimate reportFloat `json:"error_estimate" yaml:"error_estimate"`
	Variance      reportFloat `json:"variance" yaml:"variance"`
	Calls         int64       `json:"calls" yaml:"calls"`
	Seed          uint64      `json:"seed,omitempty" yaml:"seed,omitempty"`
	Elapsed       string      `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
	Error         string      `json:"error,omitempty" yaml:"error,omitempty"`
}

func newJobReport(name string, rep mcquad.Report[float64], err error) jobReport {
	r := jobReport{
		Name:          name,
		RunID:         rep.RunID.String(),
		State:         rep.State.String(),
		Estimate:      reportFloat(rep.Estimate),
		ErrorEstimate: reportFloat(rep.ErrorEstimate),
		Variance:      reportFloat(rep.Variance),
		Calls:         rep.Calls,
		Seed:          rep.Seed,
		Elapsed:       rep.Elapsed.String(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// writeReports prints reports as text, yaml or json.
func writeReports(w io.Writer, format string, reports []jobReport) error {
	switch format {
	case "", "text":
		return writeText(w, reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, reports []jobReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tESTIMATE\tERROR\tCALLS\tELAPSED")
	for _, r := range reports {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t%d\t%s\n", r.Name, r.State, r.Calls, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.10g\t%.3g\t%d\t%s\n", r.Name, r.State, float64(r.Estimate), float64(r.ErrorEstimate), r.Calls, r.Elapsed)
	}
	return tw.Flush()
}

// reportFloat encodes NaN and infinities, which encoding/json rejects,
// as strings. A run with fewer than two samples has an infinite error
// estimate; an integrand that produced NaN leaves a NaN estimate.
type reportFloat float64

func (f reportFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(fmt.Sprint(v))
	}
	return json.Marshal(v)
}
