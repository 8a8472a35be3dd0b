// Package report renders the diagnostic report for one pipeline run.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"irsbeam/core"
)

// Report collects what is printed after the pipeline runs. Readback is
// optional and only printed for direct PWM.
type Report struct {
	Profile  string
	Config   core.Config
	Results  []core.ElementResult
	Readback []core.DutyCycle
}

// Write prints the system parameters, the per-element table, the duty
// percentages and, when present, the readback table.
func Write(w io.Writer, r Report) error {
	cfg := r.Config
	ew := &errWriter{w: w}

	ew.printf("IRS beam steering: %s\n", r.Profile)
	ew.printf("  Frequency:    %.2f GHz\n", cfg.CarrierFrequency/1e9)
	ew.printf("  Wavelength:   %.6f m\n", cfg.Wavelength())
	ew.printf("  Unit cell:    %.4f m\n", cfg.UnitCellSize)
	ew.printf("  Gain:         %.2f\n", cfg.AmplifierGain)
	ew.printf("  Max voltage:  %.2f V\n", cfg.FullScaleVoltage)
	ew.printf("  Transmitter:  (%.3f, %.3f)\n", cfg.Transmitter.X, cfg.Transmitter.Y)
	ew.printf("  Receiver:     (%.3f, %.3f)\n", cfg.Receiver.X, cfg.Receiver.Y)
	ew.printf("  Elements:     %d\n\n", cfg.ElementCount)
	if ew.err != nil {
		return ew.err
	}

	elements := tablewriter.NewWriter(w)
	elements.SetHeader([]string{"Elem", "X Pos", "Phase(rad)", "Phase(deg)", "Voltage", "PWM Count", "Clamped"})
	elements.SetAutoFormatHeaders(false)
	elements.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, res := range r.Results {
		elements.Append([]string{
			strconv.Itoa(res.Index + 1),
			strconv.FormatFloat(res.Position.X, 'f', 3, 64),
			strconv.FormatFloat(res.PhaseRad, 'f', 4, 64),
			strconv.FormatFloat(res.PhaseDeg, 'f', 2, 64),
			strconv.FormatFloat(res.Voltage, 'f', 3, 64),
			strconv.FormatUint(uint64(res.Duty), 10),
			res.Clamped.String(),
		})
	}
	elements.Render()

	ew.printf("\nDuty cycles:\n")
	for _, res := range r.Results {
		ew.printf("  Element %d: %s\n", res.Index+1, Percent(res.Duty, cfg.MaxCount()))
	}
	if ew.err != nil {
		return ew.err
	}

	if len(r.Readback) == 0 {
		return nil
	}

	ew.printf("\nReadback:\n")
	back := tablewriter.NewWriter(w)
	back.SetHeader([]string{"Channel", "Written", "Read", "Match"})
	back.SetAutoFormatHeaders(false)
	for i, got := range r.Readback {
		written := "-"
		match := "-"
		if i < len(r.Results) {
			written = strconv.FormatUint(uint64(r.Results[i].Duty), 10)
			match = strconv.FormatBool(r.Results[i].Duty == got)
		}
		back.Append([]string{strconv.Itoa(i), written, strconv.FormatUint(uint64(got), 10), match})
	}
	back.Render()
	return ew.err
}

// Percent formats duty as a percentage of maxCount with two decimals,
// using integer hundredths.
func Percent(duty core.DutyCycle, maxCount uint16) string {
	p := duty.Percent(maxCount)
	return fmt.Sprintf("%d.%02d%%", p/100, p%100)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
