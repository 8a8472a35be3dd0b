package core

// ElementResult is everything the pipeline derived for one element.
type ElementResult struct {
	Index    int        `json:"index"`
	Position Point      `json:"position"`
	PhaseRad float64    `json:"phase_rad"`
	PhaseDeg float64    `json:"phase_deg"`
	Voltage  float64    `json:"voltage"`
	Duty     DutyCycle  `json:"duty"`
	Clamped  ClampFlags `json:"clamped"`
}

// Pipeline runs geometry -> phase -> voltage -> duty for a whole array.
type Pipeline struct {
	cfg   Config
	table *VoltageTable
	conv  DutyConverter
}

// NewPipeline validates cfg and binds it to table. A nil table selects the
// measured default.
func NewPipeline(cfg Config, table *VoltageTable) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = DefaultVoltageTable()
	}
	return &Pipeline{
		cfg:   cfg,
		table: table,
		conv:  NewDutyConverter(cfg),
	}, nil
}

func (p *Pipeline) Config() Config       { return p.cfg }
func (p *Pipeline) Table() *VoltageTable { return p.table }

// Run computes one result per element in index order. Clamped values are
// reported through ClampFlags and a warning, never an error.
func (p *Pipeline) Run() []ElementResult {
	elems := p.cfg.Elements()
	results := make([]ElementResult, len(elems))

	for i, e := range elems {
		phase := p.cfg.PhaseShift(e)
		deg := RadToDeg(phase)
		volts, flags := p.table.EstimateVoltage(deg)
		duty, dflags := p.conv.Convert(volts)
		flags |= dflags

		results[i] = ElementResult{
			Index:    e.Index,
			Position: e.Position,
			PhaseRad: phase,
			PhaseDeg: deg,
			Voltage:  volts,
			Duty:     duty,
			Clamped:  flags,
		}

		if flags != 0 {
			Warn("element " + itoa(e.Index) + " clamped (" + flags.String() +
				") phase=" + ftoaFixed(deg, 2) + "deg voltage=" + ftoaFixed(volts, 3))
		}
		DebugPrintln("element " + itoa(e.Index) + " x=" + ftoaFixed(e.Position.X, 3) +
			" phase=" + ftoaFixed(phase, 4) + " voltage=" + ftoaFixed(volts, 3) +
			" duty=" + utoa(uint32(duty)))
	}
	return results
}

// Duties extracts the duty counts from results, in index order.
func Duties(results []ElementResult) []DutyCycle {
	d := make([]DutyCycle, len(results))
	for i, r := range results {
		d[i] = r.Duty
	}
	return d
}
