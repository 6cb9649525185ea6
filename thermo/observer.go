package thermo

// Phase identifies which FoldCompound entry point an Event was emitted
// from.
type Phase string

const (
	PhasePartitionFunction Phase = "partition_function"
	PhaseMinimumFreeEnergy Phase = "minimum_free_energy"
	PhaseSubopt            Phase = "subopt"
	PhaseSample            Phase = "sample"
	PhasePairProbabilities Phase = "pair_probabilities"
	PhaseEquilibriumSolve  Phase = "equilibrium_solve"
	PhaseTubeSample        Phase = "tube_sample"
)

// Stage marks where within a Phase an Event falls.
type Stage string

const (
	StageStart Stage = "start"
	StageDone  Stage = "done"
)

// Event is the payload passed to an Observer: enough to report progress or
// drive a UI without exposing any DP-internal state (spec §6, "observer").
type Event struct {
	Phase Phase
	Stage Stage
	// Detail carries phase-specific context (e.g. the chosen species index
	// for PhaseTubeSample); nil when there is nothing to report.
	Detail any
}

// Observer receives Events as a driver entry point runs. A nil Observer
// (the zero value of FoldCompound.Observer) disables reporting entirely;
// this mirrors the teacher's own preference for a callback over logging
// from hot paths (see SPEC_FULL.md "Ambient stack").
type Observer func(Event)
