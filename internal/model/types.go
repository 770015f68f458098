package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Secondary-structure classes reported by a predictor.
const (
	ContentHelix = "helix"
	ContentSheet = "sheet"
	ContentCoil  = "coil"
)

// StructureRecord is the predicted structure of one candidate sequence:
// secondary-structure content fractions plus sequence-derived properties.
// Read-only after creation.
type StructureRecord struct {
	VersionedRecord
	Sequence   string             `json:"sequence"`
	Content    map[string]float64 `json:"content"`
	Hydropathy float64            `json:"hydropathy"`
	Charge     float64            `json:"charge"`
	Stability  float64            `json:"stability"`
}

// ContentFraction returns the predicted fraction for a structure class,
// zero when the class is absent.
func (r StructureRecord) ContentFraction(class string) float64 {
	if r.Content == nil {
		return 0
	}
	return r.Content[class]
}

// FitnessBreakdown carries the sub-term scores behind a scalar fitness.
type FitnessBreakdown struct {
	Stability float64 `json:"stability"`
	Function  float64 `json:"function"`
	Structure float64 `json:"structure"`
}

// DesignRun is the persisted summary of one optimization run.
type DesignRun struct {
	VersionedRecord
	ID            string          `json:"id"`
	TargetName    string          `json:"target_name"`
	Seed          int64           `json:"seed"`
	MaxIterations int             `json:"max_iterations"`
	Population    int             `json:"population"`
	Iterations    int             `json:"iterations"`
	Reason        string          `json:"reason"`
	BestSequence  string          `json:"best_sequence"`
	BestFitness   float64         `json:"best_fitness"`
	BestStructure StructureRecord `json:"best_structure"`
	CreatedAtUTC  string          `json:"created_at_utc"`
}

// IterationDiagnostics summarizes one optimizer iteration.
type IterationDiagnostics struct {
	Iteration         int     `json:"iteration"`
	BestFitness       float64 `json:"best_fitness"`
	MeanFitness       float64 `json:"mean_fitness"`
	MinFitness        float64 `json:"min_fitness"`
	Temperature       float64 `json:"temperature"`
	Accepted          int     `json:"accepted"`
	Rejected          int     `json:"rejected"`
	PredictorFailures int     `json:"predictor_failures"`
	StallCount        int     `json:"stall_count"`
}

// TopCandidateRecord is one ranked candidate kept at the end of a run.
type TopCandidateRecord struct {
	VersionedRecord
	Rank      int              `json:"rank"`
	Fitness   float64          `json:"fitness"`
	Breakdown FitnessBreakdown `json:"breakdown"`
	Structure StructureRecord  `json:"structure"`
}
