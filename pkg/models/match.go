package models

// Strategy identifies which matcher produced a result
type Strategy string

const (
	StrategyPermit Strategy = "permit"
	StrategyMapper Strategy = "mapper"
	StrategyFuzzy  Strategy = "fuzzy"
	StrategyNone   Strategy = "none"
)

// ReasonCode explains why a strategy produced, or did not produce, candidates
type ReasonCode string

const (
	// permit strategy
	ReasonNoPermitNumber        ReasonCode = "no_permit_number"
	ReasonPermitTooShort        ReasonCode = "permit_too_short"
	ReasonExactTruncatedPermit  ReasonCode = "exact_truncated_permit"
	ReasonPartialPermitWithSize ReasonCode = "partial_permit_with_size"
	ReasonPartialPermitOnly     ReasonCode = "partial_permit_only"
	ReasonNoPermitMatches       ReasonCode = "no_permit_matches"

	// mapper strategy
	ReasonMapperProjectAndSize ReasonCode = "mapper_project_and_size"
	ReasonMapperProjectOnly    ReasonCode = "mapper_project_only"
	ReasonNoMapperMatches      ReasonCode = "no_mapper_matches"

	// fuzzy strategy
	ReasonNoProjectData                  ReasonCode = "no_project_data"
	ReasonNoSizeData                     ReasonCode = "no_size_data"
	ReasonNoProjectMatchesAboveThreshold ReasonCode = "no_project_matches_above_threshold"
	ReasonFuzzyProjectAndSize            ReasonCode = "fuzzy_project_and_size"

	// orchestrator
	ReasonStrategyError        ReasonCode = "strategy_error"
	ReasonNoStrategyApplicable ReasonCode = "no_strategy_applicable"
)

// Tier buckets fuzzy candidates by score
type Tier string

const (
	TierExact   Tier = "exact"
	TierPartial Tier = "partial"
)

// NotAvailable is the placeholder for missing optional fields in mapper output
const NotAvailable = "N/A"

// MatchCandidate is a unit believed to correspond to the listing.
// It has no permit field; the permit key never leaves the store layer.
type MatchCandidate struct {
	Unit             string   `json:"unit"`
	Building         string   `json:"building,omitempty"`
	Project          string   `json:"project,omitempty"`
	MasterProject    string   `json:"master_project,omitempty"`
	Size             string   `json:"size,omitempty"`
	Owner            string   `json:"owner,omitempty"`
	Mobile           string   `json:"mobile,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Email            string   `json:"email,omitempty"`
	RegistrationDate string   `json:"registration_date,omitempty"`
	PropertyType     string   `json:"property_type,omitempty"`
	ProcedureType    string   `json:"procedure_type,omitempty"`
	ProcedureName    string   `json:"procedure_name,omitempty"`
	Score            *int     `json:"score,omitempty"`
	Tier             Tier     `json:"tier,omitempty"`
	Strategy         Strategy `json:"strategy"`
	SizeSqm          *float64 `json:"size_sqm,omitempty"` // internal, stripped at the boundary
}

// StrategyResult is the output of a single matcher
type StrategyResult struct {
	Candidates []MatchCandidate `json:"candidates"`
	Reason     ReasonCode       `json:"reason"`
}

// Empty reports whether the result carries no candidates
func (r StrategyResult) Empty() bool {
	return len(r.Candidates) == 0
}

// StrategyAttempt records how one strategy fared during a cascade
type StrategyAttempt struct {
	Strategy   Strategy   `json:"strategy"`
	Reason     ReasonCode `json:"reason,omitempty"`
	Candidates int        `json:"candidates"`
	Skipped    bool       `json:"skipped,omitempty"`
	Failed     bool       `json:"failed,omitempty"`
	DurationMs int64      `json:"duration_ms"`
}

// MatchResult is the outcome of resolving one listing
type MatchResult struct {
	Strategy   Strategy          `json:"strategy"`
	Candidates []MatchCandidate  `json:"candidates"`
	Reason     ReasonCode        `json:"reason"`
	Attempts   []StrategyAttempt `json:"attempts,omitempty"`
}

// ResolveResponse is the boundary payload returned to callers
type ResolveResponse struct {
	Listing ScrapedListing `json:"listing"`
	Result  MatchResult    `json:"result"`
}
