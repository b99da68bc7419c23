package handlers

// LoginRequest opens a session for a contest role
type LoginRequest struct {
	Password string `json:"password"`
	UserID   int    `json:"user_id"`
	Role     string `json:"role"`
}

// DisqualifyRequest names the reasons a sample is being pulled
type DisqualifyRequest struct {
	Reasons []string `json:"reasons"`
}

// PhysicalEvaluationRequest records the bench check for a sample
type PhysicalEvaluationRequest struct {
	MoisturePct     float64 `json:"moisture_pct"`
	FermentationPct float64 `json:"fermentation_pct"`
	DefectCount     int     `json:"defect_count"`
	LotWeightKG     float64 `json:"lot_weight_kg"`
	Notes           string  `json:"notes"`
	Passed          bool    `json:"passed"`
}

// AssignJudgesRequest replaces a sample's judge set
type AssignJudgesRequest struct {
	JudgeIDs []int `json:"judge_ids"`
}

// BulkAssignRequest assigns a judge set across several samples at once
type BulkAssignRequest struct {
	SampleIDs []int `json:"sample_ids"`
	JudgeIDs  []int `json:"judge_ids"`
}

// DefaultCapacityRequest sets the default max assignments for new judges
type DefaultCapacityRequest struct {
	MaxAssignments int `json:"max_assignments"`
}
