package workflows

// Task queue and activity names shared by the worker and workflow starters.
const (
	TaskQueue = "fathom-research"

	SearchQueryActivity          = "SearchQuery"
	GetModeConfigActivity        = "GetModeConfig"
	RecordSessionOutcomeActivity = "RecordSessionOutcome"
)

// ResearchInput starts one research session.
type ResearchInput struct {
	Topic string `json:"topic"`
	// Mode selects the round budget: speed, balanced, or quality.
	// Empty defaults to balanced.
	Mode string `json:"mode"`
}
