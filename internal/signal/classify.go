package signal

// Status is the display classification of a raw connection-quality string.
type Status struct {
	Label string `json:"label"`
	Rank  int    `json:"rank"`
	Color string `json:"color"`
}

// Quality labels reported by the backend. Anything else (including an
// empty string) is treated as disconnected, not as an error.
const (
	QualityExcellent    = "excellent"
	QualityGood         = "good"
	QualityFair         = "fair"
	QualityPoor         = "poor"
	QualityDisconnected = "disconnected"
	QualityError        = "error"
)

var statusTable = map[string]Status{
	QualityExcellent:    {Label: "Excellent", Rank: 5, Color: "#22c55e"},
	QualityGood:         {Label: "Good", Rank: 4, Color: "#84cc16"},
	QualityFair:         {Label: "Fair", Rank: 3, Color: "#eab308"},
	QualityPoor:         {Label: "Poor", Rank: 2, Color: "#f97316"},
	QualityDisconnected: {Label: "Disconnected", Rank: 1, Color: "#9ca3af"},
	QualityError:        {Label: "Error", Rank: 0, Color: "#ef4444"},
}

// Classify maps a raw quality string to its display status. The mapping is
// total: unrecognized input classifies as disconnected.
func Classify(raw string) Status {
	if s, ok := statusTable[raw]; ok {
		return s
	}
	return statusTable[QualityDisconnected]
}

// Connected reports whether a raw quality string represents a live feed.
func Connected(raw string) bool {
	switch raw {
	case QualityExcellent, QualityGood, QualityFair, QualityPoor:
		return true
	}
	return false
}
