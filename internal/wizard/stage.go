package wizard

// Stage is one of the three ordered wizard phases.
type Stage int

const (
	StageConnect Stage = iota
	StageCalibrate
	StageTrain
)

// StageCount is the number of wizard stages.
const StageCount = 3

func (s Stage) String() string {
	switch s {
	case StageConnect:
		return "connect"
	case StageCalibrate:
		return "calibrate"
	case StageTrain:
		return "train"
	default:
		return "unknown"
	}
}

// Progress reports where the wizard stands, monotonic with the stage.
type Progress struct {
	Stage string  `json:"stage"`
	Index int     `json:"index"`
	Total int     `json:"total"`
	Ratio float64 `json:"ratio"`
}
