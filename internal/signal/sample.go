package signal

// Sample is one multi-channel EEG reading as emitted by the acquisition
// backend. Timestamps are epoch seconds from the device clock.
type Sample struct {
	Timestamp float64 `json:"timestamp"`
	TP9       float64 `json:"tp9"`
	AF7       float64 `json:"af7"`
	AF8       float64 `json:"af8"`
	TP10      float64 `json:"tp10"`
}

// ChannelNames is the fixed channel order. Rendering relies on this order
// staying stable so each electrode keeps its color and position.
var ChannelNames = [4]string{"TP9", "AF7", "AF8", "TP10"}

// channelValue indexes a sample by channel position.
func channelValue(s Sample, i int) float64 {
	switch i {
	case 0:
		return s.TP9
	case 1:
		return s.AF7
	case 2:
		return s.AF8
	default:
		return s.TP10
	}
}
