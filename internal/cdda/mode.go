package cdda

// DiscMode classifies the loaded medium.
type DiscMode int

const (
	ModeUnknown DiscMode = iota
	ModeNoDisc
	ModeAudio
	ModeMixed
	ModeData
	ModeXA
	ModeDVD
)

// IsAudio reports whether the mode carries Red Book audio tracks the session
// can read: pure CD-DA or mixed mode.
func (m DiscMode) IsAudio() bool {
	return m == ModeAudio || m == ModeMixed
}

func (m DiscMode) String() string {
	switch m {
	case ModeNoDisc:
		return "no disc"
	case ModeAudio:
		return "CD-DA"
	case ModeMixed:
		return "CD mixed"
	case ModeData:
		return "CD-ROM"
	case ModeXA:
		return "CD-ROM XA"
	case ModeDVD:
		return "DVD"
	default:
		return "unknown"
	}
}
