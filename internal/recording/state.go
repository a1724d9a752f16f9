package recording

// State is a recording session state.
type State int

const (
	Idle State = iota
	Recording
	Stopped
	Uploading
	UploadFailed
	UploadSucceeded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	case Uploading:
		return "uploading"
	case UploadFailed:
		return "upload failed"
	case UploadSucceeded:
		return "uploaded"
	default:
		return "unknown"
	}
}
