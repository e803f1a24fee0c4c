package transcript

// State is a step of the per-video fetch state machine.
type State int

const (
	StateIdle State = iota
	StateFetchingPage
	StateExtractingMetadata
	StateSelectingTrack
	StateFetchingCaptions
	StateValidatingPayload
	StateDone
	StateRetrying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingPage:
		return "fetching_page"
	case StateExtractingMetadata:
		return "extracting_metadata"
	case StateSelectingTrack:
		return "selecting_track"
	case StateFetchingCaptions:
		return "fetching_captions"
	case StateValidatingPayload:
		return "validating_payload"
	case StateDone:
		return "done"
	case StateRetrying:
		return "retrying"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
