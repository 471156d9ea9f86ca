package submission

// Outcome is what an authority status code means for the state machine.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeProcessing
	OutcomeAccepted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessing:
		return "processing"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MapAuthorityStatus is the only place the authority's numeric status
// vocabulary is interpreted.
//
//	200       proof of receipt issued
//	100..199  received, queued or being verified
//	300..399  still in progress (document not yet available, verification pending)
//	400..     rejected with a reason
func MapAuthorityStatus(code int) Outcome {
	switch {
	case code == 200:
		return OutcomeAccepted
	case code >= 100 && code < 200, code >= 300 && code < 400:
		return OutcomeProcessing
	case code >= 400 && code < 1000:
		return OutcomeRejected
	default:
		return OutcomeUnknown
	}
}
