package signing

// Outcome is the internal result of a verification. It exists for logging;
// request handlers should only branch on OutcomeValid.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeMissingTimestamp
	OutcomeMissingSignature
	OutcomeMalformedTimestamp
	OutcomeStale
	OutcomeMissingSecret
	OutcomeLengthMismatch
	OutcomeMismatch
	OutcomeInternalError
)

var outcomeNames = map[Outcome]string{
	OutcomeValid:              "valid",
	OutcomeMissingTimestamp:   "missing_timestamp",
	OutcomeMissingSignature:   "missing_signature",
	OutcomeMalformedTimestamp: "malformed_timestamp",
	OutcomeStale:              "stale",
	OutcomeMissingSecret:      "missing_secret",
	OutcomeLengthMismatch:     "length_mismatch",
	OutcomeMismatch:           "mismatch",
	OutcomeInternalError:      "internal_error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}
