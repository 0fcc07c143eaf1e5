package shipbot

// OutcomeKind classifies one submission attempt.
type OutcomeKind string

const (
	OutcomeSuccess            OutcomeKind = "SUCCESS"
	OutcomeClientRejected     OutcomeKind = "CLIENT_REJECTED"
	OutcomeValidationRejected OutcomeKind = "VALIDATION_REJECTED"
	OutcomeServerError        OutcomeKind = "SERVER_ERROR"
	OutcomeHTTPError          OutcomeKind = "HTTP_ERROR"
	OutcomeTransportError     OutcomeKind = "TRANSPORT_ERROR"
	OutcomeOutputError        OutcomeKind = "OUTPUT_ERROR"
)

// Outcome is the terminal result of a submission. It is never retried.
type Outcome struct {
	Kind         OutcomeKind
	Mode         Mode
	StatusCode   int
	Body         ResponseBody
	DeploymentID string
	// Reason is the operator-facing summary logged with the outcome.
	Reason string
	Err    error
}

func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess
}
