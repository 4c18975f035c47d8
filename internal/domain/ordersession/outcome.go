package ordersession

// SubmissionStatus is the added/error flag pair reported for one submission
// round-trip.
type SubmissionStatus struct {
	Added bool `json:"added"`
	Error bool `json:"error"`
}

// SubmissionResult is the asynchronous answer from the order-creation
// collaborator. ErrorMessage carries backend rule-violation codes; the
// first element is significant.
type SubmissionResult struct {
	AddedOrder   interface{}      `json:"addedOrder,omitempty"`
	ErrorMessage []string         `json:"errorMessage,omitempty"`
	Status       SubmissionStatus `json:"status"`
}

// Notification kinds.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
)

const orderCreatedMessage = "Order Successfully Created"
const orderFailedMessage = "An error occurred while creating the order"

// submissionErrorMessages maps backend rule-violation codes to user-facing
// text. Codes without an entry fall back to the generic failure message.
var submissionErrorMessages = map[string]string{
	"Order.cannot.have.more.than.one": "Cannot have more than one active order for the same orderable and care setting at same time",
}

// ErrorMessageFor resolves a backend error-code list to user-facing text.
func ErrorMessageFor(codes []string) string {
	if len(codes) > 0 {
		if msg, ok := submissionErrorMessages[codes[0]]; ok {
			return msg
		}
	}
	return orderFailedMessage
}

// Outcome is what a delivered submission result asks the session to do.
type Outcome struct {
	Message          string
	Kind             string
	RefreshSelection bool
	Reset            bool
}

// OutcomeReducer interprets submission results edge-triggered: it reacts
// only when the added/error flag flips from false to true relative to the
// last delivered status, so redelivering an unchanged result emits nothing.
type OutcomeReducer struct {
	last SubmissionStatus
}

// Begin marks the start of a new submission round-trip, resetting the
// last-seen status so the next result registers as an edge.
func (r *OutcomeReducer) Begin() {
	r.last = SubmissionStatus{}
}

// Reduce consumes one delivered result. It returns the outcome to apply and
// whether the result was an edge at all. activity and replacing describe
// the session at delivery time: a live draft edit or a revise-in-flight
// means the downstream selection should refresh with the added order.
func (r *OutcomeReducer) Reduce(res SubmissionResult, activity Activity, replacing bool) (Outcome, bool) {
	addedEdge := res.Status.Added && !r.last.Added
	errorEdge := res.Status.Error && !r.last.Error
	r.last = res.Status

	switch {
	case addedEdge:
		return Outcome{
			Message:          orderCreatedMessage,
			Kind:             NotifySuccess,
			RefreshSelection: activity == ActivityDraftEdit || replacing,
			Reset:            true,
		}, true
	case errorEdge:
		return Outcome{
			Message: ErrorMessageFor(res.ErrorMessage),
			Kind:    NotifyError,
		}, true
	}
	return Outcome{}, false
}
