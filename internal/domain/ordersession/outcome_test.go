package ordersession

import "testing"

func TestOutcomeReducer_SuccessEdge(t *testing.T) {
	var r OutcomeReducer
	r.Begin()

	res := SubmissionResult{Status: SubmissionStatus{Added: true}}
	outcome, fired := r.Reduce(res, ActivityNew, false)
	if !fired {
		t.Fatal("expected success edge to fire")
	}
	if outcome.Message != "Order Successfully Created" {
		t.Errorf("unexpected message: %s", outcome.Message)
	}
	if outcome.Kind != NotifySuccess {
		t.Errorf("unexpected kind: %s", outcome.Kind)
	}
	if !outcome.Reset {
		t.Error("expected reset on success")
	}
	if outcome.RefreshSelection {
		t.Error("expected no selection refresh outside edit/revise")
	}
}

func TestOutcomeReducer_RedeliveryIsSilent(t *testing.T) {
	var r OutcomeReducer
	r.Begin()

	res := SubmissionResult{Status: SubmissionStatus{Added: true}}
	if _, fired := r.Reduce(res, ActivityNew, false); !fired {
		t.Fatal("expected first delivery to fire")
	}
	if _, fired := r.Reduce(res, ActivityNew, false); fired {
		t.Error("expected redelivery of an unchanged status to be silent")
	}

	// A fresh round-trip makes the same status an edge again.
	r.Begin()
	if _, fired := r.Reduce(res, ActivityNew, false); !fired {
		t.Error("expected edge after Begin")
	}
}

func TestOutcomeReducer_RefreshSelection(t *testing.T) {
	var r OutcomeReducer
	res := SubmissionResult{Status: SubmissionStatus{Added: true}}

	r.Begin()
	outcome, _ := r.Reduce(res, ActivityDraftEdit, false)
	if !outcome.RefreshSelection {
		t.Error("expected refresh during a live draft edit")
	}

	r.Begin()
	outcome, _ = r.Reduce(res, ActivityNew, true)
	if !outcome.RefreshSelection {
		t.Error("expected refresh when replacing a previous order")
	}
}

func TestOutcomeReducer_ErrorEdgeKnownCode(t *testing.T) {
	var r OutcomeReducer
	r.Begin()

	res := SubmissionResult{
		ErrorMessage: []string{"Order.cannot.have.more.than.one"},
		Status:       SubmissionStatus{Error: true},
	}
	outcome, fired := r.Reduce(res, ActivityNew, false)
	if !fired {
		t.Fatal("expected error edge to fire")
	}
	if outcome.Kind != NotifyError {
		t.Errorf("unexpected kind: %s", outcome.Kind)
	}
	want := "Cannot have more than one active order for the same orderable and care setting at same time"
	if outcome.Message != want {
		t.Errorf("unexpected message: %s", outcome.Message)
	}
	if outcome.Reset {
		t.Error("expected no reset on error")
	}
}

func TestErrorMessageFor_Fallback(t *testing.T) {
	want := "An error occurred while creating the order"
	if got := ErrorMessageFor([]string{"Some.unknown.code"}); got != want {
		t.Errorf("unexpected message: %s", got)
	}
	if got := ErrorMessageFor(nil); got != want {
		t.Errorf("unexpected message for empty codes: %s", got)
	}
	// Only the first code is significant.
	if got := ErrorMessageFor([]string{"Some.unknown.code", "Order.cannot.have.more.than.one"}); got != want {
		t.Errorf("expected fallback when first code is unknown, got %s", got)
	}
}
