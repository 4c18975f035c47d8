package ordersession

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubCatalogSource struct {
	cats Catalogs
	err  error
}

func (s *stubCatalogSource) Catalogs(ctx context.Context) (Catalogs, error) {
	return s.cats, s.err
}

type stubSubmitter struct {
	fn func(DraftOrder) SubmissionResult
}

func (s *stubSubmitter) Submit(ctx context.Context, d DraftOrder) SubmissionResult {
	return s.fn(d)
}

type stubNotifier struct {
	messages []string
	kinds    []string
}

func (n *stubNotifier) Notify(sessionID, message, kind string) {
	n.messages = append(n.messages, message)
	n.kinds = append(n.kinds, kind)
}

type stubSelection struct {
	orders []interface{}
}

func (s *stubSelection) SetSelectedOrder(ctx context.Context, order interface{}) {
	s.orders = append(s.orders, order)
}

func newTestSession(submit func(DraftOrder) SubmissionResult) (*Session, *stubNotifier, *stubSelection) {
	notifier := &stubNotifier{}
	selection := &stubSelection{}
	deps := Deps{
		Catalogs:  &stubCatalogSource{cats: testCatalogs()},
		Submitter: &stubSubmitter{fn: submit},
		Notifier:  notifier,
		Selection: selection,
		Logger:    zerolog.Nop(),
	}
	return NewSession("outpatient", "dr-jones", deps), notifier, selection
}

func successResult(d DraftOrder) SubmissionResult {
	return SubmissionResult{
		AddedOrder: map[string]string{"uuid": "created-" + d.Drug},
		Status:     SubmissionStatus{Added: true},
	}
}

func fillReadyForm(t *testing.T, s *Session) {
	t.Helper()
	s.SelectDrug(DrugReference{UUID: "drug-1", Display: "Paracetamol"})
	s.SetField(FieldDose, "500")
	s.SetField(FieldDosingUnit, "Milligram")
	s.SetField(FieldDispensingQuantity, "10")
	s.SetField(FieldDispensingUnit, "Tablet")
}

func TestReviseSummary(t *testing.T) {
	o := ActiveOrder{
		Drug:               DrugReference{Display: "Paracetamol"},
		DosingInstructions: "500mg twice daily",
		Quantity:           "10",
		QuantityUnits:      "Tablet",
	}
	want := "Paracetamol: 500mg twice daily, (Dispense: 10 Tablet)"
	if got := ReviseSummary(o); got != want {
		t.Errorf("unexpected summary: %s", got)
	}

	// Quantity without units is omitted.
	o.QuantityUnits = ""
	if got := ReviseSummary(o); got != "Paracetamol: 500mg twice daily" {
		t.Errorf("unexpected summary: %s", got)
	}
}

func TestReviseSummary_Truncation(t *testing.T) {
	o := ActiveOrder{
		Drug:               DrugReference{Display: "Paracetamol"},
		DosingInstructions: strings.Repeat("x", 400),
	}
	got := ReviseSummary(o)
	if len(got) != MaxSummaryLength+3 {
		t.Errorf("expected length %d, got %d", MaxSummaryLength+3, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("expected truncated summary to end with ellipsis")
	}
}

func TestSession_ConfirmNotReady(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	if _, err := s.Confirm(); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestSession_ConfirmRequiresDrug(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	s.SetField(FieldDispensingQuantity, "10")
	s.SetField(FieldDispensingUnit, "Tablet")

	if _, err := s.Confirm(); !errors.Is(err, ErrNoDrugSelected) {
		t.Errorf("expected ErrNoDrugSelected, got %v", err)
	}
}

func TestSession_ConfirmStagesNewDraft(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	fillReadyForm(t, s)

	draft, err := s.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if draft.Action != ActionNew {
		t.Errorf("expected NEW action, got %s", draft.Action)
	}
	if draft.OrderNumber != 1 {
		t.Errorf("expected order number 1, got %d", draft.OrderNumber)
	}
	if draft.Type != DraftOrderType {
		t.Errorf("expected type drugorder, got %s", draft.Type)
	}
	if draft.DosingType != DosingSimple {
		t.Errorf("expected simple dosing, got %s", draft.DosingType)
	}
	if draft.Drug != "drug-1" || draft.DrugName != "Paracetamol" {
		t.Errorf("unexpected drug on draft: %s / %s", draft.Drug, draft.DrugName)
	}
	if draft.CareSetting != "outpatient" || draft.Orderer != "dr-jones" {
		t.Errorf("unexpected provenance: %s / %s", draft.CareSetting, draft.Orderer)
	}

	snap := s.Snapshot()
	if snap.Activity.Activity != ActivityNew || snap.Activity.OrderNumber != "1" {
		t.Errorf("unexpected activity: %+v", snap.Activity)
	}
	if snap.Fields != (OrderFields{}) {
		t.Error("expected form cleared after confirm")
	}
	if snap.Drug != (DrugReference{}) {
		t.Error("expected drug selection cleared after confirm")
	}
	if snap.DraftCount != 1 {
		t.Errorf("expected 1 staged draft, got %d", snap.DraftCount)
	}
}

func TestSession_ConfirmFreeTextDosingType(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	s.SelectDrug(DrugReference{UUID: "drug-1", Display: "Paracetamol"})
	s.SwitchVariant(VariantFreeText)
	s.SetField(FieldDrugInstructions, "one tablet at night")
	s.SetField(FieldDispensingQuantity, "10")
	s.SetField(FieldDispensingUnit, "Tablet")

	draft, err := s.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.DosingType != DosingFreeText {
		t.Errorf("expected free-text dosing, got %s", draft.DosingType)
	}
}

func TestSession_InvalidBlurBlocksConfirm(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	s.SetField(FieldRoute, "by pigeon")
	if err := s.BlurField(context.Background(), FieldRoute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Confirm(); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady with invalid field, got %v", err)
	}

	s.SetField(FieldRoute, "Oral")
	s.BlurField(context.Background(), FieldRoute)
	if _, err := s.Confirm(); err != nil {
		t.Errorf("expected confirm after correction, got %v", err)
	}
}

func TestSession_EditDraftRoundTrip(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	draft, err := s.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.EditDraft(draft.OrderNumber)

	snap := s.Snapshot()
	if snap.Activity.Activity != ActivityDraftEdit {
		t.Errorf("expected DRAFT_ORDER_EDIT, got %s", snap.Activity.Activity)
	}
	if snap.DraftCount != 0 {
		t.Error("expected draft pulled off the pad while editing")
	}
	if snap.Fields.Dose != "500" {
		t.Error("expected fields repopulated from the draft")
	}
	if snap.Edit.EditDrugUUID != "drug-1" {
		t.Error("expected edit identity set")
	}

	s.SetField(FieldDose, "250")
	redone, err := s.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redone.OrderNumber != draft.OrderNumber {
		t.Errorf("expected order number %d preserved, got %d", draft.OrderNumber, redone.OrderNumber)
	}
	if redone.Action != ActionNew {
		t.Errorf("expected original action preserved, got %s", redone.Action)
	}
	if redone.Dose != "250" {
		t.Errorf("expected edited dose, got %s", redone.Dose)
	}
	if got := s.Snapshot().Activity.Activity; got != ActivityEdit {
		t.Errorf("expected EDIT after re-confirm, got %s", got)
	}
}

func TestSession_EditUnknownDraftIsNoop(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	before := s.Snapshot()
	s.EditDraft(99)
	after := s.Snapshot()
	if after.Activity != before.Activity || after.DraftCount != before.DraftCount {
		t.Error("expected edit of unknown draft to change nothing")
	}
}

func TestSession_ReviseFlow(t *testing.T) {
	s, _, _ := newTestSession(successResult)

	active := ActiveOrder{
		UUID:               "order-uuid-7",
		Drug:               DrugReference{UUID: "drug-1", Display: "Paracetamol"},
		DosingInstructions: "500mg twice daily",
		OrderNumber:        42,
		Fields: OrderFields{
			Dose: "500", DosingUnit: "Milligram",
			DispensingQuantity: "10", DispensingUnit: "Tablet",
		},
	}
	s.Revise(active)

	snap := s.Snapshot()
	if snap.Activity.Activity != ActivityEdit || snap.Activity.OrderNumber != "42" {
		t.Errorf("unexpected activity: %+v", snap.Activity)
	}
	if snap.ReviseSummary == "" {
		t.Error("expected revise summary set")
	}
	if snap.Fields.Dose != "500" {
		t.Error("expected fields populated from the active order")
	}

	draft, err := s.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Action != ActionRevise {
		t.Errorf("expected REVISE action, got %s", draft.Action)
	}
	if draft.PreviousOrder != "order-uuid-7" {
		t.Errorf("expected revision link, got %s", draft.PreviousOrder)
	}
	if draft.OrderNumber != 42 {
		t.Errorf("expected order number 42, got %d", draft.OrderNumber)
	}
	if got := s.Snapshot().ReviseSummary; got != "" {
		t.Error("expected summary cleared after confirm")
	}
}

func TestSession_SubmitSuccess(t *testing.T) {
	s, notifier, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	draft, _ := s.Confirm()

	if err := s.SubmitDraft(context.Background(), draft.OrderNumber); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.messages) != 1 || notifier.messages[0] != "Order Successfully Created" {
		t.Errorf("unexpected notifications: %v", notifier.messages)
	}
	if notifier.kinds[0] != NotifySuccess {
		t.Errorf("unexpected kind: %s", notifier.kinds[0])
	}

	snap := s.Snapshot()
	if snap.DraftCount != 0 {
		t.Error("expected submitted draft removed")
	}
	if snap.Activity.Activity != ActivityIdle {
		t.Errorf("expected idle after success, got %s", snap.Activity.Activity)
	}
	if snap.Submitting {
		t.Error("expected submitting flag cleared")
	}
}

func TestSession_SubmitReviseRefreshesSelection(t *testing.T) {
	s, _, selection := newTestSession(successResult)
	s.Revise(ActiveOrder{
		UUID:        "order-uuid-7",
		Drug:        DrugReference{UUID: "drug-1", Display: "Paracetamol"},
		OrderNumber: 42,
		Fields:      OrderFields{DispensingQuantity: "10", DispensingUnit: "Tablet"},
	})
	draft, err := s.Confirm()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.SubmitDraft(context.Background(), draft.OrderNumber); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selection.orders) != 1 {
		t.Fatalf("expected selection refreshed with the added order, got %d", len(selection.orders))
	}
}

func TestSession_SubmitErrorKeepsDraft(t *testing.T) {
	s, notifier, _ := newTestSession(func(d DraftOrder) SubmissionResult {
		return SubmissionResult{
			ErrorMessage: []string{"Order.cannot.have.more.than.one"},
			Status:       SubmissionStatus{Error: true},
		}
	})
	fillReadyForm(t, s)
	draft, _ := s.Confirm()

	if err := s.SubmitDraft(context.Background(), draft.OrderNumber); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.kinds) != 1 || notifier.kinds[0] != NotifyError {
		t.Errorf("expected error notification, got %v", notifier.kinds)
	}
	want := "Cannot have more than one active order for the same orderable and care setting at same time"
	if notifier.messages[0] != want {
		t.Errorf("unexpected message: %s", notifier.messages[0])
	}

	snap := s.Snapshot()
	if snap.DraftCount != 1 {
		t.Error("expected rejected draft kept for correction")
	}
	if snap.Submitting {
		t.Error("expected submitting flag cleared after rejection")
	}
}

func TestSession_SubmitUnknownDraft(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	if err := s.SubmitDraft(context.Background(), 5); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestSession_ConfirmBlockedWhileSubmitting(t *testing.T) {
	var s *Session
	var confirmErr, submitErr error
	s, _, _ = newTestSession(func(d DraftOrder) SubmissionResult {
		// The session must refuse new work while the round-trip is open.
		_, confirmErr = s.Confirm()
		submitErr = s.SubmitDraft(context.Background(), d.OrderNumber)
		return successResult(d)
	})
	fillReadyForm(t, s)
	draft, _ := s.Confirm()

	if err := s.SubmitDraft(context.Background(), draft.OrderNumber); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(confirmErr, ErrSubmissionInFlight) {
		t.Errorf("expected confirm blocked in flight, got %v", confirmErr)
	}
	if !errors.Is(submitErr, ErrSubmissionInFlight) {
		t.Errorf("expected second submit blocked in flight, got %v", submitErr)
	}
}

func TestSession_RedeliveryIsNoop(t *testing.T) {
	s, notifier, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	draft, _ := s.Confirm()
	s.SubmitDraft(context.Background(), draft.OrderNumber)

	if err := s.Deliver(context.Background(), SubmissionResult{Status: SubmissionStatus{Added: true}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Errorf("expected a single notification, got %d", len(notifier.messages))
	}
}

func TestSession_DiscardDraft(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	draft, _ := s.Confirm()

	s.DiscardDraft(draft.OrderNumber)

	snap := s.Snapshot()
	if snap.DraftCount != 0 {
		t.Error("expected draft removed")
	}
	if snap.Activity.Activity != ActivityDiscardOne || snap.Activity.OrderNumber != "1" {
		t.Errorf("unexpected activity: %+v", snap.Activity)
	}

	// Discarding again is a no-op.
	s.DiscardDraft(draft.OrderNumber)
}

func TestSession_DiscardRevisionEmitsDiscardEdit(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	s.Revise(ActiveOrder{
		UUID:        "order-uuid-7",
		Drug:        DrugReference{UUID: "drug-1", Display: "Paracetamol"},
		OrderNumber: 42,
		Fields:      OrderFields{DispensingQuantity: "10", DispensingUnit: "Tablet"},
	})
	draft, _ := s.Confirm()

	s.DiscardDraft(draft.OrderNumber)

	snap := s.Snapshot()
	if snap.Activity.Activity != ActivityDiscardEdit {
		t.Errorf("expected DISCARD_EDIT for a discarded revision, got %s", snap.Activity.Activity)
	}
}

func TestSession_DiscardAll(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	s.Confirm()
	fillReadyForm(t, s)
	s.Confirm()

	s.DiscardAll()

	snap := s.Snapshot()
	if snap.DraftCount != 0 {
		t.Error("expected all drafts removed")
	}
	if snap.Activity.Activity != ActivityDiscardAll || snap.Activity.OrderNumber != AllOrders {
		t.Errorf("unexpected activity: %+v", snap.Activity)
	}
}

func TestSession_LostSelectionDropsEdit(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	draft, _ := s.Confirm()
	s.EditDraft(draft.OrderNumber)

	s.ApplySelection(SelectionEvent{Activity: ActivityIdle, Selected: nil})

	snap := s.Snapshot()
	if snap.Activity.Activity != ActivityIdle {
		t.Errorf("expected idle after losing selection, got %s", snap.Activity.Activity)
	}
	if snap.Edit.EditDrugUUID != "" {
		t.Error("expected edit cleared")
	}
	if snap.Fields != (OrderFields{}) {
		t.Error("expected form cleared")
	}
}

func TestSession_ChangeTab(t *testing.T) {
	s, _, _ := newTestSession(successResult)
	fillReadyForm(t, s)
	s.Confirm()
	s.SearchChange("para")

	s.ChangeTab()

	snap := s.Snapshot()
	if snap.DraftCount != 0 {
		t.Error("expected drafts discarded on tab change")
	}
	if snap.Search != "" || snap.Drug != (DrugReference{}) {
		t.Error("expected search and drug selection cleared")
	}
	if snap.Activity.Activity != ActivityIdle {
		t.Errorf("expected idle after tab change, got %s", snap.Activity.Activity)
	}
}
