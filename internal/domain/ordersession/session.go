package ordersession

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Errors returned by session operations.
var (
	ErrNoDrugSelected     = errors.New("no drug selected")
	ErrNotReady           = errors.New("form is not ready to confirm")
	ErrDraftNotFound      = errors.New("draft order not found")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// Notifier delivers fire-and-forget user-visible notifications.
type Notifier interface {
	Notify(sessionID, message, kind string)
}

// OrderSubmitter accepts a staged draft for final submission and yields the
// submission result.
type OrderSubmitter interface {
	Submit(ctx context.Context, draft DraftOrder) SubmissionResult
}

// SelectionSink receives the newly created order after a successful
// submission that replaced a selected order, so downstream list views
// refresh.
type SelectionSink interface {
	SetSelectedOrder(ctx context.Context, order interface{})
}

// CatalogSource supplies the allowed-value catalogs for field validation.
type CatalogSource interface {
	Catalogs(ctx context.Context) (Catalogs, error)
}

// ActiveOrder is a previously submitted order eligible for revision.
type ActiveOrder struct {
	UUID               string        `json:"uuid"`
	Drug               DrugReference `json:"drug"`
	DosingInstructions string        `json:"dosingInstructions,omitempty"`
	Quantity           string        `json:"quantity,omitempty"`
	QuantityUnits      string        `json:"quantityUnits,omitempty"`
	OrderNumber        int           `json:"orderNumber"`
	Fields             OrderFields   `json:"fields"`
}

// MaxSummaryLength caps the revise summary shown in place of the drug
// search box.
const MaxSummaryLength = 250

// ReviseSummary renders the truncated current-order summary for an active
// order being revised.
func ReviseSummary(o ActiveOrder) string {
	s := o.Drug.Display + ":"
	if o.DosingInstructions != "" {
		s += " " + o.DosingInstructions
	}
	if o.Quantity != "" && o.QuantityUnits != "" {
		s += fmt.Sprintf(", (Dispense: %s %s)", o.Quantity, o.QuantityUnits)
	}
	if len(s) > MaxSummaryLength {
		s = s[:MaxSummaryLength] + "..."
	}
	return s
}

// Deps are the collaborators one session talks to.
type Deps struct {
	Catalogs  CatalogSource
	Submitter OrderSubmitter
	Notifier  Notifier
	Selection SelectionSink
	Logger    zerolog.Logger
}

// Session is one clinician's order-entry session: the form state, the draft
// pad, the live activity and the in-flight submission, guarded by a single
// mutex consistent with the one-logical-session model.
type Session struct {
	mu sync.Mutex

	ID          uuid.UUID `json:"id"`
	CareSetting string    `json:"careSetting"`
	Orderer     string    `json:"orderer"`

	form     *FormState
	pad      *DraftPad
	activity ActivityState
	edit     EditState
	revising *ActiveOrder // revise-of-active target, nil otherwise
	summary  string
	drug     DrugReference
	search   string

	reducer    OutcomeReducer
	submitting bool
	pending    *DraftOrder

	deps Deps
}

// NewSession creates an idle session for the given care setting and orderer.
func NewSession(careSetting, orderer string, deps Deps) *Session {
	return &Session{
		ID:          uuid.New(),
		CareSetting: careSetting,
		Orderer:     orderer,
		form:        NewFormState(),
		pad:         NewDraftPad(),
		deps:        deps,
	}
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID            uuid.UUID     `json:"id"`
	CareSetting   string        `json:"careSetting"`
	Orderer       string        `json:"orderer"`
	Activity      ActivityState `json:"activity"`
	Drug          DrugReference `json:"drug"`
	Search        string        `json:"search"`
	Edit          EditState     `json:"edit"`
	ReviseSummary string        `json:"reviseSummary,omitempty"`
	Fields        OrderFields   `json:"fields"`
	Errors        FieldErrors   `json:"errors"`
	Variant       Variant       `json:"variant"`
	ConfirmReady  bool          `json:"confirmReady"`
	DraftCount    int           `json:"draftCount"`
	Submitting    bool          `json:"submitting"`
}

// Snapshot returns a copy of the session's visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:            s.ID,
		CareSetting:   s.CareSetting,
		Orderer:       s.Orderer,
		Activity:      s.activity,
		Drug:          s.drug,
		Search:        s.search,
		Edit:          s.edit,
		ReviseSummary: s.summary,
		Fields:        s.form.Fields,
		Errors:        s.form.Errors,
		Variant:       s.form.Variant,
		ConfirmReady:  s.form.ConfirmReady() && !s.submitting,
		DraftCount:    s.pad.Len(),
	}
}

// Drafts returns the staged drafts in staging order.
func (s *Session) Drafts() []DraftOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pad.List()
}

// SearchChange records the live drug search text.
func (s *Session) SearchChange(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = text
}

// SelectDrug replaces the selected drug wholesale. The activity does not
// change until the form is confirmed.
func (s *Session) SelectDrug(ref DrugReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drug = ref
	s.search = ref.Display
}

// SetField updates a form field without validating it.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.SetField(name, value)
}

// BlurField validates one field against the configured catalogs and records
// the result.
func (s *Session) BlurField(ctx context.Context, name string) error {
	cats, err := s.deps.Catalogs.Catalogs(ctx)
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.BlurField(name, cats)
}

// SwitchVariant toggles the standard-dose / free-text form.
func (s *Session) SwitchVariant(v Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.SwitchVariant(v)
}

// ClearForm resets the form fields and errors without touching drafts.
func (s *Session) ClearForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Clear()
}

// Confirm stages the current form as a draft order and returns it.
func (s *Session) Confirm() (DraftOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return DraftOrder{}, ErrSubmissionInFlight
	}
	if !s.form.ConfirmReady() {
		return DraftOrder{}, ErrNotReady
	}

	drugUUID, drugName := s.drug.UUID, s.drug.Display
	if s.edit.EditDrugUUID != "" {
		drugUUID, drugName = s.edit.EditDrugUUID, s.edit.EditDrugName
	}
	if drugUUID == "" {
		return DraftOrder{}, ErrNoDrugSelected
	}

	action := ActionNew
	previous := ""
	orderNumber := s.pad.NextOrderNumber()
	switch {
	case s.revising != nil:
		action = ActionRevise
		previous = s.revising.UUID
		if s.edit.OrderNumber > 0 {
			orderNumber = s.edit.OrderNumber
		}
	case s.edit.Draft != nil:
		action = s.edit.Draft.Action
		previous = s.edit.Draft.PreviousOrder
		orderNumber = s.edit.Draft.OrderNumber
	}

	dosingType := DosingSimple
	if s.form.Variant == VariantFreeText {
		dosingType = DosingFreeText
	}

	draft := DraftOrder{
		Action:        action,
		CareSetting:   s.CareSetting,
		DosingType:    dosingType,
		Drug:          drugUUID,
		DrugName:      drugName,
		OrderNumber:   orderNumber,
		Type:          DraftOrderType,
		Orderer:       s.Orderer,
		PreviousOrder: previous,
		OrderFields:   s.form.Fields,
	}
	s.pad.Add(draft)

	next := ActivityNew
	if s.revising != nil || s.edit.Draft != nil {
		next = ActivityEdit
	}
	s.setActivity(next, strconv.Itoa(draft.OrderNumber))

	s.form.Clear()
	s.edit = EditState{}
	s.revising = nil
	s.summary = ""
	s.drug = DrugReference{}
	s.search = ""

	return draft, nil
}

// EditDraft pulls a staged draft back into the form. A missing draft (for
// example discarded concurrently) is a no-op.
func (s *Session) EditDraft(orderNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.pad.Get(orderNumber)
	if !ok {
		s.deps.Logger.Warn().Int("order_number", orderNumber).Msg("edit of unknown draft ignored")
		return
	}
	s.pad.Remove(orderNumber)

	s.edit = EditState{
		Draft:        &draft,
		EditDrugUUID: draft.Drug,
		EditDrugName: draft.DrugName,
		OrderNumber:  draft.OrderNumber,
	}
	s.drug = DrugReference{UUID: draft.Drug, Display: draft.DrugName}
	s.form.PopulateFromOrder(draft.OrderFields)
	s.setActivity(ActivityDraftEdit, strconv.Itoa(draft.OrderNumber))
}

// DiscardDraft removes one staged draft. Discarding a revision emits
// DISCARD_EDIT so the orders list can restore the superseded order's row.
func (s *Session) DiscardDraft(orderNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.pad.Get(orderNumber)
	if !ok {
		return
	}
	s.pad.Remove(orderNumber)

	if draft.Action == ActionRevise {
		s.setActivity(ActivityDiscardEdit, strconv.Itoa(orderNumber))
	} else {
		s.setActivity(ActivityDiscardOne, strconv.Itoa(orderNumber))
	}
}

// DiscardAll empties the draft pad regardless of prior size.
func (s *Session) DiscardAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pad.RemoveAll()
	s.setActivity(ActivityDiscardAll, AllOrders)
}

// Revise enters EDIT for an active (non-draft) order. The order itself is
// never mutated; the revision link travels on the draft built at confirm.
func (s *Session) Revise(o ActiveOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := o
	s.revising = &cp
	s.summary = ReviseSummary(o)
	s.edit = EditState{
		EditDrugUUID: o.Drug.UUID,
		EditDrugName: o.Drug.Display,
		OrderNumber:  o.OrderNumber,
	}
	s.drug = o.Drug
	s.form.PopulateFromOrder(o.Fields)
	s.setActivity(ActivityEdit, strconv.Itoa(o.OrderNumber))
}

// ApplySelection applies one observed external selection change.
func (s *Session) ApplySelection(ev SelectionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := ApplySelection(s.edit, ev)
	if next.EditDrugUUID == "" && s.edit.EditDrugUUID != "" {
		// Selection went away mid-edit: drop back to idle.
		s.edit = EditState{}
		s.revising = nil
		s.summary = ""
		s.form.Clear()
		s.setActivity(ActivityIdle, "")
		return
	}
	if next.Draft != nil && (s.edit.Draft == nil || s.edit.EditDrugUUID != next.EditDrugUUID) {
		s.form.PopulateFromOrder(next.Draft.OrderFields)
		s.drug = DrugReference{UUID: next.EditDrugUUID, Display: next.EditDrugName}
	}
	s.edit = next
}

// ChangeTab leaves the order-entry surface: all drafts are discarded, the
// search and drug selection are cleared and the session returns to idle.
// An already-dispatched submission is not cancelled.
func (s *Session) ChangeTab() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pad.RemoveAll()
	s.form.Clear()
	s.edit = EditState{}
	s.revising = nil
	s.summary = ""
	s.drug = DrugReference{}
	s.search = ""
	s.setActivity(ActivityIdle, "")
}

// SubmitDraft sends one staged draft to the order-creation collaborator and
// applies the delivered result. Only one submission may be in flight.
func (s *Session) SubmitDraft(ctx context.Context, orderNumber int) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	draft, ok := s.pad.Get(orderNumber)
	if !ok {
		s.mu.Unlock()
		return ErrDraftNotFound
	}
	s.submitting = true
	s.pending = &draft
	s.reducer.Begin()
	s.mu.Unlock()

	res := s.deps.Submitter.Submit(ctx, draft)
	return s.Deliver(ctx, res)
}

// Deliver applies one asynchronous submission result. Redelivering a result
// whose status has not changed emits nothing.
func (s *Session) Deliver(ctx context.Context, res SubmissionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil
	}
	draft := *s.pending

	outcome, fired := s.reducer.Reduce(res, s.activity.Activity, draft.PreviousOrder != "")
	if !fired {
		return nil
	}
	s.submitting = false

	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(s.ID.String(), outcome.Message, outcome.Kind)
	}

	if outcome.Kind == NotifyError {
		// Keep the draft staged so the clinician can correct and resubmit.
		s.pending = nil
		s.deps.Logger.Info().
			Str("session_id", s.ID.String()).
			Int("order_number", draft.OrderNumber).
			Strs("codes", res.ErrorMessage).
			Msg("order submission rejected")
		return nil
	}

	s.pad.Remove(draft.OrderNumber)
	s.pending = nil

	if outcome.RefreshSelection && s.deps.Selection != nil {
		s.deps.Selection.SetSelectedOrder(ctx, res.AddedOrder)
	}
	if outcome.Reset {
		s.form.Clear()
		s.edit = EditState{}
		s.revising = nil
		s.summary = ""
		s.drug = DrugReference{}
		s.search = ""
		s.setActivity(ActivityIdle, "")
	}
	s.deps.Logger.Info().
		Str("session_id", s.ID.String()).
		Int("order_number", draft.OrderNumber).
		Msg("order submitted")
	return nil
}

// setActivity records a transition; illegal transitions are dropped rather
// than crashing the session.
func (s *Session) setActivity(a Activity, orderNumber string) {
	if !CanTransition(s.activity.Activity, a) {
		s.deps.Logger.Warn().
			Str("from", string(s.activity.Activity)).
			Str("to", string(a)).
			Msg("illegal activity transition ignored")
		return
	}
	s.activity = ActivityState{Activity: a, OrderNumber: orderNumber}
}
