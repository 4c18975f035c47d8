package ordersession

// Activity is the high-level order-entry activity. Exactly one activity is
// live at a time; it decides which drug/search/edit surface is presented.
type Activity string

const (
	ActivityIdle       Activity = ""
	ActivityNew        Activity = "NEW"
	ActivityEdit       Activity = "EDIT"
	ActivityDraftEdit  Activity = "DRAFT_ORDER_EDIT"
	ActivityDiscardOne Activity = "DISCARD_ONE"
	ActivityDiscardEdit Activity = "DISCARD_EDIT"
	ActivityDiscardAll Activity = "DISCARD_ALL"
)

// AllOrders is the order-number value carried by DISCARD_ALL.
const AllOrders = "0"

// ActivityState is the live activity plus the order number it refers to
// (string form, AllOrders for "all").
type ActivityState struct {
	Activity    Activity `json:"activity"`
	OrderNumber string   `json:"orderNumber"`
}

// allowedTransitions lists the legal next activities per current activity.
// Discards and idle resets are reachable from anywhere, so every state
// includes them.
var allowedTransitions = map[Activity][]Activity{
	ActivityIdle:        {ActivityIdle, ActivityNew, ActivityEdit, ActivityDraftEdit, ActivityDiscardOne, ActivityDiscardEdit, ActivityDiscardAll},
	ActivityNew:         {ActivityIdle, ActivityNew, ActivityEdit, ActivityDraftEdit, ActivityDiscardOne, ActivityDiscardEdit, ActivityDiscardAll},
	ActivityEdit:        {ActivityIdle, ActivityNew, ActivityEdit, ActivityDraftEdit, ActivityDiscardOne, ActivityDiscardEdit, ActivityDiscardAll},
	ActivityDraftEdit:   {ActivityIdle, ActivityNew, ActivityEdit, ActivityDraftEdit, ActivityDiscardOne, ActivityDiscardEdit, ActivityDiscardAll},
	ActivityDiscardOne:  {ActivityIdle, ActivityNew, ActivityEdit, ActivityDraftEdit, ActivityDiscardOne, ActivityDiscardEdit, ActivityDiscardAll},
	ActivityDiscardEdit: {ActivityIdle, ActivityNew, ActivityEdit, ActivityDraftEdit, ActivityDiscardOne, ActivityDiscardEdit, ActivityDiscardAll},
	ActivityDiscardAll:  {ActivityIdle, ActivityNew, ActivityEdit, ActivityDraftEdit, ActivityDiscardOne, ActivityDiscardEdit, ActivityDiscardAll},
}

// CanTransition reports whether moving between two activities is legal.
func CanTransition(from, to Activity) bool {
	allowed, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == to {
			return true
		}
	}
	return false
}

// EditState tracks which order, if any, is currently pulled into the form
// for editing. At most one draft has a nonzero edit identity at a time.
type EditState struct {
	Draft        *DraftOrder `json:"draft,omitempty"`
	EditDrugUUID string      `json:"editDrugUuid"`
	EditDrugName string      `json:"editDrugName"`
	OrderNumber  int         `json:"orderNumber"`
}

// SelectionEvent is one observed change of the external
// activity/selected-order pair. The reducer below replaces the original
// lifecycle diffing: it is applied exactly once per observed change.
type SelectionEvent struct {
	Activity Activity
	Selected *DraftOrder // nil when no order is selected
}

// ApplySelection returns the next edit state for an external selection
// change. While a draft edit is live, the form re-syncs whenever the
// selected order's drug changes; losing the selection clears the edit.
func ApplySelection(cur EditState, ev SelectionEvent) EditState {
	if ev.Activity == ActivityDraftEdit && ev.Selected != nil {
		if cur.EditDrugUUID == "" || cur.EditDrugUUID != ev.Selected.Drug {
			d := *ev.Selected
			return EditState{
				Draft:        &d,
				EditDrugUUID: d.Drug,
				EditDrugName: d.DrugName,
				OrderNumber:  d.OrderNumber,
			}
		}
		return cur
	}
	if ev.Selected == nil && cur.EditDrugUUID != "" {
		return EditState{}
	}
	return cur
}
