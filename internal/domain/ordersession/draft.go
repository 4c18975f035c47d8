package ordersession

// Action records how a draft relates to previously submitted orders.
type Action string

const (
	ActionNew    Action = "NEW"
	ActionRevise Action = "REVISE"
	ActionNotNew Action = "NOT_NEW"
)

// DosingType mirrors the active form variant on a staged draft.
type DosingType string

const (
	DosingSimple   DosingType = "SimpleDosingInstructions"
	DosingFreeText DosingType = "FreeTextDosingInstructions"
)

// DraftOrderType is the order type every staged draft carries.
const DraftOrderType = "drugorder"

// DraftOrder is a locally staged, not-yet-submitted order. It is built as a
// new value on every confirm; callers' orders are never tagged in place.
type DraftOrder struct {
	Action        Action     `json:"action"`
	CareSetting   string     `json:"careSetting"`
	DosingType    DosingType `json:"dosingType"`
	Drug          string     `json:"drug"`
	DrugName      string     `json:"drugName"`
	OrderNumber   int        `json:"orderNumber"`
	Type          string     `json:"type"`
	Orderer       string     `json:"orderer"`
	PreviousOrder string     `json:"previousOrder,omitempty"`
	OrderFields
}

// DraftPad is the ordered collection of staged drafts for one session.
type DraftPad struct {
	drafts []DraftOrder
}

func NewDraftPad() *DraftPad {
	return &DraftPad{}
}

// Add stages a draft at the end of the pad.
func (p *DraftPad) Add(d DraftOrder) {
	p.drafts = append(p.drafts, d)
}

// Remove deletes the draft with the given order number. It reports whether
// a draft was actually removed, so racing discards degrade to no-ops.
func (p *DraftPad) Remove(orderNumber int) bool {
	for i, d := range p.drafts {
		if d.OrderNumber == orderNumber {
			p.drafts = append(p.drafts[:i], p.drafts[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the draft with the given order number.
func (p *DraftPad) Get(orderNumber int) (DraftOrder, bool) {
	for _, d := range p.drafts {
		if d.OrderNumber == orderNumber {
			return d, true
		}
	}
	return DraftOrder{}, false
}

// RemoveAll empties the pad.
func (p *DraftPad) RemoveAll() {
	p.drafts = nil
}

// List returns a copy of the staged drafts in staging order.
func (p *DraftPad) List() []DraftOrder {
	out := make([]DraftOrder, len(p.drafts))
	copy(out, p.drafts)
	return out
}

// Len returns the number of staged drafts.
func (p *DraftPad) Len() int {
	return len(p.drafts)
}

// NextOrderNumber returns the order number a freshly staged draft receives:
// a 1-based sequence across the session.
func (p *DraftPad) NextOrderNumber() int {
	return len(p.drafts) + 1
}
