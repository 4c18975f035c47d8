package ordersession

import "fmt"

// DrugReference identifies a selectable drug. It is immutable once selected
// and replaced wholesale when the clinician picks a different drug.
type DrugReference struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

// Variant selects which form the clinician is filling in.
type Variant string

const (
	// VariantStandard is the structured dose/unit/route/frequency/duration form.
	VariantStandard Variant = "standard"
	// VariantFreeText replaces the structured dosing fields with a single
	// instructions field.
	VariantFreeText Variant = "free-text"
)

// Field names accepted by the form.
const (
	FieldDose               = "dose"
	FieldDosingUnit         = "dosingUnit"
	FieldRoute              = "route"
	FieldFrequency          = "frequency"
	FieldDuration           = "duration"
	FieldDurationUnit       = "durationUnit"
	FieldDispensingQuantity = "dispensingQuantity"
	FieldDispensingUnit     = "dispensingUnit"
	FieldDrugInstructions   = "drugInstructions"
	FieldReason             = "reason"
)

// OrderFields holds the raw form input. All values are free-form strings;
// the empty string means unset.
type OrderFields struct {
	Dose               string `json:"dose"`
	DosingUnit         string `json:"dosingUnit"`
	Route              string `json:"route"`
	Frequency          string `json:"frequency"`
	Duration           string `json:"duration"`
	DurationUnit       string `json:"durationUnit"`
	DispensingQuantity string `json:"dispensingQuantity"`
	DispensingUnit     string `json:"dispensingUnit"`
	DrugInstructions   string `json:"drugInstructions"`
	Reason             string `json:"reason"`
}

// Get returns the value of the named field.
func (f *OrderFields) Get(name string) (string, error) {
	switch name {
	case FieldDose:
		return f.Dose, nil
	case FieldDosingUnit:
		return f.DosingUnit, nil
	case FieldRoute:
		return f.Route, nil
	case FieldFrequency:
		return f.Frequency, nil
	case FieldDuration:
		return f.Duration, nil
	case FieldDurationUnit:
		return f.DurationUnit, nil
	case FieldDispensingQuantity:
		return f.DispensingQuantity, nil
	case FieldDispensingUnit:
		return f.DispensingUnit, nil
	case FieldDrugInstructions:
		return f.DrugInstructions, nil
	case FieldReason:
		return f.Reason, nil
	}
	return "", fmt.Errorf("unknown field: %s", name)
}

// Set assigns the value of the named field.
func (f *OrderFields) Set(name, value string) error {
	switch name {
	case FieldDose:
		f.Dose = value
	case FieldDosingUnit:
		f.DosingUnit = value
	case FieldRoute:
		f.Route = value
	case FieldFrequency:
		f.Frequency = value
	case FieldDuration:
		f.Duration = value
	case FieldDurationUnit:
		f.DurationUnit = value
	case FieldDispensingQuantity:
		f.DispensingQuantity = value
	case FieldDispensingUnit:
		f.DispensingUnit = value
	case FieldDrugInstructions:
		f.DrugInstructions = value
	case FieldReason:
		f.Reason = value
	default:
		return fmt.Errorf("unknown field: %s", name)
	}
	return nil
}

// FieldErrors maps a field name to "is currently known invalid". Entries are
// recorded on blur and recomputed on every validation pass, never persisted.
type FieldErrors map[string]bool

// Count returns how many fields are currently marked invalid.
func (e FieldErrors) Count() int {
	n := 0
	for _, bad := range e {
		if bad {
			n++
		}
	}
	return n
}

// FormState tracks the currently edited order's field values, the active
// form variant and per-field error state.
type FormState struct {
	Fields  OrderFields `json:"fields"`
	Errors  FieldErrors `json:"errors"`
	Variant Variant     `json:"variant"`
}

func NewFormState() *FormState {
	return &FormState{
		Errors:  make(FieldErrors),
		Variant: VariantStandard,
	}
}

// SetField updates a field value without validating it. Validation happens
// on blur, matching the form's interaction model.
func (s *FormState) SetField(name, value string) error {
	return s.Fields.Set(name, value)
}

// BlurField validates a single field against the catalogs and records the
// result in Errors.
func (s *FormState) BlurField(name string, cats Catalogs) error {
	value, err := s.Fields.Get(name)
	if err != nil {
		return err
	}
	s.Errors[name] = !ValidateField(name, value, cats)
	return nil
}

// SwitchVariant toggles between the standard-dose and free-text forms.
// Field values deliberately persist across the switch; only which fields
// gate confirmation changes.
func (s *FormState) SwitchVariant(v Variant) error {
	if v != VariantStandard && v != VariantFreeText {
		return fmt.Errorf("unknown form variant: %s", v)
	}
	s.Variant = v
	return nil
}

// Clear resets fields, errors and the active variant to their initial state.
func (s *FormState) Clear() {
	s.Fields = OrderFields{}
	s.Errors = make(FieldErrors)
	s.Variant = VariantStandard
}

// PopulateFromOrder copies every field present on the incoming order into
// the form, leaving absent fields empty. The active variant follows the
// presence of drugInstructions: a populated instructions field selects the
// free-text form even when structured dose fields are also present.
func (s *FormState) PopulateFromOrder(fields OrderFields) {
	s.Fields = fields
	s.Errors = make(FieldErrors)
	if fields.DrugInstructions != "" {
		s.Variant = VariantFreeText
	} else {
		s.Variant = VariantStandard
	}
}

// ConfirmReady reports whether the confirm control is enabled for the
// current variant. Any field currently marked invalid disables confirmation
// regardless of the other fields.
func (s *FormState) ConfirmReady() bool {
	if s.Errors.Count() > 0 {
		return false
	}
	if s.Fields.DispensingQuantity == "" || s.Fields.DispensingUnit == "" {
		return false
	}
	if s.Variant == VariantFreeText && s.Fields.DrugInstructions == "" {
		return false
	}
	return true
}
