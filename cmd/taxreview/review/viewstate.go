package review

import (
	"fmt"

	"taxreview/internal/taxrecord"
)

// Block ids. Reduced rates and exemptions are indexed in record order.
const (
	blockVertical = "vertical"
	blockStandard = "standard"
)

func reducedBlock(i int) string   { return fmt.Sprintf("reduced/%d", i) }
func exemptionBlock(i int) string { return fmt.Sprintf("exemption/%d", i) }

// BlockState is the expand state of one collapsible block. The zero value
// is fully collapsed.
type BlockState struct {
	Citations bool
	AppliesTo bool
}

// ViewState is everything the user can change on screen. It never touches
// the record itself.
type ViewState struct {
	// ShowNative is the page-level original-language quote toggle.
	ShowNative bool
	// Order lists the focusable blocks top to bottom.
	Order  []string
	Blocks map[string]*BlockState
	Focus  int
}

// NewViewState returns a collapsed view of rec.
func NewViewState(rec *taxrecord.Record, showNative bool) ViewState {
	vs := ViewState{
		ShowNative: showNative,
		Order:      BlockIDs(rec),
		Blocks:     make(map[string]*BlockState),
	}
	for _, id := range vs.Order {
		vs.Blocks[id] = &BlockState{}
	}
	return vs
}

// BlockIDs lists the collapsible blocks of rec in display order.
func BlockIDs(rec *taxrecord.Record) []string {
	if rec == nil {
		return nil
	}
	ids := []string{blockVertical, blockStandard}
	for i := range rec.Provision.ReducedRates {
		ids = append(ids, reducedBlock(i))
	}
	for i := range rec.Provision.Exemptions {
		ids = append(ids, exemptionBlock(i))
	}
	return ids
}

// Block returns the state of id. Unknown ids are collapsed.
func (v ViewState) Block(id string) BlockState {
	if b, ok := v.Blocks[id]; ok && b != nil {
		return *b
	}
	return BlockState{}
}

// Focused returns the focused block id, or "".
func (v ViewState) Focused() string {
	if len(v.Order) == 0 {
		return ""
	}
	return v.Order[v.Focus]
}

// Move shifts focus by delta, wrapping around.
func (v *ViewState) Move(delta int) {
	n := len(v.Order)
	if n == 0 {
		return
	}
	v.Focus = ((v.Focus+delta)%n + n) % n
}

// ToggleCitations flips the citations flag of the focused block only.
func (v *ViewState) ToggleCitations() {
	if b := v.focusedBlock(); b != nil {
		b.Citations = !b.Citations
	}
}

// ToggleAppliesTo flips the applies-to flag of the focused block only.
func (v *ViewState) ToggleAppliesTo() {
	if b := v.focusedBlock(); b != nil {
		b.AppliesTo = !b.AppliesTo
	}
}

func (v *ViewState) focusedBlock() *BlockState {
	id := v.Focused()
	if id == "" {
		return nil
	}
	b, ok := v.Blocks[id]
	if !ok || b == nil {
		b = &BlockState{}
		v.Blocks[id] = b
	}
	return b
}
