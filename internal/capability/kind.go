// Package capability defines the typed search capabilities the assistant
// dispatches on behalf of the model.
package capability

// Tool names offered to the model.
const (
	ToolSearchProducts   = "search_products"
	ToolSearchStores     = "search_stores"
	ToolSearchPromotions = "search_promotions"
)

// Kind is the closed set of capability kinds. Dispatch switches over Kind,
// so adding a capability is a compile-time change rather than a runtime
// string match.
type Kind int

const (
	KindProduct Kind = iota
	KindStore
	KindPromotion
)

// KindFromTool maps a tool name to its Kind.
func KindFromTool(name string) (Kind, bool) {
	switch name {
	case ToolSearchProducts:
		return KindProduct, true
	case ToolSearchStores:
		return KindStore, true
	case ToolSearchPromotions:
		return KindPromotion, true
	}
	return 0, false
}

// Tool returns the tool name for the kind.
func (k Kind) Tool() string {
	switch k {
	case KindProduct:
		return ToolSearchProducts
	case KindStore:
		return ToolSearchStores
	case KindPromotion:
		return ToolSearchPromotions
	}
	return "unknown"
}
