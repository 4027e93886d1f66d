// Package model defines request and response types for the concierge API.
package model

// Intent identifies which kind of answer a conversational turn produced.
type Intent string

const (
	IntentChat      Intent = "chat"
	IntentProduct   Intent = "product"
	IntentStore     Intent = "store"
	IntentPromotion Intent = "promotion"
)

// ParseIntent maps a wire value to an Intent.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentChat, IntentProduct, IntentStore, IntentPromotion:
		return Intent(s), true
	}
	return "", false
}
