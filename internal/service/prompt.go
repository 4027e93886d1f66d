package service

import (
	"fmt"
	"strings"

	"github.com/merqado/concierge/internal/model"
)

const basePrompt = `You are a shopping concierge for a local commerce marketplace.
You help users find products, stores, and promotions from verified local stores.

Decide whether the user's message needs catalog data:
- Use search_products when the user wants specific items to buy.
- Use search_stores when the user asks where to shop.
- Use search_promotions when the user asks about discounts, sales, or offers.
- Answer directly, without any tool, when the user is just chatting.

Keep answers short and concrete. Never invent products, stores, or promotions
that a search did not return.`

// systemPrompt builds the capability-selection guidance for one request.
// When the caller shared a location, the model is told to carry it into
// every search call.
func systemPrompt(req *model.ChatRequest) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if req.Latitude != nil && req.Longitude != nil {
		fmt.Fprintf(&b, "\n\nThe user is at latitude %.4f, longitude %.4f", *req.Latitude, *req.Longitude)
		if req.RadiusKm != 0 {
			fmt.Fprintf(&b, " and wants results within %d km", req.RadiusKm)
		}
		b.WriteString(". Always include these coordinates")
		if req.RadiusKm != 0 {
			b.WriteString(" and this radius")
		}
		b.WriteString(" in the arguments of every search call.")
	}

	return b.String()
}
