package capability

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/merqado/concierge/internal/llm"
)

// Definitions returns the capability schemas offered to the model. The set
// is deliberately small; tool selection accuracy degrades as it grows.
func Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        ToolSearchProducts,
			Description: "Search the catalog for products matching keywords. Use when the user asks for specific items to buy.",
			Parameters:  searchParameters("products"),
		},
		{
			Name:        ToolSearchStores,
			Description: "Search for stores matching keywords. Use when the user asks where to shop or wants store recommendations.",
			Parameters:  searchParameters("stores"),
		},
		{
			Name:        ToolSearchPromotions,
			Description: "Search current promotions matching keywords. Use when the user asks about discounts, sales, deals, or offers.",
			Parameters:  searchParameters("promotions"),
		},
	}
}

func searchParameters(noun string) jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"query": {
				Type:        jsonschema.String,
				Description: "Keywords describing the " + noun + " to look for.",
			},
			"maxResults": {
				Type:        jsonschema.Integer,
				Description: "Maximum number of results, between 1 and 10. Defaults to 3.",
			},
			"latitude": {
				Type:        jsonschema.Number,
				Description: "Caller latitude in decimal degrees, between -90 and 90. Provide together with longitude.",
			},
			"longitude": {
				Type:        jsonschema.Number,
				Description: "Caller longitude in decimal degrees, between -180 and 180. Provide together with latitude.",
			},
			"radius": {
				Type:        jsonschema.Integer,
				Description: "Search radius in kilometres around the caller. Must be 5, 10, or 15.",
			},
		},
		Required: []string{"query"},
	}
}
