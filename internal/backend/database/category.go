package database

type Category struct {
	ID                  int64   `db:"id" json:"id"`
	Name                string  `db:"name" json:"name"`
	Description         *string `db:"description" json:"description"`
	RecyclingGuidelines *string `db:"recycling_guidelines" json:"recycling_guidelines"`
}

func stringPtr(s string) *string {
	return &s
}

// DefaultCategories is the reference data seeded on every startup.
var DefaultCategories = []Category{
	{
		Name:                "plastic",
		Description:         stringPtr("Plastic waste materials"),
		RecyclingGuidelines: stringPtr("Rinse containers before recycling. Check local guidelines for which plastics are accepted."),
	},
	{
		Name:                "paper",
		Description:         stringPtr("Paper and cardboard waste"),
		RecyclingGuidelines: stringPtr("Keep paper dry and clean. Remove any non-paper components like plastic windows from envelopes."),
	},
	{
		Name:                "metal",
		Description:         stringPtr("Metal waste including aluminum and steel"),
		RecyclingGuidelines: stringPtr("Rinse cans before recycling. Separate aluminum and steel if required by your local facility."),
	},
	{
		Name:                "glass",
		Description:         stringPtr("Glass bottles and jars"),
		RecyclingGuidelines: stringPtr("Rinse containers and remove lids. Do not recycle broken glass or glassware in curbside bins."),
	},
	{
		Name:                "organic",
		Description:         stringPtr("Biodegradable waste like food scraps"),
		RecyclingGuidelines: stringPtr("Compost fruit and vegetable scraps, eggshells, and coffee grounds. Avoid meat and dairy in home compost."),
	},
}
