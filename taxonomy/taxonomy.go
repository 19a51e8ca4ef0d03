// Package taxonomy 定义静态标签目录：文案、大类、提示语、颜色。
// 目录是纯数据，tag_id 按枚举顺序从 1 开始分配，同一目录内永远稳定；
// 标签不会从数据中派生。
package taxonomy

import "github.com/rushteam/venuekit/core"

// 每个大类的默认颜色
var colorByCategory = map[core.TagCategory]string{
	core.TagCuisine:   "#F94144",
	core.TagDietary:   "#90BE6D",
	core.TagVibe:      "#577590",
	core.TagOccasion:  "#F9C74F",
	core.TagDrinks:    "#277DA1",
	core.TagSchedule:  "#F3722C",
	core.TagValue:     "#8338EC",
	core.TagVenueKind: "#4D908E",
}

type entry struct {
	text     string
	category core.TagCategory
	prompt   string
}

// 目录顺序即 tag_id 分配顺序，新标签只能追加在所属段落末尾。
var catalog = []entry{
	// CUISINE
	{"italian", core.TagCuisine, "Classic Italian spots for pasta, pizza and Aperol."},
	{"indian", core.TagCuisine, "Curries, tandoor smoke and bold spice."},
	{"japanese", core.TagCuisine, "Sushi counters, ramen dens and izakayas."},
	{"korean", core.TagCuisine, "BBQ grills, bibimbap and kimchi cravings."},
	{"thai", core.TagCuisine, "Sweet-savoury Thai plates and night-market energy."},
	{"chinese", core.TagCuisine, "Regional Chinese kitchens from dim sum to Sichuan heat."},
	{"vietnamese", core.TagCuisine, "Pho, bánh mì and herb-loaded broths."},
	{"mexican", core.TagCuisine, "Taquerias, mezcal bars and modern cantinas."},
	{"mediterranean", core.TagCuisine, "Sun-soaked mezze and grilled plates."},
	{"british", core.TagCuisine, "Modern British kitchens and proper roasts."},
	{"pub", core.TagCuisine, "True pub fare with pints and Sunday sessions."},
	{"bakery", core.TagCuisine, "Bakeries, patisseries and pastry labs."},
	{"cafe", core.TagCuisine, "Coffee-forward cafes and brunch joints."},
	{"seafood", core.TagCuisine, "Raw bars, shellfish shacks and seafood grills."},
	{"steakhouse", core.TagCuisine, "Steakhouses and grill houses."},
	{"vegan_vegetarian", core.TagCuisine, "Veggie-first kitchens and plant-based menus."},
	// DIETARY
	{"vegetarian_friendly", core.TagDietary, "Menus with strong vegetarian sections."},
	{"vegan_friendly", core.TagDietary, "Vegan-friendly options beyond token salads."},
	{"halal_friendly", core.TagDietary, "Halal-friendly kitchens."},
	{"gluten_free_options", core.TagDietary, "Staff that knows their gluten-free swaps."},
	// VIBE
	{"cozy", core.TagVibe, "Candle-lit, intimate and low-key rooms."},
	{"romantic", core.TagVibe, "Date-night lighting with wow plates."},
	{"lively", core.TagVibe, "Music up, energy high."},
	{"quiet", core.TagVibe, "Calm corners perfect for catching up."},
	{"trendy", core.TagVibe, "Design-led, camera-ready settings."},
	{"casual", core.TagVibe, "Laid-back hangouts and counter service."},
	{"formal", core.TagVibe, "White tablecloths or tasting menus."},
	{"family_friendly", core.TagVibe, "Space for prams and picky eaters."},
	// OCCASION
	{"date_night", core.TagOccasion, "Romantic nights out."},
	{"brunch", core.TagOccasion, "Sunny brunch plates and coffee refills."},
	{"quick_bite", core.TagOccasion, "In-and-out meals under an hour."},
	{"group_hang", core.TagOccasion, "Space for friend groups and celebrations."},
	{"business_meeting", core.TagOccasion, "Laptop-friendly or client-ready rooms."},
	{"solo_friendly", core.TagOccasion, "Bar seats or counter dining for one."},
	// DRINKS
	{"cocktails", core.TagDrinks, "Serious cocktails or signature serves."},
	{"wine_bar", core.TagDrinks, "Deep wine lists and low-slung lighting."},
	{"craft_beer", core.TagDrinks, "Rotating taps and local brews."},
	// SCHEDULE
	{"open_late", core.TagSchedule, "Kitchen keeps going past 11pm."},
	{"open_early", core.TagSchedule, "Serving before 8am."},
	{"sunday_open", core.TagSchedule, "Open on Sundays."},
	// VALUE
	{"great_value", core.TagValue, "Serious bang for buck."},
	{"pricey", core.TagValue, "Splurge-worthy but spendy."},
	{"hidden_gem", core.TagValue, "Under-the-radar hits that outperform their hype."},
	// CATEGORY（"cafe" 已存在于 CUISINE 段，place type 直接复用该标签）
	{"restaurant", core.TagVenueKind, "Full-service restaurants."},
	{"bar", core.TagVenueKind, "Cocktail and wine bars."},
	{"takeaway", core.TagVenueKind, "Grab-and-go friendly."},
}

// Definitions 返回完整目录，tag_id 已按枚举顺序分配。
func Definitions() []core.TagDefinition {
	defs := make([]core.TagDefinition, 0, len(catalog))
	for i, e := range catalog {
		defs = append(defs, core.TagDefinition{
			ID:         int64(i + 1),
			Text:       e.text,
			Category:   e.category,
			PromptText: e.prompt,
			Color:      colorByCategory[e.category],
		})
	}
	return defs
}

// Lookup 返回 text -> TagDefinition 的索引。
func Lookup() map[string]core.TagDefinition {
	defs := Definitions()
	out := make(map[string]core.TagDefinition, len(defs))
	for _, d := range defs {
		out[d.Text] = d
	}
	return out
}
