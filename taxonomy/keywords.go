package taxonomy

// ReviewKeywords 是评论挖掘用的关键词短语表：tag text -> 短语列表。
// 匹配按小写子串进行；一条评论对同一标签最多贡献一次命中，
// 与命中多少个短语无关。
var ReviewKeywords = map[string][]string{
	"cozy":                {"cozy", "cosy", "snug", "warm lighting"},
	"romantic":            {"romantic", "date night", "special date"},
	"lively":              {"lively", "buzzy", "energetic", "party"},
	"quiet":               {"quiet", "peaceful", "calm", "relaxed"},
	"trendy":              {"trendy", "instagrammable", "aesthetic"},
	"casual":              {"casual", "laid back", "chill vibes"},
	"formal":              {"formal", "fine dining", "tasting menu"},
	"family_friendly":     {"family", "kids", "child friendly", "pram"},
	"date_night":          {"date night", "romantic", "anniversary"},
	"brunch":              {"brunch", "poached eggs", "avocado toast"},
	"quick_bite":          {"quick bite", "fast service", "grab and go"},
	"group_hang":          {"group of friends", "hen party", "stag do"},
	"business_meeting":    {"business meeting", "client lunch", "power lunch"},
	"solo_friendly":       {"solo", "ate alone", "counter seating"},
	"cocktails":           {"cocktails", "mixology", "negroni", "margarita"},
	"wine_bar":            {"wine list", "sommelier", "wine flight"},
	"craft_beer":          {"craft beer", "tap list", "ipa", "lager"},
	"vegetarian_friendly": {"vegetarian options", "vegetarian friendly"},
	"vegan_friendly":      {"vegan options", "plant based", "plant-based"},
	"halal_friendly":      {"halal", "halal friendly"},
	"gluten_free_options": {"gluten free", "gluten-free", "celiac"},
}
