package node

import "strings"

// RegionOther is assigned when no keyword matches.
const RegionOther = "Other"

type regionRule struct {
	tag      string
	keywords []string
}

// Rules are scanned in declaration order; the first match wins, so more
// specific entries must come before ones sharing a substring.
var regionRules = []regionRule{
	{"Hong Kong", []string{"hk", "hong kong", "hongkong", "香港"}},
	{"Japan", []string{"jp", "japan", "tokyo", "日本", "东京"}},
	{"Singapore", []string{"sg", "singapore", "新加坡", "狮城"}},
	{"USA", []string{"us", "america", "usa", "美国"}},
	{"Korea", []string{"kr", "korea", "seoul", "韩国", "首尔"}},
	{"Taiwan", []string{"tw", "taiwan", "台湾"}},
	{"Canada", []string{"ca", "canada", "加拿大"}},
	{"UK", []string{"uk", "britain", "london", "英国", "伦敦"}},
	{"Germany", []string{"de", "germany", "frankfurt", "德国"}},
	{"India", []string{"in", "india", "mumbai", "印度"}},
	{"Russia", []string{"ru", "russia", "moscow", "俄罗斯"}},
}

// ClassifyRegion infers a region tag from a node display name. Matching is a
// best-effort case-insensitive substring scan; ambiguous names resolve to the
// first rule declared.
func ClassifyRegion(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range regionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.tag
			}
		}
	}
	return RegionOther
}
