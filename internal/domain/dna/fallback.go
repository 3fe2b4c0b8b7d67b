package dna

import "strings"

const (
	FlavorSpicy     = "麻辣"
	FlavorLight     = "清淡"
	FlavorSweet     = "甜口"
	FlavorSourHot   = "酸辣"
	FlavorSavory    = "咸鲜"
	FlavorAnything  = "什么都吃"
	VibeQuiet       = "安静聊天"
	VibeParty       = "热闹聚会"
	VibeRitual      = "精致仪式感"
	VibeCasual      = "随意自在"
	VibePicnic      = "户外野餐"
	DietaryNone     = "无忌口"
	DietaryNoSpicy  = "不吃辣"
	DietaryVeggie   = "素食"
	DietaryNoFish   = "不吃海鲜"
	DietaryHalal    = "清真"
	DietaryLowCarb  = "低碳水"
	BudgetUnder50   = "50以内"
	Budget50to100   = "50-100"
	Budget100to200  = "100-200"
	Budget200to500  = "200-500"
	BudgetOver500   = "500+"
	BudgetWhatever  = "看心情"
	defaultTitle    = "美食探索者"
	defaultSloganOf = "美食达人"
	defaultIndustry = "跨界"
)

// Dimension values the fallback assigns. Unrecognized answers get the neutral
// value of each dimension.
const (
	NeutralSpicy       = 50
	NeutralSweet       = 40
	NeutralFresh       = 45
	NeutralAdventurous = 55
	NeutralSocial      = 60
	NeutralRefined     = 50

	SweetToothSweet     = 85
	LightFresh          = 90
	OmnivoreAdventurous = 85
	PartySocial         = 90
	QuietSocial         = 40
	RitualRefined       = 90
)

var fallbackTitles = map[string]string{
	FlavorSpicy:    "麻辣探险家",
	FlavorLight:    "清新养生派",
	FlavorSweet:    "甜蜜美食家",
	FlavorSourHot:  "酸辣狂热者",
	FlavorSavory:   "咸鲜品味师",
	FlavorAnything: "百味鉴赏家",
}

var spicyByFlavor = map[string]float64{
	FlavorSpicy:    90,
	FlavorSourHot:  75,
	FlavorSavory:   40,
	FlavorLight:    15,
	FlavorSweet:    20,
	FlavorAnything: 55,
}

var socialByVibe = map[string]float64{
	VibeParty:  PartySocial,
	VibeQuiet:  QuietSocial,
	VibeRitual: NeutralSocial,
	VibeCasual: NeutralSocial,
	VibePicnic: 70,
}

type offset struct {
	spicy, sweet, fresh, adventurous, social, refined float64
}

var dietaryOffsets = map[string]offset{
	DietaryNoSpicy: {spicy: -40},
	DietaryVeggie:  {fresh: 10, adventurous: -5},
	DietaryNoFish:  {adventurous: -5},
	DietaryLowCarb: {sweet: -15, fresh: 5},
}

var budgetOffsets = map[string]offset{
	BudgetUnder50:  {refined: -10},
	Budget50to100:  {refined: -5},
	Budget200to500: {refined: 10},
	BudgetOver500:  {refined: 20},
}

var vibeOffsets = map[string]offset{
	VibePicnic: {adventurous: 10, fresh: 5},
}

// Fallback derives a profile from the categorical answers alone. It is total:
// every input yields a complete in-range vector.
func Fallback(a Answers) Generated {
	flavor := strings.TrimSpace(a.Flavor)
	if flavor == "" {
		flavor = FlavorAnything
	}
	vibe := strings.TrimSpace(a.Vibe)
	if vibe == "" {
		vibe = VibeCasual
	}
	dietary := strings.TrimSpace(a.Dietary)
	budget := strings.TrimSpace(a.Budget)

	v := Vector{
		Spicy:       NeutralSpicy,
		Sweet:       NeutralSweet,
		Fresh:       NeutralFresh,
		Adventurous: NeutralAdventurous,
		Social:      NeutralSocial,
		Refined:     NeutralRefined,
	}
	if s, ok := spicyByFlavor[flavor]; ok {
		v.Spicy = s
	}
	switch flavor {
	case FlavorSweet:
		v.Sweet = SweetToothSweet
	case FlavorLight:
		v.Fresh = LightFresh
	case FlavorAnything:
		v.Adventurous = OmnivoreAdventurous
	}
	if s, ok := socialByVibe[vibe]; ok {
		v.Social = s
	}
	if vibe == VibeRitual {
		v.Refined = RitualRefined
	}

	v = applyOffset(v, vibeOffsets[vibe])
	v = applyOffset(v, dietaryOffsets[dietary])
	v = applyOffset(v, budgetOffsets[budget])

	title, ok := fallbackTitles[flavor]
	sloganTitle := title
	if !ok {
		title = defaultTitle
		sloganTitle = defaultSloganOf
	}

	return Generated{
		Title:  title,
		Slogan: vibe + "的" + sloganTitle + "，用味蕾感知世界",
		Tags: []string{
			flavor,
			vibe,
			orDefault(dietary, DietaryNone),
			orDefault(budget, BudgetWhatever),
			orDefault(strings.TrimSpace(a.Industry), defaultIndustry),
		},
		Vector: v.Clamp(),
	}
}

func applyOffset(v Vector, o offset) Vector {
	v.Spicy += o.spicy
	v.Sweet += o.sweet
	v.Fresh += o.fresh
	v.Adventurous += o.adventurous
	v.Social += o.social
	v.Refined += o.refined
	return v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
