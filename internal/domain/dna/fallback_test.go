package dna

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_SweetQuiet(t *testing.T) {
	g := Fallback(Answers{Flavor: FlavorSweet, Vibe: VibeQuiet})

	assert.Equal(t, float64(SweetToothSweet), g.Vector.Sweet)
	assert.Equal(t, float64(QuietSocial), g.Vector.Social)
	require.NoError(t, g.Vector.Validate())
	for _, d := range g.Vector.Dimensions() {
		assert.Greater(t, d, 0.0)
	}
	assert.Equal(t, "甜蜜美食家", g.Title)
	assert.Equal(t, "安静聊天的甜蜜美食家，用味蕾感知世界", g.Slogan)
	assert.Equal(t, []string{FlavorSweet, VibeQuiet, DietaryNone, BudgetWhatever, "跨界"}, g.Tags)
}

func TestFallback_AllEnumeratedCombinationsInRange(t *testing.T) {
	flavors := []string{"", FlavorSpicy, FlavorLight, FlavorSweet, FlavorSourHot, FlavorSavory, FlavorAnything, "榴莲"}
	vibes := []string{"", VibeQuiet, VibeParty, VibeRitual, VibeCasual, VibePicnic, "蹦迪"}
	dietaries := []string{"", DietaryNone, DietaryNoSpicy, DietaryVeggie, DietaryNoFish, DietaryHalal, DietaryLowCarb, "不吃香菜"}
	budgets := []string{"", BudgetUnder50, Budget50to100, Budget100to200, Budget200to500, BudgetOver500, BudgetWhatever, "1000+"}

	for _, f := range flavors {
		for _, v := range vibes {
			for _, d := range dietaries {
				for _, b := range budgets {
					g := Fallback(Answers{Flavor: f, Vibe: v, Dietary: d, Budget: b})
					require.NoError(t, g.Vector.Validate(), "flavor=%q vibe=%q dietary=%q budget=%q", f, v, d, b)
					require.NotEmpty(t, g.Title)
					require.Len(t, g.Tags, 5)
				}
			}
		}
	}
}

func TestFallback_UnknownAnswersAreNeutral(t *testing.T) {
	g := Fallback(Answers{Flavor: "榴莲", Vibe: "蹦迪", Dietary: "不吃香菜", Budget: "1000+"})

	assert.Equal(t, Vector{
		Spicy:       NeutralSpicy,
		Sweet:       NeutralSweet,
		Fresh:       NeutralFresh,
		Adventurous: NeutralAdventurous,
		Social:      NeutralSocial,
		Refined:     NeutralRefined,
	}, g.Vector)
	assert.Equal(t, "美食探索者", g.Title)
	assert.Equal(t, "蹦迪的美食达人，用味蕾感知世界", g.Slogan)
}

func TestFallback_EmptyAnswersDefaultToOmnivore(t *testing.T) {
	g := Fallback(Answers{})

	assert.Equal(t, "百味鉴赏家", g.Title)
	assert.Equal(t, float64(OmnivoreAdventurous), g.Vector.Adventurous)
	assert.Equal(t, float64(NeutralSocial), g.Vector.Social)
}

func TestFallback_Deterministic(t *testing.T) {
	a := Answers{Flavor: FlavorSpicy, Vibe: VibeParty, Dietary: DietaryNoSpicy, Budget: BudgetOver500}
	assert.Equal(t, Fallback(a), Fallback(a))
}
