package catalog

import "assetgen/internal/domain"

// Builtin returns the default asset catalog for the game.
func Builtin() []domain.JobSpec {
	return []domain.JobSpec{
		{
			AssetID:          "enemies/demogorgon",
			Prompt:           "Demogorgon monster from Stranger Things, terrifying humanoid creature with petal-like head opening to reveal teeth, pale skin, long arms, menacing pose, game-ready low poly model, PBR textures",
			Style:            domain.StyleHorror,
			TargetComplexity: 10000,
		},
		{
			AssetID:          "enemies/mindFlayer",
			Prompt:           "Mind Flayer shadow monster from Stranger Things, massive dark tentacled creature, spider-like legs, shadowy ethereal appearance, ominous presence, game-ready low poly model, dark materials",
			Style:            domain.StyleHorror,
			TargetComplexity: 15000,
		},
		{
			AssetID:          "enemies/vecna",
			Prompt:           "Vecna from Stranger Things season 4, humanoid villain with burned scarred skin, vines integrated into body, menacing pose, detailed face, evil appearance, game-ready model, PBR textures",
			Style:            domain.StyleHorror,
			TargetComplexity: 20000,
		},
		{
			AssetID:          "environment/upsideDownVine",
			Prompt:           "Upside Down vine tendril from Stranger Things, organic creeping plant, dark reddish brown color, slimy texture, twisted shape, game environment asset, tileable",
			Style:            domain.StyleHorror,
			TargetComplexity: 5000,
		},
		{
			AssetID:          "environment/creelHouseDebris",
			Prompt:           "Destroyed house debris, broken wooden planks, shattered window frame, old Victorian style, weathered texture, game environment prop",
			Style:            domain.StyleRealistic,
			TargetComplexity: 8000,
		},
		{
			AssetID:          "environment/portal",
			Prompt:           "Upside Down portal gate, organic membrane-like surface, glowing red edges, pulsating texture, circular opening, Stranger Things style, game-ready effect",
			Style:            domain.StyleSciFi,
			TargetComplexity: 6000,
		},
		{
			AssetID:          "weapons/energyGun",
			Prompt:           "Futuristic energy pistol weapon, sci-fi design, glowing cyan accents, sleek metallic body, game FPS weapon model, first person view optimized",
			Style:            domain.StyleSciFi,
			TargetComplexity: 8000,
		},
		{
			AssetID:          "weapons/nailBat",
			Prompt:           "Baseball bat with nails hammered through it, Steve Harrington weapon from Stranger Things, worn wood texture, rusty metal nails, game melee weapon",
			Style:            domain.StyleRealistic,
			TargetComplexity: 5000,
		},
	}
}
