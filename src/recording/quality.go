package recording

// qualitySetting pairs an x264 constant rate factor with an encoder speed
// preset. Tier 0 is fastest/smallest, tier 4 is lossless.
type qualitySetting struct {
	CRF    int
	Preset string
}

const (
	// QualityLossless is the tier that switches the container to Matroska;
	// lossless H.264 in MP4 plays back poorly in common players.
	QualityLossless = 4

	defaultQuality = 2
)

var qualityTable = map[int]qualitySetting{
	0: {45, "ultrafast"},
	1: {28, "fast"},
	2: {18, "medium"},
	3: {12, "slow"},
	4: {0, "veryslow"},
}

// qualityFor resolves a tier index, falling back to the balanced mid tier
// for out-of-range values.
func qualityFor(tier int) qualitySetting {
	if q, ok := qualityTable[tier]; ok {
		return q
	}
	return qualityTable[defaultQuality]
}
