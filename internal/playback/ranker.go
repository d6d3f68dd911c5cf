package playback

import (
	"sort"

	"github.com/hertelukas/jellyfin/internal/models"
)

// RankSources orders annotated sources most-desirable first: direct play
// before direct stream before transcode, then by declared bitrate descending
// with values clipped at the ceiling so sources above it compare equal.
// The sort is stable, so sources with identical keys keep registry order.
func RankSources(sources []*models.AnnotatedSource, bitrateCeiling int64) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Method != sources[j].Method {
			return sources[i].Method < sources[j].Method
		}
		return clipBitrate(sources[i].Bitrate, bitrateCeiling) > clipBitrate(sources[j].Bitrate, bitrateCeiling)
	})
}

func clipBitrate(bitrate, ceiling int64) int64 {
	if ceiling > 0 && bitrate > ceiling {
		return ceiling
	}
	return bitrate
}
