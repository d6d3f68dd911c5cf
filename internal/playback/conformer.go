package playback

import "github.com/hertelukas/jellyfin/internal/models"

// ProfileConformer adjusts an annotated source's declared container and
// codec metadata for known client quirks before it is returned. It runs
// after method selection and must not change the chosen method.
type ProfileConformer interface {
	Conform(src *models.AnnotatedSource, profile *models.DeviceProfile)
}

// defaultConformer normalizes container names so clients receive a
// consistent lowercase form regardless of how the registry declared them.
type defaultConformer struct{}

func (defaultConformer) Conform(src *models.AnnotatedSource, _ *models.DeviceProfile) {
	src.NormalizeContainer()
}
