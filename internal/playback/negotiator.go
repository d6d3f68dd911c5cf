package playback

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hertelukas/jellyfin/internal/models"
)

// MediaSourceCatalog is the read side of the source registry.
type MediaSourceCatalog interface {
	// MediaSources returns the registered sources for an item in registry
	// order. Returns models.ErrItemNotFound for unknown items.
	MediaSources(ctx context.Context, itemID string) ([]*models.MediaSource, error)
}

// DeviceProfileResolver looks up a stored capability profile by device id.
type DeviceProfileResolver interface {
	// ResolveProfile returns models.ErrDeviceProfileNotFound when no
	// profile is stored for the device.
	ResolveProfile(ctx context.Context, deviceID string) (*models.DeviceProfile, error)
}

// LiveOpener opens and resolves live stream sessions.
type LiveOpener interface {
	OpenLiveStream(ctx context.Context, req *models.LiveStreamRequest) (*models.LiveStreamResponse, error)

	// AttachedSource returns the source of an already-open live stream.
	// Returns models.ErrLiveStreamNotFound for unknown ids.
	AttachedSource(ctx context.Context, liveStreamID string) (*models.MediaSource, error)
}

// Negotiator resolves playback requests into annotated, ranked source
// lists. Failures surface as in-band error codes on the response rather
// than transport errors, so every negotiation yields a response.
type Negotiator struct {
	catalog   MediaSourceCatalog
	profiles  DeviceProfileResolver
	opener    LiveOpener
	selector  *Selector
	conformer ProfileConformer
	logger    *slog.Logger
}

// NewNegotiator creates a negotiator. The opener may be nil when live
// sources are not served.
func NewNegotiator(catalog MediaSourceCatalog, profiles DeviceProfileResolver, opener LiveOpener) *Negotiator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Negotiator{
		catalog:   catalog,
		profiles:  profiles,
		opener:    opener,
		selector:  NewSelector(logger),
		conformer: defaultConformer{},
		logger:    logger,
	}
}

// WithLogger sets the logger used for negotiation diagnostics.
func (n *Negotiator) WithLogger(logger *slog.Logger) *Negotiator {
	if logger != nil {
		n.logger = logger
		n.selector = NewSelector(logger)
	}
	return n
}

// WithConformer replaces the post-selection profile conformer.
func (n *Negotiator) WithConformer(c ProfileConformer) *Negotiator {
	if c != nil {
		n.conformer = c
	}
	return n
}

// Negotiate annotates and ranks the item's sources for the requesting
// device. A fresh play session id is generated per call and carried on the
// response, including error responses.
func (n *Negotiator) Negotiate(ctx context.Context, req *models.PlaybackRequest) *models.PlaybackResponse {
	playSessionID := uuid.NewString()
	logger := n.logger.With(
		slog.String("item_id", req.ItemID),
		slog.String("play_session_id", playSessionID),
	)

	profile := n.resolveProfile(ctx, req, logger)

	sources, err := n.collectSources(ctx, req)
	if err != nil {
		logger.Warn("source lookup failed", slog.String("error", err.Error()))
		return models.NewErrorResponse(playSessionID, models.ErrorCodeForErr(err))
	}
	if len(sources) == 0 {
		logger.Warn("no sources matched request",
			slog.String("media_source_id", req.MediaSourceID))
		return models.NewErrorResponse(playSessionID, models.PlaybackErrorNotFound)
	}

	annotated := make([]*models.AnnotatedSource, 0, len(sources))
	for _, src := range sources {
		annotated = append(annotated, n.selector.Annotate(src, profile, req))
	}

	// Ranking only applies when a profile constrained the selection;
	// without one the registry order is already authoritative.
	if profile != nil {
		RankSources(annotated, req.MaxStreamingBitrate)
	}

	if req.AutoOpenLiveStream {
		var openErr error
		annotated, openErr = n.autoOpen(ctx, req, profile, annotated, playSessionID, logger)
		if openErr != nil {
			return models.NewErrorResponse(playSessionID, models.ErrorCodeForErr(openErr))
		}
	}

	for _, src := range annotated {
		n.conformer.Conform(src, profile)
	}

	logger.Info("playback negotiated",
		slog.Int("source_count", len(annotated)),
		slog.String("top_method", annotated[0].Method.String()),
	)

	return &models.PlaybackResponse{
		MediaSources:  annotated,
		PlaySessionID: playSessionID,
	}
}

// resolveProfile prefers the inlined profile and falls back to the stored
// one for the device. A missing profile is not an error: annotation then
// uses request policy only.
func (n *Negotiator) resolveProfile(ctx context.Context, req *models.PlaybackRequest, logger *slog.Logger) *models.DeviceProfile {
	if req.DeviceProfile != nil {
		return req.DeviceProfile
	}
	if req.DeviceID == "" || n.profiles == nil {
		return nil
	}
	profile, err := n.profiles.ResolveProfile(ctx, req.DeviceID)
	if err != nil {
		logger.Debug("no stored profile for device",
			slog.String("device_id", req.DeviceID),
			slog.String("error", err.Error()))
		return nil
	}
	return profile
}

// collectSources gathers the candidate sources, honoring the narrowing
// fields: an explicit live stream id resolves to that single attached
// source, and an explicit media source id filters the item's registry
// entries.
func (n *Negotiator) collectSources(ctx context.Context, req *models.PlaybackRequest) ([]*models.MediaSource, error) {
	if req.LiveStreamID != "" {
		if n.opener == nil {
			return nil, models.ErrLiveStreamNotFound
		}
		src, err := n.opener.AttachedSource(ctx, req.LiveStreamID)
		if err != nil {
			return nil, err
		}
		return []*models.MediaSource{src}, nil
	}

	sources, err := n.catalog.MediaSources(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.MediaSourceID == "" {
		return sources, nil
	}
	for _, src := range sources {
		if src.ID == req.MediaSourceID {
			return []*models.MediaSource{src}, nil
		}
	}
	return nil, nil
}

// autoOpen opens the chosen live source in-line and narrows the response
// to exactly that now-attached source. Sources that are not live, or are
// already attached, pass through untouched.
func (n *Negotiator) autoOpen(ctx context.Context, req *models.PlaybackRequest, profile *models.DeviceProfile, annotated []*models.AnnotatedSource, playSessionID string, logger *slog.Logger) ([]*models.AnnotatedSource, error) {
	chosen := annotated[0]
	if !chosen.RequiresOpening || chosen.IsAttached() {
		return annotated, nil
	}
	if n.opener == nil {
		return nil, models.ErrSourceUnavailable
	}

	resp, err := n.opener.OpenLiveStream(ctx, &models.LiveStreamRequest{
		OpenToken:     chosen.OpenToken,
		ItemID:        req.ItemID,
		UserID:        req.UserID,
		PlaySessionID: playSessionID,
	})
	if err != nil {
		logger.Warn("auto-open failed",
			slog.String("source_id", chosen.ID),
			slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("live source auto-opened",
		slog.String("source_id", chosen.ID),
		slog.String("live_stream_id", resp.MediaSource.LiveStreamID))

	attached := n.selector.Annotate(resp.MediaSource, profile, req)
	return []*models.AnnotatedSource{attached}, nil
}
