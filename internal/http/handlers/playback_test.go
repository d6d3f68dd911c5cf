package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hertelukas/jellyfin/internal/livetv"
	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/playback"
)

func playbackFixture(t *testing.T) (*PlaybackHandler, *livetv.InMemoryRegistry) {
	t.Helper()

	registry := livetv.NewInMemoryRegistry()
	registry.Register("item-1",
		&models.MediaSource{ID: "src-1", Protocol: models.ProtocolFile, Container: "mp4", VideoCodec: "h264", AudioCodec: "aac", Bitrate: 8_000_000},
	)

	negotiator := playback.NewNegotiator(registry, nil, nil)
	return NewPlaybackHandler(negotiator), registry
}

func TestPlaybackHandler_PlaybackInfo(t *testing.T) {
	handler, _ := playbackFixture(t)

	out, err := handler.PlaybackInfo(context.Background(), &PlaybackInfoInput{ItemID: "item-1"})
	require.NoError(t, err)

	require.Nil(t, out.Body.ErrorCode)
	require.Len(t, out.Body.MediaSources, 1)
	assert.Equal(t, models.PlayMethodDirectPlay, out.Body.MediaSources[0].Method)
	assert.NotEmpty(t, out.Body.PlaySessionID)
}

func TestPlaybackHandler_PlaybackInfo_UnknownItemIsInBand(t *testing.T) {
	handler, _ := playbackFixture(t)

	out, err := handler.PlaybackInfo(context.Background(), &PlaybackInfoInput{ItemID: "missing"})

	// Negotiation failures surface in the body, not as HTTP errors.
	require.NoError(t, err)
	require.NotNil(t, out.Body.ErrorCode)
	assert.Equal(t, models.PlaybackErrorNotFound, *out.Body.ErrorCode)
}

func TestPlaybackHandler_PlaybackInfo_QueryWinsOverBody(t *testing.T) {
	handler, _ := playbackFixture(t)

	bodyTrue := true
	input := &PlaybackInfoInput{
		ItemID:           "item-1",
		EnableDirectPlay: "false",
		Body: &playback.PlaybackBody{
			EnableDirectPlay: &bodyTrue,
		},
	}

	out, err := handler.PlaybackInfo(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Body.MediaSources, 1)

	// The query's disable wins, so direct play is off the table.
	assert.NotEqual(t, models.PlayMethodDirectPlay, out.Body.MediaSources[0].Method)
}

func TestPlaybackHandler_PlaybackInfo_BodyProfileApplies(t *testing.T) {
	handler, _ := playbackFixture(t)

	input := &PlaybackInfoInput{
		ItemID: "item-1",
		Body: &playback.PlaybackBody{
			DeviceProfile: &models.DeviceProfile{
				Name:                 "Strict",
				DeviceID:             "dev-1",
				SupportedVideoCodecs: models.StringList{"av1"},
			},
		},
	}

	out, err := handler.PlaybackInfo(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Body.MediaSources, 1)
	assert.Equal(t, models.PlayMethodTranscode, out.Body.MediaSources[0].Method)
}

func TestPlaybackHandler_PlaybackInfo_InvalidIntParam(t *testing.T) {
	handler, _ := playbackFixture(t)

	_, err := handler.PlaybackInfo(context.Background(), &PlaybackInfoInput{
		ItemID:           "item-1",
		AudioStreamIndex: "not-a-number",
	})

	assert.Error(t, err)
}

func TestPlaybackHandler_BitrateTest_Bounds(t *testing.T) {
	handler, _ := playbackFixture(t)

	_, err := handler.BitrateTest(context.Background(), &BitrateTestInput{Size: 0})
	assert.Error(t, err)

	_, err = handler.BitrateTest(context.Background(), &BitrateTestInput{Size: maxBitrateTestSize + 1})
	assert.Error(t, err)

	resp, err := handler.BitrateTest(context.Background(), &BitrateTestInput{Size: 1024})
	require.NoError(t, err)
	assert.NotNil(t, resp.Body)
}
