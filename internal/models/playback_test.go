package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayMethod_String(t *testing.T) {
	tests := []struct {
		method   PlayMethod
		expected string
	}{
		{PlayMethodDirectPlay, "directplay"},
		{PlayMethodDirectStream, "directstream"},
		{PlayMethodTranscode, "transcode"},
		{PlayMethod(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.method.String())
		})
	}
}

func TestPlayMethod_JSONRoundTrip(t *testing.T) {
	for _, method := range []PlayMethod{PlayMethodDirectPlay, PlayMethodDirectStream, PlayMethodTranscode} {
		data, err := json.Marshal(method)
		require.NoError(t, err)

		var decoded PlayMethod
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, method, decoded)
	}

	// Unknown values degrade to transcode, the always-valid fallback.
	var decoded PlayMethod
	require.NoError(t, json.Unmarshal([]byte(`"weird"`), &decoded))
	assert.Equal(t, PlayMethodTranscode, decoded)
}

func TestNewPlaybackRequest_Defaults(t *testing.T) {
	req := NewPlaybackRequest("item-1")

	assert.Equal(t, "item-1", req.ItemID)
	assert.True(t, req.EnableDirectPlay)
	assert.True(t, req.EnableDirectStream)
	assert.True(t, req.EnableTranscoding)
	assert.True(t, req.AllowVideoStreamCopy)
	assert.True(t, req.AllowAudioStreamCopy)
	assert.False(t, req.AutoOpenLiveStream)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("ps-1", PlaybackErrorNotFound)

	assert.Equal(t, "ps-1", resp.PlaySessionID)
	require.NotNil(t, resp.ErrorCode)
	assert.Equal(t, PlaybackErrorNotFound, *resp.ErrorCode)
	assert.Empty(t, resp.MediaSources)
}

func TestErrorCodeForErr(t *testing.T) {
	assert.Equal(t, PlaybackErrorTimeout, ErrorCodeForErr(ErrOpenTimeout))
	assert.Equal(t, PlaybackErrorSourceUnavailable, ErrorCodeForErr(ErrSourceUnavailable))
	assert.Equal(t, PlaybackErrorSourceUnavailable, ErrorCodeForErr(ErrInvalidOpenToken))
	assert.Equal(t, PlaybackErrorNotFound, ErrorCodeForErr(ErrItemNotFound))
}
