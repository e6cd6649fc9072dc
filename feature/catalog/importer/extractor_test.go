package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYouTubeKey(t *testing.T) {
	tests := []struct {
		locator string
		want    string
		ok      bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://vimeo.com/12345", "", false},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"not a link", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			got, ok := YouTubeKey.Extract(tt.locator)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternKey(t *testing.T) {
	ex, err := PatternKey(`media/(\d+)`)
	require.NoError(t, err)

	got, ok := ex.Extract("https://example.com/media/42")
	assert.True(t, ok)
	assert.Equal(t, "42", got)

	_, ok = ex.Extract("https://example.com/other")
	assert.False(t, ok)

	_, err = PatternKey(`media/\d+`)
	assert.Error(t, err)

	_, err = PatternKey(`(`)
	assert.Error(t, err)
}
