package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestIsTextLike(t *testing.T) {
	assert.True(t, IsTextLike("text/plain", "notes.txt"))
	assert.True(t, IsTextLike("text/markdown", "readme.md"))
	assert.True(t, IsTextLike("application/json", "data.json"))
	assert.True(t, IsTextLike("application/octet-stream", "movie.SRT"))
	assert.False(t, IsTextLike("video/mp4", "movie.mp4"))
	assert.False(t, IsTextLike("application/pdf", "doc.pdf"))
}

func TestTextFromBytes(t *testing.T) {
	assert.Equal(t, "hello", TextFromBytes([]byte("hello")))
	assert.Equal(t, "", TextFromBytes(nil))

	// Invalid UTF-8 is replaced, not dropped wholesale.
	got := TextFromBytes([]byte{'a', 0xff, 'b'})
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")

	// NUL bytes vanish.
	assert.Equal(t, "ab", TextFromBytes([]byte{'a', 0x00, 'b'}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))

	// Never splits a rune.
	s := "aé" // 'é' is 2 bytes
	got := Truncate(s, 2)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "a", got)
}

func TestWantsMetadata(t *testing.T) {
	assert.True(t, WantsMetadata("image/jpeg", 1000))
	assert.True(t, WantsMetadata("video/mp4", 1000))
	assert.True(t, WantsMetadata("audio/flac", 1000))
	assert.False(t, WantsMetadata("text/plain", 1000))

	// The size gate sits at 200 MiB.
	assert.True(t, WantsMetadata("video/mp4", 200<<20))
	assert.False(t, WantsMetadata("video/mp4", 200<<20+1))
	assert.False(t, WantsMetadata("video/mp4", 300<<20))
}

const sampleVideoProbe = `{
  "format": {
    "duration": "120.5",
    "bit_rate": "4000000",
    "format_long_name": "QuickTime / MOV"
  },
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
    {"codec_type": "audio", "codec_name": "aac", "channels": 2, "sample_rate": "48000"}
  ]
}`

func TestParseFFprobeVideo(t *testing.T) {
	meta, err := parseFFprobe([]byte(sampleVideoProbe), KindVideo)
	assert.NoError(t, err)
	assert.Equal(t, KindVideo, meta.Kind)
	assert.Nil(t, meta.Audio)
	assert.Nil(t, meta.Image)

	v := meta.Video
	assert.Equal(t, 120.5, v.DurationSecs)
	assert.Equal(t, int64(4000000), v.Bitrate)
	assert.Equal(t, "h264", v.VideoCodec)
	assert.Equal(t, 1920, v.Width)
	assert.Equal(t, 1080, v.Height)
	assert.InDelta(t, 29.97, v.FPS, 0.01)
	assert.Equal(t, "aac", v.AudioCodec)
	assert.Equal(t, 2, v.AudioChannels)
}

const sampleAudioProbe = `{
  "format": {
    "duration": "241.3",
    "bit_rate": "320000",
    "tags": {"TITLE": "Song", "Artist": "Band", "composer": "Someone"}
  },
  "streams": [
    {"codec_type": "audio", "codec_name": "mp3", "channels": 2, "sample_rate": "44100"}
  ]
}`

func TestParseFFprobeAudio(t *testing.T) {
	meta, err := parseFFprobe([]byte(sampleAudioProbe), KindAudio)
	assert.NoError(t, err)
	assert.Equal(t, KindAudio, meta.Kind)
	assert.Nil(t, meta.Video)

	a := meta.Audio
	assert.Equal(t, 241.3, a.DurationSecs)
	assert.Equal(t, 2, a.Channels)
	assert.Equal(t, "44100", a.SampleRate)

	// Tag keys normalize to lower case; unknown keys drop.
	assert.Equal(t, "Song", a.Tags["title"])
	assert.Equal(t, "Band", a.Tags["artist"])
	assert.NotContains(t, a.Tags, "composer")
}

func TestParseFFprobeMalformed(t *testing.T) {
	_, err := parseFFprobe([]byte("not json"), KindVideo)
	assert.Error(t, err)

	// Empty but valid JSON yields zeroed metadata, not an error.
	meta, err := parseFFprobe([]byte("{}"), KindVideo)
	assert.NoError(t, err)
	assert.Zero(t, meta.Video.DurationSecs)
}

func TestParseFrameRate(t *testing.T) {
	assert.Equal(t, 25.0, parseFrameRate("25/1"))
	assert.InDelta(t, 29.97, parseFrameRate("30000/1001"), 0.01)
	assert.Zero(t, parseFrameRate("0/0"))
	assert.Zero(t, parseFrameRate("garbage"))
}

func TestMediaMetadataJSONShape(t *testing.T) {
	meta := &MediaMetadata{
		Kind:  KindImage,
		Image: &ImageMeta{Width: 640, Height: 480, Format: "jpeg"},
	}
	s, err := meta.JSON()
	assert.NoError(t, err)
	assert.Contains(t, s, `"kind":"image"`)
	assert.Contains(t, s, `"width":640`)
	// Unused variants are absent entirely.
	assert.False(t, strings.Contains(s, `"video"`))
	assert.False(t, strings.Contains(s, `"audio"`))
}
