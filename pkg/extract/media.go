package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	// Register decoders for DecodeConfig probing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/sharescan/sharescan/internal/logger"
)

// Media kinds.
const (
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"
)

// MediaMetadata is a tagged union: Kind selects which of the payload
// fields is populated. It serializes to the JSON document stored in the
// catalog.
type MediaMetadata struct {
	Kind  string     `json:"kind"`
	Image *ImageMeta `json:"image,omitempty"`
	Video *VideoMeta `json:"video,omitempty"`
	Audio *AudioMeta `json:"audio,omitempty"`
}

// ImageMeta describes image dimensions and encoding.
type ImageMeta struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// VideoMeta describes container and stream properties of a video file.
type VideoMeta struct {
	DurationSecs  float64 `json:"duration_secs"`
	Bitrate       int64   `json:"bitrate"`
	FormatName    string  `json:"format_name,omitempty"`
	VideoCodec    string  `json:"video_codec,omitempty"`
	Width         int     `json:"width,omitempty"`
	Height        int     `json:"height,omitempty"`
	FPS           float64 `json:"fps,omitempty"`
	AudioCodec    string  `json:"audio_codec,omitempty"`
	AudioChannels int     `json:"audio_channels,omitempty"`
	SampleRate    string  `json:"sample_rate,omitempty"`
}

// AudioMeta describes an audio file, including its embedded tags.
type AudioMeta struct {
	DurationSecs float64           `json:"duration_secs"`
	Bitrate      int64             `json:"bitrate"`
	SampleRate   string            `json:"sample_rate,omitempty"`
	Channels     int               `json:"channels,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
}

// JSON serializes metadata for catalog storage.
func (m *MediaMetadata) JSON() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(data), nil
}

// maxProbeSize skips metadata extraction for very large files; the
// download cost outweighs the value.
const maxProbeSize = 200 << 20 // 200 MiB

// Prober extracts media metadata from local files.
type Prober struct {
	// FFprobePath is the ffprobe binary (default "ffprobe" from PATH).
	FFprobePath string
	// Timeout bounds one ffprobe invocation.
	Timeout time.Duration
}

// NewProber returns a prober with defaults.
func NewProber() *Prober {
	return &Prober{FFprobePath: "ffprobe", Timeout: 30 * time.Second}
}

// WantsMetadata reports whether a file is worth a temp download and probe.
func WantsMetadata(mimeType string, size int64) bool {
	if size > maxProbeSize {
		return false
	}
	return strings.HasPrefix(mimeType, "image/") ||
		strings.HasPrefix(mimeType, "video/") ||
		strings.HasPrefix(mimeType, "audio/")
}

// Probe extracts metadata from a local file according to its MIME type.
// Returns nil without error for types it does not handle.
func (p *Prober) Probe(ctx context.Context, localPath, mimeType string) (*MediaMetadata, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return probeImage(localPath)
	case strings.HasPrefix(mimeType, "video/"):
		return p.probeAV(ctx, localPath, KindVideo)
	case strings.HasPrefix(mimeType, "audio/"):
		return p.probeAV(ctx, localPath, KindAudio)
	}
	return nil, nil
}

func probeImage(localPath string) (*MediaMetadata, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	return &MediaMetadata{
		Kind: KindImage,
		Image: &ImageMeta{
			Width:  cfg.Width,
			Height: cfg.Height,
			Format: format,
		},
	}, nil
}

func (p *Prober) probeAV(ctx context.Context, localPath, kind string) (*MediaMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.FFprobePath,
		"-v", "error",
		"-show_format", "-show_streams",
		"-of", "json", localPath,
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	meta, err := parseFFprobe(stdout.Bytes(), kind)
	if err != nil {
		logger.Debug("ffprobe output unparseable", "path", localPath, "error", err)
		return nil, err
	}
	return meta, nil
}

// ffprobeOutput mirrors the subset of ffprobe's JSON we consume.
type ffprobeOutput struct {
	Format struct {
		Duration       string            `json:"duration"`
		BitRate        string            `json:"bit_rate"`
		FormatLongName string            `json:"format_long_name"`
		Tags           map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Channels   int    `json:"channels"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

// audioTagKeys are the embedded tags kept from the container, normalized
// to lower case.
var audioTagKeys = map[string]bool{
	"title":  true,
	"artist": true,
	"album":  true,
	"genre":  true,
	"date":   true,
	"track":  true,
}

func parseFFprobe(data []byte, kind string) (*MediaMetadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, _ := strconv.ParseFloat(out.Format.Duration, 64)
	bitrate, _ := strconv.ParseInt(out.Format.BitRate, 10, 64)

	if kind == KindAudio {
		audio := &AudioMeta{
			DurationSecs: duration,
			Bitrate:      bitrate,
		}
		for _, s := range out.Streams {
			if s.CodecType == "audio" {
				audio.Channels = s.Channels
				audio.SampleRate = s.SampleRate
				break
			}
		}
		for k, v := range out.Format.Tags {
			lk := strings.ToLower(k)
			if audioTagKeys[lk] && v != "" {
				if audio.Tags == nil {
					audio.Tags = make(map[string]string)
				}
				audio.Tags[lk] = v
			}
		}
		return &MediaMetadata{Kind: KindAudio, Audio: audio}, nil
	}

	video := &VideoMeta{
		DurationSecs: duration,
		Bitrate:      bitrate,
		FormatName:   out.Format.FormatLongName,
	}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			video.VideoCodec = s.CodecName
			video.Width = s.Width
			video.Height = s.Height
			video.FPS = parseFrameRate(s.RFrameRate)
		case "audio":
			video.AudioCodec = s.CodecName
			video.AudioChannels = s.Channels
			video.SampleRate = s.SampleRate
		}
	}
	return &MediaMetadata{Kind: KindVideo, Video: video}, nil
}

// parseFrameRate converts ffprobe's "num/den" frame rate to a rounded
// float, 0 when malformed.
func parseFrameRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		return 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return float64(int(n/d*100+0.5)) / 100
}
