// Package probe invokes ffprobe against a remote media source and parses
// the structured report of its streams.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"hlsgateway/internal/logging"
	"hlsgateway/internal/metrics"
)

// ErrNoVideoStream is returned when the source has no video stream at all.
var ErrNoVideoStream = errors.New("probe: no video stream found")

// VideoStream describes the single primary video track kept from a probe.
type VideoStream struct {
	CodecName string
	Profile   string
	Level     int
}

// AudioStream describes one audio track, numbered both by its absolute
// index in the source container and by its ordinal among audio tracks.
type AudioStream struct {
	AbsoluteIndex int
	Ordinal       int
	Language      string
	Title         string
	CodecName     string
	SampleRate    int
	Channels      int
}

// SubtitleStream describes one text-based subtitle track.
type SubtitleStream struct {
	AbsoluteIndex int
	Language      string
	Title         string
	CodecName     string
}

// Report is the structured result of probing a source URL.
type Report struct {
	Video     *VideoStream
	Audio     []AudioStream
	Subtitles []SubtitleStream
	Duration  float64
}

// textSubtitleCodecs is the exact set of subtitle codecs the downstream
// text-VTT extractor can handle; anything else is dropped silently.
var textSubtitleCodecs = map[string]bool{
	"subrip":   true,
	"webvtt":   true,
	"ass":      true,
	"ssa":      true,
	"mov_text": true,
	"mpl2":     true,
	"text":     true,
}

type ffprobeStream struct {
	Index      int               `json:"index"`
	CodecType  string            `json:"codec_type"`
	CodecName  string            `json:"codec_name"`
	Profile    string            `json:"profile"`
	Level      int               `json:"level"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

// Probe runs ffprobe against sourceURL and returns a structured Report.
// The call blocks the caller until ffprobe terminates or timeout elapses;
// there are no retries.
func Probe(ctx context.Context, ffprobePath, sourceURL string, timeout time.Duration) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		sourceURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	metrics.ProbeDuration.Observe(time.Since(start).Seconds())
	if runErr != nil {
		return nil, fmt.Errorf("probe: ffprobe failed: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("probe: unparsable ffprobe output: %w", err)
	}

	report, err := fromFFprobe(out)
	if err != nil {
		return nil, err
	}

	logging.Debug("probe: %s -> video=%v audio=%d subs=%d duration=%.1fs",
		sourceURL, report.Video, len(report.Audio), len(report.Subtitles), report.Duration)

	return report, nil
}

func fromFFprobe(out ffprobeOutput) (*Report, error) {
	report := &Report{}

	sorted := make([]ffprobeStream, len(out.Streams))
	copy(sorted, out.Streams)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	audioOrdinal := 0
	for _, s := range sorted {
		switch s.CodecType {
		case "video":
			if report.Video == nil {
				report.Video = &VideoStream{
					CodecName: s.CodecName,
					Profile:   s.Profile,
					Level:     s.Level,
				}
			}
		case "audio":
			sampleRate, _ := strconv.Atoi(s.SampleRate)
			report.Audio = append(report.Audio, AudioStream{
				AbsoluteIndex: s.Index,
				Ordinal:       audioOrdinal,
				Language:      tagOrDefault(s.Tags, "language", "und"),
				Title:         tagOrDefault(s.Tags, "title", ""),
				CodecName:     s.CodecName,
				SampleRate:    sampleRate,
				Channels:      s.Channels,
			})
			audioOrdinal++
		case "subtitle":
			if textSubtitleCodecs[s.CodecName] {
				report.Subtitles = append(report.Subtitles, SubtitleStream{
					AbsoluteIndex: s.Index,
					Language:      tagOrDefault(s.Tags, "language", "und"),
					Title:         tagOrDefault(s.Tags, "title", ""),
					CodecName:     s.CodecName,
				})
			}
		}
	}

	if report.Video == nil {
		return nil, ErrNoVideoStream
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		report.Duration = d
	}

	return report, nil
}

func tagOrDefault(tags map[string]string, key, def string) string {
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return def
}
