// Package argbuilder synthesizes an ffmpeg command line from a probe
// report, a device class, and a chosen strategy. It is a pure function:
// the same inputs always produce the same argument list, grounded on the
// retrieval pack's ArgsBuilder.Build shape (ordered flag assembly via
// repeated append), generalized to emit a full -filter_complex graph,
// per-track variant map entries, and the HLS muxer block this gateway
// requires.
package argbuilder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hlsgateway/internal/probe"
	"hlsgateway/internal/strategy"
)

// Options carries the per-request values the argument list needs beyond
// the probe report and the strategy decision.
type Options struct {
	SourceURL string
	UserAgent string
	// SessionDir is the absolute directory the session writes HLS output
	// into; output path templates are rooted there.
	SessionDir string
}

// unsafeNameChars is everything the variant-stream-map grammar's
// comma/colon-delimited fields cannot carry safely.
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Build returns the ordered ffmpeg argument list for decision. It must
// not be called for strategy.NativeDirect, which never spawns a
// transcoder.
func Build(opts Options, report *probe.Report, decision strategy.Decision) []string {
	var args []string

	args = append(args,
		"-y",
		"-user_agent", opts.UserAgent,
		"-fflags", "+genpts",
		"-avoid_negative_ts", "make_zero",
	)

	args = append(args, "-i", opts.SourceURL)

	hasAudio := len(report.Audio) > 0 && decision.AudioTarget.Codec != ""
	var graph string
	if hasAudio {
		graph = buildAudioFilterGraph(len(report.Audio))
		args = append(args, "-filter_complex", graph)
	}

	args = append(args, "-map", "0:v:0")

	for _, a := range report.Audio {
		if hasAudio {
			args = append(args, "-map", fmt.Sprintf("[outa%d]", a.Ordinal))
		} else {
			args = append(args, "-map", fmt.Sprintf("0:a:%d", a.Ordinal))
		}
	}

	args = append(args, videoCodecBlock(decision, report)...)

	if hasAudio {
		args = append(args, audioCodecBlock(decision.AudioTarget)...)
	}

	args = append(args, muxerAndHLSBlock(opts.SessionDir, report, decision)...)

	return args
}

func videoCodecBlock(decision strategy.Decision, report *probe.Report) []string {
	if decision.Mode == strategy.AudioOnly {
		args := []string{"-c:v", "copy"}
		switch report.Video.CodecName {
		case "h264":
			args = append(args, "-bsf:v", "h264_mp4toannexb")
		case "hevc":
			args = append(args, "-bsf:v", "hevc_mp4toannexb")
		}
		return args
	}

	// FullTranscode / VideoOnly: re-encode.
	return []string{
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
	}
}

func audioCodecBlock(target strategy.AudioTarget) []string {
	args := []string{"-c:a", target.Codec}
	if !target.UseSourceSampleRate {
		args = append(args, "-ar", strconv.Itoa(target.SampleRate))
	}
	args = append(args,
		"-b:a", fmt.Sprintf("%dk", target.BitrateKbps),
		"-ac", strconv.Itoa(target.Channels),
	)
	return args
}

func muxerAndHLSBlock(sessionDir string, report *probe.Report, decision strategy.Decision) []string {
	args := []string{
		"-max_muxing_queue_size", "1024",
		"-f", "hls",
		"-hls_time", "6",
		"-hls_list_size", "0",
		"-hls_playlist_type", "event",
		"-hls_flags", "independent_segments+append_list",
		"-hls_allow_cache", "1",
		"-start_number", "0",
		"-master_pl_name", "main.m3u8",
	}

	if variantMap := variantStreamMap(report.Audio); variantMap != "" {
		args = append(args, "-var_stream_map", variantMap)
	}

	args = append(args,
		"-hls_segment_filename", joinPath(sessionDir, "stream_%v_%d.ts"),
		joinPath(sessionDir, "stream_%v.m3u8"),
	)

	return args
}

// variantStreamMap implements the single-video/one-audio-group grammar:
// "v:0,agroup:audio a:<ordinal>,agroup:audio,language:<lang>,name:<safe-title>"
// space-separated, one audio entry per track.
func variantStreamMap(audio []probe.AudioStream) string {
	if len(audio) == 0 {
		return "v:0"
	}

	entries := make([]string, 0, len(audio)+1)
	entries = append(entries, "v:0,agroup:audio")
	for _, a := range audio {
		name := safeName(a.Title)
		if name == "" {
			name = safeName(a.Language)
		}
		entries = append(entries, fmt.Sprintf("a:%d,agroup:audio,language:%s,name:%s",
			a.Ordinal, safeName(a.Language), name))
	}
	return strings.Join(entries, " ")
}

func safeName(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "_")
	if s == "" {
		return "und"
	}
	return s
}

func joinPath(dir, file string) string {
	if dir == "" {
		return file
	}
	return strings.TrimSuffix(dir, "/") + "/" + file
}

// buildAudioFilterGraph implements spec.md §4.3's per-track 5.1 algebra:
// enforce 5.1 layout, split into six channel labels, treble-boost center
// and front L/R, split the boosted center into three copies, mix 70/30
// into front L and R, scale the third center copy by 1.5x in place of the
// original center, then rejoin all six into a labeled 5.1 output. Label
// uniqueness across tracks comes from the _<i> suffix on every
// intermediate label.
func buildAudioFilterGraph(trackCount int) string {
	var b strings.Builder

	for i := 0; i < trackCount; i++ {
		s := strconv.Itoa(i)

		fmt.Fprintf(&b, "[0:a:%d]aformat=channel_layouts=5.1[a51_%s];", i, s)
		fmt.Fprintf(&b, "[a51_%s]channelsplit=channel_layout=5.1[FL_%s][FR_%s][FC_%s][LFE_%s][BL_%s][BR_%s];",
			s, s, s, s, s, s, s)
		fmt.Fprintf(&b, "[FC_%s]treble=f=5000:g=4,treble=f=8000:g=3[FCb_%s];", s, s)
		fmt.Fprintf(&b, "[FL_%s]treble=f=6000:g=4[FLb_%s];", s, s)
		fmt.Fprintf(&b, "[FR_%s]treble=f=6000:g=4[FRb_%s];", s, s)
		fmt.Fprintf(&b, "[FCb_%s]asplit=3[FCb1_%s][FCb2_%s][FCb3_%s];", s, s, s, s)
		fmt.Fprintf(&b, "[FLb_%s][FCb1_%s]amix=inputs=2:weights=0.7 0.3[FLm_%s];", s, s, s)
		fmt.Fprintf(&b, "[FRb_%s][FCb2_%s]amix=inputs=2:weights=0.7 0.3[FRm_%s];", s, s, s)
		fmt.Fprintf(&b, "[FCb3_%s]volume=1.5[FCs_%s];", s, s)
		fmt.Fprintf(&b, "[FLm_%s][FRm_%s][FCs_%s][LFE_%s][BL_%s][BR_%s]join=inputs=6:channel_layout=5.1[outa%d];",
			s, s, s, s, s, s, i)
	}

	return strings.TrimSuffix(b.String(), ";")
}
