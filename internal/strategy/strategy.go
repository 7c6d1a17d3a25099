// Package strategy implements the decision table that chooses a
// transcoding mode for a source/device combination. It is pure: no I/O,
// deterministic, fully unit-testable.
package strategy

import (
	"strings"

	"hlsgateway/internal/device"
	"hlsgateway/internal/probe"
)

// Mode is the transcoding strategy chosen for a session.
type Mode int

const (
	// NativeDirect proxies the source bytes unchanged; no transcoder runs.
	NativeDirect Mode = iota
	// AudioOnly copies the video stream and re-encodes only audio.
	AudioOnly
	// FullTranscode re-encodes both video and audio.
	FullTranscode
	// VideoOnly is FullTranscode's refinement for a source with no audio
	// streams at all: no audio codec flags are ever emitted.
	VideoOnly
)

// String renders the wire name used in HTTP responses.
func (m Mode) String() string {
	switch m {
	case NativeDirect:
		return "NATIVE_DIRECT"
	case AudioOnly:
		return "AUDIO_ONLY"
	case FullTranscode:
		return "FULL_TRANSCODE"
	case VideoOnly:
		return "VIDEO_ONLY"
	default:
		return "UNKNOWN"
	}
}

// AudioTarget is the audio codec plan applied when a mode transcodes audio.
type AudioTarget struct {
	Codec               string
	SampleRate          int
	UseSourceSampleRate bool
	Channels            int
	BitrateKbps         int
}

// Decision is the output of Select: a mode plus the audio plan it should
// apply (zero value when the mode has no audio transcode, i.e. NativeDirect
// or VideoOnly).
type Decision struct {
	Mode        Mode
	AudioTarget AudioTarget
}

// Select chooses a Mode per spec.md §4.2's decision table. report may be
// nil when probing failed; that is treated as "unknown video codec, assume
// full transcode". requestForce is the caller's "transcode=true" flag;
// stickyForce is the session's sticky fallback flag.
func Select(report *probe.Report, dev device.Class, requestForce, stickyForce bool) Decision {
	if stickyForce || requestForce {
		return finalize(FullTranscode, report, dev)
	}

	if !dev.IsTV() {
		return finalize(FullTranscode, report, dev)
	}

	if report == nil || report.Video == nil {
		return finalize(FullTranscode, report, dev)
	}

	caps := dev.Capabilities()

	if !videoCompatible(report.Video, caps) {
		return finalize(FullTranscode, report, dev)
	}

	if audioCompatible(report.Audio, caps) {
		return Decision{Mode: NativeDirect}
	}

	return finalize(AudioOnly, report, dev)
}

// finalize applies the zero-audio VideoOnly refinement and attaches the
// audio target for any mode that actually transcodes audio.
func finalize(mode Mode, report *probe.Report, dev device.Class) Decision {
	if mode == FullTranscode && report != nil && len(report.Audio) == 0 {
		mode = VideoOnly
	}

	if mode == NativeDirect || mode == VideoOnly {
		return Decision{Mode: mode}
	}

	return Decision{Mode: mode, AudioTarget: preferredAudioTarget(dev)}
}

// preferredAudioTarget implements spec.md §4.2's "preferred audio codec":
// TV modes select AC-3 at 48kHz; browser modes select AAC at the source
// sample rate. Channel count is always six (5.1) in transcoded modes.
func preferredAudioTarget(dev device.Class) AudioTarget {
	if dev.IsTV() {
		return AudioTarget{Codec: "ac3", SampleRate: 48000, Channels: 6, BitrateKbps: 640}
	}
	return AudioTarget{Codec: "aac", UseSourceSampleRate: true, Channels: 6, BitrateKbps: 640}
}

// videoCompatible implements spec.md §4.2's video compatibility rule:
// codec allowed, profile matches by substring if reported, level within
// the codec-specific maximum if reported (level 0 means unknown and
// always passes).
func videoCompatible(v *probe.VideoStream, caps device.CapabilitySet) bool {
	if !caps.AllowedVideo[v.CodecName] {
		return false
	}

	if v.Profile != "" && !profileAllowed(v.Profile, caps.AllowedProfiles) {
		return false
	}

	if v.Level > 0 {
		max := maxLevelFor(v.CodecName, caps)
		if max > 0 && v.Level > max {
			return false
		}
	}

	return true
}

func profileAllowed(profile string, allowed []string) bool {
	lower := strings.ToLower(profile)
	for _, a := range allowed {
		if strings.Contains(lower, a) {
			return true
		}
	}
	return false
}

func maxLevelFor(codec string, caps device.CapabilitySet) int {
	switch codec {
	case "h264":
		return caps.MaxH264Level
	case "hevc":
		return caps.MaxHevcLevel
	default:
		return 0
	}
}

// audioCompatible implements spec.md §4.2's audio compatibility rule:
// every audio stream's codec must be allowed; no audio is compatible.
func audioCompatible(streams []probe.AudioStream, caps device.CapabilitySet) bool {
	for _, s := range streams {
		if !caps.AllowedAudio[s.CodecName] {
			return false
		}
	}
	return true
}
