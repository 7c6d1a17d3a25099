package strategy

import (
	"testing"

	"hlsgateway/internal/device"
	"hlsgateway/internal/probe"
)

func samsungTV() device.Class { return device.Class{Kind: device.TV, Brand: device.BrandSamsung} }
func browser() device.Class   { return device.Class{Kind: device.Browser} }

func TestSelect_StickyOrForcedAlwaysFullTranscode(t *testing.T) {
	report := &probe.Report{
		Video: &probe.VideoStream{CodecName: "h264", Level: 40},
		Audio: []probe.AudioStream{{CodecName: "ac3"}},
	}

	d := Select(report, samsungTV(), true, false)
	if d.Mode != FullTranscode {
		t.Errorf("requestForce: Mode = %v, want FullTranscode", d.Mode)
	}

	d = Select(report, samsungTV(), false, true)
	if d.Mode != FullTranscode {
		t.Errorf("stickyForce: Mode = %v, want FullTranscode", d.Mode)
	}
}

func TestSelect_BrowserAlwaysFullTranscode(t *testing.T) {
	report := &probe.Report{
		Video: &probe.VideoStream{CodecName: "h264", Profile: "High", Level: 30},
		Audio: []probe.AudioStream{{CodecName: "aac"}},
	}

	d := Select(report, browser(), false, false)
	if d.Mode != FullTranscode {
		t.Errorf("Mode = %v, want FullTranscode", d.Mode)
	}
	if d.AudioTarget.Codec != "aac" || !d.AudioTarget.UseSourceSampleRate {
		t.Errorf("AudioTarget = %+v, want aac/source-rate", d.AudioTarget)
	}
}

func TestSelect_ProbeFailureAssumesFullTranscode(t *testing.T) {
	d := Select(nil, samsungTV(), false, false)
	if d.Mode != FullTranscode {
		t.Errorf("Mode = %v, want FullTranscode", d.Mode)
	}
}

func TestSelect_TVFullyCompatibleIsNativeDirect(t *testing.T) {
	report := &probe.Report{
		Video: &probe.VideoStream{CodecName: "h264", Profile: "High", Level: 40},
		Audio: []probe.AudioStream{{CodecName: "ac3"}},
	}

	d := Select(report, samsungTV(), false, false)
	if d.Mode != NativeDirect {
		t.Errorf("Mode = %v, want NativeDirect", d.Mode)
	}
}

func TestSelect_TVVideoOKAudioIncompatibleIsAudioOnly(t *testing.T) {
	report := &probe.Report{
		Video: &probe.VideoStream{CodecName: "h264", Profile: "High", Level: 40},
		Audio: []probe.AudioStream{{CodecName: "dts"}},
	}

	d := Select(report, samsungTV(), false, false)
	if d.Mode != AudioOnly {
		t.Errorf("Mode = %v, want AudioOnly", d.Mode)
	}
	if d.AudioTarget.Codec != "ac3" || d.AudioTarget.SampleRate != 48000 {
		t.Errorf("AudioTarget = %+v, want ac3/48000", d.AudioTarget)
	}
}

func TestSelect_TVVideoIncompatibleCodecIsFullTranscode(t *testing.T) {
	report := &probe.Report{
		Video: &probe.VideoStream{CodecName: "vp9"},
		Audio: []probe.AudioStream{{CodecName: "ac3"}},
	}

	d := Select(report, samsungTV(), false, false)
	if d.Mode != FullTranscode {
		t.Errorf("Mode = %v, want FullTranscode", d.Mode)
	}
}

func TestSelect_TVVideoLevelTooHighIsFullTranscode(t *testing.T) {
	report := &probe.Report{
		Video: &probe.VideoStream{CodecName: "h264", Profile: "High", Level: 52},
		Audio: []probe.AudioStream{{CodecName: "ac3"}},
	}

	d := Select(report, samsungTV(), false, false)
	if d.Mode != FullTranscode {
		t.Errorf("Mode = %v, want FullTranscode", d.Mode)
	}
}

func TestSelect_UnknownLevelAlwaysPasses(t *testing.T) {
	report := &probe.Report{
		Video: &probe.VideoStream{CodecName: "h264", Profile: "High", Level: 0},
		Audio: []probe.AudioStream{{CodecName: "ac3"}},
	}

	d := Select(report, samsungTV(), false, false)
	if d.Mode != NativeDirect {
		t.Errorf("Mode = %v, want NativeDirect", d.Mode)
	}
}

func TestSelect_ZeroAudioBecomesVideoOnly(t *testing.T) {
	report := &probe.Report{Video: &probe.VideoStream{CodecName: "vp9"}}

	d := Select(report, browser(), false, false)
	if d.Mode != VideoOnly {
		t.Errorf("Mode = %v, want VideoOnly", d.Mode)
	}
	if d.AudioTarget != (AudioTarget{}) {
		t.Errorf("AudioTarget = %+v, want zero value", d.AudioTarget)
	}
}

func TestSelect_ZeroAudioOnTVIsNativeDirect(t *testing.T) {
	report := &probe.Report{Video: &probe.VideoStream{CodecName: "h264", Profile: "High", Level: 30}}

	d := Select(report, samsungTV(), false, false)
	if d.Mode != NativeDirect {
		t.Errorf("Mode = %v, want NativeDirect (no audio is vacuously compatible)", d.Mode)
	}
}

func TestMode_String(t *testing.T) {
	cases := map[Mode]string{
		NativeDirect:  "NATIVE_DIRECT",
		AudioOnly:     "AUDIO_ONLY",
		FullTranscode: "FULL_TRANSCODE",
		VideoOnly:     "VIDEO_ONLY",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", m, got, want)
		}
	}
}
