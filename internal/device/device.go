// Package device classifies an HTTP request's User-Agent into a device
// class and exposes the per-brand capability table used by the strategy
// selector. The table is design-time data, not configuration.
package device

import "strings"

// Kind distinguishes a television client from everything else.
type Kind int

const (
	// Browser covers any non-TV device.
	Browser Kind = iota
	// TV covers a television client, further distinguished by Brand.
	TV
)

// Brand identifies a television's platform family.
type Brand string

const (
	BrandSamsung   Brand = "samsung"
	BrandLG        Brand = "lg"
	BrandAndroidTV Brand = "androidtv"
	BrandGeneric   Brand = "generic"
	BrandNone      Brand = ""
)

// Class is the classification of an inbound client.
type Class struct {
	Kind  Kind
	Brand Brand
}

// IsTV reports whether the class is any television brand.
func (c Class) IsTV() bool { return c.Kind == TV }

// CapabilitySet describes what a device class can play natively.
type CapabilitySet struct {
	AllowedVideo    map[string]bool
	MaxH264Level    int
	MaxHevcLevel    int
	AllowedAudio    map[string]bool
	AllowedProfiles []string
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

var capabilities = map[Brand]CapabilitySet{
	BrandSamsung: {
		AllowedVideo:    set("h264", "hevc"),
		MaxH264Level:    51,
		MaxHevcLevel:    153,
		AllowedAudio:    set("aac", "ac3", "eac3", "mp3"),
		AllowedProfiles: []string{"baseline", "main", "high", "main 10"},
	},
	BrandLG: {
		AllowedVideo:    set("h264", "hevc"),
		MaxH264Level:    51,
		MaxHevcLevel:    153,
		AllowedAudio:    set("aac", "ac3", "eac3", "mp3"),
		AllowedProfiles: []string{"baseline", "main", "high", "main 10"},
	},
	BrandAndroidTV: {
		AllowedVideo:    set("h264", "hevc", "vp9"),
		MaxH264Level:    52,
		MaxHevcLevel:    156,
		AllowedAudio:    set("aac", "ac3", "eac3", "opus", "mp3"),
		AllowedProfiles: []string{"baseline", "main", "high", "main 10", "high10"},
	},
	BrandGeneric: {
		AllowedVideo:    set("h264", "hevc"),
		MaxH264Level:    51,
		MaxHevcLevel:    153,
		AllowedAudio:    set("aac", "ac3", "eac3", "mp3"),
		AllowedProfiles: []string{"baseline", "main", "high", "main 10"},
	},
}

// Capabilities returns the capability set for the class's TV brand. It
// panics if called on a non-TV class; callers must check IsTV first.
func (c Class) Capabilities() CapabilitySet {
	if !c.IsTV() {
		panic("device: Capabilities() called on a non-TV class")
	}
	cs, ok := capabilities[c.Brand]
	if !ok {
		return capabilities[BrandGeneric]
	}
	return cs
}

// Classify derives a device class from a request's User-Agent header and
// an explicit device hint (the "device" query parameter, e.g. "tv").
func Classify(userAgent, deviceHint string) Class {
	ua := strings.ToLower(userAgent)
	hint := strings.ToLower(deviceHint)

	if brand := brandFromUA(ua); brand != BrandNone {
		return Class{Kind: TV, Brand: brand}
	}

	if hint == "tv" || strings.Contains(ua, "smarttv") || strings.Contains(ua, "hbbtv") ||
		strings.Contains(ua, "googletv") {
		return Class{Kind: TV, Brand: BrandGeneric}
	}

	return Class{Kind: Browser}
}

func brandFromUA(ua string) Brand {
	switch {
	case strings.Contains(ua, "tizen") || strings.Contains(ua, "samsungbrowser"):
		return BrandSamsung
	case strings.Contains(ua, "webos") || strings.Contains(ua, "lg browser") || strings.Contains(ua, "netcast"):
		return BrandLG
	case strings.Contains(ua, "android tv") || strings.Contains(ua, "aft") || strings.Contains(ua, "chromecast"):
		return BrandAndroidTV
	default:
		return BrandNone
	}
}
