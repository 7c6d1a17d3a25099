package device

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		userAgent  string
		deviceHint string
		wantKind   Kind
		wantBrand  Brand
	}{
		{"samsung tizen", "Mozilla/5.0 (SMART-TV; Tizen 6.0)", "", TV, BrandSamsung},
		{"lg webos", "Mozilla/5.0 (Web0S; Linux) NetCast", "", TV, BrandLG},
		{"android tv", "Mozilla/5.0 (Linux; Android TV 10)", "", TV, BrandAndroidTV},
		{"generic hint", "curl/8.0", "tv", TV, BrandGeneric},
		{"chrome browser", "Mozilla/5.0 (Windows NT 10.0) Chrome/120", "", Browser, BrandNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.userAgent, tt.deviceHint)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Kind == TV && got.Brand != tt.wantBrand {
				t.Errorf("Brand = %v, want %v", got.Brand, tt.wantBrand)
			}
		})
	}
}

func TestCapabilities_UnknownBrandFallsBackToGeneric(t *testing.T) {
	c := Class{Kind: TV, Brand: Brand("vizio")}
	cs := c.Capabilities()
	if !cs.AllowedVideo["h264"] {
		t.Error("expected generic capability fallback to allow h264")
	}
}

func TestCapabilities_PanicsOnBrowser(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic calling Capabilities() on a browser class")
		}
	}()
	Class{Kind: Browser}.Capabilities()
}
