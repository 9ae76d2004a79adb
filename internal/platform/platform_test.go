package platform

import "testing"

func TestSpecFor(t *testing.T) {
	tests := []struct {
		name       string
		id         ID
		wantOK     bool
		wantWidth  int
		wantHeight int
	}{
		{name: "OnlyFans", id: OnlyFans, wantOK: true, wantWidth: 1080, wantHeight: 1080},
		{name: "Instagram posts", id: InstagramPosts, wantOK: true, wantWidth: 1080, wantHeight: 1350},
		{name: "Instagram stories", id: InstagramStories, wantOK: true, wantWidth: 1080, wantHeight: 1920},
		{name: "Twitter", id: Twitter, wantOK: true, wantWidth: 1200, wantHeight: 675},
		{name: "TikTok", id: TikTok, wantOK: true, wantWidth: 1080, wantHeight: 1920},
		{name: "Unknown id", id: "myspace", wantOK: false},
		{name: "Empty id", id: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := SpecFor(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("SpecFor(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if spec.Width != tt.wantWidth || spec.Height != tt.wantHeight {
				t.Errorf("SpecFor(%q) dimensions = %dx%d, want %dx%d",
					tt.id, spec.Width, spec.Height, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestAllCoversEveryID(t *testing.T) {
	all := All()
	if len(all) != 8 {
		t.Fatalf("All() returned %d specs, want 8", len(all))
	}

	seen := map[ID]bool{}
	for _, spec := range all {
		if seen[spec.ID] {
			t.Errorf("duplicate spec for %q", spec.ID)
		}
		seen[spec.ID] = true

		if spec.DisplayName == "" {
			t.Errorf("%q has empty display name", spec.ID)
		}
		if spec.Width <= 0 || spec.Height <= 0 {
			t.Errorf("%q has invalid dimensions %dx%d", spec.ID, spec.Width, spec.Height)
		}
		if spec.CaptionLimit <= 0 {
			t.Errorf("%q has invalid caption limit %d", spec.ID, spec.CaptionLimit)
		}
		if spec.MaxHashtags <= 0 {
			t.Errorf("%q has invalid hashtag limit %d", spec.ID, spec.MaxHashtags)
		}
	}
}

func TestFolderNamesMatchIDs(t *testing.T) {
	// Archive layouts must be predictable from the request alone.
	for _, spec := range All() {
		if spec.FolderName != string(spec.ID) {
			t.Errorf("%q folder name = %q, want %q", spec.ID, spec.FolderName, spec.ID)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0].DisplayName = "mutated"
	if All()[0].DisplayName == "mutated" {
		t.Error("All() exposes internal state")
	}
}
