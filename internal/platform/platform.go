// Package platform defines the closed set of publishing targets the export
// pipeline produces content for, along with each target's output dimensions,
// caption constraints, and archive folder name.
//
// The set is closed on purpose: adding or removing a platform is a single
// change to the ID constants and the spec table, checked at compile time by
// every switch over ID.
package platform

// ID identifies one publishing target.
type ID string

const (
	OnlyFans         ID = "onlyfans"
	Fansly           ID = "fansly"
	Fanvue           ID = "fanvue"
	InstagramPosts   ID = "instagram-posts"
	InstagramStories ID = "instagram-stories"
	InstagramReels   ID = "instagram-reels"
	Twitter          ID = "twitter"
	TikTok           ID = "tiktok"
)

// Spec holds the static export configuration for one platform.
// Icon and Color are presentation hints for the UI and carry no pipeline logic.
type Spec struct {
	ID           ID     `json:"id"`
	DisplayName  string `json:"displayName"`
	ShortName    string `json:"shortName"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	CaptionLimit int    `json:"captionLimit"`
	MaxHashtags  int    `json:"maxHashtags"`
	FolderName   string `json:"folderName"`
}

// specs is the authoritative table. Folder names match the platform id so
// archive layouts are predictable from the request alone.
var specs = []Spec{
	{
		ID:           OnlyFans,
		DisplayName:  "OnlyFans",
		ShortName:    "OF",
		Icon:         "onlyfans",
		Color:        "#00AFF0",
		Width:        1080,
		Height:       1080,
		CaptionLimit: 500,
		MaxHashtags:  5,
		FolderName:   "onlyfans",
	},
	{
		ID:           Fansly,
		DisplayName:  "Fansly",
		ShortName:    "FS",
		Icon:         "fansly",
		Color:        "#2699F7",
		Width:        1080,
		Height:       1080,
		CaptionLimit: 1000,
		MaxHashtags:  10,
		FolderName:   "fansly",
	},
	{
		ID:           Fanvue,
		DisplayName:  "Fanvue",
		ShortName:    "FV",
		Icon:         "fanvue",
		Color:        "#1A1A2E",
		Width:        1080,
		Height:       1080,
		CaptionLimit: 1000,
		MaxHashtags:  10,
		FolderName:   "fanvue",
	},
	{
		ID:           InstagramPosts,
		DisplayName:  "Instagram Posts",
		ShortName:    "IG Post",
		Icon:         "instagram",
		Color:        "#E1306C",
		Width:        1080,
		Height:       1350,
		CaptionLimit: 2200,
		MaxHashtags:  30,
		FolderName:   "instagram-posts",
	},
	{
		ID:           InstagramStories,
		DisplayName:  "Instagram Stories",
		ShortName:    "IG Story",
		Icon:         "instagram",
		Color:        "#E1306C",
		Width:        1080,
		Height:       1920,
		CaptionLimit: 2200,
		MaxHashtags:  10,
		FolderName:   "instagram-stories",
	},
	{
		ID:           InstagramReels,
		DisplayName:  "Instagram Reels",
		ShortName:    "IG Reel",
		Icon:         "instagram",
		Color:        "#E1306C",
		Width:        1080,
		Height:       1920,
		CaptionLimit: 2200,
		MaxHashtags:  30,
		FolderName:   "instagram-reels",
	},
	{
		ID:           Twitter,
		DisplayName:  "Twitter / X",
		ShortName:    "TW",
		Icon:         "twitter",
		Color:        "#1DA1F2",
		Width:        1200,
		Height:       675,
		CaptionLimit: 280,
		MaxHashtags:  5,
		FolderName:   "twitter",
	},
	{
		ID:           TikTok,
		DisplayName:  "TikTok",
		ShortName:    "TT",
		Icon:         "tiktok",
		Color:        "#010101",
		Width:        1080,
		Height:       1920,
		CaptionLimit: 2200,
		MaxHashtags:  20,
		FolderName:   "tiktok",
	},
}

// byID is derived from specs at init time for O(1) lookup.
var byID = func() map[ID]Spec {
	m := make(map[ID]Spec, len(specs))
	for _, s := range specs {
		m[s.ID] = s
	}
	return m
}()

// SpecFor returns the spec for the given platform id.
// The second return value is false for unknown ids.
func SpecFor(id ID) (Spec, bool) {
	s, ok := byID[id]
	return s, ok
}

// All returns every platform spec in declaration order.
// The returned slice is a copy; callers may modify it freely.
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}
