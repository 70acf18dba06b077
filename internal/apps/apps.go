// File: internal/apps/apps.go

// Package apps maps friendly application names to Android package names so
// "open maps" can launch com.google.android.apps.maps directly instead of
// spending loop iterations hunting for an icon.
package apps

import "strings"

// packages is the table of well-known applications. Multi-word names must be
// matched before their single-word suffixes ("google maps" before "maps" is
// unnecessary here because both resolve identically, but "play store" would
// never match after "store" if order mattered; Lookup normalizes instead).
var packages = map[string]string{
	// Social media
	"twitter":   "com.twitter.android",
	"x":         "com.twitter.android",
	"instagram": "com.instagram.android",
	"facebook":  "com.facebook.katana",
	"messenger": "com.facebook.orca",
	"whatsapp":  "com.whatsapp",
	"telegram":  "org.telegram.messenger",
	"snapchat":  "com.snapchat.android",
	"tiktok":    "com.zhiliaoapp.musically",
	"linkedin":  "com.linkedin.android",
	"pinterest": "com.pinterest",
	"reddit":    "com.reddit.frontpage",

	// Google apps
	"gmail":        "com.google.android.gm",
	"chrome":       "com.android.chrome",
	"youtube":      "com.google.android.youtube",
	"maps":         "com.google.android.apps.maps",
	"google maps":  "com.google.android.apps.maps",
	"photos":       "com.google.android.apps.photos",
	"drive":        "com.google.android.apps.docs",
	"google drive": "com.google.android.apps.docs",
	"play store":   "com.android.vending",
	"google play":  "com.android.vending",
	"meet":         "com.google.android.apps.meetings",
	"google meet":  "com.google.android.apps.meetings",

	// System apps
	"messages":   "com.google.android.apps.messaging",
	"phone":      "com.android.dialer",
	"dialer":     "com.android.dialer",
	"contacts":   "com.android.contacts",
	"settings":   "com.android.settings",
	"calendar":   "com.google.android.calendar",
	"camera":     "com.android.camera",
	"calculator": "com.android.calculator2",
	"clock":      "com.android.deskclock",
	"files":      "com.android.documentsui",

	// Other popular apps
	"spotify":         "com.spotify.music",
	"netflix":         "com.netflix.mediaclient",
	"amazon":          "com.amazon.mShop.android.shopping",
	"uber":            "com.ubercab",
	"lyft":            "me.lyft.android",
	"microsoft teams": "com.microsoft.teams",
	"teams":           "com.microsoft.teams",
	"zoom":            "us.zoom.videomeetings",
	"outlook":         "com.microsoft.office.outlook",
	"slack":           "com.slack",
}

// Lookup resolves a friendly app name to its package name.
func Lookup(name string) (string, bool) {
	pkg, ok := packages[strings.ToLower(strings.TrimSpace(name))]
	return pkg, ok
}

// FriendlyName maps a package name back to a human-readable app name,
// falling back to the last dotted segment of the package. When several
// friendly names share a package the lexicographically first one wins, so the
// result is deterministic.
func FriendlyName(pkg string) string {
	best := ""
	for name, p := range packages {
		if p == pkg && (best == "" || name < best) {
			best = name
		}
	}
	if best != "" {
		return best
	}
	if i := strings.LastIndex(pkg, "."); i >= 0 && i < len(pkg)-1 {
		return pkg[i+1:]
	}
	return pkg
}

// Names returns every known friendly name. Iteration order is unspecified.
func Names() []string {
	out := make([]string, 0, len(packages))
	for name := range packages {
		out = append(out, name)
	}
	return out
}
