package texture

import (
	"path/filepath"
	"strings"
)

// CategoryUnknown is assigned when no product name matches the leading
// path segment, or when the file sits directly under the scan root.
const CategoryUnknown = "Unknown"

// Categories lists the product names matched against the leading path
// segment, in match order. Order matters: the first substring match wins,
// so "RimWorldArtSource" resolves to RimWorld before anything else is
// tried.
var Categories = []string{
	"RimWorld",
	"Biotech",
	"Ideology",
	"Royalty",
	"Anomaly",
	"Odyssey",
}

// artSourceFolders are raw-asset folder names that mirror shipped game
// paths one level down. A leading subcategory segment equal to one of
// these is dropped so subcategories line up with in-game texture paths.
var artSourceFolders = map[string]bool{
	"RimWorldArtSource": true,
	"BiotechArtSource":  true,
	"IdeologyArtSource": true,
	"RoyaltyArtSource":  true,
	"AnomalyArtSource":  true,
	"OdysseyArtSource":  true,
}

// splitRelPath splits a root-relative path into its segments, accepting
// either native or forward-slash separators.
func splitRelPath(relPath string) []string {
	rel := filepath.ToSlash(relPath)
	rel = strings.Trim(rel, "/")
	if rel == "" || rel == "." {
		return nil
	}
	return strings.Split(rel, "/")
}

// DeriveCategory resolves the product category for a file given its path
// relative to the scan root. The leading segment is matched against
// Categories by substring containment; no match yields CategoryUnknown.
func DeriveCategory(relPath string) string {
	parts := splitRelPath(relPath)
	if len(parts) == 0 {
		return CategoryUnknown
	}
	for _, category := range Categories {
		if strings.Contains(parts[0], category) {
			return category
		}
	}
	return CategoryUnknown
}

// DeriveSubcategory resolves the subcategory for a file given its path
// relative to the scan root: the intermediate segments between the leading
// segment and the filename, joined with "/". A leading art-source folder
// segment is dropped first. Paths with fewer than three segments have no
// subcategory.
func DeriveSubcategory(relPath string) string {
	parts := splitRelPath(relPath)
	if len(parts) <= 2 {
		return ""
	}
	sub := parts[1 : len(parts)-1]
	if artSourceFolders[sub[0]] {
		sub = sub[1:]
	}
	return strings.Join(sub, "/")
}
