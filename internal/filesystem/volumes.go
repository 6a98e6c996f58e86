package filesystem

import (
	"path/filepath"
	"sort"
	"strings"
)

// unknownVolume labels paths outside every configured mount.
const unknownVolume = "unknown"

// VolumeResolver maps file paths to mount names for metric labels. Lookups
// use longest-prefix matching on absolute paths, so a nested mount beats
// its parent.
type VolumeResolver struct {
	// sorted longest prefix first
	mounts []mount
}

type mount struct {
	prefix string
	name   string
}

// NewVolumeResolver builds a resolver from volume name to mount path:
//
//	NewVolumeResolver(map[string]string{
//	    "textures": "/textures",
//	    "cache":    "/cache",
//	    "database": "/database",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]mount, 0, len(volumes))
	for name, path := range volumes {
		prefix, err := filepath.Abs(path)
		if err != nil {
			prefix = path
		}
		mounts = append(mounts, mount{
			prefix: strings.TrimSuffix(prefix, "/"),
			name:   name,
		})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].prefix) > len(mounts[j].prefix)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for path, or "unknown" when no mount
// covers it. A nil resolver resolves everything to "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return unknownVolume
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return unknownVolume
	}

	for _, m := range vr.mounts {
		// Match whole path components only, so /textures never claims
		// /textures-old
		if abs == m.prefix || strings.HasPrefix(abs, m.prefix+"/") {
			return m.name
		}
	}
	return unknownVolume
}

// defaultResolver serves lookups for configs that do not carry their own.
var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver installs the package-level resolver. Call once
// at startup, before any retried operation runs.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}
