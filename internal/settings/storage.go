package settings

import (
	"slices"

	"github.com/eugenenazirov/tawala/internal/config"
)

// Storage backend identifiers recognised by the storage package.
const (
	StorageFileSystem  = "filesystem"
	StorageVercelBlob  = "vercel_blob"
	StorageStaticFiles = "staticfiles"
)

// Storage aliases under STORAGES.
const (
	DefaultStorage = "default"
	StaticStorage  = "staticfiles"
)

const (
	StaticURL = "/static/"
	MediaURL  = "/media/"
)

var (
	fileSystemAliases = []string{"filesystem", "local", "fs"}
	vercelBlobAliases = []string{"vercel", "vercelblob", "vercel_blob", "vercel-blob"}
)

// StorageBackend is one entry of STORAGES.
type StorageBackend struct {
	Backend string
	Options map[string]string
}

// Map renders the entry with framework keys.
func (s StorageBackend) Map() map[string]any {
	out := map[string]any{"BACKEND": s.Backend}
	if len(s.Options) > 0 {
		options := make(map[string]any, len(s.Options))
		for k, v := range s.Options {
			options[k] = v
		}
		out["OPTIONS"] = options
	}
	return out
}

// MediaSettings locates user-uploaded files served from the filesystem.
type MediaSettings struct {
	URL  string
	Root string
}

// StorageBackends lists the accepted selectors per default storage backend.
func StorageBackends() map[string][]string {
	return map[string][]string{
		StorageFileSystem: append([]string(nil), fileSystemAliases...),
		StorageVercelBlob: append([]string(nil), vercelBlobAliases...),
	}
}

func materializeStorages(cfg config.StorageConfig) (map[string]StorageBackend, *MediaSettings, error) {
	backend := normalizeSelector(cfg.Backend)

	storages := map[string]StorageBackend{
		StaticStorage: {Backend: StorageStaticFiles},
	}

	var media *MediaSettings
	switch {
	case slices.Contains(fileSystemAliases, backend):
		media = &MediaSettings{URL: MediaURL, Root: cfg.MediaRoot}
		storages[DefaultStorage] = StorageBackend{
			Backend: StorageFileSystem,
			Options: map[string]string{"location": media.Root, "base_url": media.URL},
		}
	case slices.Contains(vercelBlobAliases, backend):
		storages[DefaultStorage] = StorageBackend{Backend: StorageVercelBlob}
	default:
		return nil, nil, &UnsupportedBackendError{Kind: "storage", Backend: backend, Accepted: acceptedSelectors(StorageBackends())}
	}

	return storages, media, nil
}
