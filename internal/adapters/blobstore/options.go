package blobstore

import "os"

// LocalOption applies a configuration option to the LocalStore.
type LocalOption func(*LocalStore)

// WithFileMode sets the permission bits used for written files.
func WithFileMode(mode os.FileMode) LocalOption {
	return func(s *LocalStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithDirMode sets the permission bits used for created directories.
func WithDirMode(mode os.FileMode) LocalOption {
	return func(s *LocalStore) {
		if mode != 0 {
			s.dirMode = mode
		}
	}
}

// MinioOption applies a configuration option to the MinioStore.
type MinioOption func(*MinioStore)

// WithContentType sets the content type attached to uploaded objects.
func WithContentType(ct string) MinioOption {
	return func(s *MinioStore) {
		if ct != "" {
			s.contentType = ct
		}
	}
}
