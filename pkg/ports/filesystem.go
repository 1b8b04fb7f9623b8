package ports

import "io"

// FileSystem abstracts the file access of the CLI and batch encoder.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Open opens a file for streaming reads.
	Open(path string) (io.ReadCloser, error)

	// WriteFile replaces path with data. Readers never observe a
	// partially written file.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)
}
