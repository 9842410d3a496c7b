// Package mmfile memory-maps a read-only file for the volume/database
// readers that need random access to a large artifact without copying it
// into the Go heap. Platforms without an mmap syscall fall back to a plain
// read; on unix, a file too large for the host address space is rejected
// with an error.
package mmfile

// Map maps the file at path read-only and returns its contents along with a
// cleanup function that unmaps it. Callers must not retain the returned
// slice past calling cleanup.
func Map(path string) (data []byte, cleanup func() error, err error) {
	return mapFile(path)
}
