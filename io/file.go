package io

import (
	"golang.org/x/sys/unix"

	fiber "github.com/joeycumines/go-fiber"
)

// File is a raw file descriptor with operations in the three blocking
// modes. The zero File is invalid; obtain one from Open, OpenBlock or
// OpenAsync.
type File struct {
	fd   int
	pool *Pool
}

// Fd returns the underlying descriptor.
func (f File) Fd() int { return f.fd }

// OpenBlock opens path on the calling thread.
func OpenBlock(pool *Pool, path string, flags int, perm uint32) (File, error) {
	fd, err := openRetry(path, flags, perm)
	if err != nil {
		return File{}, err
	}
	return File{fd: fd, pool: pool}, nil
}

// OpenAsync starts opening path on the pool and returns the promise.
func OpenAsync(pool *Pool, path string, flags int, perm uint32) *fiber.Promise[File] {
	return submit(pool, func() (File, error) {
		fd, err := openRetry(path, flags, perm)
		if err != nil {
			return File{}, err
		}
		return File{fd: fd, pool: pool}, nil
	})
}

// Open opens path on the pool while the calling fiber awaits.
func Open(pool *Pool, c *fiber.Context, path string, flags int, perm uint32) (File, error) {
	return OpenAsync(pool, path, flags, perm).Await(c)
}

// ReadBlock reads into b on the calling thread.
func (f File) ReadBlock(b []byte) (int, error) {
	return readRetry(f.fd, b)
}

// ReadAsync starts a read on the pool and returns the promise. The caller
// must not touch b until the promise settles.
func (f File) ReadAsync(b []byte) *fiber.Promise[int] {
	return submit(f.pool, func() (int, error) {
		return readRetry(f.fd, b)
	})
}

// Read reads into b on the pool while the calling fiber awaits.
func (f File) Read(c *fiber.Context, b []byte) (int, error) {
	return f.ReadAsync(b).Await(c)
}

// WriteBlock writes b on the calling thread.
func (f File) WriteBlock(b []byte) (int, error) {
	return writeRetry(f.fd, b)
}

// WriteAsync starts a write on the pool and returns the promise. The
// caller must not touch b until the promise settles.
func (f File) WriteAsync(b []byte) *fiber.Promise[int] {
	return submit(f.pool, func() (int, error) {
		return writeRetry(f.fd, b)
	})
}

// Write writes b on the pool while the calling fiber awaits.
func (f File) Write(c *fiber.Context, b []byte) (int, error) {
	return f.WriteAsync(b).Await(c)
}

// CloseBlock closes the descriptor on the calling thread.
func (f File) CloseBlock() error {
	return unix.Close(f.fd)
}

// CloseAsync starts closing the descriptor on the pool.
func (f File) CloseAsync() *fiber.Promise[fiber.Unit] {
	return submit(f.pool, func() (fiber.Unit, error) {
		return fiber.Unit{}, unix.Close(f.fd)
	})
}

// Close closes the descriptor on the pool while the calling fiber awaits.
func (f File) Close(c *fiber.Context) error {
	_, err := f.CloseAsync().Await(c)
	return err
}

func openRetry(path string, flags int, perm uint32) (int, error) {
	for {
		fd, err := unix.Open(path, flags|unix.O_CLOEXEC, perm)
		if err != unix.EINTR {
			return fd, err
		}
	}
}

func readRetry(fd int, b []byte) (int, error) {
	for {
		n, err := unix.Read(fd, b)
		if err != unix.EINTR {
			return n, err
		}
	}
}

// writeRetry writes all of b, retrying short writes and EINTR.
func writeRetry(fd int, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := unix.Write(fd, b[total:])
		if n > 0 {
			total += n
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
