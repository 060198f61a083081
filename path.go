package fiber

import (
	"strconv"
	"sync/atomic"
)

// PathKind discriminates the two ways a [Path] can be constructed.
type PathKind uint8

const (
	// PathNamed is a path built from a string identifier in the global
	// namespace. Two named paths with the same name compare equal.
	PathNamed PathKind = iota

	// PathUnique is a process-unique path. Two unique paths never compare
	// equal unless one is a copy of the other.
	PathUnique
)

// uniquePathCounter generates process-unique path identifiers.
// It starts at 1 so the zero Path is never a valid unique path.
var uniquePathCounter atomic.Uint64

// Path is the immutable, structural name of a fiber or an event.
//
// Paths are comparable and usable as map keys. The zero Path is not a valid
// identifier; use [NamedPath] or [UniquePath].
type Path struct {
	name string
	id   uint64
	kind PathKind
}

// NamedPath returns the path for the given name in the global namespace.
func NamedPath(name string) Path {
	return Path{kind: PathNamed, name: name}
}

// UniquePath returns a fresh process-unique path. It never collides with any
// other path constructed in this process.
func UniquePath() Path {
	return Path{kind: PathUnique, id: uniquePathCounter.Add(1)}
}

// Kind reports how the path was constructed.
func (p Path) Kind() PathKind { return p.kind }

// Name returns the identifier of a named path, or "" for unique paths.
func (p Path) Name() string { return p.name }

// IsZero reports whether p is the zero value. NamedPath("") equals the zero
// value, so IsZero reports true for it as well.
func (p Path) IsZero() bool { return p == Path{} }

// String implements [fmt.Stringer] for diagnostics and logging.
func (p Path) String() string {
	if p.kind == PathNamed {
		return p.name
	}
	return "#" + strconv.FormatUint(p.id, 10)
}
