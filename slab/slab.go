// Package slab implements the append-only byte regions that back a
// document's piece table: a read-only mapping of the file as loaded, a
// private copy used to keep pointers valid across an in-place save, and
// growable heap regions for inserted bytes.
//
// Once a byte address has been handed out to a piece it stays valid for the
// lifetime of the owning Buffer: slabs are appended to or mapped read-only;
// the one exception is InsertInto/DeleteFrom, which rewrite (and may
// shrink) the tail region of a Heap slab for the piece table's fast path.
package slab

import (
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Kind identifies how a Slab's bytes are backed.
type Kind int

const (
	// Heap is a growable buffer for bytes inserted during editing.
	Heap Kind = iota
	// MmapOriginal is a read-only mapping of the file as loaded.
	MmapOriginal
	// MmapPrivate is a private copy of a previously mmapped file, used to
	// keep piece pointers valid when an in-place save remaps the original.
	MmapPrivate
)

func (k Kind) String() string {
	switch k {
	case Heap:
		return "heap"
	case MmapOriginal:
		return "mmap-original"
	case MmapPrivate:
		return "mmap-private"
	default:
		return "unknown"
	}
}

// DefaultSize is the minimum capacity of a freshly allocated Heap slab.
const DefaultSize = 1 << 20 // 1 MiB

// ID identifies a Slab within a Buffer's arena. It is stable for the
// lifetime of the Buffer even though the Slab's data slice may not be (a
// Heap slab's backing array can be grown in place by append).
type ID uint32

// Slab is one append-only or read-only byte region.
type Slab struct {
	kind Kind
	data []byte
	mm   mmap.MMap // non-nil only for mmap-backed kinds; kept for Close
	f    *os.File  // non-nil only for mmap-backed kinds; kept for Close
}

// Kind reports how the slab is backed.
func (s *Slab) Kind() Kind { return s.kind }

// Len returns the number of live bytes currently published in the slab.
func (s *Slab) Len() int { return len(s.data) }

// Cap returns the slab's current capacity.
func (s *Slab) Cap() int { return cap(s.data) }

// Bytes returns the slab's live byte range. Callers must not retain slices
// across a Heap slab's growth (use offsets, not sub-slices, for anything
// that outlives a single call).
func (s *Slab) Bytes() []byte { return s.data }

// At returns the byte range [offset, offset+length) of the slab.
func (s *Slab) At(offset, length int) []byte {
	return s.data[offset : offset+length]
}

// Close releases any OS resources (mmap, file handle) held by the slab. It
// is a no-op for Heap slabs.
func (s *Slab) Close() error {
	var err error
	if s.mm != nil {
		err = s.mm.Unmap()
	}
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Error kinds for Buffer.Load; callers discriminate on these to report
// load failures distinctly.
var (
	ErrNotFound   = errors.New("slab: file not found")
	ErrPermission = errors.New("slab: permission denied")
	ErrIsDir      = errors.New("slab: is a directory")
	ErrNotRegular = errors.New("slab: not a regular file")
	ErrOutOfMemory = errors.New("slab: allocation failed")
)

// Method selects how Buffer.Load backs the loaded file.
type Method int

const (
	// Auto picks Read for files under mmapThreshold and Mmap otherwise.
	Auto Method = iota
	Read
	Mmap
)

// mmapThreshold is the file size above which Auto prefers Mmap.
const mmapThreshold = 64 << 20 // 64 MiB

// Buffer is the slab allocator and arena owned by one document. Slabs live
// as long as the Buffer regardless of whether any piece in the current
// chain references them, because undo can resurrect an old reference.
type Buffer struct {
	slabs []*Slab
}

// NewBuffer returns an empty slab arena.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Slab returns the slab registered under id.
func (b *Buffer) Slab(id ID) *Slab {
	return b.slabs[id]
}

func (b *Buffer) register(s *Slab) ID {
	b.slabs = append(b.slabs, s)
	return ID(len(b.slabs) - 1)
}

// Alloc creates a new Heap slab with capacity at least max(minBytes,
// DefaultSize) and registers it in the arena.
func (b *Buffer) Alloc(minBytes int) (ID, *Slab) {
	capacity := DefaultSize
	if minBytes > capacity {
		capacity = minBytes
	}
	s := &Slab{kind: Heap, data: make([]byte, 0, capacity)}
	return b.register(s), s
}

// Append copies bytes onto the tail of slab and returns the offset at which
// they were written. It requires slab.Cap()-slab.Len() >= len(bytes); the
// piece table is responsible for allocating a fresh slab via Alloc when a
// Heap slab is full.
func (b *Buffer) Append(s *Slab, data []byte) (offset int, err error) {
	if s.kind != Heap {
		return 0, errors.New("slab: Append on non-heap slab")
	}
	if cap(s.data)-len(s.data) < len(data) {
		return 0, errors.Wrap(ErrOutOfMemory, "slab: Append exceeds capacity")
	}
	offset = len(s.data)
	s.data = append(s.data, data...)
	return offset, nil
}

// InsertInto splices bytes into the slab at offset, shifting any bytes past
// offset to the right. It is only ever called by the piece table's
// CacheHint fast path on the tail region belonging to the most recent
// Change of the currently open Action; callers outside that contract risk
// corrupting published piece addresses.
func (b *Buffer) InsertInto(s *Slab, offset int, data []byte) error {
	if s.kind != Heap {
		return errors.New("slab: InsertInto on non-heap slab")
	}
	if cap(s.data)-len(s.data) < len(data) {
		return errors.Wrap(ErrOutOfMemory, "slab: InsertInto exceeds capacity")
	}
	s.data = append(s.data, make([]byte, len(data))...)
	copy(s.data[offset+len(data):], s.data[offset:len(s.data)-len(data)])
	copy(s.data[offset:], data)
	return nil
}

// DeleteFrom removes length bytes starting at offset from the tail region of
// a Heap slab, shifting the remainder left. Same tail-only contract as
// InsertInto.
func (b *Buffer) DeleteFrom(s *Slab, offset, length int) error {
	if s.kind != Heap {
		return errors.New("slab: DeleteFrom on non-heap slab")
	}
	if offset+length > len(s.data) {
		return errors.New("slab: DeleteFrom out of range")
	}
	copy(s.data[offset:], s.data[offset+length:])
	s.data = s.data[:len(s.data)-length]
	return nil
}

// Load reads path into a new slab using the given method, registers it and
// returns its ID. For MmapOriginal slabs the returned *os.File is retained
// on the Slab so Close can unmap and close it.
func (b *Buffer) Load(path string, method Method) (ID, *Slab, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, errors.Wrap(ErrNotFound, path)
		}
		if os.IsPermission(err) {
			return 0, nil, errors.Wrap(ErrPermission, path)
		}
		return 0, nil, errors.Wrap(err, "slab: stat")
	}
	if fi.IsDir() {
		return 0, nil, errors.Wrap(ErrIsDir, path)
	}
	if !fi.Mode().IsRegular() {
		return 0, nil, errors.Wrap(ErrNotRegular, path)
	}

	if method == Auto {
		if fi.Size() >= mmapThreshold {
			method = Mmap
		} else {
			method = Read
		}
	}

	switch method {
	case Read:
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsPermission(err) {
				return 0, nil, errors.Wrap(ErrPermission, path)
			}
			return 0, nil, errors.Wrap(err, "slab: read")
		}
		s := &Slab{kind: Heap, data: data}
		return b.register(s), s, nil
	case Mmap:
		f, err := os.Open(path)
		if err != nil {
			if os.IsPermission(err) {
				return 0, nil, errors.Wrap(ErrPermission, path)
			}
			return 0, nil, errors.Wrap(err, "slab: open")
		}
		if fi.Size() == 0 {
			// mmap-go rejects zero-length mappings; fall back to an empty
			// heap slab rather than failing the load.
			f.Close()
			s := &Slab{kind: Heap, data: []byte{}}
			return b.register(s), s, nil
		}
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return 0, nil, errors.Wrap(err, "slab: mmap")
		}
		s := &Slab{kind: MmapOriginal, data: []byte(m), mm: m, f: f}
		return b.register(s), s, nil
	default:
		return 0, nil, errors.Errorf("slab: unknown load method %d", method)
	}
}

// Privatize copies an MmapOriginal slab's bytes into a private Heap-backed
// copy, used when an in-place save needs to remap the original file while
// keeping existing piece pointers valid (savemethod=inplace).
func (b *Buffer) Privatize(id ID) (ID, *Slab) {
	orig := b.slabs[id]
	cp := make([]byte, len(orig.data))
	copy(cp, orig.data)
	s := &Slab{kind: MmapPrivate, data: cp}
	return b.register(s), s
}

// Close tears down every slab in the arena. Must only be called at document
// teardown, after the caller has verified no piece referencing these slabs
// is still reachable.
func (b *Buffer) Close() error {
	var first error
	for _, s := range b.slabs {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
