// Package spmc streams records out of a kmerdb database to a fixed pool
// of worker goroutines: one producer goroutine reads raw byte blocks off
// disk and hands each to exactly one idle consumer slot.
//
// Each consumer owns a private buffer, so no record is ever shared or
// copied between goroutines — a worker decodes directly out of its own
// slot. The slot's status is a lock-free atomic tag rather than a
// channel, and the producer/consumer handshake follows a launch/seize
// (spawn/join) shape.
package spmc

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/kmerdb"
)

// Status is the lifecycle state of one consumer slot.
type Status int32

const (
	// Pending means the slot's buffer has been fully drained by its
	// consumer and is waiting for the producer to refill it.
	Pending Status = iota
	// Available means the slot holds undrained records.
	Available
	// NoMore means the slot will never receive more records: the
	// underlying database has been exhausted (or a read failed).
	NoMore
)

const defaultBufBytes = 16 << 20 // B ~= 16 MiB

type slot struct {
	status int32 // atomic Status
	buf    []byte
	n      int // valid records currently in buf
	pos    int // next record index to serve
}

// SpmcIter is a single-producer/multi-consumer iterator over a
// kmerdb.Reader. Construct with New, start the producer with
// LaunchProduction, have each of the n consumers drive TasksExpected and
// ValueAt with its own id in [0, n), and call SeizeProduction once to
// join the producer and release it.
type SpmcIter struct {
	reader *kmerdb.Reader
	recK   int
	width  int
	n      int
	slots  []*slot

	wg      sync.WaitGroup
	started bool
	readErr error
}

// New builds an iterator over reader with n consumer slots, each backed
// by a bufBytes-sized buffer (rounded down to a whole number of
// records, minimum one). bufBytes <= 0 selects a 16 MiB default.
func New(reader *kmerdb.Reader, n int, bufBytes int) *SpmcIter {
	if bufBytes <= 0 {
		bufBytes = defaultBufBytes
	}
	width := reader.RecordBytes()
	recordsPerBlock := bufBytes / width
	if recordsPerBlock < 1 {
		recordsPerBlock = 1
	}

	slots := make([]*slot, n)
	for i := range slots {
		slots[i] = &slot{
			status: int32(Pending),
			buf:    make([]byte, recordsPerBlock*width),
		}
	}
	return &SpmcIter{
		reader: reader,
		recK:   reader.Header.RecordK(),
		width:  width,
		n:      n,
		slots:  slots,
	}
}

// Memory estimates the total consumer-buffer footprint of n consumers
// each backed by a bufBytes buffer: memory(n) = n*B.
func Memory(n, bufBytes int) int64 {
	if bufBytes <= 0 {
		bufBytes = defaultBufBytes
	}
	return int64(n) * int64(bufBytes)
}

// LaunchProduction spawns the producer goroutine. Call once.
func (s *SpmcIter) LaunchProduction() {
	s.started = true
	s.wg.Add(1)
	go s.produce()
}

// SeizeProduction joins the producer goroutine and, once it has
// finished, force-marks every slot NoMore — a safety net for consumers
// that stop polling before naturally observing the transition. It
// returns the first non-EOF read error encountered, if any.
func (s *SpmcIter) SeizeProduction() error {
	if s.started {
		s.wg.Wait()
	}
	for _, sl := range s.slots {
		atomic.StoreInt32(&sl.status, int32(NoMore))
	}
	return s.readErr
}

// produce refills every Pending slot in round-robin order until the
// reader is exhausted (or errors), marking each slot NoMore as soon as
// it has nothing further to offer.
func (s *SpmcIter) produce() {
	defer s.wg.Done()

	remaining := s.n
	for remaining > 0 {
		progressed := false
		for _, sl := range s.slots {
			if Status(atomic.LoadInt32(&sl.status)) != Pending {
				continue
			}
			n, err := s.reader.ReadBlock(sl.buf)
			if n > 0 {
				sl.n, sl.pos = n, 0
				atomic.StoreInt32(&sl.status, int32(Available))
				progressed = true
				if err != nil && err != io.EOF {
					s.readErr = err
				}
				continue
			}
			if err != nil && err != io.EOF {
				s.readErr = err
			}
			atomic.StoreInt32(&sl.status, int32(NoMore))
			remaining--
			progressed = true
		}
		if !progressed {
			runtime.Gosched()
		}
	}
}

// TasksExpected reports whether consumer id may still receive further
// k-mers. It becomes permanently false once that slot reaches NoMore.
func (s *SpmcIter) TasksExpected(id int) bool {
	return Status(atomic.LoadInt32(&s.slots[id].status)) != NoMore
}

// ValueAt decodes and returns the next k-mer buffered for consumer id.
// It returns false when the slot is currently Pending (producer hasn't
// refilled it yet) or NoMore; callers should keep polling TasksExpected
// and ValueAt until one returns false permanently or a value arrives.
// Draining a slot's last buffered record flips it back to Pending so
// the producer can refill it.
func (s *SpmcIter) ValueAt(id int) (cdbg.Kmer, bool) {
	sl := s.slots[id]
	if Status(atomic.LoadInt32(&sl.status)) != Available {
		return cdbg.Kmer{}, false
	}
	if sl.pos < sl.n {
		rec := sl.buf[sl.pos*s.width : (sl.pos+1)*s.width]
		km := kmerdb.DecodeRecord(rec, s.recK)
		sl.pos++
		return km, true
	}
	atomic.StoreInt32(&sl.status, int32(Pending))
	return cdbg.Kmer{}, false
}

// N returns the number of consumer slots.
func (s *SpmcIter) N() int {
	return s.n
}
