package unitig

import (
	"bytes"
	"fmt"

	"github.com/cuttlefish-go/cdbg/sink"
)

// defaultSoftCap is the thread-local output buffer size threshold: flush
// once a worker's pending bytes exceed this (≈ 100 KiB).
const defaultSoftCap = 100 * 1024

// outputBuffer is a per-worker scratch buffer that batches FASTA records
// before handing them to the shared Sink, so a worker emitting many
// short unitigs doesn't contend on the sink's lock once per record.
type outputBuffer struct {
	buf  bytes.Buffer
	sink sink.Sink
	cap  int
}

func newOutputBuffer(s sink.Sink, softCap int) *outputBuffer {
	if softCap <= 0 {
		softCap = defaultSoftCap
	}
	return &outputBuffer{sink: s, cap: softCap}
}

// writeRecord appends a FASTA record `>id\n<seq>\n` to the buffer,
// flushing to the shared sink once the soft cap is crossed.
func (b *outputBuffer) writeRecord(id uint64, seq []byte) error {
	fmt.Fprintf(&b.buf, ">%d\n", id)
	b.buf.Write(seq)
	b.buf.WriteByte('\n')
	if b.buf.Len() >= b.cap {
		return b.flush()
	}
	return nil
}

func (b *outputBuffer) flush() error {
	if b.buf.Len() == 0 {
		return nil
	}
	_, err := b.sink.Write(b.buf.Bytes())
	b.buf.Reset()
	return err
}

// complementByte returns the Watson-Crick complement of an ASCII base.
func complementByte(c byte) byte {
	switch c {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	default:
		return c
	}
}

// reverseComplementBytes returns the reverse complement of a literal
// base sequence.
func reverseComplementBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = complementByte(c)
	}
	return out
}
