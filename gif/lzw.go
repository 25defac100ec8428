package gif

import (
	"bufio"
	"errors"
	"io"
)

const (
	maxCode     = 1<<12 - 1 // GIF codes are at most 12 bits
	invalidCode = 1<<32 - 1

	tableSize = 4 * 1 << 12
	tableMask = tableSize - 1

	invalidEntry = 0
)

// blockWriter splits the LZW stream into GIF data sub-blocks of at most
// 254 bytes each, every one prefixed by its length. close writes the zero
// length block terminator.
type blockWriter struct {
	w   *bufio.Writer
	buf [254]byte
	n   int
	err error
}

func (b *blockWriter) WriteByte(c byte) error {
	if b.err != nil {
		return b.err
	}
	b.buf[b.n] = c
	b.n++
	if b.n == len(b.buf) {
		b.flush()
	}
	return b.err
}

func (b *blockWriter) flush() {
	if b.n == 0 || b.err != nil {
		return
	}
	if b.err = b.w.WriteByte(byte(b.n)); b.err != nil { //nolint:gosec // n <= 254
		return
	}
	_, b.err = b.w.Write(b.buf[:b.n])
	b.n = 0
}

func (b *blockWriter) close() error {
	b.flush()
	if b.err != nil {
		return b.err
	}
	return b.w.WriteByte(0)
}

// lzwEncoder is the variable-width LZW coder used by GIF image data.
// Codes are packed least significant bit first.
type lzwEncoder struct {
	out      io.ByteWriter
	litWidth uint

	bits  uint32
	nBits uint
	width uint

	// hi is the code implied by the next code emission.
	// overflow is the code at which hi overflows the code width.
	hi, overflow uint32
	// savedCode is the accumulated code at the end of the most recent
	// write call. It is invalidCode if there was no such call.
	savedCode uint32
	err       error
	// table maps a 20-bit key (12-bit prefix code, 8-bit literal) to the
	// code for that sequence, using open addressing.
	table [tableSize]uint32
}

var errOutOfCodes = errors.New("gif: lzw out of codes")

func newLZWEncoder(out io.ByteWriter, litWidth uint) *lzwEncoder {
	e := &lzwEncoder{
		out:       out,
		litWidth:  litWidth,
		width:     litWidth + 1,
		hi:        1<<litWidth + 1,
		overflow:  1 << (litWidth + 1),
		savedCode: invalidCode,
	}
	return e
}

func (e *lzwEncoder) writeCode(c uint32) error {
	e.bits |= c << e.nBits
	e.nBits += e.width
	for e.nBits >= 8 {
		if err := e.out.WriteByte(uint8(e.bits)); err != nil { //nolint:gosec // low byte
			return err
		}
		e.bits >>= 8
		e.nBits -= 8
	}
	return nil
}

// incHi increments e.hi and checks for both overflow and running out of
// unused codes. In the latter case it emits a clear code and resets the
// table.
func (e *lzwEncoder) incHi() error {
	e.hi++
	if e.hi == e.overflow {
		e.width++
		e.overflow <<= 1
	}
	if e.hi == maxCode {
		clear := uint32(1) << e.litWidth
		if err := e.writeCode(clear); err != nil {
			return err
		}
		e.width = e.litWidth + 1
		e.hi = clear + 1
		e.overflow = clear << 1
		for i := range e.table {
			e.table[i] = invalidEntry
		}
		return errOutOfCodes
	}
	return nil
}

// Write encodes palette indices. Every index must be below 1<<litWidth.
func (e *lzwEncoder) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := len(p)
	code := e.savedCode
	if code == invalidCode {
		// The first code sent is always a clear code.
		if e.err = e.writeCode(1 << e.litWidth); e.err != nil {
			return 0, e.err
		}
		code, p = uint32(p[0]), p[1:]
	}
loop:
	for _, x := range p {
		literal := uint32(x)
		key := code<<8 | literal
		// Linear probe; hash is the key mixed down to the table size.
		hash := (key>>12 ^ key) & tableMask
		for h, t := hash, e.table[hash]; t != invalidEntry; {
			if key == t>>12 {
				code = t & maxCode
				continue loop
			}
			h = (h + 1) & tableMask
			t = e.table[h]
		}
		// Not found: emit the prefix and add the new sequence.
		if e.err = e.writeCode(code); e.err != nil {
			return 0, e.err
		}
		code = literal
		if err := e.incHi(); err != nil {
			if errors.Is(err, errOutOfCodes) {
				continue
			}
			e.err = err
			return 0, e.err
		}
		for {
			if e.table[hash] == invalidEntry {
				e.table[hash] = key<<12 | e.hi
				break
			}
			hash = (hash + 1) & tableMask
		}
	}
	e.savedCode = code
	return n, nil
}

// Close flushes the pending code, writes the end-of-information code and
// pads the final byte.
func (e *lzwEncoder) Close() error {
	if e.err != nil {
		return e.err
	}
	clear := uint32(1) << e.litWidth
	if e.savedCode != invalidCode {
		if e.err = e.writeCode(e.savedCode); e.err != nil {
			return e.err
		}
		if err := e.incHi(); err != nil && !errors.Is(err, errOutOfCodes) {
			e.err = err
			return e.err
		}
	} else {
		// Empty input still starts with a clear code.
		if e.err = e.writeCode(clear); e.err != nil {
			return e.err
		}
	}
	eof := clear + 1
	if e.err = e.writeCode(eof); e.err != nil {
		return e.err
	}
	if e.nBits > 0 {
		if e.err = e.out.WriteByte(uint8(e.bits)); e.err != nil { //nolint:gosec // low byte
			return e.err
		}
	}
	return nil
}
