package box

import (
	"bytes"
	"encoding/binary"
)

// wireWriter accumulates the length-prefixed fields of §6's binary
// format. All integers are big-endian; u8-length fields cap their
// payload at 255 bytes, u32-length fields (only the ciphertext, in the
// v2/v3 format) at 4 GiB.
type wireWriter struct {
	buf bytes.Buffer
}

func (w *wireWriter) byte(b byte) { w.buf.WriteByte(b) }

func (w *wireWriter) string8(b []byte) error {
	if len(b) > 0xff {
		return newErr(KindArgument, "field exceeds 255 bytes")
	}
	w.buf.WriteByte(byte(len(b)))
	w.buf.Write(b)
	return nil
}

func (w *wireWriter) cstring8(s string) error {
	return w.string8([]byte(s))
}

func (w *wireWriter) string32(b []byte) error {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	w.buf.Write(n[:])
	w.buf.Write(b)
	return nil
}

func (w *wireWriter) cstring32(s string) error {
	return w.string32([]byte(s))
}

func (w *wireWriter) bytes() []byte { return w.buf.Bytes() }

// wireReader consumes fields in the same shapes wireWriter produces.
type wireReader struct {
	b   []byte
	pos int
}

func newWireReader(b []byte) *wireReader { return &wireReader{b: b} }

func (r *wireReader) byte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, newErr(KindMagic, "unexpected end of box data")
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *wireReader) string8() ([]byte, error) {
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

func (r *wireReader) cstring8() (string, error) {
	b, err := r.string8()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *wireReader) string32() ([]byte, error) {
	if r.pos+4 > len(r.b) {
		return nil, newErr(KindMagic, "unexpected end of box data")
	}
	n := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return r.take(int(n))
}

func (r *wireReader) cstring32() (string, error) {
	b, err := r.string32()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *wireReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.b) {
		return nil, newErr(KindMagic, "unexpected end of box data")
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *wireReader) remaining() []byte { return r.b[r.pos:] }
