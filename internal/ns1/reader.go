package ns1

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Field widths on disk.
const (
	SIZE_U32 = 4
	SIZE_U64 = 8
	SIZE_F64 = 8
	SIZE_MAC = 6
)

// Reader decodes NetStumbler primitives from a stream. The cursor only
// moves forward; every method consumes exactly the width it decodes or
// fails with a *ShortReadError.
type Reader struct {
	r      io.Reader
	offset int64
	buf    [SIZE_U64]byte
}

// NewReader wraps r. Readers that are not already buffered get a
// bufio.Reader since most fields are a handful of bytes.
func NewReader(r io.Reader) *Reader {
	switch r.(type) {
	case *bufio.Reader, io.ByteReader:
	default:
		r = bufio.NewReader(r)
	}
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// full reads exactly len(p) bytes for the named field.
func (r *Reader) full(field string, p []byte) error {
	start := r.offset
	n, err := io.ReadFull(r.r, p)
	r.offset += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		cause := io.ErrUnexpectedEOF
		if n == 0 {
			cause = io.EOF
		}
		return &ShortReadError{Field: field, Offset: start, Want: int64(len(p)), Got: int64(n), Err: cause}
	}
	return err
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32(field string) (uint32, error) {
	b := r.buf[:SIZE_U32]
	if err := r.full(field, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64(field string) (uint64, error) {
	b := r.buf[:SIZE_U64]
	if err := r.full(field, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI32 reads a little-endian uint32 and reinterprets it as signed.
func (r *Reader) ReadI32(field string) (int32, error) {
	v, err := r.ReadU32(field)
	return int32(v), err
}

// ReadI64 reads a little-endian uint64 and reinterprets it as signed.
func (r *Reader) ReadI64(field string) (int64, error) {
	v, err := r.ReadU64(field)
	return int64(v), err
}

// ReadF64 reads an IEEE-754 double. NetStumbler wrote doubles straight from
// memory on x86, so the bits are little-endian.
func (r *Reader) ReadF64(field string) (float64, error) {
	b := r.buf[:SIZE_F64]
	if err := r.full(field, b); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadString reads a one-byte length prefix followed by that many bytes.
func (r *Reader) ReadString(field string) (string, error) {
	b := r.buf[:1]
	if err := r.full(field, b); err != nil {
		return "", err
	}
	n := int(b[0])
	if n == 0 {
		return "", nil
	}
	s := make([]byte, n)
	if err := r.full(field, s); err != nil {
		return "", err
	}
	return string(s), nil
}

// ReadMAC reads a 6-byte hardware address as stored.
func (r *Reader) ReadMAC(field string) (MAC, error) {
	var m MAC
	if err := r.full(field, m[:]); err != nil {
		return MAC{}, err
	}
	return m, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(field string, n int) ([]byte, error) {
	p := make([]byte, n)
	if err := r.full(field, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Skip discards exactly n bytes.
func (r *Reader) Skip(field string, n int64) error {
	start := r.offset
	got, err := io.CopyN(io.Discard, r.r, n)
	r.offset += got
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		cause := io.ErrUnexpectedEOF
		if got == 0 {
			cause = io.EOF
		}
		return &ShortReadError{Field: field, Offset: start, Want: n, Got: got, Err: cause}
	}
	return err
}

// ReadSample decodes one sample: SAMPLE_SIZE bytes, plus GPS_SIZE more when
// the location source is nonzero.
func (r *Reader) ReadSample(s *Sample) error {
	var err error
	if s.Timestamp, err = r.ReadI64("sample timestamp"); err != nil {
		return err
	}
	if s.Signal, err = r.ReadI32("sample signal"); err != nil {
		return err
	}
	if s.Noise, err = r.ReadI32("sample noise"); err != nil {
		return err
	}
	if s.RawSource, err = r.ReadU32("location source"); err != nil {
		return err
	}
	if s.RawSource == 0 {
		s.Source = LocationNone
		return nil
	}

	s.Source = LocationGPS
	fix := &GPSFix{}
	if fix.Latitude, err = r.ReadF64("gps latitude"); err != nil {
		return err
	}
	if fix.Longitude, err = r.ReadF64("gps longitude"); err != nil {
		return err
	}
	if fix.Altitude, err = r.ReadF64("gps altitude"); err != nil {
		return err
	}
	if fix.Altitude < MinAltitude {
		fix.Altitude = 0.0
	}
	if fix.Satellites, err = r.ReadU32("gps satellites"); err != nil {
		return err
	}
	if fix.Speed, err = r.ReadF64("gps speed"); err != nil {
		return err
	}
	if fix.Track, err = r.ReadF64("gps track"); err != nil {
		return err
	}
	if fix.MagVariation, err = r.ReadF64("gps magnetic variation"); err != nil {
		return err
	}
	if fix.HDOP, err = r.ReadF64("gps hdop"); err != nil {
		return err
	}
	s.GPS = fix
	return nil
}
