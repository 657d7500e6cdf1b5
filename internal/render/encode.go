package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/exoform/internal/formation"
	"github.com/ayusman/exoform/internal/geom"
)

// Frame wire format, all little-endian:
//
//	magic "EXOF" | version u16 | batch count u16 | tick u64 | time f32 |
//	transition f32 | group 16*f32 | light x,y,z,intensity 4*f32 |
//	per batch: name length u8 | name | instance count u32 | count*16*f32
const (
	frameMagic   = "EXOF"
	frameVersion = 1
)

// ErrBadFrame is returned by DecodeFrame for malformed input.
var ErrBadFrame = errors.New("malformed frame")

// EncodeFrame appends the binary form of f to dst.
func EncodeFrame(dst []byte, f *formation.Frame) []byte {
	dst = append(dst, frameMagic...)
	dst = binary.LittleEndian.AppendUint16(dst, frameVersion)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(f.Batches)))
	dst = binary.LittleEndian.AppendUint64(dst, f.Tick)
	dst = appendFloat(dst, f.Time)
	dst = appendFloat(dst, f.Transition)
	dst = appendMat(dst, &f.Group)
	dst = appendFloat(dst, f.Light.Position.X)
	dst = appendFloat(dst, f.Light.Position.Y)
	dst = appendFloat(dst, f.Light.Position.Z)
	dst = appendFloat(dst, f.Light.Intensity)

	for i := range f.Batches {
		b := &f.Batches[i]
		dst = append(dst, byte(len(b.Mesh)))
		dst = append(dst, string(b.Mesh)...)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(b.Transforms)))
		for j := range b.Transforms {
			dst = appendMat(dst, &b.Transforms[j])
		}
	}
	return dst
}

// EncodedSize returns the byte length EncodeFrame will produce for f.
func EncodedSize(f *formation.Frame) int {
	n := 4 + 2 + 2 + 8 + 4 + 4 + 64 + 16
	for _, b := range f.Batches {
		n += 1 + len(b.Mesh) + 4 + len(b.Transforms)*64
	}
	return n
}

// DecodeFrame parses a frame produced by EncodeFrame. The returned frame owns
// its buffers.
func DecodeFrame(data []byte) (*formation.Frame, error) {
	r := reader{buf: data}
	if string(r.next(4)) != frameMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadFrame)
	}
	if v := r.u16(); v != frameVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFrame, v)
	}
	batches := int(r.u16())

	f := &formation.Frame{}
	f.Tick = r.u64()
	f.Time = r.f32()
	f.Transition = r.f32()
	r.mat(&f.Group)
	f.Light.Position = geom.V3(r.f32(), r.f32(), r.f32())
	f.Light.Intensity = r.f32()

	f.Batches = make([]formation.Batch, 0, batches)
	for i := 0; i < batches && r.err == nil; i++ {
		nameLen := int(r.u8())
		mesh := formation.Mesh(r.next(nameLen))
		count := int(r.u32())
		if r.err == nil && count*64 > len(r.buf) {
			r.err = ErrBadFrame
			break
		}
		transforms := make([]geom.Mat4, count)
		for j := range transforms {
			r.mat(&transforms[j])
		}
		f.Batches = append(f.Batches, formation.Batch{Mesh: mesh, Transforms: transforms})
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: truncated", ErrBadFrame)
	}
	return f, nil
}

func appendFloat(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

func appendMat(dst []byte, m *geom.Mat4) []byte {
	for _, v := range m {
		dst = appendFloat(dst, v)
	}
	return dst
}

type reader struct {
	buf []byte
	err error
}

func (r *reader) next(n int) []byte {
	if r.err != nil || n > len(r.buf) {
		r.err = ErrBadFrame
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.next(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if b := r.next(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) mat(m *geom.Mat4) {
	for i := range m {
		m[i] = r.f32()
	}
}
