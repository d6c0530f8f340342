package clvm

import (
	"bytes"
	"encoding/hex"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	consBox    = 0xff
	backRef    = 0xfe
	maxSingle  = 0x7f
	nilMarker  = 0x80
	maxAtomLen = 0x400000000
)

var ErrBadEncoding = errors.New("bad program encoding")

// Serialize 序列化为标准编码（不产生反向引用）
func (p *Program) Serialize() []byte {
	var buf bytes.Buffer
	p.serialize(&buf)
	return buf.Bytes()
}

func (p *Program) Hex() string {
	return hex.EncodeToString(p.Serialize())
}

func (p *Program) serialize(buf *bytes.Buffer) {
	// 用显式栈避免深度递归
	todo := []*Program{p}
	for len(todo) > 0 {
		cur := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		if cur.IsPair() {
			buf.WriteByte(consBox)
			todo = append(todo, cur.rest, cur.first)
			continue
		}
		writeAtom(buf, cur.atom)
	}
}

func writeAtom(buf *bytes.Buffer, atom []byte) {
	n := len(atom)
	switch {
	case n == 0:
		buf.WriteByte(nilMarker)
		return
	case n == 1 && atom[0] <= maxSingle:
		buf.WriteByte(atom[0])
		return
	}
	buf.Write(atomPrefix(n))
	buf.Write(atom)
}

// atomPrefix 返回长度为 n 的原子的长度前缀
func atomPrefix(n int) []byte {
	switch {
	case n < 0x40:
		return []byte{0x80 | byte(n)}
	case n < 0x2000:
		return []byte{0xc0 | byte(n>>8), byte(n)}
	case n < 0x100000:
		return []byte{0xe0 | byte(n>>16), byte(n >> 8), byte(n)}
	case n < 0x8000000:
		return []byte{0xf0 | byte(n>>24), byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		return []byte{0xf8 | byte(n>>32), byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

// PrefixLen 返回原子序列化后长度前缀所占的字节数
func PrefixLen(atom []byte) int {
	n := len(atom)
	if n == 0 || (n == 1 && atom[0] <= maxSingle) {
		return 0
	}
	return len(atomPrefix(n))
}

func FromHex(s string) (*Program, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode program hex failed")
	}
	return Deserialize(data)
}

type parseOp int

const (
	parseSExp parseOp = iota
	parseCons
)

// Deserialize 反序列化，支持 0xfe 反向引用。数据必须恰好被完整消费。
func Deserialize(data []byte) (*Program, error) {
	r := bytes.NewReader(data)
	p, err := deserialize(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Wrapf(ErrBadEncoding, "%d trailing bytes", r.Len())
	}
	return p, nil
}

func deserialize(r *bytes.Reader) (*Program, error) {
	ops := []parseOp{parseSExp}
	// 已解析的值栈，以 cons 列表表示（栈顶在最前），反向引用的路径基于它
	values := Nil

	for len(ops) > 0 {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]

		switch op {
		case parseSExp:
			b, err := r.ReadByte()
			if err != nil {
				return nil, errors.Wrap(ErrBadEncoding, "unexpected end of input")
			}
			switch b {
			case consBox:
				ops = append(ops, parseCons, parseSExp, parseSExp)
			case backRef:
				pb, err := r.ReadByte()
				if err != nil {
					return nil, errors.Wrap(ErrBadEncoding, "unexpected end of input")
				}
				path, err := readAtom(r, pb)
				if err != nil {
					return nil, err
				}
				v, err := traversePath(path, values)
				if err != nil {
					return nil, errors.Wrap(ErrBadEncoding, "invalid back reference")
				}
				values = Cons(v, values)
			default:
				atom, err := readAtom(r, b)
				if err != nil {
					return nil, err
				}
				values = Cons(&Program{atom: atom}, values)
			}
		case parseCons:
			right := values.first
			values = values.rest
			left := values.first
			values = values.rest
			values = Cons(Cons(left, right), values)
		}
	}
	return values.first, nil
}

func readAtom(r *bytes.Reader, b byte) ([]byte, error) {
	if b == nilMarker {
		return []byte{}, nil
	}
	if b <= maxSingle {
		return []byte{b}, nil
	}

	// 前缀中前导 1 的个数决定长度字段字节数
	bitCount := 0
	mask := byte(0x80)
	for b&mask != 0 {
		bitCount++
		b &^= mask
		mask >>= 1
	}
	if bitCount > 5 {
		return nil, errors.Wrap(ErrBadEncoding, "atom length prefix too long")
	}
	size := uint64(b)
	for i := 1; i < bitCount; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(ErrBadEncoding, "unexpected end of input")
		}
		size = size<<8 | uint64(c)
	}
	if size >= maxAtomLen || size > uint64(r.Len()) {
		return nil, errors.Wrap(ErrBadEncoding, "atom size exceeds input")
	}
	atom := make([]byte, size)
	if _, err := io.ReadFull(r, atom); err != nil {
		return nil, errors.Wrap(ErrBadEncoding, "unexpected end of input")
	}
	return atom, nil
}
