package clvm

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
)

// Program 不可变的 s-表达式：要么是原子（字节串），要么是一对 (first . rest)
type Program struct {
	atom  []byte
	first *Program
	rest  *Program
}

var (
	// Nil 空原子，同时也是空列表
	Nil = &Program{atom: []byte{}}
	// One 原子 0x01，作为环境路径时表示整个环境
	One = &Program{atom: []byte{0x01}}
)

func Atom(b []byte) *Program {
	if len(b) == 0 {
		return Nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return &Program{atom: c}
}

func Cons(first, rest *Program) *Program {
	return &Program{first: first, rest: rest}
}

// List 构造以 Nil 结尾的列表
func List(items ...*Program) *Program {
	l := Nil
	for i := len(items) - 1; i >= 0; i-- {
		l = Cons(items[i], l)
	}
	return l
}

func Int(v int64) *Program {
	return &Program{atom: intToAtom(big.NewInt(v))}
}

func BigInt(v *big.Int) *Program {
	return &Program{atom: intToAtom(v)}
}

func (p *Program) IsPair() bool {
	return p.first != nil
}

func (p *Program) IsAtom() bool {
	return p.first == nil
}

func (p *Program) IsNil() bool {
	return p.IsAtom() && len(p.atom) == 0
}

// AtomBytes 返回原子内容，若为 pair 则返回 nil, false
func (p *Program) AtomBytes() ([]byte, bool) {
	if p.IsPair() {
		return nil, false
	}
	return p.atom, true
}

func (p *Program) First() (*Program, bool) {
	if p.IsAtom() {
		return nil, false
	}
	return p.first, true
}

func (p *Program) Rest() (*Program, bool) {
	if p.IsAtom() {
		return nil, false
	}
	return p.rest, true
}

// AsSlice 将正确以 Nil 结尾的列表展开。非列表或结尾不是 Nil 时返回 false。
func (p *Program) AsSlice() ([]*Program, bool) {
	items := make([]*Program, 0)
	cur := p
	for cur.IsPair() {
		items = append(items, cur.first)
		cur = cur.rest
	}
	if !cur.IsNil() {
		return nil, false
	}
	return items, true
}

// ListLen 返回 pair 链的长度，不要求以 Nil 结尾
func (p *Program) ListLen() int {
	n := 0
	for cur := p; cur.IsPair(); cur = cur.rest {
		n++
	}
	return n
}

func (p *Program) AsInt() (*big.Int, bool) {
	if p.IsPair() {
		return nil, false
	}
	return atomToInt(p.atom), true
}

func (p *Program) Equal(o *Program) bool {
	if p == o {
		return true
	}
	if p.IsAtom() != o.IsAtom() {
		return false
	}
	if p.IsAtom() {
		return bytes.Equal(p.atom, o.atom)
	}
	return p.first.Equal(o.first) && p.rest.Equal(o.rest)
}

// String 调试输出，原子以十六进制表示
func (p *Program) String() string {
	var sb strings.Builder
	p.write(&sb)
	return sb.String()
}

func (p *Program) write(sb *strings.Builder) {
	if p.IsAtom() {
		if len(p.atom) == 0 {
			sb.WriteString("()")
			return
		}
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(p.atom))
		return
	}
	sb.WriteByte('(')
	cur := p
	for {
		cur.first.write(sb)
		if cur.rest.IsPair() {
			sb.WriteByte(' ')
			cur = cur.rest
			continue
		}
		if !cur.rest.IsNil() {
			sb.WriteString(" . ")
			cur.rest.write(sb)
		}
		break
	}
	sb.WriteByte(')')
}
