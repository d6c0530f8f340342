package clvm

import "math/big"

// atomToInt 按大端补码解析原子
func atomToInt(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return v
}

// intToAtom 最短大端补码编码，0 编码为空原子
func intToAtom(v *big.Int) []byte {
	switch v.Sign() {
	case 0:
		return []byte{}
	case 1:
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0x00}, b...)
		}
		return b
	}
	byteLen := (v.BitLen() + 8) / 8
	m := new(big.Int).Lsh(big.NewInt(1), uint(byteLen*8))
	m.Add(m, v)
	b := m.Bytes()
	for len(b) > 1 && b[0] == 0xff && b[1]&0x80 != 0 {
		b = b[1:]
	}
	return b
}

// atomToUint64 将原子视为无符号整数，超过 8 字节时返回 false
func atomToUint64(b []byte) (uint64, bool) {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	if len(b) > 8 {
		return 0, false
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, true
}

// AsUint64 将非负原子解析为 uint64
func (p *Program) AsUint64() (uint64, bool) {
	if p.IsPair() || (len(p.atom) > 0 && p.atom[0]&0x80 != 0) {
		return 0, false
	}
	return atomToUint64(p.atom)
}
