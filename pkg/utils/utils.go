package utils

import (
	"encoding/hex"
	"errors"
	"strings"
)

func BytesToByte32(b []byte) ([32]byte, error) {
	if len(b) != 32 {
		return [32]byte{}, errors.New("length not equal 32")
	}
	d := [32]byte{}
	copy(d[:], b)
	return d, nil
}

// HexToByte32 解析 64 位十六进制字符串，允许 0x 前缀
func HexToByte32(s string) ([32]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return [32]byte{}, err
	}
	return BytesToByte32(b)
}
