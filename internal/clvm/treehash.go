package clvm

import "crypto/sha256"

// TreeHash 计算 sha256 树哈希：原子为 sha256(1||atom)，pair 为 sha256(2||left||right)
func (p *Program) TreeHash() [32]byte {
	type frame struct {
		node    *Program
		visited bool
	}
	var hashes [][32]byte
	todo := []frame{{node: p}}

	for len(todo) > 0 {
		f := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		if f.node.IsAtom() {
			hashes = append(hashes, sha256.Sum256(append([]byte{0x01}, f.node.atom...)))
			continue
		}
		if !f.visited {
			todo = append(todo, frame{node: f.node, visited: true}, frame{node: f.node.rest}, frame{node: f.node.first})
			continue
		}
		right := hashes[len(hashes)-1]
		left := hashes[len(hashes)-2]
		hashes = hashes[:len(hashes)-2]

		buf := make([]byte, 0, 65)
		buf = append(buf, 0x02)
		buf = append(buf, left[:]...)
		buf = append(buf, right[:]...)
		hashes = append(hashes, sha256.Sum256(buf))
	}
	return hashes[0]
}
