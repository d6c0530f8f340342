package generator

import "github.com/treeforest/runblock/internal/clvm"

// deserializeModHex 以 CLVM 写成的程序反序列化器。生成器以 (a 2 (list ref)) 调用它，
// 把引用的历史程序字节解析为程序。支持 1 到 2 字节的原子长度前缀，更长的前缀会 raise。
const deserializeModHex = "ff02ffff01ff05ffff02ff04ffff04ff02ffff04ff05ffff018080808080ffff04ffff01ffff02ffff03ffff09ffff0cff05ffff0180ffff010180ffff0181ff80ffff01ff02ff0affff04ff02ffff04ffff02ff04ffff04ff02ffff04ffff0cff05ffff010180ffff0180808080ffff0180808080ffff01ff02ff2effff04ff02ffff04ffff0cff05ffff010180ffff04ffff0cff05ffff0180ffff010180ffff01808080808080ff0180ffff02ff16ffff04ff02ffff04ffff05ff0580ffff04ffff02ff04ffff04ff02ffff04ffff05ffff06ff058080ffff0180808080ffff018080808080ffff04ffff04ff05ffff05ff0b8080ffff04ffff05ffff06ff0b8080ffff01808080ffff02ffff03ffff09ff0bffff01818080ffff01ff04ffff0180ffff04ff05ffff01808080ffff01ff02ffff03ffff0aff0bffff017f80ffff01ff02ff8200beffff04ff02ffff04ffff02ff5effff04ff02ffff04ff0bffff04ff05ffff018080808080ffff0180808080ffff01ff04ff0bffff04ff05ffff0180808080ff018080ff0180ffff02ffff03ffff0aff05ffff0181bf80ffff01ff02ffff03ffff0aff05ffff0181df80ffff01ff0880ffff01ff04ffff18ffff01821fffffff0eff05ffff0cff0bffff0180ffff0101808080ffff04ffff0cff0bffff010180ffff0180808080ff0180ffff01ff04ffff18ffff013fff0580ffff04ff0bffff0180808080ff0180ffff04ffff0cffff05ffff06ff058080ffff0180ffff05ff058080ffff04ffff0cffff05ffff06ff058080ffff05ff058080ffff0180808080ff018080"

var deserializeMod = mustProgram(deserializeModHex)

func mustProgram(s string) *clvm.Program {
	p, err := clvm.FromHex(s)
	if err != nil {
		panic(err)
	}
	return p
}
