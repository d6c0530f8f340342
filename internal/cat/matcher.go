package cat

import (
	"github.com/treeforest/runblock/internal/clvm"
	"github.com/treeforest/runblock/pkg/utils"
)

// CATModHashHex CAT v2 模板的树哈希
const CATModHashHex = "37bef360ee858133b69d595a906dc45d01af50379dad515eb9518abb7c1d2a7a"

// CATModHash 默认的 CAT 模板哈希
var CATModHash, _ = utils.HexToByte32(CATModHashHex)

// Matcher 识别谜题是否为某个模板的柯里化，只做结构匹配，不执行谜题
type Matcher interface {
	Match(puzzle *clvm.Program) ([]*clvm.Program, bool)
}

// CurriedTemplate 按模板程序的树哈希和柯里化参数个数匹配
type CurriedTemplate struct {
	ModHash [32]byte
	Arity   int
}

// NewCATMatcher CAT 模板的三个参数依次为：模板哈希、tail 程序、内层谜题
func NewCATMatcher(modHash [32]byte) *CurriedTemplate {
	return &CurriedTemplate{ModHash: modHash, Arity: 3}
}

func (t *CurriedTemplate) Match(puzzle *clvm.Program) ([]*clvm.Program, bool) {
	mod, args, ok := clvm.Uncurry(puzzle)
	if !ok || len(args) != t.Arity {
		return nil, false
	}
	if mod.TreeHash() != t.ModHash {
		return nil, false
	}
	return args, true
}
