package clvm

import (
	"bytes"
	"crypto/sha256"
	"math/big"
	"strconv"
)

const (
	opQuote    byte = 0x01
	opApply    byte = 0x02
	opConsByte byte = 0x04
)

type operatorFunc func(args []*Program) (uint64, *Program, error)

type operatorInfo struct {
	keyword string
	name    string
	f       operatorFunc
}

// opFromByte 单字节操作符表，空项表示未知操作符
var opFromByte [256]operatorInfo

func init() {
	opFromByte = [256]operatorInfo{
		0x03: {keyword: "i", name: "if", f: opIf},
		0x04: {keyword: "c", name: "cons", f: opCons},
		0x05: {keyword: "f", name: "first", f: opFirst},
		0x06: {keyword: "r", name: "rest", f: opRest},
		0x07: {keyword: "l", name: "listp", f: opListp},
		0x08: {keyword: "x", name: "raise", f: opRaise},
		0x09: {keyword: "=", name: "eq", f: opEq},
		0x0a: {keyword: ">s", name: "gr_bytes", f: opGrBytes},
		0x0b: {keyword: "sha256", name: "sha256", f: opSha256},
		0x0c: {keyword: "substr", name: "substr", f: opSubstr},
		0x0d: {keyword: "strlen", name: "strlen", f: opStrlen},
		0x0e: {keyword: "concat", name: "concat", f: opConcat},
		0x10: {keyword: "+", name: "add", f: opAdd},
		0x11: {keyword: "-", name: "subtract", f: opSubtract},
		0x12: {keyword: "*", name: "multiply", f: opMultiply},
		0x13: {keyword: "/", name: "div", f: opDiv},
		0x14: {keyword: "divmod", name: "divmod", f: opDivmod},
		0x15: {keyword: ">", name: "gr", f: opGr},
		0x16: {keyword: "ash", name: "ash", f: opAsh},
		0x17: {keyword: "lsh", name: "lsh", f: opLsh},
		0x18: {keyword: "logand", name: "logand", f: opLogand},
		0x19: {keyword: "logior", name: "logior", f: opLogior},
		0x1a: {keyword: "logxor", name: "logxor", f: opLogxor},
		0x1b: {keyword: "lognot", name: "lognot", f: opLognot},
		0x1d: {keyword: "point_add", name: "point_add", f: opUnsupported("point_add")},
		0x1e: {keyword: "pubkey_for_exp", name: "pubkey_for_exp", f: opUnsupported("pubkey_for_exp")},
		0x20: {keyword: "not", name: "not", f: opNot},
		0x21: {keyword: "any", name: "any", f: opAny},
		0x22: {keyword: "all", name: "all", f: opAll},
		0x24: {keyword: "softfork", name: "softfork", f: opSoftfork},
	}
}

// Keyword 返回操作符的助记符，未知返回空串
func Keyword(op byte) string {
	return opFromByte[op].keyword
}

func isOp(atom []byte, op byte) bool {
	return len(atom) == 1 && atom[0] == op
}

func callOperator(op []byte, operands *Program, flags Flags) (uint64, *Program, error) {
	args, ok := operands.AsSlice()
	if !ok {
		return 0, nil, evalErr("bad operand list", operands)
	}
	if len(op) == 1 && opFromByte[op[0]].f != nil {
		return opFromByte[op[0]].f(args)
	}
	if flags&StrictMode != 0 {
		return 0, nil, evalErr("unimplemented operator", Atom(op))
	}
	// 非严格模式下未知操作符视为空操作
	return uint64(len(args)) + 1, Nil, nil
}

const (
	ifCost            = 33
	consCost          = 50
	firstCost         = 30
	restCost          = 30
	listpCost         = 19
	eqBaseCost        = 117
	eqCostPerByte     = 1
	grBaseCost        = 498
	grCostPerByte     = 2
	grsBaseCost       = 117
	grsCostPerByte    = 1
	sha256BaseCost    = 87
	sha256CostPerArg  = 134
	sha256CostPerByte = 2
	arithBaseCost     = 99
	arithCostPerArg   = 320
	arithCostPerByte  = 3
	mulBaseCost       = 92
	mulCostPerOp      = 885
	mulCostPerByte    = 6
	divBaseCost       = 988
	divCostPerByte    = 4
	divmodBaseCost    = 1116
	divmodCostPerByte = 6
	strlenBaseCost    = 173
	strlenCostPerByte = 1
	concatBaseCost    = 142
	concatCostPerArg  = 135
	concatCostPerByte = 3
	substrCost        = 1
	shiftBaseCost     = 596
	shiftCostPerByte  = 3
	logBaseCost       = 100
	logCostPerArg     = 264
	logCostPerByte    = 3
	lognotBaseCost    = 331
	lognotCostPerByte = 3
	boolBaseCost      = 200
	boolCostPerArg    = 300
	maxShift          = 65535
)

func withMalloc(cost uint64, p *Program) (uint64, *Program, error) {
	return cost + uint64(len(p.atom))*mallocCostPerByte, p, nil
}

func argCount(name string, args []*Program, n int) error {
	if len(args) != n {
		return evalErr(name+" takes exactly "+strconv.Itoa(n)+" argument(s)", List(args...))
	}
	return nil
}

func atomArg(name string, p *Program) ([]byte, error) {
	if p.IsPair() {
		return nil, evalErr(name+" requires atom", p)
	}
	return p.atom, nil
}

func intArg(name string, p *Program) (*big.Int, int, error) {
	b, err := atomArg(name, p)
	if err != nil {
		return nil, 0, err
	}
	return atomToInt(b), len(b), nil
}

func boolAtom(b bool) *Program {
	if b {
		return One
	}
	return Nil
}

func opIf(args []*Program) (uint64, *Program, error) {
	if err := argCount("i", args, 3); err != nil {
		return 0, nil, err
	}
	if args[0].IsNil() {
		return ifCost, args[2], nil
	}
	return ifCost, args[1], nil
}

func opCons(args []*Program) (uint64, *Program, error) {
	if err := argCount("c", args, 2); err != nil {
		return 0, nil, err
	}
	return consCost, Cons(args[0], args[1]), nil
}

func opFirst(args []*Program) (uint64, *Program, error) {
	if err := argCount("f", args, 1); err != nil {
		return 0, nil, err
	}
	if args[0].IsAtom() {
		return 0, nil, evalErr("first of non-cons", args[0])
	}
	return firstCost, args[0].first, nil
}

func opRest(args []*Program) (uint64, *Program, error) {
	if err := argCount("r", args, 1); err != nil {
		return 0, nil, err
	}
	if args[0].IsAtom() {
		return 0, nil, evalErr("rest of non-cons", args[0])
	}
	return restCost, args[0].rest, nil
}

func opListp(args []*Program) (uint64, *Program, error) {
	if err := argCount("l", args, 1); err != nil {
		return 0, nil, err
	}
	return listpCost, boolAtom(args[0].IsPair()), nil
}

func opRaise(args []*Program) (uint64, *Program, error) {
	if len(args) == 1 && args[0].IsAtom() {
		return 0, nil, evalErr("clvm raise", args[0])
	}
	return 0, nil, evalErr("clvm raise", List(args...))
}

func opEq(args []*Program) (uint64, *Program, error) {
	if err := argCount("=", args, 2); err != nil {
		return 0, nil, err
	}
	a, err := atomArg("=", args[0])
	if err != nil {
		return 0, nil, err
	}
	b, err := atomArg("=", args[1])
	if err != nil {
		return 0, nil, err
	}
	cost := uint64(eqBaseCost + (len(a)+len(b))*eqCostPerByte)
	return cost, boolAtom(bytes.Equal(a, b)), nil
}

func opGrBytes(args []*Program) (uint64, *Program, error) {
	if err := argCount(">s", args, 2); err != nil {
		return 0, nil, err
	}
	a, err := atomArg(">s", args[0])
	if err != nil {
		return 0, nil, err
	}
	b, err := atomArg(">s", args[1])
	if err != nil {
		return 0, nil, err
	}
	cost := uint64(grsBaseCost + (len(a)+len(b))*grsCostPerByte)
	return cost, boolAtom(bytes.Compare(a, b) > 0), nil
}

func opSha256(args []*Program) (uint64, *Program, error) {
	h := sha256.New()
	cost := uint64(sha256BaseCost)
	for _, arg := range args {
		b, err := atomArg("sha256", arg)
		if err != nil {
			return 0, nil, err
		}
		h.Write(b)
		cost += sha256CostPerArg + uint64(len(b))*sha256CostPerByte
	}
	return withMalloc(cost, &Program{atom: h.Sum(nil)})
}

func opSubstr(args []*Program) (uint64, *Program, error) {
	if len(args) != 2 && len(args) != 3 {
		return 0, nil, evalErr("substr takes exactly 2 or 3 arguments", List(args...))
	}
	s, err := atomArg("substr", args[0])
	if err != nil {
		return 0, nil, err
	}
	start, _, err := intArg("substr", args[1])
	if err != nil {
		return 0, nil, err
	}
	end := big.NewInt(int64(len(s)))
	if len(args) == 3 {
		if end, _, err = intArg("substr", args[2]); err != nil {
			return 0, nil, err
		}
	}
	if !start.IsInt64() || !end.IsInt64() {
		return 0, nil, evalErr("invalid indices for substr", List(args...))
	}
	i0, i1 := start.Int64(), end.Int64()
	if i1 > int64(len(s)) || i1 < i0 || i0 < 0 {
		return 0, nil, evalErr("invalid indices for substr", List(args...))
	}
	return substrCost, Atom(s[i0:i1]), nil
}

func opStrlen(args []*Program) (uint64, *Program, error) {
	if err := argCount("strlen", args, 1); err != nil {
		return 0, nil, err
	}
	s, err := atomArg("strlen", args[0])
	if err != nil {
		return 0, nil, err
	}
	return withMalloc(uint64(strlenBaseCost+len(s)*strlenCostPerByte), Int(int64(len(s))))
}

func opConcat(args []*Program) (uint64, *Program, error) {
	var buf bytes.Buffer
	cost := uint64(concatBaseCost)
	for _, arg := range args {
		b, err := atomArg("concat", arg)
		if err != nil {
			return 0, nil, err
		}
		buf.Write(b)
		cost += concatCostPerArg
	}
	cost += uint64(buf.Len()) * concatCostPerByte
	return withMalloc(cost, Atom(buf.Bytes()))
}

func opAdd(args []*Program) (uint64, *Program, error) {
	total := new(big.Int)
	cost := uint64(arithBaseCost)
	for _, arg := range args {
		v, n, err := intArg("+", arg)
		if err != nil {
			return 0, nil, err
		}
		total.Add(total, v)
		cost += arithCostPerArg + uint64(n)*arithCostPerByte
	}
	return withMalloc(cost, BigInt(total))
}

func opSubtract(args []*Program) (uint64, *Program, error) {
	total := new(big.Int)
	cost := uint64(arithBaseCost)
	for i, arg := range args {
		v, n, err := intArg("-", arg)
		if err != nil {
			return 0, nil, err
		}
		if i == 0 {
			total.Set(v)
		} else {
			total.Sub(total, v)
		}
		cost += arithCostPerArg + uint64(n)*arithCostPerByte
	}
	return withMalloc(cost, BigInt(total))
}

func opMultiply(args []*Program) (uint64, *Program, error) {
	total := big.NewInt(1)
	cost := uint64(mulBaseCost)
	for _, arg := range args {
		v, n, err := intArg("*", arg)
		if err != nil {
			return 0, nil, err
		}
		total.Mul(total, v)
		cost += mulCostPerOp + uint64(n)*mulCostPerByte
	}
	return withMalloc(cost, BigInt(total))
}

// floorDivMod 向负无穷取整的除法
func floorDivMod(a, b *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		r.Add(r, b)
	}
	return q, r
}

func divArgs(name string, args []*Program) (*big.Int, *big.Int, int, error) {
	if err := argCount(name, args, 2); err != nil {
		return nil, nil, 0, err
	}
	a, na, err := intArg(name, args[0])
	if err != nil {
		return nil, nil, 0, err
	}
	b, nb, err := intArg(name, args[1])
	if err != nil {
		return nil, nil, 0, err
	}
	if b.Sign() == 0 {
		return nil, nil, 0, evalErr(name+" with 0", args[0])
	}
	return a, b, na + nb, nil
}

func opDiv(args []*Program) (uint64, *Program, error) {
	a, b, n, err := divArgs("/", args)
	if err != nil {
		return 0, nil, err
	}
	q, _ := floorDivMod(a, b)
	return withMalloc(uint64(divBaseCost+n*divCostPerByte), BigInt(q))
}

func opDivmod(args []*Program) (uint64, *Program, error) {
	a, b, n, err := divArgs("divmod", args)
	if err != nil {
		return 0, nil, err
	}
	q, r := floorDivMod(a, b)
	qa, ra := BigInt(q), BigInt(r)
	cost := uint64(divmodBaseCost+n*divmodCostPerByte) + uint64(len(qa.atom)+len(ra.atom))*mallocCostPerByte
	return cost, Cons(qa, ra), nil
}

func opGr(args []*Program) (uint64, *Program, error) {
	if err := argCount(">", args, 2); err != nil {
		return 0, nil, err
	}
	a, na, err := intArg(">", args[0])
	if err != nil {
		return 0, nil, err
	}
	b, nb, err := intArg(">", args[1])
	if err != nil {
		return 0, nil, err
	}
	return uint64(grBaseCost + (na+nb)*grCostPerByte), boolAtom(a.Cmp(b) > 0), nil
}

func shiftArgs(name string, args []*Program) ([]byte, int, error) {
	if err := argCount(name, args, 2); err != nil {
		return nil, 0, err
	}
	v, err := atomArg(name, args[0])
	if err != nil {
		return nil, 0, err
	}
	s, _, err := intArg(name, args[1])
	if err != nil {
		return nil, 0, err
	}
	if !s.IsInt64() || s.Int64() > maxShift || s.Int64() < -maxShift {
		return nil, 0, evalErr("shift too large", args[1])
	}
	return v, int(s.Int64()), nil
}

func opAsh(args []*Program) (uint64, *Program, error) {
	v, shift, err := shiftArgs("ash", args)
	if err != nil {
		return 0, nil, err
	}
	n := atomToInt(v)
	if shift >= 0 {
		n.Lsh(n, uint(shift))
	} else {
		n.Rsh(n, uint(-shift))
	}
	return withMalloc(uint64(shiftBaseCost+len(v)*shiftCostPerByte), BigInt(n))
}

func opLsh(args []*Program) (uint64, *Program, error) {
	v, shift, err := shiftArgs("lsh", args)
	if err != nil {
		return 0, nil, err
	}
	// lsh 将值视为无符号数
	n := new(big.Int).SetBytes(v)
	if shift >= 0 {
		n.Lsh(n, uint(shift))
	} else {
		n.Rsh(n, uint(-shift))
	}
	return withMalloc(uint64(shiftBaseCost+len(v)*shiftCostPerByte), BigInt(n))
}

func logOp(name string, args []*Program, init *big.Int, fn func(z, x, y *big.Int) *big.Int) (uint64, *Program, error) {
	total := new(big.Int).Set(init)
	cost := uint64(logBaseCost)
	for _, arg := range args {
		v, n, err := intArg(name, arg)
		if err != nil {
			return 0, nil, err
		}
		fn(total, total, v)
		cost += logCostPerArg + uint64(n)*logCostPerByte
	}
	return withMalloc(cost, BigInt(total))
}

func opLogand(args []*Program) (uint64, *Program, error) {
	return logOp("logand", args, big.NewInt(-1), (*big.Int).And)
}

func opLogior(args []*Program) (uint64, *Program, error) {
	return logOp("logior", args, big.NewInt(0), (*big.Int).Or)
}

func opLogxor(args []*Program) (uint64, *Program, error) {
	return logOp("logxor", args, big.NewInt(0), (*big.Int).Xor)
}

func opLognot(args []*Program) (uint64, *Program, error) {
	if err := argCount("lognot", args, 1); err != nil {
		return 0, nil, err
	}
	v, n, err := intArg("lognot", args[0])
	if err != nil {
		return 0, nil, err
	}
	return withMalloc(uint64(lognotBaseCost+n*lognotCostPerByte), BigInt(new(big.Int).Not(v)))
}

func opNot(args []*Program) (uint64, *Program, error) {
	if err := argCount("not", args, 1); err != nil {
		return 0, nil, err
	}
	return boolBaseCost, boolAtom(args[0].IsNil()), nil
}

func opAny(args []*Program) (uint64, *Program, error) {
	cost := uint64(boolBaseCost + len(args)*boolCostPerArg)
	for _, arg := range args {
		if !arg.IsNil() {
			return cost, One, nil
		}
	}
	return cost, Nil, nil
}

func opAll(args []*Program) (uint64, *Program, error) {
	cost := uint64(boolBaseCost + len(args)*boolCostPerArg)
	for _, arg := range args {
		if arg.IsNil() {
			return cost, Nil, nil
		}
	}
	return cost, One, nil
}

func opSoftfork(args []*Program) (uint64, *Program, error) {
	if len(args) < 1 {
		return 0, nil, evalErr("softfork takes at least 1 argument", Nil)
	}
	v, _, err := intArg("softfork", args[0])
	if err != nil {
		return 0, nil, err
	}
	if v.Sign() <= 0 || !v.IsUint64() {
		return 0, nil, evalErr("cost must be > 0", args[0])
	}
	return v.Uint64(), Nil, nil
}

func opUnsupported(name string) operatorFunc {
	return func(args []*Program) (uint64, *Program, error) {
		return 0, nil, evalErr(name+" is not supported", List(args...))
	}
}
