package clvm

// Curry 生成 (a (q . mod) (c (q . arg1) (c (q . arg2) ... 1)))
func Curry(mod *Program, args ...*Program) *Program {
	env := One
	for i := len(args) - 1; i >= 0; i-- {
		env = List(Atom([]byte{opConsByte}), Cons(Atom([]byte{opQuote}), args[i]), env)
	}
	return List(Atom([]byte{opApply}), Cons(Atom([]byte{opQuote}), mod), env)
}

// Uncurry 是 Curry 的结构化逆过程，不执行程序。
// 不符合柯里化形式时返回 false。
func Uncurry(p *Program) (*Program, []*Program, bool) {
	items, ok := p.AsSlice()
	if !ok || len(items) != 3 || !isOp(items[0].atom, opApply) {
		return nil, nil, false
	}
	quoted := items[1]
	if quoted.IsAtom() || quoted.first.IsPair() || !isOp(quoted.first.atom, opQuote) {
		return nil, nil, false
	}
	mod := quoted.rest

	args := make([]*Program, 0)
	env := items[2]
	for env.IsPair() {
		// (c (q . arg) rest)
		parts, ok := env.AsSlice()
		if !ok || len(parts) != 3 || !isOp(parts[0].atom, opConsByte) {
			return nil, nil, false
		}
		q := parts[1]
		if q.IsAtom() || q.first.IsPair() || !isOp(q.first.atom, opQuote) {
			return nil, nil, false
		}
		args = append(args, q.rest)
		env = parts[2]
	}
	if !env.Equal(One) {
		return nil, nil, false
	}
	return mod, args, true
}
