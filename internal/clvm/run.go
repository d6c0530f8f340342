package clvm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Flags 控制解释器的严格程度
type Flags uint32

const (
	// StrictMode 未知操作符直接报错（内存池模式）
	StrictMode Flags = 1 << iota
)

const (
	quoteCost         = 20
	applyCost         = 90
	traverseBaseCost  = 40
	traversePerZero   = 4
	traversePerBit    = 4
	evalStepCost      = 1
	mallocCostPerByte = 10
)

var ErrCostExceeded = errors.New("cost exceeded")

// EvalError 程序执行失败，Node 为出错位置的参数
type EvalError struct {
	Msg  string
	Node *Program
}

func (e *EvalError) Error() string {
	if e.Node == nil {
		return "clvm: " + e.Msg
	}
	return fmt.Sprintf("clvm: %s: %s", e.Msg, e.Node)
}

func evalErr(msg string, node *Program) error {
	return &EvalError{Msg: msg, Node: node}
}

type stepOp byte

const (
	stepEval stepOp = iota
	stepApply
	stepCons
	stepSwap
)

// machine 基于堆栈的执行引擎
type machine struct {
	ops     []stepOp
	vals    *stack
	cost    uint64
	maxCost uint64
	flags   Flags
}

// Run 在环境 env 下执行 program，maxCost 为执行预算。
// 返回消耗的 cost 与结果。超出预算返回 ErrCostExceeded。
func Run(program, env *Program, maxCost uint64, flags Flags) (uint64, *Program, error) {
	m := &machine{
		ops:     []stepOp{stepEval},
		vals:    newStack(),
		maxCost: maxCost,
		flags:   flags,
	}
	m.vals.Push(Cons(program, env))

	for len(m.ops) > 0 {
		op := m.ops[len(m.ops)-1]
		m.ops = m.ops[:len(m.ops)-1]

		var (
			cost uint64
			err  error
		)
		switch op {
		case stepSwap:
			v2 := m.vals.Pop()
			v1 := m.vals.Pop()
			m.vals.Push(v2)
			m.vals.Push(v1)
		case stepCons:
			v1 := m.vals.Pop()
			v2 := m.vals.Pop()
			m.vals.Push(Cons(v1, v2))
		case stepEval:
			cost, err = m.eval()
		case stepApply:
			cost, err = m.apply()
		}
		if err != nil {
			return m.cost, nil, err
		}
		m.cost += cost
		if m.cost > m.maxCost {
			return m.cost, nil, ErrCostExceeded
		}
	}

	if m.vals.Len() != 1 {
		return m.cost, nil, evalErr("internal error: value stack not balanced", nil)
	}
	return m.cost, m.vals.Pop(), nil
}

func (m *machine) eval() (uint64, error) {
	pair := m.vals.Pop()
	program, env := pair.first, pair.rest

	// 原子即环境路径
	if program.IsAtom() {
		v, cost, err := traversePathCost(program.atom, env)
		if err != nil {
			return 0, err
		}
		m.vals.Push(v)
		return cost, nil
	}

	operator, operands := program.first, program.rest

	// ((X) . args) 形式：args 不求值，直接交给 X
	if operator.IsPair() {
		newOp, mustBeNil := operator.first, operator.rest
		if newOp.IsPair() || !mustBeNil.IsNil() {
			return 0, evalErr("in ((X)...) syntax X must be lone atom", program)
		}
		m.vals.Push(newOp)
		m.vals.Push(operands)
		m.ops = append(m.ops, stepApply)
		return evalStepCost, nil
	}

	if isOp(operator.atom, opQuote) {
		m.vals.Push(operands)
		return quoteCost, nil
	}

	m.ops = append(m.ops, stepApply)
	m.vals.Push(operator)
	cur := operands
	for cur.IsPair() {
		m.ops = append(m.ops, stepCons, stepEval, stepSwap)
		m.vals.Push(Cons(cur.first, env))
		cur = cur.rest
	}
	if !cur.IsNil() {
		return 0, evalErr("bad operand list", program)
	}
	m.vals.Push(Nil)
	return evalStepCost, nil
}

func (m *machine) apply() (uint64, error) {
	operands := m.vals.Pop()
	operator := m.vals.Pop()
	if operator.IsPair() {
		return 0, evalErr("internal error: operator is a pair", operator)
	}

	if isOp(operator.atom, opApply) {
		args, ok := operands.AsSlice()
		if !ok || len(args) != 2 {
			return 0, evalErr("apply requires exactly 2 parameters", operands)
		}
		m.vals.Push(Cons(args[0], args[1]))
		m.ops = append(m.ops, stepEval)
		return applyCost, nil
	}

	cost, result, err := callOperator(operator.atom, operands, m.flags)
	if err != nil {
		return 0, err
	}
	m.vals.Push(result)
	return cost, nil
}

// traversePath 按路径原子在树中取值：从最低位开始，0 取 first，1 取 rest，最高位的 1 为终止位
func traversePath(path []byte, env *Program) (*Program, error) {
	v, _, err := traversePathCost(path, env)
	return v, err
}

func traversePathCost(path []byte, env *Program) (*Program, uint64, error) {
	cost := uint64(traverseBaseCost)

	start := 0
	for start < len(path) && path[start] == 0 {
		start++
		cost += traversePerZero
	}
	if start == len(path) {
		return Nil, cost, nil
	}

	endMask := msbMask(path[start])
	byteIdx := len(path) - 1
	bitMask := byte(0x01)
	cur := env
	for byteIdx > start || bitMask < endMask {
		if cur.IsAtom() {
			return nil, 0, evalErr("path into atom", cur)
		}
		if path[byteIdx]&bitMask != 0 {
			cur = cur.rest
		} else {
			cur = cur.first
		}
		cost += traversePerBit
		if bitMask == 0x80 {
			bitMask = 0x01
			byteIdx--
		} else {
			bitMask <<= 1
		}
	}
	return cur, cost, nil
}

func msbMask(b byte) byte {
	mask := byte(0x80)
	for mask != 0 && b&mask == 0 {
		mask >>= 1
	}
	return mask
}
