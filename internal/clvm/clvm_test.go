package clvm

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func q(p *Program) *Program {
	return Cons(Atom([]byte{opQuote}), p)
}

func op(code byte, args ...*Program) *Program {
	return List(append([]*Program{Atom([]byte{code})}, args...)...)
}

func TestSerialize(t *testing.T) {
	require.Equal(t, "80", Nil.Hex())
	require.Equal(t, "01", Atom([]byte{0x01}).Hex())
	require.Equal(t, "8180", Atom([]byte{0x80}).Hex())
	require.Equal(t, "ff01ff0280", List(Int(1), Int(2)).Hex())
	require.Equal(t, "ff0102", Cons(Int(1), Int(2)).Hex())

	long := make([]byte, 100)
	require.Equal(t, []byte{0xc0, 100}, Atom(long).Serialize()[:2])
	require.Equal(t, 2, PrefixLen(long))
	require.Equal(t, 0, PrefixLen([]byte{0x7f}))
	require.Equal(t, 1, PrefixLen(make([]byte, 32)))
}

func TestDeserialize(t *testing.T) {
	progs := []*Program{
		Nil,
		Int(-1),
		List(Int(1), Atom([]byte("hello")), List(Nil, Atom(make([]byte, 70)))),
		Cons(Cons(Int(3), Int(4)), Atom(make([]byte, 9000))),
	}
	for _, p := range progs {
		got, err := Deserialize(p.Serialize())
		require.NoError(t, err)
		require.True(t, p.Equal(got), "%s != %s", p, got)
	}

	_, err := FromHex("ff01")
	require.True(t, errors.Is(err, ErrBadEncoding))

	_, err = FromHex("0101")
	require.True(t, errors.Is(err, ErrBadEncoding))

	_, err = FromHex("zz")
	require.Error(t, err)
}

func TestDeserializeBackRef(t *testing.T) {
	foobar := Atom([]byte("foobar"))

	p, err := FromHex("ff86666f6f626172fe01")
	require.NoError(t, err)
	require.True(t, List(foobar, foobar).Equal(p), p.String())

	p, err = FromHex("ff86666f6f626172fe02")
	require.NoError(t, err)
	require.True(t, Cons(foobar, foobar).Equal(p), p.String())
}

func TestTreeHash(t *testing.T) {
	atomHash := func(b []byte) [32]byte {
		return sha256.Sum256(append([]byte{0x01}, b...))
	}
	require.Equal(t, atomHash(nil), Nil.TreeHash())

	a, b := atomHash([]byte{0x01}), atomHash([]byte{0x02})
	buf := append([]byte{0x02}, a[:]...)
	buf = append(buf, b[:]...)
	require.Equal(t, sha256.Sum256(buf), Cons(Int(1), Int(2)).TreeHash())

	// 哈希与序列化方式无关
	p, err := FromHex("ff86666f6f626172fe01")
	require.NoError(t, err)
	foobar := Atom([]byte("foobar"))
	require.Equal(t, List(foobar, foobar).TreeHash(), p.TreeHash())
}

func TestIntEncoding(t *testing.T) {
	cases := map[int64]string{
		0:    "",
		1:    "01",
		-1:   "ff",
		127:  "7f",
		128:  "0080",
		255:  "00ff",
		-128: "80",
		-129: "ff7f",
		-256: "ff00",
	}
	for v, want := range cases {
		p := Int(v)
		b, _ := p.AtomBytes()
		require.Equal(t, want, hex.EncodeToString(b), "value %d", v)
		got, ok := p.AsInt()
		require.True(t, ok)
		require.Equal(t, 0, got.Cmp(big.NewInt(v)))
	}

	u, ok := Int(1000).AsUint64()
	require.True(t, ok)
	require.Equal(t, uint64(1000), u)
	_, ok = Int(-5).AsUint64()
	require.False(t, ok)
}

func TestRunArithmetic(t *testing.T) {
	cost, r, err := Run(op(0x10, q(Int(2)), q(Int(3))), Nil, 100000, 0)
	require.NoError(t, err)
	require.True(t, Int(5).Equal(r))
	require.True(t, cost > 0)

	_, r, err = Run(op(0x11, q(Int(2)), q(Int(10))), Nil, 100000, 0)
	require.NoError(t, err)
	require.True(t, Int(-8).Equal(r))

	_, r, err = Run(op(0x14, q(Int(-7)), q(Int(2))), Nil, 100000, 0)
	require.NoError(t, err)
	require.True(t, Cons(Int(-4), Int(1)).Equal(r), r.String())

	_, _, err = Run(op(0x13, q(Int(1)), q(Int(0))), Nil, 100000, 0)
	require.Error(t, err)
}

func TestRunEnvAndApply(t *testing.T) {
	env := List(Int(10), Int(20))

	_, r, err := Run(Int(2), env, 1000, 0)
	require.NoError(t, err)
	require.True(t, Int(10).Equal(r))

	_, r, err = Run(Int(5), env, 1000, 0)
	require.NoError(t, err)
	require.True(t, Int(20).Equal(r))

	_, _, err = Run(Int(4), Int(1), 1000, 0)
	require.Error(t, err)

	// (a (q . (+ 2 5)) (q . (7 8)))
	body := op(0x10, Int(2), Int(5))
	_, r, err = Run(op(opApply, q(body), q(List(Int(7), Int(8)))), Nil, 100000, 0)
	require.NoError(t, err)
	require.True(t, Int(15).Equal(r))
}

func TestRunConditionalsAndLists(t *testing.T) {
	_, r, err := Run(op(0x03, q(Int(1)), q(Int(10)), q(Int(20))), Nil, 1000, 0)
	require.NoError(t, err)
	require.True(t, Int(10).Equal(r))

	_, r, err = Run(op(0x03, q(Nil), q(Int(10)), q(Int(20))), Nil, 1000, 0)
	require.NoError(t, err)
	require.True(t, Int(20).Equal(r))

	_, r, err = Run(op(0x04, q(Int(1)), q(List(Int(2)))), Nil, 1000, 0)
	require.NoError(t, err)
	require.True(t, List(Int(1), Int(2)).Equal(r))

	_, r, err = Run(op(0x05, q(List(Int(7), Int(8)))), Nil, 1000, 0)
	require.NoError(t, err)
	require.True(t, Int(7).Equal(r))

	_, r, err = Run(op(0x09, q(Atom([]byte("a"))), q(Atom([]byte("a")))), Nil, 1000, 0)
	require.NoError(t, err)
	require.True(t, One.Equal(r))

	_, r, err = Run(op(0x0b, q(Atom([]byte("abc")))), Nil, 10000, 0)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("abc"))
	require.True(t, Atom(sum[:]).Equal(r))

	_, r, err = Run(op(0x0c, q(Atom([]byte("hello"))), q(Int(1)), q(Int(3))), Nil, 1000, 0)
	require.NoError(t, err)
	require.True(t, Atom([]byte("el")).Equal(r))
}

func TestRunErrors(t *testing.T) {
	_, _, err := Run(op(0x08, q(Atom([]byte("boom")))), Nil, 1000, 0)
	var evalError *EvalError
	require.True(t, errors.As(err, &evalError))
	require.Equal(t, "clvm raise", evalError.Msg)

	_, _, err = Run(op(0x10, q(Int(2)), q(Int(3))), Nil, 10, 0)
	require.True(t, errors.Is(err, ErrCostExceeded))

	_, r, err := Run(op(0x7e, q(Int(1))), Nil, 1000, 0)
	require.NoError(t, err)
	require.True(t, r.IsNil())

	_, _, err = Run(op(0x7e, q(Int(1))), Nil, 1000, StrictMode)
	require.Error(t, err)

	_, _, err = Run(op(0x1d), Nil, 1000, 0)
	require.Error(t, err)
}

func TestCurry(t *testing.T) {
	mod := op(0x10, Int(2), Int(5))
	args := []*Program{Atom([]byte("x")), List(Int(1), Int(2)), Nil}
	curried := Curry(mod, args...)

	gotMod, gotArgs, ok := Uncurry(curried)
	require.True(t, ok)
	require.True(t, mod.Equal(gotMod))
	require.Len(t, gotArgs, 3)
	for i := range args {
		require.True(t, args[i].Equal(gotArgs[i]))
	}

	// 柯里化程序执行时把参数放在环境前面
	_, r, err := Run(Curry(mod, Int(4)), List(Int(6)), 100000, 0)
	require.NoError(t, err)
	require.True(t, Int(10).Equal(r))

	_, _, ok = Uncurry(mod)
	require.False(t, ok)
	_, _, ok = Uncurry(Nil)
	require.False(t, ok)
}
