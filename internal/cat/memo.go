package cat

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/treeforest/runblock/internal/clvm"
	"github.com/treeforest/runblock/internal/condition"
)

// ErrInvalidMemoEncoding memo 不是合法的 UTF-8 文本
var ErrInvalidMemoEncoding = errors.New("invalid memo encoding")

// retirementSentinel memo 列表的第一项必须是 32 字节全零
var retirementSentinel = make([]byte, 32)

// MemoFunc 从谜题的直接输出中提取 memo
type MemoFunc func(puzzle, solution *clvm.Program, maxCost uint64) (string, error)

// ExtractMemo 执行谜题，取第一个满足条件的 CREATE_COIN：
// (CREATE_COIN ph amount (sentinel memo ...) ...)。
// 之后出现的同类条件被忽略。没有满足条件的 CREATE_COIN 时返回空串。
func ExtractMemo(puzzle, solution *clvm.Program, maxCost uint64) (string, error) {
	_, out, err := clvm.Run(puzzle, solution, maxCost, 0)
	if err != nil {
		return "", errors.Wrap(err, "run puzzle failed")
	}

	conditions, ok := out.AsSlice()
	if !ok {
		return "", errors.Errorf("puzzle output is not a list: %s", out)
	}
	for _, cond := range conditions {
		memos, ok := memoList(cond)
		if !ok {
			continue
		}
		if len(memos) < 2 {
			return "", nil
		}
		text, ok := memos[1].AtomBytes()
		if !ok || !utf8.Valid(text) {
			return "", errors.Wrapf(ErrInvalidMemoEncoding, "%s", memos[1])
		}
		return string(text), nil
	}
	return "", nil
}

// memoList 返回合格 CREATE_COIN 条件的 memo 列表
func memoList(cond *clvm.Program) ([]*clvm.Program, bool) {
	fields := make([]*clvm.Program, 0, 4)
	cur := cond
	for len(fields) < 4 && cur.IsPair() {
		first, _ := cur.First()
		cur, _ = cur.Rest()
		fields = append(fields, first)
	}
	if len(fields) < 4 {
		return nil, false
	}
	opcode, ok := fields[0].AtomBytes()
	if !ok || condition.OpcodeFromBytes(opcode) != condition.CreateCoin {
		return nil, false
	}
	if !fields[3].IsPair() {
		return nil, false
	}

	items := make([]*clvm.Program, 0, 2)
	cur = fields[3]
	for cur.IsPair() {
		first, _ := cur.First()
		cur, _ = cur.Rest()
		items = append(items, first)
	}
	sentinel, ok := items[0].AtomBytes()
	if !ok || !bytes.Equal(sentinel, retirementSentinel) {
		return nil, false
	}
	return items, true
}
