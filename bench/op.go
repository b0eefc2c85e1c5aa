package bench

import (
	"math"

	"github.com/benz9527/xfleet/lib/infra"
)

type Op uint8

const (
	OpInsert Op = iota
	OpRemove
	OpFind
	_opMax
)

func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpFind:
		return "find"
	default:
	}
	return "unknown"
}

func Ops() []Op {
	return []Op{OpInsert, OpRemove, OpFind}
}

func ParseOp(name string) (Op, error) {
	for _, op := range Ops() {
		if op.String() == name {
			return op, nil
		}
	}
	return _opMax, infra.NewErrorStack("unknown fleet op " + name)
}

// sumLog2 adds floor(log2(j)) for j in [from, to].
func sumLog2(from, to int) int {
	sum := 0
	for j := max(from, 1); j <= to; j++ {
		sum += int(math.Log2(float64(j)))
	}
	return sum
}

func trialSize(inputSize, scaling, trial int) int {
	size := inputSize
	for i := 0; i < trial; i++ {
		size *= scaling
	}
	return size
}

// ExpectedScaling returns, for each pair of neighbouring trials, the ratio
// of the log2 work the second trial does over the first one.
//
// Insert and find on n ships cost sum(log2(j)) for j in [1, n].
// Removing n ships out of 2n costs sum(log2(j)) for j in [n, 2n].
func ExpectedScaling(op Op, inputSize, scaling, trials int) []float64 {
	if trials < 2 || inputSize <= 0 || scaling < 2 {
		return []float64{}
	}
	res := make([]float64, 0, trials-1)
	for i := 0; i < trials-1; i++ {
		before, after := trialSize(inputSize, scaling, i), trialSize(inputSize, scaling, i+1)
		var sumBefore, sumAfter int
		switch op {
		case OpRemove:
			sumBefore = sumLog2(before, 2*before)
			sumAfter = sumLog2(after, 2*after)
		default:
			sumBefore = sumLog2(1, before)
			sumAfter = sumBefore + sumLog2(before+1, after)
		}
		if sumBefore == 0 {
			res = append(res, math.Inf(1))
			continue
		}
		res = append(res, float64(sumAfter)/float64(sumBefore))
	}
	return res
}
