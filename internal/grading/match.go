package grading

import "sort"

// Match is one maximal run of identical tokens: a[A:A+Size] == b[B:B+Size].
type Match struct {
	A, B, Size int
}

// OpTag classifies one aligned span pair.
type OpTag string

const (
	OpEqual   OpTag = "equal"
	OpReplace OpTag = "replace"
	OpDelete  OpTag = "delete"
	OpInsert  OpTag = "insert"
)

// Opcode describes how the expected tokens a[I1:I2] align against the typed
// tokens b[J1:J2]. The opcodes of a full alignment partition both sequences
// in order, with no gaps and no overlaps.
type Opcode struct {
	Tag            OpTag
	I1, I2, J1, J2 int
}

// matcher aligns two token sequences by repeatedly taking the longest
// matching contiguous block and recursing into the gaps on either side.
// Tokens are whole words: character-level matching would credit partial-word
// overlaps that mean nothing for memorization grading.
//
// Tie-break rule, load-bearing for stable ratios and opcode order: of all
// longest blocks, the one starting earliest in a wins, then earliest in b.
// No popularity/junk heuristic is applied; verse-sized inputs are far below
// the lengths where one pays off.
type matcher struct {
	a, b   []string
	b2j    map[string][]int
	blocks []Match
}

func newMatcher(a, b []string) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[string][]int, len(b))}
	for j, tok := range b {
		m.b2j[tok] = append(m.b2j[tok], j)
	}
	return m
}

// longestMatch scans a[alo:ahi] x b[blo:bhi] for the longest matching block.
// j2len[j] holds the length of the longest match ending at (i-1, j-1), so one
// pass per i extends all candidate runs in O(matches). The strictly-greater
// comparison is what implements the tie-break: later blocks of equal length
// never displace the first one found.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) Match {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return Match{A: besti, B: bestj, Size: bestsize}
}

// MatchingBlocks returns the maximal matching blocks in ascending order,
// adjacent blocks merged, terminated by a zero-size sentinel at
// (len(a), len(b)). The result is memoized.
func (m *matcher) MatchingBlocks() []Match {
	if m.blocks != nil {
		return m.blocks
	}
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var matched []Match
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		blk := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if blk.Size == 0 {
			continue
		}
		matched = append(matched, blk)
		if s.alo < blk.A && s.blo < blk.B {
			queue = append(queue, span{s.alo, blk.A, s.blo, blk.B})
		}
		if blk.A+blk.Size < s.ahi && blk.B+blk.Size < s.bhi {
			queue = append(queue, span{blk.A + blk.Size, s.ahi, blk.B + blk.Size, s.bhi})
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].A != matched[j].A {
			return matched[i].A < matched[j].A
		}
		return matched[i].B < matched[j].B
	})

	blocks := make([]Match, 0, len(matched)+1)
	var cur Match
	for _, blk := range matched {
		if cur.Size > 0 && cur.A+cur.Size == blk.A && cur.B+cur.Size == blk.B {
			cur.Size += blk.Size
			continue
		}
		if cur.Size > 0 {
			blocks = append(blocks, cur)
		}
		cur = blk
	}
	if cur.Size > 0 {
		blocks = append(blocks, cur)
	}
	blocks = append(blocks, Match{A: len(m.a), B: len(m.b)})
	m.blocks = blocks
	return blocks
}

// Opcodes converts the matching blocks into a gapless span classification.
func (m *matcher) Opcodes() []Opcode {
	var ops []Opcode
	i, j := 0, 0
	for _, blk := range m.MatchingBlocks() {
		var tag OpTag
		switch {
		case i < blk.A && j < blk.B:
			tag = OpReplace
		case i < blk.A:
			tag = OpDelete
		case j < blk.B:
			tag = OpInsert
		}
		if tag != "" {
			ops = append(ops, Opcode{Tag: tag, I1: i, I2: blk.A, J1: j, J2: blk.B})
		}
		i, j = blk.A+blk.Size, blk.B+blk.Size
		if blk.Size > 0 {
			ops = append(ops, Opcode{Tag: OpEqual, I1: blk.A, I2: i, J1: blk.B, J2: j})
		}
	}
	return ops
}

// Ratio is 2*M / (len(a)+len(b)) where M counts tokens inside matching
// blocks. Two empty sequences are identical by definition: 1.0.
func (m *matcher) Ratio() float64 {
	matches := 0
	for _, blk := range m.MatchingBlocks() {
		matches += blk.Size
	}
	length := len(m.a) + len(m.b)
	if length == 0 {
		return 1.0
	}
	return 2.0 * float64(matches) / float64(length)
}
