/*
Package secondary_structure converts between dot-bracket notation and
nucleic_acid.PairList, and builds the "loop arena" representation used by
the backtracking family to walk a structure's loop decomposition.

'Dot-bracket' notation is a string where each character represents a base:
unpaired nucleotides are '.', and base pairs are denoted by matching '(' /
')' characters. For example, "..((..)).." denotes a hairpin where the bases
at index 2 and 7, and at index 3 and 6, are paired.
*/
package secondary_structure

import (
	"fmt"
	"strings"

	"github.com/TimothyStiles/nupack-go/nucleic_acid"
)

const (
	unpairedRune = '.'
	openRune     = '('
	closeRune    = ')'
)

// PairListFromDotBracket parses a dot-bracket string into a PairList.
func PairListFromDotBracket(structure string) (nucleic_acid.PairList, error) {
	n := len(structure)
	pairList := nucleic_acid.NewUnpaired(n)
	stack := make([]int, 0, n)

	for i := 0; i < n; i++ {
		switch structure[i] {
		case openRune:
			stack = append(stack, i)
		case closeRune:
			if len(stack) == 0 {
				return nil, fmt.Errorf("secondary_structure: unbalanced ')' at position %d", i)
			}
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pairList.Pair(j, i)
		case unpairedRune:
			// already unpaired
		default:
			return nil, fmt.Errorf("secondary_structure: invalid character %q at position %d", structure[i], i)
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("secondary_structure: unbalanced '(' at position %d", stack[len(stack)-1])
	}
	return pairList, nil
}

// DotBracketFromPairList renders a PairList back into dot-bracket notation.
// The PairList must be non-crossing (Validate should be called first by the
// caller if that has not already been established).
func DotBracketFromPairList(pairList nucleic_acid.PairList) string {
	var sb strings.Builder
	for i, j := range pairList {
		switch {
		case j == i:
			sb.WriteByte(unpairedRune)
		case j > i:
			sb.WriteByte(openRune)
		default:
			sb.WriteByte(closeRune)
		}
	}
	return sb.String()
}
