package secondary_structure

import "testing"

func TestDotBracketRoundTrip(t *testing.T) {
	structure := "..((..)).."
	pairList, err := PairListFromDotBracket(structure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := DotBracketFromPairList(pairList); got != structure {
		t.Errorf("round trip = %q, want %q", got, structure)
	}
}

func TestPairListFromDotBracketRejectsUnbalanced(t *testing.T) {
	if _, err := PairListFromDotBracket("(("); err == nil {
		t.Errorf("expected error for unbalanced '('")
	}
	if _, err := PairListFromDotBracket("))"); err == nil {
		t.Errorf("expected error for unbalanced ')'")
	}
}

func TestBuildArenaHairpin(t *testing.T) {
	structure := "..((..)).."
	pairList, _ := PairListFromDotBracket(structure)
	arena := BuildArena(pairList, len(structure))

	root := arena.Loops[0]
	if root.Kind != ExteriorLoop {
		t.Fatalf("root kind = %v, want ExteriorLoop", root.Kind)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}

	// (2,7) encloses the pair (3,6), so the hairpin is the loop closed by
	// the inner pair, one level below the stack.
	hairpin := arena.Loops[arena.Loops[root.Children[0]].Children[0]]
	if hairpin.Kind != HairpinLoop {
		t.Errorf("nested loop kind = %v, want HairpinLoop", hairpin.Kind)
	}
	if hairpin.ClosingFivePrime != 3 || hairpin.ClosingThreePrime != 6 {
		t.Errorf("closing pair = (%d,%d), want (3,6)", hairpin.ClosingFivePrime, hairpin.ClosingThreePrime)
	}
}

func TestBuildArenaMultiLoop(t *testing.T) {
	structure := "(..(..)..(..)..)"
	pairList, err := PairListFromDotBracket(structure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arena := BuildArena(pairList, len(structure))

	root := arena.Loops[0]
	outer := arena.Loops[root.Children[0]]
	if outer.Kind != MultiLoop {
		t.Errorf("outer loop kind = %v, want MultiLoop", outer.Kind)
	}
	if len(outer.Children) != 2 {
		t.Errorf("outer loop has %d children, want 2", len(outer.Children))
	}
}
