package energy_params

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultTableStackFiniteExceptNone(t *testing.T) {
	table := NewDefaultTable()
	for p := BasePairType(0); p < 6; p++ {
		for q := BasePairType(0); q < 6; q++ {
			if table.Stack[p][q] >= inf {
				t.Errorf("Stack[%d][%d] should be finite", p, q)
			}
		}
	}
	for p := BasePairType(0); p < 7; p++ {
		if table.Stack[p][PairNone] != inf {
			t.Errorf("Stack[%d][PairNone] should be inf", p)
		}
	}
}

func TestTableJSONRoundTrip(t *testing.T) {
	table := NewDefaultTable()
	data, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var reloaded Table
	if err := json.Unmarshal(data, &reloaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if diff := cmp.Diff(table, &reloaded, cmp.AllowUnexported(Table{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopSizeExtrapolatesPastMaxLenLoop(t *testing.T) {
	table := NewDefaultTable()
	within := LoopSize(table.Hairpin, table.LogLoopPenalty, MaxLenLoop)
	beyond := LoopSize(table.Hairpin, table.LogLoopPenalty, MaxLenLoop+10)
	if beyond <= within {
		t.Errorf("extrapolated hairpin penalty (%d) should exceed the tabulated max (%d)", beyond, within)
	}
}

func TestScaleAppliesLoopBias(t *testing.T) {
	table := NewDefaultTable()
	scaled := table.Scale(37.0, 25)
	for i, v := range table.Hairpin {
		if v >= inf {
			continue
		}
		if scaled.Hairpin[i] != v+25 {
			t.Errorf("Hairpin[%d] = %d, want %d", i, scaled.Hairpin[i], v+25)
		}
	}
	if scaled.JoinPenalty != table.JoinPenalty+25 {
		t.Errorf("JoinPenalty not biased")
	}
}
