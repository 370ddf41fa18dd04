package fingerprint

import "testing"

func TestSum_Deterministic(t *testing.T) {
	a := Sum([]byte("user:42"))
	b := Sum([]byte("user:42"))
	if a != b {
		t.Errorf("Sum() not deterministic: %q != %q", a, b)
	}
}

func TestSum_FixedLength(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("k"),
		[]byte(`{"plan":"pro"}`),
		make([]byte, 1<<16),
	}
	for _, in := range inputs {
		if got := Sum(in); len(got) != Size {
			t.Errorf("Sum(%d bytes) length = %d, want %d", len(in), len(got), Size)
		}
	}
}

func TestSum_DistinctInputs(t *testing.T) {
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("Sum() collided on distinct short inputs")
	}
}

func TestSum_EmptyInput(t *testing.T) {
	// Empty input is valid and must hash the same as an empty slice.
	if Sum(nil) != Sum([]byte{}) {
		t.Error("Sum(nil) != Sum(empty)")
	}
}

func TestSumString_MatchesSum(t *testing.T) {
	if SumString("hello") != Sum([]byte("hello")) {
		t.Error("SumString() disagrees with Sum()")
	}
}
