package services

import "testing"

func TestXPRequiredForLevel(t *testing.T) {
	cases := []struct {
		level int
		want  int
	}{
		{0, 0},
		{-1, 0},
		{1, 500},
		{2, 1415},
		{4, 4000},
	}
	for _, tc := range cases {
		if got := XPRequiredForLevel(tc.level); got != tc.want {
			t.Fatalf("XPRequiredForLevel(%d): want=%d got=%d", tc.level, tc.want, got)
		}
	}
}

func TestLevelForTotalXP(t *testing.T) {
	if got := LevelForTotalXP(0); got != 0 {
		t.Fatalf("level at zero xp: want=0 got=%d", got)
	}
	if got := LevelForTotalXP(499); got != 0 {
		t.Fatalf("level below first threshold: want=0 got=%d", got)
	}
	if got := LevelForTotalXP(500); got != 1 {
		t.Fatalf("level at first threshold: want=1 got=%d", got)
	}

	// Threshold boundaries must agree with the curve in both directions.
	for level := 1; level <= 50; level++ {
		at := XPRequiredForLevel(level)
		if got := LevelForTotalXP(at); got != level {
			t.Fatalf("level at threshold %d: want=%d got=%d", at, level, got)
		}
		if got := LevelForTotalXP(at - 1); got != level-1 {
			t.Fatalf("level just below threshold %d: want=%d got=%d", at, level-1, got)
		}
	}
}

func TestLevelForTotalXPMonotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 20000; xp += 37 {
		level := LevelForTotalXP(xp)
		if level < prev {
			t.Fatalf("level regressed at xp=%d: %d -> %d", xp, prev, level)
		}
		prev = level
	}
}
