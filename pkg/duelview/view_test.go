package duelview

import "testing"

func TestComputeMaterial(t *testing.T) {
	board := [8]string{
		"rnbqkbnr",
		"pppppppp",
		"........",
		"........",
		"........",
		"........",
		"PPPPPPPP",
		"RNB.KBNR",
	}
	m := ComputeMaterial(board)
	if m.White != 30 || m.Black != 39 || m.Diff() != -9 {
		t.Fatalf("material = %+v", m)
	}
}

func TestDomainErrorMessage(t *testing.T) {
	if got := (DomainError{Code: CodeIllegalMove}).Error(); got != CodeIllegalMove {
		t.Fatalf("Error() = %q", got)
	}
	if got := (DomainError{}).Error(); got != "duel error" {
		t.Fatalf("Error() = %q", got)
	}
}
