package rules

import (
	"errors"
	"testing"

	"github.com/park285/cheese-duel/internal/position"
)

func mustLoad(t *testing.T, fen string) *Oracle {
	t.Helper()
	o, err := Load(fen)
	if err != nil {
		t.Fatalf("Load(%q): %v", fen, err)
	}
	return o
}

func uci(t *testing.T, s string) position.Coordinates {
	t.Helper()
	c, err := position.ParseCoordinates(s)
	if err != nil {
		t.Fatalf("ParseCoordinates(%q): %v", s, err)
	}
	return c
}

func TestApplyPawnMove(t *testing.T) {
	o := mustLoad(t, position.StandardStart)
	if !o.IsLegal(uci(t, "e2e4")) {
		t.Fatalf("e2e4 should be legal")
	}
	if o.IsLegal(uci(t, "e2e5")) {
		t.Fatalf("e2e5 should be illegal")
	}
	san, fen, err := o.Apply(uci(t, "e2e4"), 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if san != "e4" {
		t.Fatalf("san = %q, want e4", san)
	}
	if o.SideToMove() != position.Black || fen != o.FEN() {
		t.Fatalf("unexpected state after e4: %s", fen)
	}
	if v := o.Classify(); v.Terminal() {
		t.Fatalf("game should be ongoing, got %+v", v)
	}
}

func TestApplyIllegal(t *testing.T) {
	o := mustLoad(t, position.StandardStart)
	before := o.FEN()
	if _, _, err := o.Apply(uci(t, "e1e3"), 0); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if o.FEN() != before {
		t.Fatalf("illegal move mutated the position")
	}
}

func TestSmotheredMateByBlack(t *testing.T) {
	o := mustLoad(t, "6k1/8/8/8/4n3/8/6PP/6RK b - - 0 1")
	san, _, err := o.Apply(uci(t, "e4f2"), 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if san != "Nf2#" {
		t.Fatalf("san = %q, want Nf2#", san)
	}
	v := o.Classify()
	if v.Outcome != BlackWon || v.Reason != Checkmate {
		t.Fatalf("verdict = %+v, want black checkmate", v)
	}
}

func TestStalemate(t *testing.T) {
	o := mustLoad(t, "7k/4Q3/6K1/8/8/8/8/8 w - - 0 1")
	if _, _, err := o.Apply(uci(t, "e7f7"), 0); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v := o.Classify()
	if v.Outcome != Drawn || v.Reason != Stalemate {
		t.Fatalf("verdict = %+v, want stalemate", v)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	o := mustLoad(t, "4k3/8/8/8/8/8/3n4/4K3 w - - 0 1")
	if _, _, err := o.Apply(uci(t, "e1d2"), 0); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v := o.Classify()
	if v.Outcome != Drawn || v.Reason != InsufficientMaterial {
		t.Fatalf("verdict = %+v, want insufficient material", v)
	}
}

func TestThreefoldRepetitionIsClaimed(t *testing.T) {
	o := mustLoad(t, position.StandardStart)
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}
	for i, mv := range shuffle {
		if _, _, err := o.Apply(uci(t, mv), 0); err != nil {
			t.Fatalf("Apply(%s): %v", mv, err)
		}
		v := o.Classify()
		if i < len(shuffle)-1 && v.Terminal() {
			t.Fatalf("terminal too early after %s: %+v", mv, v)
		}
		if i == len(shuffle)-1 && (v.Outcome != Drawn || v.Reason != ThreefoldRepetition) {
			t.Fatalf("verdict = %+v, want threefold repetition", v)
		}
	}
}

func TestPromotion(t *testing.T) {
	o := mustLoad(t, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	c := uci(t, "e7e8")
	if o.IsLegal(c) {
		t.Fatalf("plain e7e8 must require a promotion piece")
	}
	if !o.IsLegalPromotion(c, position.Queen) || !o.IsLegalPromotion(c, position.Knight) {
		t.Fatalf("promotion to queen and knight should be legal")
	}
	if o.IsLegalPromotion(c, position.King) || o.IsLegalPromotion(c, 0) {
		t.Fatalf("promotion to king or nothing must be illegal")
	}
	san, err := o.Notate(c, position.Knight)
	if err != nil || san != "e8=N" {
		t.Fatalf("Notate = %q, %v", san, err)
	}
	if _, _, err := o.Apply(c, position.Knight); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := o.CountPieces(position.Knight, position.White); got != 1 {
		t.Fatalf("white knights = %d, want 1", got)
	}
	if got := o.CountPieces(position.Pawn, position.White); got != 0 {
		t.Fatalf("white pawns = %d, want 0", got)
	}
}

func TestInCheck(t *testing.T) {
	cases := []struct {
		fen   string
		white bool
		black bool
	}{
		{position.StandardStart, false, false},
		{"4k3/8/8/8/8/8/8/4K2r w - - 0 1", true, false},
		{"8/8/8/3k4/4P3/8/8/4K3 b - - 0 1", false, true},
		{"4k3/8/5N2/8/8/8/8/4K3 b - - 0 1", false, true},
		{"4k3/8/8/8/1b6/8/8/4K3 w - - 0 1", true, false},
		{"4k3/8/8/8/1b6/2P5/8/4K3 w - - 0 1", false, false},
	}
	for _, tc := range cases {
		o := mustLoad(t, tc.fen)
		if got := o.InCheck(position.White); got != tc.white {
			t.Errorf("%s: InCheck(white) = %v", tc.fen, got)
		}
		if got := o.InCheck(position.Black); got != tc.black {
			t.Errorf("%s: InCheck(black) = %v", tc.fen, got)
		}
	}
}

func TestValidateLegalStartWithOracle(t *testing.T) {
	if err := position.ValidateLegalStart(position.StandardStart, Inspect); err != nil {
		t.Fatalf("standard start rejected: %v", err)
	}
	// white to move while black is already in check
	err := position.ValidateLegalStart("4k3/8/8/8/8/8/8/4K2R w - - 0 1", Inspect)
	if err != nil {
		t.Fatalf("rook on h1 does not check e8: %v", err)
	}
	err = position.ValidateLegalStart("4k3/8/8/8/8/8/8/4R1K1 w - - 0 1", Inspect)
	if !errors.Is(err, position.ErrOppositeKingInCheck) {
		t.Fatalf("expected ErrOppositeKingInCheck, got %v", err)
	}
	err = position.ValidateLegalStart("4k3/8/8/8/8/8/8/8 w - - 0 1", Inspect)
	if !errors.Is(err, position.ErrIllegalStartingPosition) && !errors.Is(err, position.ErrMalformedExchangeText) {
		t.Fatalf("expected a rejection for a missing white king, got %v", err)
	}
}
