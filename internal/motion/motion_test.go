package motion

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestConstAccFZeroDt(t *testing.T) {
	m := ConstAcc{QVariance: 1}
	f := m.F(0)
	var identity mat.Dense
	identity.CloneFrom(f)
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if got := f.At(i, j); math.Abs(got-want) > 1e-12 {
				t.Fatalf("F(0)[%d][%d] = %f, want %f", i, j, got, want)
			}
		}
	}
}

func TestConstAccQZeroDtIsZero(t *testing.T) {
	m := ConstAcc{QVariance: 1}
	q := m.Q(0)
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			if got := q.At(i, j); got != 0 {
				t.Fatalf("Q(0)[%d][%d] = %f, want 0", i, j, got)
			}
		}
	}
}

func TestConstAccQDiagonalPlacement(t *testing.T) {
	// Verify the scattered placement: the x-position/x-velocity term (0,3)
	// of x's own pos/vel/accel chain is non-zero, while cross terms between
	// different axes ((0,1) and (0,4)) are zero.
	m := ConstAcc{QVariance: 1}
	q := m.Q(0.1)
	if q.At(0, 1) != 0 {
		t.Errorf("expected zero cross-axis term Q[x][y], got %f", q.At(0, 1))
	}
	if q.At(0, 3) == 0 {
		t.Errorf("expected non-zero Q[x][vx] term (same axis chain)")
	}
	if q.At(0, 4) != 0 {
		t.Errorf("expected zero cross-axis term Q[x][vy], got %f", q.At(0, 4))
	}
}

func TestConstVelFBlockIdentity(t *testing.T) {
	m := ConstVel{QVariance: 1}
	f := m.F(0.5)
	if f.At(0, 3) != 0.5 {
		t.Errorf("expected F[x][vx] = dt, got %f", f.At(0, 3))
	}
	if f.At(3, 3) != 1 {
		t.Errorf("expected F[vx][vx] = 1, got %f", f.At(3, 3))
	}
}

func TestConstVelQBlockDiagonal(t *testing.T) {
	m := ConstVel{QVariance: 1}
	q := m.Q(0.2)
	if q.At(0, 3) != 0 {
		t.Errorf("expected zero cross-group term Q[x][vx] (literal block_diag), got %f", q.At(0, 3))
	}
	if q.At(0, 1) == 0 {
		t.Errorf("expected non-zero within-position-group term Q[x][y]")
	}
}

func TestConstAccStateVecPadsZeroAcceleration(t *testing.T) {
	m := ConstAcc{}
	v := m.StateVec([6]float64{1, 2, 3, 0.1, 0.2, 0.3})
	for i := 6; i < 9; i++ {
		if v.AtVec(i) != 0 {
			t.Errorf("expected zero acceleration padding at index %d, got %f", i, v.AtVec(i))
		}
	}
}
