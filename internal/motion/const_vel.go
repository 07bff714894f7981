package motion

import "gonum.org/v1/gonum/mat"

// ConstVel is the constant-velocity motion model: 6-state
// [x,y,z,vx,vy,vz], 6-measurement (identity selector). Spec §4.2.
type ConstVel struct {
	// QVariance is KF_Q_STD, the process-noise scale used to build Q(dt).
	QVariance float64
}

var _ Model = ConstVel{}

func (ConstVel) Dim() int     { return 6 }
func (ConstVel) MeasDim() int { return 6 }

func (ConstVel) StateVec(centroid6 [6]float64) *mat.VecDense {
	return mat.NewVecDense(6, centroid6[:])
}

// F returns the block-identity constant-velocity state transition matrix:
// position advances by dt*velocity, velocity unchanged
// (original_source/src/constants.py CONST_VEL_MODEL.KF_F).
func (ConstVel) F(dt float64) *mat.Dense {
	f := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		f.Set(i, i, 1)
	}
	for i := 0; i < 3; i++ {
		f.Set(i, i+3, dt)
	}
	return f
}

func (ConstVel) H() *mat.Dense {
	h := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		h.Set(i, i, 1)
	}
	return h
}

// Q is the literal block-diagonal of two 3x3 discrete-white-noise blocks
// over the position group (indices 0-2) and the velocity group (indices
// 3-5). Unlike the constant-acceleration model, this grouping already
// matches the state's [pos,vel]-grouped ordering, so no scattering is
// needed (see ConstAcc.Q and DESIGN.md for the contrasting case).
func (m ConstVel) Q(dt float64) *mat.Dense {
	block := discreteWhiteNoiseBlock3(dt, m.QVariance)
	q := mat.NewDense(6, 6, nil)
	for _, base := range []int{0, 3} {
		for bi := 0; bi < 3; bi++ {
			for bj := 0; bj < 3; bj++ {
				q.Set(base+bi, base+bj, block.At(bi, bj))
			}
		}
	}
	return q
}
