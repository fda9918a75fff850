package tracking

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	stateDim = 6 // [x y z vx vy vz]
	measDim  = 3 // [x y z]

	// MinDeterminantThreshold is the smallest innovation covariance
	// determinant accepted before the gain computation is refused.
	MinDeterminantThreshold = 1e-12
)

// FilterConfig holds the noise parameters of the constant-velocity model.
type FilterConfig struct {
	InitialCovariance float64 // diagonal of Pf after Initialize
	ProcessNoise      float64 // per-second process noise added on every axis
	MeasurementNoise  float64 // diagonal of R (position variance)
}

// Filter is a constant-velocity Kalman filter over [x y z vx vy vz] that
// observes position only.
//
// Sf/Pf are the filtered estimate at the reference time, Sp/Pp the
// prediction for the most recent Predict call. Predict never changes Sf/Pf,
// so calling it twice with the same time has no extra effect.
type Filter struct {
	cfg FilterConfig

	sf *mat.VecDense
	pf *mat.SymDense
	sp *mat.VecDense
	pp *mat.SymDense

	refTime  float64 // time of Sf/Pf
	predTime float64 // time of Sp/Pp
}

// NewFilter creates an uninitialised filter. Call Initialize before use.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{
		cfg: cfg,
		sf:  mat.NewVecDense(stateDim, nil),
		pf:  mat.NewSymDense(stateDim, nil),
		sp:  mat.NewVecDense(stateDim, nil),
		pp:  mat.NewSymDense(stateDim, nil),
	}
}

// Initialize sets the filtered state, resets Pf to InitialCovariance·I and
// takes t as the reference time.
func (f *Filter) Initialize(x, y, z, vx, vy, vz, t float64) {
	for i, v := range []float64{x, y, z, vx, vy, vz} {
		f.sf.SetVec(i, v)
	}
	f.pf.Zero()
	for i := 0; i < stateDim; i++ {
		f.pf.SetSym(i, i, f.cfg.InitialCovariance)
	}
	f.refTime = t
	f.sp.CopyVec(f.sf)
	f.pp.CopySym(f.pf)
	f.predTime = t
}

// transition builds F for a time step dt:
//
//	F = [I  dt·I]
//	    [0   I  ]
func transition(dt float64) *mat.Dense {
	F := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		F.Set(i, i, 1)
	}
	for i := 0; i < measDim; i++ {
		F.Set(i, i+measDim, dt)
	}
	return F
}

// Predict propagates Sf/Pf to time t and stores the result in Sp/Pp.
// Process noise is ProcessNoise·|Δt| on every state axis.
func (f *Filter) Predict(t float64) {
	dt := t - f.refTime
	F := transition(dt)

	f.sp.MulVec(F, f.sf)

	var fp, fpft mat.Dense
	fp.Mul(F, f.pf)
	fpft.Mul(&fp, F.T())

	q := f.cfg.ProcessNoise * math.Abs(dt)
	symmetrizeInto(f.pp, &fpft)
	for i := 0; i < stateDim; i++ {
		f.pp.SetSym(i, i, f.pp.At(i, i)+q)
	}
	f.predTime = t
}

// Update corrects the prediction for time t with a position measurement.
// If the last Predict was for a different time, Update predicts first.
// Returns ErrSingularCovariance, leaving Sf/Pf untouched, when the
// innovation covariance cannot be inverted.
func (f *Filter) Update(z [3]float64, t float64) error {
	if f.predTime != t {
		f.Predict(t)
	}

	// S = H·Pp·Hᵀ + R, the top-left position block plus measurement noise.
	S := mat.NewSymDense(measDim, nil)
	for i := 0; i < measDim; i++ {
		for j := i; j < measDim; j++ {
			S.SetSym(i, j, f.pp.At(i, j))
		}
		S.SetSym(i, i, S.At(i, i)+f.cfg.MeasurementNoise)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(S); !ok {
		return ErrSingularCovariance
	}
	if det := chol.Det(); det < MinDeterminantThreshold || math.IsNaN(det) {
		return ErrSingularCovariance
	}

	// Pp·Hᵀ is the first three columns of Pp.
	pht := mat.NewDense(stateDim, measDim, nil)
	for i := 0; i < stateDim; i++ {
		for j := 0; j < measDim; j++ {
			pht.Set(i, j, f.pp.At(i, j))
		}
	}

	// K = Pp·Hᵀ·S⁻¹, solved as S·Kᵀ = (Pp·Hᵀ)ᵀ.
	var kt mat.Dense
	if err := chol.SolveTo(&kt, pht.T()); err != nil {
		return ErrSingularCovariance
	}

	innovation := mat.NewVecDense(measDim, nil)
	for i := 0; i < measDim; i++ {
		innovation.SetVec(i, z[i]-f.sp.AtVec(i))
	}

	var correction mat.VecDense
	correction.MulVec(kt.T(), innovation)
	f.sf.AddVec(f.sp, &correction)

	// Pf = (I − K·H)·Pp. K·H places K in the first three columns.
	ikh := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		ikh.Set(i, i, 1)
		for j := 0; j < measDim; j++ {
			ikh.Set(i, j, ikh.At(i, j)-kt.At(j, i))
		}
	}
	var updated mat.Dense
	updated.Mul(ikh, f.pp)
	symmetrizeInto(f.pf, &updated)

	// The prediction for t is now the corrected estimate.
	f.sp.CopyVec(f.sf)
	f.pp.CopySym(f.pf)
	f.refTime = t
	return nil
}

// Coast accepts the prediction as the new estimate (Sf, Pf = Sp, Pp).
// Used when a track receives no detection in a batch.
func (f *Filter) Coast() {
	f.sf.CopyVec(f.sp)
	f.pf.CopySym(f.pp)
	f.refTime = f.predTime
}

// symmetrizeInto writes (a + aᵀ)/2 into dst.
func symmetrizeInto(dst *mat.SymDense, a mat.Matrix) {
	n := dst.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
}

// Time returns the reference time of the filtered estimate.
func (f *Filter) Time() float64 { return f.refTime }

// State returns a copy of Sf.
func (f *Filter) State() [6]float64 { return vec6(f.sf) }

// Predicted returns a copy of Sp.
func (f *Filter) Predicted() [6]float64 { return vec6(f.sp) }

// Position returns the filtered position.
func (f *Filter) Position() [3]float64 {
	return [3]float64{f.sf.AtVec(0), f.sf.AtVec(1), f.sf.AtVec(2)}
}

// Velocity returns the filtered velocity.
func (f *Filter) Velocity() [3]float64 {
	return [3]float64{f.sf.AtVec(3), f.sf.AtVec(4), f.sf.AtVec(5)}
}

// PredictedPosition returns the predicted position.
func (f *Filter) PredictedPosition() [3]float64 {
	return [3]float64{f.sp.AtVec(0), f.sp.AtVec(1), f.sp.AtVec(2)}
}

// Covariance returns a copy of Pf.
func (f *Filter) Covariance() *mat.SymDense {
	c := mat.NewSymDense(stateDim, nil)
	c.CopySym(f.pf)
	return c
}

// PredictedCovariance returns a copy of Pp.
func (f *Filter) PredictedCovariance() *mat.SymDense {
	c := mat.NewSymDense(stateDim, nil)
	c.CopySym(f.pp)
	return c
}

// PredictedPositionCovariance returns a copy of the 3×3 position block of Pp.
func (f *Filter) PredictedPositionCovariance() *mat.SymDense {
	c := mat.NewSymDense(measDim, nil)
	for i := 0; i < measDim; i++ {
		for j := i; j < measDim; j++ {
			c.SetSym(i, j, f.pp.At(i, j))
		}
	}
	return c
}

func vec6(v *mat.VecDense) [6]float64 {
	var out [6]float64
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
