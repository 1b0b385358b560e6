package pinn

import (
	"fmt"
	"math"

	"fatiguepinn/internal/interp"
)

// PhysicsTables are the three frozen lookups of the bearing fatigue model.
type PhysicsTables struct {
	Kappa *interp.TableLayer
	Etac  *interp.TableLayer
	ASKF  *interp.TableLayer
}

// PhysicsGraph computes the damage rate from routed step features:
//
//	invLoad    = 1 / 10^load
//	kappa      = kappaTable(bearingTemp, damageProxy)
//	etac       = etacTable(kappa, damageProxy)
//	x2         = Pu * etac * invLoad
//	aSKF       = askfTable(x2, kappa)
//	damageRate = sn(load) * cycles / aSKF
type PhysicsGraph struct {
	tables PhysicsTables
	sn     *SNCurve
	pu     float64
	router FeatureRouter
	width  int
	dtype  DType
}

// PhysicsTrace exposes every intermediate value of one evaluation.
type PhysicsTrace struct {
	InvLoad    float64
	Kappa      float64
	Etac       float64
	X1         float64
	X2         float64
	ASKF       float64
	InvASKF    float64
	SN         float64
	DamageRate float64
}

func NewPhysicsGraph(tables PhysicsTables, sn *SNCurve, pu float64, router FeatureRouter, width int, dtype DType) (*PhysicsGraph, error) {
	if tables.Kappa == nil || tables.Etac == nil || tables.ASKF == nil {
		return nil, fmt.Errorf("%w: kappa, etac and aSKF tables are required", ErrInvalidConfig)
	}
	if sn == nil {
		return nil, fmt.Errorf("%w: sn-curve is required", ErrInvalidConfig)
	}
	if err := router.Validate(width); err != nil {
		return nil, err
	}
	for _, set := range router.sets() {
		if len(set.indices) != 1 {
			return nil, fmt.Errorf("%w: %s must select exactly one feature, got %d", ErrInvalidConfig, set.name, len(set.indices))
		}
	}
	return &PhysicsGraph{
		tables: tables,
		sn:     sn,
		pu:     pu,
		router: router,
		width:  width,
		dtype:  dtype,
	}, nil
}

func (g *PhysicsGraph) InputWidth() int { return g.width }

func (g *PhysicsGraph) DamageRate(x []float64) (float64, error) {
	trace, err := g.Trace(x)
	if err != nil {
		return 0, err
	}
	return trace.DamageRate, nil
}

// Trace evaluates the graph on a full step vector.
func (g *PhysicsGraph) Trace(x []float64) (PhysicsTrace, error) {
	if len(x) != g.width {
		return PhysicsTrace{}, fmt.Errorf("%w: step vector width %d, want %d", ErrIndexOutOfRange, len(x), g.width)
	}
	routed, err := g.router.Route(x)
	if err != nil {
		return PhysicsTrace{}, err
	}
	return g.Evaluate(routed)
}

// Evaluate runs the pipeline on already routed features. Only the first
// element of each sub-vector is used.
func (g *PhysicsGraph) Evaluate(r Routed) (PhysicsTrace, error) {
	if len(r.DamageProxy) == 0 || len(r.Cycle) == 0 || len(r.Load) == 0 || len(r.BearingTemp) == 0 {
		return PhysicsTrace{}, fmt.Errorf("%w: every routed feature must be present", ErrInvalidConfig)
	}
	c := g.dtype.Cast
	damage, cycles, load, temp := r.DamageProxy[0], r.Cycle[0], r.Load[0], r.BearingTemp[0]

	var t PhysicsTrace
	t.InvLoad = c(1 / math.Pow(10, load))

	kappa, err := g.tables.Kappa.Lookup(temp, damage)
	if err != nil {
		return PhysicsTrace{}, fmt.Errorf("kappa lookup: %w", err)
	}
	t.Kappa = c(kappa)

	etac, err := g.tables.Etac.Lookup(t.Kappa, damage)
	if err != nil {
		return PhysicsTrace{}, fmt.Errorf("etac lookup: %w", err)
	}
	t.Etac = c(etac)

	t.X1 = c(g.pu * t.Etac)
	t.X2 = c(t.X1 * t.InvLoad)

	askf, err := g.tables.ASKF.Lookup(t.X2, t.Kappa)
	if err != nil {
		return PhysicsTrace{}, fmt.Errorf("aSKF lookup: %w", err)
	}
	t.ASKF = c(askf)
	t.InvASKF = c(1 / t.ASKF)

	t.SN = c(g.sn.Eval(load))
	t.DamageRate = c(c(t.SN*cycles) * t.InvASKF)
	return t, nil
}
