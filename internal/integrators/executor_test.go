package integrators_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/integrators"
	"github.com/san-kum/timemarch/internal/metrics"
	"github.com/san-kum/timemarch/internal/physics"
)

var allSchemes = []TableEntry{
	Entry("forward euler", integrators.ForwardEuler),
	Entry("backward euler", integrators.BackwardEuler),
	Entry("crank-nicolson", integrators.CrankNicolson),
}

func negate(x dynamo.State) (dynamo.State, error) {
	dx := make(dynamo.State, len(x))
	for i := 1; i < len(x)-1; i++ {
		dx[i] = -x[i]
	}
	return dx, nil
}

func mustSelect(s integrators.Scheme, opts ...integrators.Option) *integrators.Executor {
	exec, err := integrators.Select(s, opts...)
	Expect(err).NotTo(HaveOccurred())
	return exec
}

// decayError integrates x' = -x on [0, 1] and returns |x(1) - e^-1|.
func decayError(s integrators.Scheme, steps int) float64 {
	times := dynamo.UniformGrid(0, 1, steps)
	traj, err := mustSelect(s).Integrate(context.Background(), physics.NewDecay(1), dynamo.State{1}, times, physics.Dirichlet{})
	Expect(err).NotTo(HaveOccurred())
	return math.Abs(traj.At(steps, 1) - math.Exp(-1))
}

type stubSolver struct {
	err error
}

func (s stubSolver) FindRoot(r dynamo.Residual, guess dynamo.State) (dynamo.State, error) {
	return nil, s.err
}

type recordingObserver struct {
	steps []integrators.StepInfo
}

func (r *recordingObserver) OnStep(info integrators.StepInfo) {
	r.steps = append(r.steps, info)
}

var _ = Describe("Executor", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("forward euler on x' = -x", func() {
		It("reproduces the hand-computed sequence with dt = 1", func() {
			traj, err := integrators.NewForwardEuler().Integrate(ctx, dynamo.SystemFunc(negate), dynamo.State{1.0}, []float64{0, 1, 2}, physics.Dirichlet{})
			Expect(err).NotTo(HaveOccurred())

			Expect(traj.Column(1)).To(Equal([]float64{1.0, 0.0, 0.0}))
			Expect(traj.Column(0)).To(Equal([]float64{0, 0, 0}))
			Expect(traj.Column(2)).To(Equal([]float64{0, 0, 0}))
		})

		It("converges at first order", func() {
			coarse := decayError(integrators.ForwardEuler, 100)
			fine := decayError(integrators.ForwardEuler, 200)

			Expect(coarse).To(BeNumerically("<", 0.01))
			Expect(coarse / fine).To(BeNumerically("~", 2, 0.1))
		})

		It("follows non-uniform increments", func() {
			times := []float64{0, 0.1, 0.3, 0.6}
			traj, err := integrators.NewForwardEuler().Integrate(ctx, physics.NewDecay(1), dynamo.State{1}, times, physics.Dirichlet{})
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.At(3, 1)).To(BeNumerically("~", 0.9*0.8*0.7, 1e-15))
		})
	})

	Describe("stability for dt*k > 2", func() {
		const k, dt, steps = 1.0, 2.5, 20

		var times []float64

		BeforeEach(func() {
			times = dynamo.UniformGrid(0, dt*steps, steps)
		})

		It("lets forward euler diverge", func() {
			traj, err := integrators.NewForwardEuler().Integrate(ctx, physics.NewDecay(k), dynamo.State{1}, times, physics.Dirichlet{})
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Abs(traj.At(steps, 1))).To(BeNumerically(">", 1e3))
		})

		It("keeps backward euler bounded", func() {
			traj, err := integrators.NewBackwardEuler().Integrate(ctx, physics.NewDecay(k), dynamo.State{1}, times, physics.Dirichlet{})
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < traj.Rows(); i++ {
				Expect(math.Abs(traj.At(i, 1))).To(BeNumerically("<=", 1+1e-9))
			}
			Expect(traj.At(1, 1)).To(BeNumerically("~", 1/(1+k*dt), 1e-9))
		})
	})

	Describe("implicit accuracy", func() {
		It("gives first order for backward euler", func() {
			Expect(decayError(integrators.BackwardEuler, 20) / decayError(integrators.BackwardEuler, 40)).To(BeNumerically("~", 2, 0.15))
		})

		It("gives second order for crank-nicolson", func() {
			coarse := decayError(integrators.CrankNicolson, 10)
			fine := decayError(integrators.CrankNicolson, 20)
			Expect(coarse / fine).To(BeNumerically("~", 4, 0.2))
		})
	})

	DescribeTable("trajectory bookkeeping",
		func(s integrators.Scheme) {
			counter := metrics.NewStepCounter()
			bc := physics.NewCounting(physics.Dirichlet{Left: 0.25, Right: -0.5})
			phi0, err := physics.Profile("sine", 6, 1)
			Expect(err).NotTo(HaveOccurred())
			times := dynamo.UniformGrid(0, 0.05, 7)

			exec := mustSelect(s, integrators.WithStepCounter(counter.Inc))
			traj, err := exec.Integrate(ctx, physics.NewHeat(0.1, physics.CellWidth(6)), phi0, times, bc)
			Expect(err).NotTo(HaveOccurred())

			By("shaping the matrix T x (N+2)")
			Expect(traj.Rows()).To(Equal(len(times)))
			Expect(traj.Cols()).To(Equal(len(phi0) + 2))

			By("storing the initial condition untouched")
			Expect([]float64(traj.Interior(0))).To(Equal([]float64(phi0)))

			By("applying the boundary once per row")
			Expect(bc.Calls()).To(Equal(len(times)))
			for i := 0; i < traj.Rows(); i++ {
				Expect(traj.At(i, 0)).To(Equal(0.25))
				Expect(traj.At(i, 7)).To(Equal(-0.5))
			}

			By("counting one step per sub-interval")
			Expect(counter.Value()).To(Equal(int64(len(times) - 1)))
		},
		allSchemes,
	)

	DescribeTable("reproducibility",
		func(s integrators.Scheme) {
			phi0, _ := physics.Profile("gaussian", 10, 1)
			times := dynamo.UniformGrid(0, 0.1, 10)
			sys := physics.NewBurgers(0.05, physics.CellWidth(10))

			a, err := mustSelect(s).Integrate(ctx, sys, phi0, times, physics.Periodic{})
			Expect(err).NotTo(HaveOccurred())
			b, err := mustSelect(s).Integrate(ctx, sys, phi0, times, physics.Periodic{})
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Equal(b)).To(BeTrue())
		},
		allSchemes,
	)

	DescribeTable("ghost cell ownership",
		func(s integrators.Scheme) {
			const ghost = 7.0
			seen := 0
			sys := dynamo.SystemFunc(func(x dynamo.State) (dynamo.State, error) {
				if x[0] != ghost || x[len(x)-1] != ghost {
					return nil, errors.New("stale ghost cell")
				}
				dx := make(dynamo.State, len(x))
				for i := range dx {
					dx[i] = -0.5
				}
				return dx, nil
			})
			bc := dynamo.BoundaryFunc(func(x dynamo.State) error {
				if seen > 0 {
					Expect(x[0]).To(Equal(0.0), "recurrence wrote the left ghost cell")
					Expect(x[len(x)-1]).To(Equal(0.0), "recurrence wrote the right ghost cell")
				}
				seen++
				x[0], x[len(x)-1] = ghost, ghost
				return nil
			})

			_, err := mustSelect(s).Integrate(ctx, sys, dynamo.State{1, 2, 3}, []float64{0, 0.1, 0.2, 0.3}, bc)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(4))
		},
		allSchemes,
	)

	Describe("observers", func() {
		It("reports solver work for implicit steps", func() {
			obs := &recordingObserver{}
			exec := integrators.NewCrankNicolson(integrators.WithObserver(obs))
			phi0, _ := physics.Profile("gaussian", 8, 1)
			_, err := exec.Integrate(ctx, physics.NewBurgers(0.05, physics.CellWidth(8)), phi0, dynamo.UniformGrid(0, 0.05, 5), physics.Periodic{})
			Expect(err).NotTo(HaveOccurred())

			Expect(obs.steps).To(HaveLen(5))
			for i, info := range obs.steps {
				Expect(info.Step).To(Equal(i + 1))
				Expect(info.Scheme).To(Equal(integrators.CrankNicolson))
				Expect(info.SolverIterations).To(BeNumerically(">=", 1))
				Expect(info.Evaluations).To(BeNumerically(">", 1))
			}
		})

		It("reports exactly one evaluation for explicit steps", func() {
			obs := &recordingObserver{}
			_, err := integrators.NewForwardEuler(integrators.WithObserver(obs)).Integrate(ctx, physics.NewDecay(1), dynamo.State{1}, []float64{0, 1, 2}, physics.Dirichlet{})
			Expect(err).NotTo(HaveOccurred())
			for _, info := range obs.steps {
				Expect(info.Evaluations).To(Equal(1))
				Expect(info.SolverIterations).To(BeZero())
			}
		})
	})

	Describe("failures", func() {
		It("rejects missing collaborators and bad grids", func() {
			exec := integrators.NewForwardEuler()
			_, err := exec.Integrate(ctx, nil, dynamo.State{1}, []float64{0, 1}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrNilCollaborator))

			_, err = exec.Integrate(ctx, physics.NewDecay(1), dynamo.State{1}, []float64{0}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrInvalidGrid))

			_, err = exec.Integrate(ctx, physics.NewDecay(1), dynamo.State{}, []float64{0, 1}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

			_, err = exec.Integrate(ctx, physics.NewDecay(1), dynamo.State{math.NaN()}, []float64{0, 1}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
		})

		It("surfaces non-convergence and aborts", func() {
			counter := metrics.NewStepCounter()
			nc := &dynamo.NonConvergenceError{Iterations: 50, ResidualNorm: 3}
			exec := integrators.NewBackwardEuler(integrators.WithSolver(stubSolver{err: nc}), integrators.WithStepCounter(counter.Inc))

			traj, err := exec.Integrate(ctx, physics.NewDecay(1), dynamo.State{1}, []float64{0, 1, 2}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrNonConvergence))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
			Expect(traj).NotTo(BeNil())
			Expect(traj.At(0, 1)).To(Equal(1.0))
			Expect(counter.Value()).To(BeZero())
		})

		It("does not store a stalled newton iterate as the next row", func() {
			// backward residual r(c) = 1 + 1e21 c^2 never vanishes
			sys := dynamo.SystemFunc(func(x dynamo.State) (dynamo.State, error) {
				dx := make(dynamo.State, len(x))
				dx[1] = x[1] - 1 - 1e21*x[1]*x[1]
				return dx, nil
			})
			counter := metrics.NewStepCounter()
			exec := integrators.NewBackwardEuler(integrators.WithStepCounter(counter.Inc))

			traj, err := exec.Integrate(ctx, sys, dynamo.State{0}, []float64{0, 1}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrNonConvergence))
			Expect(traj.At(1, 1)).To(Equal(0.0))
			Expect(counter.Value()).To(BeZero())
		})

		It("flags malformed derivatives as evaluation errors", func() {
			short := dynamo.SystemFunc(func(x dynamo.State) (dynamo.State, error) {
				return make(dynamo.State, len(x)-2), nil
			})
			for _, s := range integrators.Schemes() {
				_, err := mustSelect(s).Integrate(ctx, short, dynamo.State{1}, []float64{0, 1}, physics.Dirichlet{})
				Expect(err).To(MatchError(dynamo.ErrEvaluation), s.String())
				Expect(err).To(MatchError(dynamo.ErrDimensionMismatch), s.String())
			}
		})

		It("flags non-finite derivatives unless validation is off", func() {
			nan := dynamo.SystemFunc(func(x dynamo.State) (dynamo.State, error) {
				dx := make(dynamo.State, len(x))
				dx[1] = math.NaN()
				return dx, nil
			})
			_, err := integrators.NewForwardEuler().Integrate(ctx, nan, dynamo.State{1}, []float64{0, 1}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrInvalidState))

			traj, err := integrators.NewForwardEuler(integrators.WithValidation(false)).Integrate(ctx, nan, dynamo.State{1}, []float64{0, 1}, physics.Dirichlet{})
			Expect(err).NotTo(HaveOccurred())
			Expect(math.IsNaN(traj.At(1, 1))).To(BeTrue())
		})

		It("wraps evaluator errors", func() {
			boom := errors.New("boom")
			failing := dynamo.SystemFunc(func(dynamo.State) (dynamo.State, error) { return nil, boom })
			_, err := integrators.NewCrankNicolson().Integrate(ctx, failing, dynamo.State{1}, []float64{0, 1}, physics.Dirichlet{})
			Expect(err).To(MatchError(boom))
			Expect(err).To(MatchError(dynamo.ErrEvaluation))
		})

		It("propagates boundary errors", func() {
			boom := errors.New("bad boundary")
			calls := 0
			bc := dynamo.BoundaryFunc(func(dynamo.State) error {
				calls++
				if calls == 2 {
					return boom
				}
				return nil
			})
			_, err := integrators.NewForwardEuler().Integrate(ctx, physics.NewDecay(1), dynamo.State{1}, []float64{0, 1, 2}, bc)
			Expect(err).To(MatchError(boom))
			Expect(err).To(MatchError(dynamo.ErrBoundary))
		})

		It("stops before the next step when the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			counter := metrics.NewStepCounter()

			_, err := integrators.NewForwardEuler(integrators.WithStepCounter(counter.Inc)).Integrate(cctx, physics.NewDecay(1), dynamo.State{1}, []float64{0, 1, 2}, physics.Dirichlet{})
			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(err).To(MatchError(context.Canceled))
			Expect(counter.Value()).To(BeZero())
		})
	})

	Describe("heat equation", func() {
		It("damps a sine mode under every scheme", func() {
			const n = 16
			phi0, _ := physics.Profile("sine", n, 1)
			heat := physics.NewHeat(0.01, physics.CellWidth(n))
			times := dynamo.UniformGrid(0, 1, 20)
			Expect(times[1]).To(BeNumerically("<", heat.StableDt()))

			for _, s := range integrators.Schemes() {
				traj, err := mustSelect(s).Integrate(ctx, heat, phi0, times, physics.Dirichlet{})
				Expect(err).NotTo(HaveOccurred(), s.String())
				peak0 := traj.Interior(0).MaxAbs()
				peak := traj.Interior(traj.Rows() - 1).MaxAbs()
				Expect(peak).To(BeNumerically("<", peak0), s.String())
				Expect(peak).To(BeNumerically(">", 0), s.String())
			}
		})
	})
})
