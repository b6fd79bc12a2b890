package integrators_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/integrators"
	"github.com/san-kum/psmsim/internal/metrics"
	"github.com/san-kum/psmsim/internal/physics"
	"github.com/san-kum/psmsim/internal/series"
)

// constant is x' = 0: every coefficient past the first stays zero.
type constant struct{}

func (constant) Recur([]float64, series.Table[float64], int) {}

// poisoned produces NaN coefficients.
type poisoned struct{}

func (poisoned) Recur(_ []float64, y series.Table[float64], n int) {
	y[0].Set(n+1, math.NaN())
}

type stepCounter struct{ steps []float64 }

func (c *stepCounter) OnStep(_, step float64, _ dynamo.State[float64]) {
	c.steps = append(c.steps, step)
}

var _ = Describe("Solver", func() {
	var cfg dynamo.Config

	BeforeEach(func() {
		cfg = dynamo.DefaultConfig()
	})

	Describe("ComputeCoefficients", func() {
		It("seeds index 0 with the initial conditions", func() {
			flame := physics.NewFlame[float64]()
			s := integrators.New[float64](flame, cfg)

			coeff, err := s.ComputeCoefficients(nil, []float64{0.5, 0.25}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(coeff).To(HaveLen(2))
			Expect(coeff.Degree()).To(Equal(10))
			Expect(coeff[0][0]).To(Equal(0.5))
			Expect(coeff[1][0]).To(Equal(0.25))
		})

		It("rejects a degree below 2", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			_, err := s.ComputeCoefficients([]float64{1}, []float64{1}, 1)
			Expect(err).To(MatchError(dynamo.ErrDegreeTooSmall))
		})

		It("rejects initial conditions that do not match the equation", func() {
			s := integrators.New[float64](physics.NewFlame[float64](), cfg)
			_, err := s.ComputeCoefficients(nil, []float64{0.5}, 10)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

			_, err = s.ComputeCoefficients(nil, nil, 10)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("leaves a full table untouched when asked for an order past its capacity", func() {
			const sentinel = -12345.0
			backing := []float64{sentinel, 1, 2, 3, 4, 5, sentinel}
			table := series.Table[float64]{series.Series[float64](backing[1:6:6])}
			Expect(table[0].Cap()).To(Equal(5))

			physics.NewLinear[float64]().Recur([]float64{1}, table, 5)
			physics.NewLinear[float64]().Recur([]float64{1}, table, 4)

			Expect(backing).To(Equal([]float64{sentinel, 1, 2, 3, 4, 5, sentinel}))
		})

		It("re-centers consistently", func() {
			sine := physics.NewSine[float64]()
			s := integrators.New[float64](sine, cfg)
			x0 := sine.InitialConditions([]float64{0.7})

			coeff, err := s.ComputeCoefficients(nil, x0, 20)
			Expect(err).NotTo(HaveOccurred())
			x1 := series.EvaluateAll(coeff, 0.2)

			back, err := s.ComputeCoefficients(nil, x1, 20)
			Expect(err).NotTo(HaveOccurred())
			x2 := series.EvaluateAll(back, -0.2)

			for j := range x0 {
				Expect(x2[j]).To(BeNumerically("~", x0[j], 1e-12))
			}
		})
	})

	Describe("FindSolution", func() {
		It("starts the flame trajectory at its initial value", func() {
			flame := physics.NewFlame[float64]()
			s := integrators.New[float64](flame, cfg)

			step, end := 0.1, 4.0
			tr, err := s.FindSolution(nil, flame.InitialConditions([]float64{0.5}), step, end, 10, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Positions[0]).To(Equal(0.0))
			Expect(tr.Values[0][0]).To(Equal(0.5))
			Expect(tr.Len()).To(Equal(int(end/step) + 1))
			for i := 1; i < tr.Len(); i++ {
				Expect(tr.Positions[i]).To(BeNumerically("~", 0.1*float64(i), 1e-12))
			}
		})

		It("walks backwards with negative positions", func() {
			lin := physics.NewLinear[float64]()
			s := integrators.New[float64](lin, cfg)

			tr, err := s.FindSolution([]float64{1}, []float64{1}, 0.25, 2, 20, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(9))
			Expect(tr.Positions[8]).To(Equal(-2.0))
			Expect(tr.Final()[0]).To(BeNumerically("~", math.Exp(-2), 1e-12))
		})

		It("validates its arguments", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			p, x := []float64{1}, []float64{1}

			_, err := s.FindSolution(p, x, 0, 1, 10, true)
			Expect(err).To(MatchError(dynamo.ErrNonPositiveStep))
			_, err = s.FindSolution(p, x, math.NaN(), 1, 10, true)
			Expect(err).To(MatchError(dynamo.ErrNonFiniteStep))
			_, err = s.FindSolution(p, x, 0.1, 1, 1, true)
			Expect(err).To(MatchError(dynamo.ErrDegreeTooSmall))
			_, err = s.FindSolution(p, x, 0.1, -1, 10, true)
			Expect(err).To(MatchError(dynamo.ErrInvalidInterval))
		})

		It("reports a non-finite state with its step", func() {
			s := integrators.New[float64](poisoned{}, cfg)

			tr, err := s.FindSolution(nil, []float64{1}, 0.1, 1, 5, true)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))

			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(1))
			Expect(stepErr.State).To(Equal([]float64{1}))
			Expect(tr.Len()).To(Equal(1))
		})
	})

	Describe("FindSolutionAdaptive", func() {
		DescribeTable("produces monotone positions",
			func(forward bool) {
				flame := physics.NewFlame[float64]()
				s := integrators.New[float64](flame, cfg)

				tr, err := s.FindSolutionAdaptive(nil, flame.InitialConditions(nil), 4, forward)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Len()).To(BeNumerically(">", 2))
				for i := 1; i < tr.Len(); i++ {
					if forward {
						Expect(tr.Positions[i]).To(BeNumerically(">", tr.Positions[i-1]))
					} else {
						Expect(tr.Positions[i]).To(BeNumerically("<", tr.Positions[i-1]))
					}
				}
				Expect(math.Abs(tr.Positions[tr.Len()-1])).To(BeNumerically(">=", 4))
			},
			Entry("forward", true),
			Entry("backward", false),
		)

		It("stops with a StepError before a singularity", func() {
			s := integrators.New[float64](physics.NewQuadratic[float64](), cfg)

			tr, err := s.FindSolutionAdaptive([]float64{1, 0, 0}, []float64{1}, 2, true)
			Expect(err).To(MatchError(dynamo.ErrDivergence))
			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Position).To(BeNumerically("<", 1))
			Expect(tr.Positions[tr.Len()-1]).To(BeNumerically("<", 1))
		})

		It("stops before the pole of x' = x² + 1 at π/2", func() {
			s := integrators.New[float64](physics.NewQuadratic[float64](), cfg)

			tr, err := s.FindSolutionAdaptive([]float64{1, 0, 1}, []float64{0}, 2, true)
			Expect(err).To(MatchError(dynamo.ErrDivergence))
			for _, p := range tr.Positions {
				Expect(p).To(BeNumerically("<", math.Pi/2))
			}
			Expect(tr.Final()[0]).To(BeNumerically(">", 1e6))
		})

		It("stops before the pole under the truncation policy", func() {
			s := integrators.New[float64](physics.NewQuadratic[float64](), cfg)

			tr, err := s.FindAdaptiveSolutionTruncation([]float64{1, 0, 0}, []float64{1}, 2, true, 1e-10)
			Expect(err).To(HaveOccurred())
			Expect(tr.Positions[tr.Len()-1]).To(BeNumerically("<", 1))
		})

		It("steps the tail-bounded fraction of the radius with RadiusTolerance", func() {
			p := physics.NewPendulum[float64]()
			x0 := p.InitialConditions([]float64{1, 0})

			byDivisor := &stepCounter{}
			s := integrators.New[float64](p, cfg)
			s.AddObserver(byDivisor)
			_, err := s.FindSolutionAdaptive(p.DefaultParams(), x0, 5, true)
			Expect(err).NotTo(HaveOccurred())

			cfg.RadiusTolerance = 1e-10
			byTail := &stepCounter{}
			s = integrators.New[float64](p, cfg)
			s.AddObserver(byTail)
			_, err = s.FindSolutionAdaptive(p.DefaultParams(), x0, 5, true)
			Expect(err).NotTo(HaveOccurred())

			// both start from the same expansion, so the first steps differ
			// by the ratio of the fractions
			fraction := series.MaximumTimeStep(cfg.MaxDegree, 1e-10)
			Expect(byTail.steps[0] / byDivisor.steps[0]).To(BeNumerically("~", fraction*2, 1e-9))
			Expect(len(byTail.steps)).To(BeNumerically(">", len(byDivisor.steps)))
		})

		It("rejects a RadiusTolerance outside (0, 1)", func() {
			cfg.RadiusTolerance = 2
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			_, err := s.FindSolutionAdaptive([]float64{1}, []float64{1}, 1, true)
			Expect(err).To(MatchError(dynamo.ErrInvalidTolerance))
		})

		It("fails on an infinite step without MaxStep", func() {
			s := integrators.New[float64](constant{}, cfg)

			tr, err := s.FindSolutionAdaptive(nil, []float64{3}, 1, true)
			Expect(err).To(MatchError(dynamo.ErrNonFiniteStep))
			Expect(tr.Len()).To(Equal(1))
		})

		It("clamps an infinite step to MaxStep", func() {
			cfg.MaxStep = 0.5
			s := integrators.New[float64](constant{}, cfg)

			tr, err := s.FindSolutionAdaptive(nil, []float64{3}, 2, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Positions).To(Equal([]float64{0, 0.5, 1, 1.5, 2}))
			Expect(tr.Variable(0)).To(HaveEach(3.0))
		})

		It("stops at MaxSteps", func() {
			cfg.MaxStep = 0.01
			cfg.MaxSteps = 3
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)

			tr, err := s.FindSolutionAdaptive([]float64{1}, []float64{1}, 1, true)
			Expect(err).To(MatchError(dynamo.ErrStepLimit))
			Expect(tr.Len()).To(Equal(4))
		})

		It("rejects an invalid interval", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			_, err := s.FindSolutionAdaptive([]float64{1}, []float64{1}, 0, true)
			Expect(err).To(MatchError(dynamo.ErrInvalidInterval))
			_, err = s.FindSolutionAdaptive([]float64{1}, []float64{1}, math.Inf(1), true)
			Expect(err).To(MatchError(dynamo.ErrInvalidInterval))
		})

		It("notifies observers once per step", func() {
			counter := &stepCounter{}
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			s.AddObserver(counter)

			tr, err := s.FindSolutionAdaptive([]float64{1}, []float64{1}, 3, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(counter.steps).To(HaveLen(tr.Len() - 1))
			for i, h := range tr.Steps() {
				Expect(counter.steps[i]).To(BeNumerically("~", h, 1e-12))
			}
		})

		It("resets and collects registered metrics", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			count := metrics.NewStepCount()
			s.AddMetric(count)

			tr, err := s.FindSolution([]float64{1}, []float64{1}, 0.5, 2, 10, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Metrics()).To(HaveKeyWithValue("steps", float64(tr.Len()-1)))

			_, err = s.FindSolution([]float64{1}, []float64{1}, 0.5, 1, 10, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Metrics()).To(HaveKeyWithValue("steps", 2.0))
		})

		It("logs every step in debug mode", func() {
			var buf bytes.Buffer
			cfg.Debug = true
			cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)

			_, err := s.FindSolutionAdaptive([]float64{1}, []float64{1}, 1, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("psm: step"))
			Expect(buf.String()).To(ContainSubstring("policy=radius"))
		})
	})

	Describe("FindSolutionAdaptiveOrder", func() {
		It("grows the expansion until the tolerance holds", func() {
			for _, forward := range []bool{true, false} {
				s := integrators.New[float64](physics.NewLinear[float64](), cfg)

				tr, err := s.FindSolutionAdaptiveOrder([]float64{1}, []float64{1}, 0.1, 1, 1e-12, 25, forward)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Len()).To(Equal(11))
				end := tr.Positions[tr.Len()-1]
				Expect(math.Abs(end)).To(BeNumerically("~", 1, 1e-12))
				Expect(tr.Final()[0]).To(BeNumerically("~", math.Exp(end), 1e-11))
			}
		})

		It("is less accurate with a looser tolerance", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			loose, err := s.FindSolutionAdaptiveOrder([]float64{1}, []float64{1}, 0.1, 1, 1e-4, 25, true)
			Expect(err).NotTo(HaveOccurred())
			tight, err := s.FindSolutionAdaptiveOrder([]float64{1}, []float64{1}, 0.1, 1, 1e-12, 25, true)
			Expect(err).NotTo(HaveOccurred())

			looseErr := math.Abs(loose.Final()[0] - math.E)
			tightErr := math.Abs(tight.Final()[0] - math.E)
			Expect(looseErr).To(BeNumerically(">", tightErr))
			Expect(looseErr).To(BeNumerically("<", 1e-3))
		})

		It("reports divergence when the step exceeds the radius", func() {
			// x' = x² from 1 has radius 1; the scaled terms 2^k grow past 10
			s := integrators.New[float64](physics.NewQuadratic[float64](), cfg)

			tr, err := s.FindSolutionAdaptiveOrder([]float64{1, 0, 0}, []float64{1}, 2, 4, 1e-8, 25, true)
			Expect(err).To(MatchError(dynamo.ErrDivergence))
			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(1))
			Expect(tr.Len()).To(Equal(1))
		})

		It("fails when the degree limit is reached first", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)

			_, err := s.FindSolutionAdaptiveOrder([]float64{1}, []float64{1}, 1, 2, 1e-12, 5, true)
			Expect(err).To(MatchError(dynamo.ErrNoConvergence))
		})

		It("rejects invalid input", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			_, err := s.FindSolutionAdaptiveOrder([]float64{1}, []float64{1}, 0.1, 1, 1e-8, 2, true)
			Expect(err).To(MatchError(dynamo.ErrDegreeTooSmall))
			_, err = s.FindSolutionAdaptiveOrder([]float64{1}, []float64{1}, 0.1, 1, 0, 25, true)
			Expect(err).To(MatchError(dynamo.ErrInvalidTolerance))
			_, err = s.FindSolutionAdaptiveOrder([]float64{1}, []float64{1}, 0, 1, 1e-8, 25, true)
			Expect(err).To(MatchError(dynamo.ErrNonPositiveStep))
		})
	})

	Describe("FindAdaptiveSolutionTruncation", func() {
		DescribeTable("matches the exponential within the tolerance",
			func(a float64, refined bool) {
				cfg.RefinedTruncation = refined
				s := integrators.New[float64](physics.NewLinear[float64](), cfg)

				for _, forward := range []bool{true, false} {
					tr, err := s.FindAdaptiveSolutionTruncation([]float64{a}, []float64{1}, 10, forward, 1e-6)
					Expect(err).NotTo(HaveOccurred())
					for i := 0; i < tr.Len(); i++ {
						exact := math.Exp(a * tr.Positions[i])
						got := tr.Values[0][i]
						if exact > 1 {
							Expect(math.Abs(got-exact) / exact).To(BeNumerically("<", 1e-5))
						} else {
							Expect(got).To(BeNumerically("~", exact, 1e-5))
						}
					}
				}
			},
			Entry("growth", 1.0, false),
			Entry("decay", -1.0, false),
			Entry("growth, refined", 1.0, true),
			Entry("decay, refined", -1.0, true),
		)

		It("rejects tolerances outside (0, 1)", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			for _, eps := range []float64{0, -1e-3, 1, math.NaN()} {
				_, err := s.FindAdaptiveSolutionTruncation([]float64{1}, []float64{1}, 1, true, eps)
				Expect(err).To(MatchError(dynamo.ErrInvalidTolerance))
			}
		})

		It("needs at least three coefficients", func() {
			cfg.MaxDegree = 2
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			_, err := s.FindAdaptiveSolutionTruncation([]float64{1}, []float64{1}, 1, true, 1e-6)
			Expect(err).To(MatchError(dynamo.ErrDegreeTooSmall))
		})
	})

	Describe("FindAdaptiveSolutionJorbaAndZou", func() {
		DescribeTable("chooses the degree from the tolerance",
			func(eps float64, degree int) {
				Expect(integrators.JorbaZouDegree(eps)).To(Equal(degree))
			},
			Entry("1e-6", 1e-6, 8),
			Entry("1e-16", 1e-16, 20),
			Entry("coarse tolerance keeps the minimum", 0.5, 3),
		)

		It("matches the exponential", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)

			tr, err := s.FindAdaptiveSolutionJorbaAndZou([]float64{1}, []float64{1}, 5, true, 1e-6)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(BeNumerically(">", 5))
			final := tr.Final()[0]
			exact := math.Exp(tr.Positions[tr.Len()-1])
			Expect(math.Abs(final-exact) / exact).To(BeNumerically("<", 1e-5))
		})

		It("rejects tolerances outside (0, 1)", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			_, err := s.FindAdaptiveSolutionJorbaAndZou([]float64{1}, []float64{1}, 1, true, 2)
			Expect(err).To(MatchError(dynamo.ErrInvalidTolerance))
		})
	})

	Describe("DerivativeTrajectory", func() {
		It("differentiates the local series at every sample", func() {
			lin := physics.NewLinear[float64]()
			s := integrators.New[float64](lin, cfg)
			params := []float64{-0.5}

			tr, err := s.FindSolution(params, []float64{2}, 0.25, 2, 15, true)
			Expect(err).NotTo(HaveOccurred())

			d, err := s.DerivativeTrajectory(params, tr, 0, 15)
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(HaveLen(tr.Len()))
			for i, v := range d {
				Expect(v).To(BeNumerically("~", -0.5*tr.Values[0][i], 1e-12))
			}
		})

		It("rejects an unknown variable", func() {
			s := integrators.New[float64](physics.NewLinear[float64](), cfg)
			tr := dynamo.NewTrajectory[float64]([]float64{1}, 1)
			_, err := s.DerivativeTrajectory([]float64{1}, tr, 1, 10)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})

	Describe("float32", func() {
		It("runs the same solver over a narrower scalar", func() {
			s := integrators.New[float32](physics.NewLinear[float32](), cfg)
			tr, err := s.FindSolutionAdaptive([]float32{1}, []float32{1}, 1, true)
			Expect(err).NotTo(HaveOccurred())
			exact := math.Exp(float64(tr.Positions[tr.Len()-1]))
			Expect(float64(tr.Final()[0])).To(BeNumerically("~", exact, 1e-4*exact))
		})
	})
})

var _ = Describe("RK4", func() {
	It("agrees with the exponential", func() {
		lin := physics.NewLinear[float64]()
		tr, err := integrators.NewRK4[float64]().Integrate(lin, []float64{1}, []float64{1}, 1.0/64, 1, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Len()).To(Equal(65))
		Expect(tr.Final()[0]).To(BeNumerically("~", math.E, 1e-7))
	})

	It("agrees with the power series solution of the pendulum", func() {
		p := physics.NewPendulum[float64]()
		params := p.DefaultParams()
		x0 := p.InitialConditions([]float64{1, 0})

		ref, err := integrators.NewRK4[float64]().Integrate(p, params, x0, 1.0/256, 4, true)
		Expect(err).NotTo(HaveOccurred())
		psm, err := integrators.New[float64](p, dynamo.DefaultConfig()).FindSolution(params, x0, 1.0/8, 4, 20, true)
		Expect(err).NotTo(HaveOccurred())

		Expect(psm.Final()[0]).To(BeNumerically("~", ref.Final()[0], 1e-7))
	})

	It("converges at first order with Euler", func() {
		lin := physics.NewLinear[float64]()
		coarse, err := integrators.NewEuler[float64]().Integrate(lin, []float64{1}, []float64{1}, 1.0/64, 1, true)
		Expect(err).NotTo(HaveOccurred())
		fine, err := integrators.NewEuler[float64]().Integrate(lin, []float64{1}, []float64{1}, 1.0/128, 1, true)
		Expect(err).NotTo(HaveOccurred())

		ratio := (math.E - coarse.Final()[0]) / (math.E - fine.Final()[0])
		Expect(ratio).To(BeNumerically("~", 2, 0.05))
	})
})

var _ = Describe("RK45", func() {
	It("lands on the interval end within its tolerance", func() {
		lin := physics.NewLinear[float64]()
		for _, forward := range []bool{true, false} {
			tr, err := integrators.NewRK45[float64]().Integrate(lin, []float64{1}, []float64{1}, 3, forward, 1e-8)
			Expect(err).NotTo(HaveOccurred())

			end := tr.Positions[tr.Len()-1]
			Expect(math.Abs(end)).To(BeNumerically("~", 3, 1e-12))
			exact := math.Exp(end)
			Expect(math.Abs(tr.Final()[0]-exact) / exact).To(BeNumerically("<", 1e-6))
		}
	})

	It("rejects an invalid tolerance", func() {
		_, err := integrators.NewRK45[float64]().Integrate(physics.NewLinear[float64](), []float64{1}, []float64{1}, 1, true, 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidTolerance))
	})
})
