package series_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/psmsim/internal/series"
)

func geometric(a float64, n int) series.Series[float64] {
	s := series.New[float64](n)
	for k := range s {
		s[k] = math.Pow(a, float64(k))
	}
	return s
}

var _ = Describe("RadiusOfConvergence", func() {
	Context("with fewer than MinAitkenTerms coefficients", func() {
		It("falls back to the root test on each parity", func() {
			s := geometric(0.5, 5)
			Expect(series.RadiusOfConvergence(s, series.Even)).To(BeNumerically("~", 0.5, 1e-12))
			Expect(series.RadiusOfConvergence(s, series.Odd)).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("uses the last coefficient of the parity class", func() {
			s := series.Series[float64]{1, 0, 16, 8}
			Expect(series.RadiusOfConvergence(s, series.Even)).To(BeNumerically("~", 4, 1e-12))
			Expect(series.RadiusOfConvergence(s, series.Odd)).To(BeNumerically("~", 2, 1e-12))
		})

		It("returns zero when the parity class has no usable index", func() {
			Expect(series.RadiusOfConvergence(series.Series[float64]{3, 1}, series.Even)).To(Equal(0.0))
			Expect(series.RadiusOfConvergence(series.Series[float64]{3}, series.Odd)).To(Equal(0.0))
		})
	})

	Context("with at least MinAitkenTerms coefficients", func() {
		It("recovers |a| for an eight-term geometric series", func() {
			for _, a := range []float64{0.3, -0.6, 0.9} {
				Expect(series.InverseRadius(geometric(a, 8))).To(BeNumerically("~", math.Abs(a), 1e-9))
			}
		})

		It("accelerates a slowly converging root sequence", func() {
			// 1/(1-x)^2 has coefficients k+1 and radius 1
			s := series.New[float64](25)
			for k := range s {
				s[k] = float64(k + 1)
			}
			plain := math.Pow(25, 1.0/24)
			est := series.RadiusOfConvergence(s, series.Even)
			Expect(math.Abs(est - 1)).To(BeNumerically("<", plain-1))
			Expect(est).To(BeNumerically("~", 1.0852, 1e-3))
		})

		It("returns zero for a series with vanishing coefficients", func() {
			s := series.New[float64](10)
			s[0] = 1
			Expect(series.InverseRadius(s)).To(Equal(0.0))
		})
	})
})

var _ = Describe("ApproximateRadius", func() {
	It("is bound by the series with the smallest radius", func() {
		t := series.Table[float64]{geometric(0.25, 10), geometric(0.5, 10)}
		Expect(series.ApproximateRadius(t)).To(BeNumerically("~", 2, 1e-9))
	})

	It("is infinite for constant series", func() {
		t := series.Table[float64]{{1, 0, 0, 0}, {2, 0, 0, 0}}
		Expect(math.IsInf(series.ApproximateRadius(t), 1)).To(BeTrue())
	})

	It("is infinite for an empty table", func() {
		Expect(math.IsInf(series.ApproximateRadius(series.Table[float64]{}), 1)).To(BeTrue())
	})
})

var _ = Describe("MaximumTimeStep", func() {
	tail := func(c float64, k int) float64 { return math.Pow(c, float64(k)) / (1 - c) }

	It("solves c/(1-c) = eps for a single term", func() {
		Expect(series.MaximumTimeStep(1, 0.5)).To(BeNumerically("~", 1.0/3, 1e-9))
	})

	DescribeTable("returns the largest fraction whose tail stays below eps",
		func(k int, eps float64) {
			c := series.MaximumTimeStep(k, eps)
			Expect(c).To(BeNumerically(">", 0))
			Expect(c).To(BeNumerically("<", 1))
			Expect(tail(c, k)).To(BeNumerically("<", eps))
			Expect(tail(c+1e-9, k)).To(BeNumerically(">=", eps*0.999))
		},
		Entry("degree 10, eps 1e-6", 10, 1e-6),
		Entry("degree 25, eps 1e-10", 25, 1e-10),
		Entry("degree 25, eps 1e-15", 25, 1e-15),
	)

	It("grows with the number of terms", func() {
		Expect(series.MaximumTimeStep(25, 1e-8)).To(BeNumerically(">", series.MaximumTimeStep(10, 1e-8)))
	})

	It("rejects meaningless input", func() {
		Expect(series.MaximumTimeStep(0, 1e-6)).To(Equal(0.0))
		Expect(series.MaximumTimeStep(10, 0)).To(Equal(0.0))
		Expect(series.MaximumTimeStep(10, 1)).To(Equal(0.0))
	})
})
