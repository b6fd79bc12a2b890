package series_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/psmsim/internal/series"
)

func randomPoly(r *rand.Rand, degree int) series.Series[float64] {
	p := series.New[float64](degree + 1)
	for i := range p {
		p[i] = r.Float64()*2 - 1
	}
	return p
}

// multiply is schoolbook polynomial multiplication.
func multiply(p, q series.Series[float64]) []float64 {
	out := make([]float64, len(p)+len(q)-1)
	for i := range p {
		for j := range q {
			out[i+j] += p[i] * q[j]
		}
	}
	return out
}

var _ = Describe("Series", func() {
	Describe("Set", func() {
		It("writes inside the capacity", func() {
			s := series.New[float64](3)
			Expect(s.Set(2, 7)).To(BeTrue())
			Expect(s[2]).To(Equal(7.0))
			Expect(s.Cap()).To(Equal(3))
		})

		It("ignores writes outside the capacity", func() {
			s := series.Series[float64]{1, 2, 3}
			Expect(s.Set(3, 9)).To(BeFalse())
			Expect(s.Set(-1, 9)).To(BeFalse())
			Expect(s).To(Equal(series.Series[float64]{1, 2, 3}))
		})
	})

	Describe("NewTable", func() {
		It("allocates zero-filled series of the requested degree", func() {
			t := series.NewTable[float64](3, 5)
			Expect(t).To(HaveLen(3))
			Expect(t.Degree()).To(Equal(5))
			for _, s := range t {
				Expect(s).To(HaveLen(5))
				Expect(s).To(HaveEach(0.0))
			}
		})

		It("reports degree 0 for an empty table", func() {
			Expect(series.Table[float64]{}.Degree()).To(Equal(0))
		})
	})

	Describe("NthProduct", func() {
		It("reproduces direct polynomial multiplication", func() {
			r := rand.New(rand.NewSource(7))
			for trial := 0; trial < 20; trial++ {
				n := r.Intn(12)
				// pad to 2n+1 so every product coefficient is reachable
				p := append(randomPoly(r, n), make([]float64, n)...)
				q := append(randomPoly(r, n), make([]float64, n)...)
				want := multiply(p[:n+1], q[:n+1])
				for k := 0; k <= 2*n; k++ {
					Expect(series.NthProduct(p, q, k)).To(BeNumerically("~", want[k], 1e-12))
				}
			}
		})

		It("returns the constant term product for n = 0", func() {
			Expect(series.NthProduct(series.Series[float64]{3, 1}, series.Series[float64]{4, 1}, 0)).To(Equal(12.0))
		})
	})

	Describe("Eval", func() {
		It("matches direct summation", func() {
			r := rand.New(rand.NewSource(11))
			for trial := 0; trial < 20; trial++ {
				p := randomPoly(r, r.Intn(15))
				x := r.Float64()*1.6 - 0.8
				want := 0.0
				for i, c := range p {
					want += c * math.Pow(x, float64(i))
				}
				Expect(series.Eval(p, x)).To(BeNumerically("~", want, 1e-12))
			}
		})

		It("returns the constant term at zero", func() {
			Expect(series.Eval(series.Series[float64]{2.5, 1, 1}, 0)).To(Equal(2.5))
		})

		It("returns zero for an empty series", func() {
			Expect(series.Eval(series.Series[float64]{}, 3)).To(Equal(0.0))
		})

		It("works for float32", func() {
			Expect(series.Eval(series.Series[float32]{1, 1, 1}, 2)).To(Equal(float32(7)))
		})
	})

	Describe("EvaluateAll", func() {
		It("evaluates every series in order", func() {
			t := series.Table[float64]{{1, 1}, {0, 0, 1}, {5}}
			Expect(series.EvaluateAll(t, 3)).To(HaveExactElements(4.0, 9.0, 5.0))
		})
	})

	Describe("Derivative", func() {
		It("differentiates term by term", func() {
			d := series.Derivative(series.Series[float64]{5, 3, 2, 4})
			Expect(d).To(Equal(series.Series[float64]{3, 4, 12}))
		})

		It("returns an empty series for constants", func() {
			Expect(series.Derivative(series.Series[float64]{5})).To(BeEmpty())
			Expect(series.Derivative(series.Series[float64]{})).To(BeEmpty())
		})
	})
})
