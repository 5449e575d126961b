package metrics

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestComputeRun(t *testing.T) {
	g := NewWithT(t)

	r := ComputeRun(10, 13, 2.85, 2.1)
	g.Expect(r.RunLength).To(BeNumerically("~", 3, 1e-9))
	g.Expect(r.TotalCoreRecovery).To(Equal(95.0))
	g.Expect(r.RQDPercentage).To(Equal(70.0))

	r = ComputeRun(0, 3, 1, 1)
	g.Expect(r.TotalCoreRecovery).To(Equal(33.33))
	g.Expect(r.RQDPercentage).To(Equal(33.33))
}

func TestComputeRun_NonPositiveLength(t *testing.T) {
	g := NewWithT(t)

	for _, tc := range []struct{ from, to float64 }{{5, 5}, {8, 5}} {
		r := ComputeRun(tc.from, tc.to, 2, 1)
		g.Expect(r.RunLength).To(Equal(tc.to - tc.from))
		g.Expect(r.TotalCoreRecovery).To(BeZero())
		g.Expect(r.RQDPercentage).To(BeZero())
	}
}

func TestIntervalLength(t *testing.T) {
	g := NewWithT(t)
	g.Expect(IntervalLength(12.5, 14)).To(Equal(1.5))
	g.Expect(IntervalLength(14, 12.5)).To(Equal(-1.5))
}

func TestVariance(t *testing.T) {
	g := NewWithT(t)

	g.Expect(Variance(100, 105)).To(Equal(5.0))
	g.Expect(Variance(100, 90)).To(Equal(-10.0))
	g.Expect(Variance(0, 0)).To(BeZero())
	g.Expect(Variance(0, 3)).To(Equal(UndefinedVariance))
	g.Expect(Variance(0, -3)).To(Equal(-UndefinedVariance))
}

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		variance float64
		want     Status
	}{
		{0, Pass},
		{5.00, Pass},
		{-5.00, Pass},
		{5.01, Warning},
		{10.00, Warning},
		{-10.00, Warning},
		{10.01, Fail},
		{UndefinedVariance, Fail},
		{-UndefinedVariance, Fail},
	}
	for _, tc := range cases {
		if got := Classify(tc.variance); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.variance, got, tc.want)
		}
	}
}

func TestAssess(t *testing.T) {
	g := NewWithT(t)

	exp, act := 200.0, 221.0
	v, st, ok := Assess(&exp, &act)
	g.Expect(ok).To(BeTrue())
	g.Expect(v).To(Equal(10.5))
	g.Expect(st).To(Equal(Fail))

	_, _, ok = Assess(&exp, nil)
	g.Expect(ok).To(BeFalse())
}
