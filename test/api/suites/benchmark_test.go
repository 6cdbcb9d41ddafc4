package suites

import (
	"github.com/moamenhredeen/jptest/internal/benchmarker"
	"github.com/moamenhredeen/jptest/internal/cases"
	"github.com/moamenhredeen/jptest/internal/models"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"
)

var _ = Describe("Benchmarking", func() {
	BeforeEach(func() {
		if config.Live {
			Skip("benchmarks only run against the local fake")
		}
	})

	It("should fire every GET case without errors", func() {
		gets := lo.Filter(cases.Catalog(), func(c models.Case, _ int) bool { return c.Method == "GET" })
		bench := benchmarker.NewBenchmarker(benchmarker.Config{
			BaseURL:     baseURL,
			Iterations:  10,
			Concurrency: 2,
			WarmupRuns:  1,
			Timeout:     config.RequestTimeout,
		})

		summary := bench.BenchmarkCases(ctx, gets, nil)

		Expect(summary.TotalCases).To(Equal(len(gets)))
		Expect(summary.TotalRequests).To(Equal(10 * len(gets)))
		Expect(summary.TotalErrors).To(BeZero())
		for _, r := range summary.Results {
			Expect(r.SuccessCount).To(Equal(10), r.CaseID)
		}
	})
})
