package suites

import (
	"github.com/moamenhredeen/jptest/internal/cases"
	"github.com/moamenhredeen/jptest/internal/filter"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/tester"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"
)

func propertyValue(r models.TestResult, name string) interface{} {
	p, ok := lo.Find(r.Properties, func(p models.Property) bool { return p.Name == name })
	Expect(ok).To(BeTrue(), "property %s not recorded", name)
	return p.Value
}

func runOne(id string) models.TestResult {
	c, ok := lo.Find(cases.Catalog(), func(c models.Case) bool { return c.ID == id })
	Expect(ok).To(BeTrue(), "no case %s", id)
	tr := tester.NewTester(tester.Options{BaseURL: baseURL, Timeout: config.RequestTimeout})
	return tr.TestCase(ctx, c)
}

var _ = Describe("Built-in catalog", func() {
	Context("When every case runs in order", func() {
		It("should pass all seventeen cases", func() {
			tr := tester.NewTester(tester.Options{BaseURL: baseURL, Timeout: config.RequestTimeout})
			summary := tr.TestCases(ctx, cases.Catalog(), nil, nil)

			for _, r := range summary.Unsuccessful() {
				GinkgoWriter.Printf("%s %s: %v %s\n", r.Outcome, r.ID, r.Failures, r.Error)
			}
			Expect(summary.TotalTests).To(Equal(17))
			Expect(summary.Passed).To(Equal(17))
			Expect(summary.OK()).To(BeTrue())
		})
	})

	Context("When reading posts and users", func() {
		DescribeTable("should report the expected title",
			func(id, title string) {
				r := runOne(id)
				Expect(r.Outcome).To(Equal(models.OutcomePassed), "%v", r.Failures)
				Expect(propertyValue(r, "title")).To(Equal(title))
			},
			Entry("post 1", "get_post_by_id/1",
				"sunt aut facere repellat provident occaecati excepturi optio reprehenderit"),
			Entry("post 2", "get_post_by_id/2", "qui est esse"),
		)

		It("should record the user name", func() {
			r := runOne("get_user_name_by_id/10")
			Expect(r.Outcome).To(Equal(models.OutcomePassed))
			Expect(propertyValue(r, "username")).To(Equal("Moriah.Stanton"))
		})

		It("should treat 404 for an unknown post as the expected answer", func() {
			r := runOne("get_post_invalid_id_returns_404/-1")
			Expect(r.Outcome).To(Equal(models.OutcomePassed))
			Expect(r.StatusCode).To(Equal(404))
		})
	})

	Context("When writing posts", func() {
		It("should echo the created post with id 101", func() {
			r := runOne("create_new_post/empty_body")
			Expect(r.Outcome).To(Equal(models.OutcomePassed), "%v", r.Failures)
			Expect(propertyValue(r, "response_id")).To(BeNumerically("==", 101))
		})

		It("should echo the updated title", func() {
			r := runOne("update_post/update_post_2")
			Expect(r.Outcome).To(Equal(models.OutcomePassed), "%v", r.Failures)
			Expect(propertyValue(r, "updated_title")).To(Equal("Another update"))
		})

		It("should accept deleting a post that does not exist", func() {
			r := runOne("delete_invalid_post/non_existent_post")
			Expect(r.Outcome).To(Equal(models.OutcomePassed))
			Expect(r.StatusCode).To(Equal(200))
		})
	})

	Context("When cases are excluded", func() {
		It("should skip them with the filter reason", func() {
			var skip filter.RegexList
			Expect(skip.Set("^delete_")).To(Succeed())
			filters := filter.RegexFilters{MustNotMatch: skip}

			tr := tester.NewTester(tester.Options{BaseURL: baseURL, Timeout: config.RequestTimeout})
			summary := tr.TestCases(ctx, cases.Catalog(), filters.Match, nil)

			skipped := lo.Filter(summary.Results, func(r models.TestResult, _ int) bool {
				return r.Outcome == models.OutcomeSkipped
			})
			Expect(skipped).NotTo(BeEmpty())
			for _, r := range skipped {
				Expect(r.ID).To(HavePrefix("delete_"))
				Expect(r.Error).To(Equal(tester.SkippedByFilter))
			}
			Expect(summary.OK()).To(BeTrue())
		})
	})
})
