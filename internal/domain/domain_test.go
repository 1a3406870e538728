package domain_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/uitestkit/internal/domain"
)

var _ = Describe("Time", func() {
	DescribeTable("decoding backend timestamps",
		func(raw string, want time.Time) {
			var run domain.TestRun
			Expect(json.Unmarshal([]byte(`{"id":1,"status":"passed","created_at":`+raw+`}`), &run)).To(Succeed())
			Expect(run.CreatedAt).ToNot(BeNil())
			Expect(run.CreatedAt.Equal(want)).To(BeTrue())
		},
		Entry("RFC 3339", `"2025-03-01T10:00:00Z"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
		Entry("naive with fraction", `"2025-03-01T10:00:00.250000"`, time.Date(2025, 3, 1, 10, 0, 0, 250000000, time.UTC)),
		Entry("space separated", `"2025-03-01 10:00:00"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
	)

	It("should leave null timestamps unset", func() {
		var run domain.TestRun
		Expect(json.Unmarshal([]byte(`{"id":1,"status":"pending","completed_at":null}`), &run)).To(Succeed())
		Expect(run.CompletedAt).To(BeNil())
	})

	It("should reject garbage", func() {
		var run domain.TestRun
		Expect(json.Unmarshal([]byte(`{"created_at":"yesterday"}`), &run)).To(MatchError(ContainSubstring("unrecognized format")))
	})
})

var _ = Describe("RunStatus", func() {
	It("should treat only pending and running as in flight", func() {
		Expect(domain.RunPending.IsTerminal()).To(BeFalse())
		Expect(domain.RunRunning.IsTerminal()).To(BeFalse())
		Expect(domain.RunPassed.IsTerminal()).To(BeTrue())
		Expect(domain.RunError.IsTerminal()).To(BeTrue())
		Expect(domain.RunStatus("cancelled").IsTerminal()).To(BeTrue())
	})
})

var _ = Describe("Errors", func() {
	It("should format the base error with location, cause and hint", func() {
		cause := errors.New("boom")
		err := domain.NewErrorWithSuggestion("parse", "cases.md", 12, "bad timeout", "use milliseconds", cause)
		Expect(err.Error()).To(Equal("[parse] cases.md:12: bad timeout: boom (hint: use milliseconds)"))
		Expect(errors.Is(err, cause)).To(BeTrue())
	})

	It("should list every violation", func() {
		err := &domain.ValidationError{TestName: "Login", Violations: []domain.Violation{
			{Message: "Test case name is required"},
			{Step: 2, Message: "Element selector is required"},
		}}
		Expect(err.Error()).To(Equal(`test case "Login" is invalid: Test case name is required; Step 2: Element selector is required`))
	})

	It("should describe network failures", func() {
		err := &domain.NetworkError{Op: "GET /api/tests/", StatusCode: 404, Message: "Test case not found"}
		Expect(err.Error()).To(Equal("GET /api/tests/: HTTP 404: Test case not found"))
	})
})
