package automation_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/fjglira/uitestkit/pkg/automation"
	"github.com/fjglira/uitestkit/pkg/automation/automationtest"
)

var _ = Describe("application helpers", func() {
	var (
		page    *automationtest.Page
		sleeper *automationtest.Sleeper
		runner  *automation.Runner
		ctx     context.Context
	)

	key := func(sel string) string { return automation.ParseSelector(sel).String() }

	BeforeEach(func() {
		page = automationtest.NewPage()
		sleeper = &automationtest.Sleeper{}
		logger, _ := test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		runner = automation.NewRunner(page, automation.WithSleeper(sleeper.Sleep), automation.WithLogger(logger))
		ctx = context.Background()
	})

	Describe("FindFirstMatch", func() {
		It("should stop at the first candidate that works", func() {
			var tried []string
			got, err := automation.FindFirstMatch(ctx, "thing", []string{"a", "b", "c"}, func(_ context.Context, s string) error {
				tried = append(tried, s)
				if s == "b" {
					return nil
				}
				return automationtest.ErrDetached
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal("b"))
			Expect(tried).To(Equal([]string{"a", "b"}))
		})

		It("should name the target on exhaustion", func() {
			_, err := automation.FindFirstMatch(ctx, "could not find thing", []string{"a", "b"}, func(context.Context, string) error {
				return automationtest.ErrDetached
			})
			var exhausted *automation.LocatorExhaustedError
			Expect(errors.As(err, &exhausted)).To(BeTrue())
			Expect(exhausted.Candidates).To(Equal([]string{"a", "b"}))
			Expect(err.Error()).To(HavePrefix("could not find thing"))
		})

		It("should stop on cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := automation.FindFirstMatch(cctx, "thing", []string{"a"}, func(context.Context, string) error { return nil })
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("SelectFromDropdown", func() {
		It("should open the dropdown, settle and pick the third strategy", func() {
			cands := automation.OptionCandidates("Active Accounts")
			page.FailClick[key(cands[0])] = true
			page.FailClick[key(cands[1])] = true

			Expect(runner.SelectFromDropdown(ctx, "#view", "Active Accounts", time.Second)).To(Succeed())

			var clicks []string
			for _, c := range page.Calls() {
				if len(c) > 6 && c[:6] == "click " {
					clicks = append(clicks, c[6:])
				}
			}
			Expect(clicks).To(Equal([]string{"#view", key(cands[0]), key(cands[1]), key(cands[2])}))
			Expect(sleeper.Slept()).To(Equal([]time.Duration{500 * time.Millisecond}))
		})

		It("should fail naming the option when no strategy works", func() {
			for _, c := range automation.OptionCandidates("Nope") {
				page.FailClick[key(c)] = true
			}
			err := runner.SelectFromDropdown(ctx, "#view", "Nope", time.Second)
			Expect(err).To(MatchError(ContainSubstring(`could not find option "Nope" in dropdown`)))
			var exhausted *automation.LocatorExhaustedError
			Expect(errors.As(err, &exhausted)).To(BeTrue())
			Expect(exhausted.Candidates).To(HaveLen(4))
		})
	})

	Describe("CreateNewRecord and SaveRecord", func() {
		It("should fall back to the aria label and then wait for readiness", func() {
			page.FailClick[key(`[data-id="new-record-button"]`)] = true
			Expect(runner.CreateNewRecord(ctx, "account")).To(Succeed())
			Expect(page.Calls()).To(ContainElement("click " + key(`[aria-label*="New"]`)))
			Expect(page.Calls()).To(ContainElement("wait visible " + automation.ReadyMarker.String()))
		})

		It("should surface total failure", func() {
			for _, c := range automation.ButtonCandidates("save-button", "Save") {
				page.FailClick[key(c)] = true
			}
			err := runner.SaveRecord(ctx)
			Expect(err).To(MatchError(ContainSubstring("could not find Save button")))
		})

		It("should settle after saving", func() {
			Expect(runner.SaveRecord(ctx)).To(Succeed())
			Expect(sleeper.Slept()).To(ContainElement(2 * time.Second))
		})
	})

	Describe("NavigateToEntity", func() {
		It("should tolerate an already expanded site map and a missing view", func() {
			page.FailClick[key(`[data-id="navbar-expand-btn"]`)] = true
			page.FailClick[key(`[data-id="ViewSelector"]`)] = true

			Expect(runner.NavigateToEntity(ctx, "account", "Active Accounts")).To(Succeed())
			Expect(page.Calls()).To(ContainElement("click " + key(`[data-id*="account"]`)))
		})

		It("should fail when the entity is nowhere in the site map", func() {
			for _, c := range automation.EntityCandidates("ghost") {
				page.FailClick[key(c)] = true
			}
			Expect(runner.NavigateToEntity(ctx, "ghost", "")).To(MatchError(ContainSubstring(`could not find entity "ghost"`)))
		})
	})

	Describe("WaitForReady", func() {
		It("should tolerate a missing application marker and skip the loading wait", func() {
			page.WaitErrs["visible "+automation.ReadyMarker.String()] = errors.New("not found")
			Expect(runner.WaitForReady(ctx)).To(Succeed())
			Expect(page.Calls()).To(Equal([]string{"wait visible " + automation.ReadyMarker.String()}))
		})

		It("should wait for loading indicators once the marker is up", func() {
			page.WaitErrs["hidden "+automation.LoadingIndicators.String()] = errors.New("still spinning")
			Expect(runner.WaitForReady(ctx)).To(Succeed())
			Expect(page.Calls()).To(HaveLen(2))
		})
	})

	It("should click only the popup close buttons that are present", func() {
		page.Counts[`[aria-label="Close"]`] = 1
		Expect(runner.DismissPopups(ctx)).To(Succeed())
		Expect(page.Calls()).To(ContainElement(`click [aria-label="Close"]`))
		Expect(page.Calls()).ToNot(ContainElement(`click [title="Close"]`))
	})
})
