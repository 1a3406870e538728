package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Application chrome of the target business app.
var (
	ReadyMarker       = CSS(`[data-id="navbar-container"], .ms-Nav`)
	LoadingIndicators = CSS(`.loading, .spinner, [aria-label*="Loading"]`)

	PopupCloseSelectors = []string{
		`[data-id="closeButton"]`,
		`[aria-label="Close"]`,
		`.ms-MessageBar-dismissal`,
		`[title="Close"]`,
	}

	navExpandSelector    = `[data-id="navbar-expand-btn"]`
	viewSelectorSelector = `[data-id="ViewSelector"]`
)

// OptionCandidates lists the locators tried, in order, for a dropdown option.
func OptionCandidates(option string) []string {
	q := cssString(option)
	return []string{
		"[aria-label=" + q + "]",
		"[title=" + q + "]",
		`text="` + option + `"`,
		"[data-text=" + q + "]",
	}
}

// ButtonCandidates lists the locators tried, in order, for a command bar
// button. dataID is the exact data-id, label the visible caption.
func ButtonCandidates(dataID, label string) []string {
	q := cssString(label)
	return []string{
		"[data-id=" + cssString(dataID) + "]",
		"[aria-label*=" + q + "]",
		"[title*=" + q + "]",
		"button:has-text(" + q + ")",
	}
}

// EntityCandidates lists the site map locators tried for an entity.
func EntityCandidates(entity string) []string {
	q := cssString(entity)
	return []string{
		"[data-id*=" + q + "]",
		"[aria-label*=" + q + "]",
	}
}

// SelectFromDropdown opens the dropdown at selector and picks option.
func (r *Runner) SelectFromDropdown(ctx context.Context, selector, option string, timeout time.Duration) error {
	r.log.WithFields(logrus.Fields{"selector": selector, "option": option}).Info("Selecting from dropdown")

	if err := r.Click(ctx, selector, timeout); err != nil {
		return err
	}
	if err := r.sleep(ctx, r.policy.DropdownSettle); err != nil {
		return err
	}
	_, err := FindFirstMatch(ctx, fmt.Sprintf("could not find option %q in dropdown", option), OptionCandidates(option), r.clickOnce(r.policy.OptionTimeout))
	return err
}

// NavigateToEntity opens entity from the site map and optionally switches to view.
// A view that cannot be selected leaves the default view in place.
func (r *Runner) NavigateToEntity(ctx context.Context, entity, view string) error {
	r.log.WithFields(logrus.Fields{"entity": entity, "view": view}).Info("Navigating to entity")

	if err := r.Click(ctx, navExpandSelector, r.policy.ButtonTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.WithError(err).Debug("Site map expand button not clickable, assuming expanded")
	}
	if err := r.sleep(ctx, r.policy.NavExpandSettle); err != nil {
		return err
	}

	if _, err := FindFirstMatch(ctx, fmt.Sprintf("could not find entity %q in site map", entity), EntityCandidates(entity), r.clickWithin(r.policy.DefaultTimeout)); err != nil {
		return err
	}

	if view != "" {
		if err := r.sleep(ctx, r.policy.ViewSettle); err != nil {
			return err
		}
		if err := r.SelectFromDropdown(ctx, viewSelectorSelector, view, 0); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.WithError(err).WithField("view", view).Warn("Could not select view, using default view")
		}
	}
	return r.WaitForReady(ctx)
}

// CreateNewRecord presses the New button of the current entity list.
func (r *Runner) CreateNewRecord(ctx context.Context, entity string) error {
	r.log.WithField("entity", entity).Info("Creating new record")
	if _, err := FindFirstMatch(ctx, fmt.Sprintf("could not find New button for %s", entity), ButtonCandidates("new-record-button", "New"), r.clickWithin(r.policy.ButtonTimeout)); err != nil {
		return err
	}
	return r.WaitForReady(ctx)
}

// SaveRecord presses Save and waits for the form to settle.
func (r *Runner) SaveRecord(ctx context.Context) error {
	r.log.Info("Saving record")
	if _, err := FindFirstMatch(ctx, "could not find Save button", ButtonCandidates("save-button", "Save"), r.clickWithin(r.policy.ButtonTimeout)); err != nil {
		return err
	}
	if err := r.sleep(ctx, r.policy.SaveSettle); err != nil {
		return err
	}
	return r.WaitForReady(ctx)
}

// WaitForReady waits for the application chrome and then for loading
// indicators to go away. Neither is required; only cancellation of ctx is
// returned.
func (r *Runner) WaitForReady(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, r.policy.ReadyTimeout)
	err := r.page.WaitFor(readyCtx, ReadyMarker, StateVisible)
	cancel()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		r.log.WithError(err).Debug("Ready check failed, continuing anyway")
		return nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, r.policy.LoadingTimeout)
	err = r.page.WaitFor(loadCtx, LoadingIndicators, StateHidden)
	cancel()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		r.log.WithError(err).Debug("Loading indicators still present")
	}
	r.log.Debug("Application appears to be ready")
	return nil
}

// DismissPopups clicks every known close button present on the page.
// Failures are ignored.
func (r *Runner) DismissPopups(ctx context.Context) error {
	for _, sel := range PopupCloseSelectors {
		loc := CSS(sel)
		n, err := r.page.Count(ctx, loc)
		if err != nil || n == 0 {
			continue
		}
		clickCtx, cancel := context.WithTimeout(ctx, r.policy.ClickAttemptTimeout)
		err = r.page.Click(clickCtx, loc)
		cancel()
		if err != nil {
			r.log.WithError(err).WithField("selector", sel).Debug("Popup close failed")
			continue
		}
		r.log.WithField("selector", sel).Info("Closed popup")
	}
	return ctx.Err()
}

// clickOnce is a single click attempt bounded by timeout.
func (r *Runner) clickOnce(timeout time.Duration) Probe {
	return func(ctx context.Context, selector string) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return r.page.Click(attemptCtx, ParseSelector(selector))
	}
}

// clickWithin is a full Click with retries bounded by timeout.
func (r *Runner) clickWithin(timeout time.Duration) Probe {
	return func(ctx context.Context, selector string) error {
		return r.Click(ctx, selector, timeout)
	}
}
