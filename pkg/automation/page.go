package automation

import "context"

// State is an element condition a Runner can wait for or verify.
type State string

const (
	StateVisible  State = "visible"
	StateHidden   State = "hidden"
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"

	// Text states compare element text and are only accepted by Verify.
	StateText     State = "text"
	StateContains State = "contains"
)

// Page is the browser driver boundary. Blocking calls honour the deadline of
// ctx; a Page never applies a timeout of its own.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitForLoad(ctx context.Context) error
	Count(ctx context.Context, loc Locator) (int, error)
	// WaitFor blocks until the first match of loc is in state, which is one
	// of visible, hidden, enabled or disabled. A missing element is hidden.
	WaitFor(ctx context.Context, loc Locator, state State) error
	ScrollIntoView(ctx context.Context, loc Locator) error
	Click(ctx context.Context, loc Locator) error
	SetValue(ctx context.Context, loc Locator, value string) error
	DispatchEvent(ctx context.Context, loc Locator, event string) error
	Text(ctx context.Context, loc Locator) (string, error)
	Screenshot(ctx context.Context, path string) error
}
