// Package automation is the runtime library generated UI test scripts call.
//
// A Runner wraps a browser Page with the resilient actions the target
// application needs: bounded click retries, two-phase fills with explicit
// change and blur events, ordered-fallback locator searches for controls that
// render differently across screens, and a tolerant readiness probe.
//
// Individual attempts and candidates are allowed to fail. Only exhaustion of
// every attempt or candidate is reported, as a *LocatorExhaustedError.
package automation
