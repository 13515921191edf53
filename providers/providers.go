// Package providers wraps the external content services: news digests,
// translation, weather, and text-to-speech. Every call is fallible and
// blocking within the turn; failures surface as ErrUnavailable so handlers
// can apologize instead of crashing.
package providers

import "errors"

// ErrUnavailable reports that an external provider could not serve the
// request. Handlers catch it at their boundary and substitute an apology.
var ErrUnavailable = errors.New("providers: service unavailable")
