// Package scratch is the root shell of the Scratch application.
//
// A Shell checks for an existing session when it is mounted, shares the
// resulting authentication flag with descendant views, and renders the
// navigation bar around the routed content.
//
// Session bootstrap:
//   - Mount launches a one-shot session check against the IdentityProvider.
//     Until it settles the shell is authenticating and Render writes nothing,
//     so the anonymous navigation never flashes for a signed-in visitor.
//   - ErrNoCurrentUser is the expected answer for anonymous visitors and is
//     not reported. Any other failure goes to the ErrorReporter once.
//
// Shared state:
//   - AuthState is the single copy of the flags. Views reach it through the
//     AppContext stored in their context.Context (see AppContextFrom) and may
//     flip it, e.g. after a successful login.
//
// Logout:
//   - Logout waits for the provider to sign out before clearing the flag and
//     replacing the view with the login route. A failed sign out is reported
//     and leaves the state untouched.
package scratch
