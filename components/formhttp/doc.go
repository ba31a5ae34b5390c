// Package formhttp serves form definitions over net/http: a GET page route
// rendering themed HTML, a POST route that coerces the body and runs the
// engine's submission flow, draft save and discard routes backed by a draft
// store, and a JSON snapshot route for client-side consumers.
//
// Draft identity is per client: the handler issues a formstate_session cookie
// carrying a UUID on first visit and scopes stored drafts to it. Definitions
// come from a static registry or from a watched directory that reloads as
// files change.
package formhttp
