// Package httpapi exposes the lending ledger use cases over HTTP.
//
// Routes accept either HTML form posts or JSON bodies. Form posts are answered with a 303 redirect
// to the page a browser should show next, JSON requests with the affected resource. Reads always
// answer with JSON.
//
// Every request passes the authentication middleware once. It reads an HS256 JWT from the
// Authorization header or the "token" cookie and attaches a shell.Caller to the request context.
// Handlers never take the borrower from request input.
package httpapi
