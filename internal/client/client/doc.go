// Package client talks to the userkeeper HTTP API.
//
// Client wraps a resty client with the base URL and timeout of one server.
// Failures are reported as *APIError values, which unwrap to the sentinel
// errors ErrUnauthorized, ErrForbidden, ErrConflict and ErrUnavailable so
// callers can use errors.Is. Transport failures also match ErrUnavailable.
package client
