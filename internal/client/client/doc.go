// Package client talks to the Work Group identity service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (Client) for the identity operations the
//     session and registration layers need: Authenticate, FetchByID,
//     DeleteByID, CheckEmailExists, CreateAccount, and ListUsers.
//  2. An HTTP/JSON implementation (HTTPClient) against the /user API. Each
//     request carries an X-Request-ID and is logged at debug level.
//
// The client is a dumb transport wrapper: it does not retry and it does not
// canonicalize emails. Normalization belongs to its callers.
//
// # Error Handling
//
// Non-2xx answers come back as *ResponseError carrying the status code and
// the body text. They unwrap to a sentinel chosen by status, so callers can
// match with errors.Is: ErrUnauthorized (401/403), ErrNotFound (404),
// ErrConflict (409), ErrUnavailable (5xx), ErrUnexpectedStatus (anything
// else). Transport failures and timeouts also match ErrUnavailable but carry
// no *ResponseError. Undecodable 2xx bodies match ErrInvalidResponse.
package client
