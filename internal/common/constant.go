package common

// RequestIDHeaderName is the HTTP header carrying a per-request correlation id
// on outbound identity service calls.
const RequestIDHeaderName = "X-Request-ID"

// SessionRecordKey is the logical key of the persisted session record.
const SessionRecordKey = "auth_user"
