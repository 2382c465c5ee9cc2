package constant

const (
	ContextKeyRequestID = "requestid"

	RequestIDHeader = "X-Stats-Request-ID"

	AdminKeyHeader = "X-Stats-Admin-Key"
)
