package handler

const (
	// APIPath is the prefix of every JSON endpoint.
	APIPath = "/api/v1"

	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 25

	// MaxPageSize caps the pageSize query parameter.
	MaxPageSize = 100

	// ErrNilFatalLogMsg is used if router or service is nil.
	ErrNilFatalLogMsg = "router or rbac service is nil"
)
