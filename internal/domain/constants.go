package domain

const (
	DefaultAPIBaseURL   = "https://api.xero.com/api.xro/2.0"
	DefaultPageSize     = 100
	DefaultMaxPages     = 1000
	DefaultHTTPHost     = "127.0.0.1"
	DefaultHTTPPort     = 3000
	DefaultLogLevel     = "info"
	DefaultServerName   = "xero-mcp"
	DefaultShutdownSecs = 10

	HealthPath = "/health"
	MCPPath    = "/mcp"

	HeaderAccessToken = "X-Xero-Access-Token"
	HeaderTenantID    = "X-Xero-Tenant-Id"

	// APITenantHeader is the header the accounting API reads the tenant from.
	APITenantHeader = "xero-tenant-id"
)

// Version is overridden at link time.
var Version = "dev"
