package credentials

import (
	"net/http"
	"strings"

	"xeromcp/internal/domain"
)

// RequiredHeaders lists the headers a delegated-mode request must carry.
var RequiredHeaders = []string{domain.HeaderAccessToken, domain.HeaderTenantID}

// FromHeaders reads the delegated credential pair from inbound request headers.
func FromHeaders(header http.Header) (domain.Credentials, error) {
	creds := domain.Credentials{
		AccessToken: header.Get(domain.HeaderAccessToken),
		TenantID:    header.Get(domain.HeaderTenantID),
	}.Normalize()
	if missing := MissingHeaders(header); len(missing) > 0 {
		return domain.Credentials{}, domain.E(domain.CodeUnauthenticated, "credentials.headers",
			"missing headers "+strings.Join(missing, ", "), domain.ErrMissingCredentials)
	}
	return creds, nil
}

// MissingHeaders returns the required headers that are absent or blank.
func MissingHeaders(header http.Header) []string {
	var missing []string
	for _, name := range RequiredHeaders {
		if strings.TrimSpace(header.Get(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
