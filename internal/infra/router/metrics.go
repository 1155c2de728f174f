package router

import (
	"xeromcp/internal/domain"
)

// classifyCall maps a dispatch outcome onto the tool call metric labels.
func classifyCall(err error) (domain.CallStatus, domain.ErrorCode) {
	if err == nil {
		return domain.CallStatusSuccess, ""
	}
	if code, ok := domain.CodeFrom(err); ok {
		return domain.CallStatusError, code
	}
	return domain.CallStatusError, domain.CodeInternal
}
