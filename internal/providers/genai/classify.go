package genai

import (
	"net/http"
	"strings"

	"magiceraser/internal/domain"
)

// ClassifyStatus maps a Gemini error status to a failure kind.
func ClassifyStatus(code int, status, message string) domain.FailureKind {
	lower := strings.ToLower(message)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden ||
		status == "PERMISSION_DENIED" || status == "UNAUTHENTICATED":
		return domain.FailureAuth
	case code == http.StatusBadRequest && strings.Contains(lower, "api key"):
		return domain.FailureAuth
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED" || strings.Contains(lower, "quota"):
		return domain.FailureQuota
	case strings.Contains(lower, "safety") || strings.Contains(lower, "blocked"):
		return domain.FailureSafety
	case code >= http.StatusInternalServerError:
		return domain.FailureNetwork
	}
	return domain.FailureGeneric
}

// IsSafetyFinish reports whether a finish reason means the output was withheld.
func IsSafetyFinish(reason string) bool {
	switch strings.ToUpper(reason) {
	case "SAFETY", "PROHIBITED_CONTENT", "IMAGE_SAFETY", "BLOCKLIST", "SPII", "RECITATION":
		return true
	}
	return false
}
