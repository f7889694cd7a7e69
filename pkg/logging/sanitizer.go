package logging

import (
	"regexp"
)

const (
	// MaxSQLLogLength is the maximum length of generated SQL to log.
	MaxSQLLogLength = 200
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// api_key=xxx and friends
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{16,}`)

	// user:pass@host in connection URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeConnectionString removes credentials from connection strings
// before they reach a log line.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError sanitizes error messages that might contain credentials,
// typically driver errors that echo the connection string back.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeErrorText(err.Error())
}

// SanitizeErrorText is SanitizeError for failure text carried as a string,
// such as recorded execution attempts.
func SanitizeErrorText(msg string) string {
	sanitized := passwordPattern.ReplaceAllString(msg, "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeSQL truncates generated SQL for logging and strips credential
// patterns that could have been inlined as literals.
func SanitizeSQL(query string) string {
	if query == "" {
		return ""
	}

	sanitized := query
	if len(sanitized) > MaxSQLLogLength {
		sanitized = sanitized[:MaxSQLLogLength] + "..."
	}

	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)

	return sanitized
}

// TruncateString truncates a string to maxLen and adds an ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
