package respond

import (
	"regexp"
)

// Patterns are applied in order; the Anthropic pattern must run before the
// generic OpenAI one since both start with "sk-".
var (
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	geminiKeyPattern    = regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`)
	bearerPattern       = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/-]+=*`)

	// Covers amqp://user:pass@ and redis://:pass@ alike.
	urlPasswordPattern = regexp.MustCompile(`://([^:/@\s]*):([^@\s]+)@`)
)

// SanitizeError returns err's message with API keys, bearer tokens and URL
// passwords masked. It returns "" for a nil error.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks secrets in msg.
func SanitizeString(msg string) string {
	// APIキーのマスク（順序重要: より具体的なパターンから適用）
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = geminiKeyPattern.ReplaceAllString(msg, "AIza****")
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	// ブローカー接続URLのパスワードをマスク
	msg = urlPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
