package utils

import (
	"strings"
	"unicode"
)

func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == 10 || r == 9 {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogFileName 截断过长的文件名后再做日志清洗
func SanitizeLogFileName(name string) string {
	if len(name) > 120 {
		name = name[:120] + "..."
	}
	return SanitizeLogMessage(name)
}
