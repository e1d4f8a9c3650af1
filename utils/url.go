package utils

import (
	"fmt"
	"net/url"
)

// BuildObjectURL 拼接对象的公开访问 URL
// 对象路径整体作为单个路径段编码，斜杠会编码为 %2F
func BuildObjectURL(baseURL string, objectPath string) string {
	return fmt.Sprintf("%s/o/%s?alt=media", baseURL, url.PathEscape(objectPath))
}
