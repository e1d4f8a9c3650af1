package generator

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// 存储命名空间约定：原图与缩略图路径可以互相推导
// 所有写入和删除二进制对象的代码都必须经过这里，不允许手写字符串替换
const (
	OriginalNamespace  = "photos/original"
	ThumbnailNamespace = "photos/thumbnails"
)

// PhotoPaths 照片对象路径生成器
type PhotoPaths struct{}

// NewPhotoPaths 创建路径生成器
func NewPhotoPaths() *PhotoPaths {
	return &PhotoPaths{}
}

// ObjectKey 生成抗碰撞的对象键：毫秒时间戳前缀 + 清洗后的原始文件名
func (pp *PhotoPaths) ObjectKey(fileName string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFileName(fileName))
}

// OriginalPath 返回原图的存储路径
func (pp *PhotoPaths) OriginalPath(key string) string {
	return OriginalNamespace + "/" + key
}

// ThumbnailPath 返回缩略图的存储路径
func (pp *PhotoPaths) ThumbnailPath(key string) string {
	return ThumbnailNamespace + "/" + key
}

// IsOriginal 判断路径是否位于原图命名空间
func (pp *PhotoPaths) IsOriginal(objectPath string) bool {
	return strings.Contains(objectPath, OriginalNamespace+"/")
}

// ThumbnailFor 通过命名空间替换推导原图对应的缩略图路径
func (pp *PhotoPaths) ThumbnailFor(originalPath string) string {
	return strings.Replace(originalPath, OriginalNamespace+"/", ThumbnailNamespace+"/", 1)
}

// BaseName 返回对象路径的文件名部分，用于导出命名
func (pp *PhotoPaths) BaseName(objectPath string) string {
	name := path.Base(objectPath)
	if name == "." || name == "/" || name == "" {
		return "photo.jpg"
	}
	return name
}

// SanitizeFileName 将文件名限制到安全字符集，其他字符替换为下划线
func SanitizeFileName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '.' || r == '-' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// ParseObjectURL 从公开下载 URL 中提取存储路径
// 取 "/o/" 与下一个 "?" 之间的片段并做百分号解码
// 删除和打包导出共用同一份解析逻辑，保证语义一致
func ParseObjectURL(rawURL string) (string, bool) {
	idx := strings.Index(rawURL, "/o/")
	if idx < 0 {
		return "", false
	}
	segment := rawURL[idx+len("/o/"):]
	if q := strings.IndexByte(segment, '?'); q >= 0 {
		segment = segment[:q]
	}
	if segment == "" {
		return "", false
	}
	decoded, err := url.PathUnescape(segment)
	if err != nil || decoded == "" {
		return "", false
	}
	return decoded, true
}
