package pool

import (
	"io"
	"sync"
)

// BufferSize 流式拷贝的统一缓冲区大小（256KB）
const BufferSize = 256 * 1024

// SharedBufferPool 共享缓冲区池
// 存储 *([]byte) 以避免 SA6002 警告
var SharedBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// Copy 使用池化缓冲区在流之间拷贝
// 对象下载和打包导出等大流量路径共用，避免重复分配
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := SharedBufferPool.Get().(*[]byte)
	defer SharedBufferPool.Put(buf)
	return io.CopyBuffer(dst, src, *buf)
}
