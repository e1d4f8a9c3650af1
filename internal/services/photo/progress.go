package photo

import (
	"context"
	"io"
)

// Progress 上传进度快照
type Progress struct {
	BytesTransferred int64
	TotalBytes       int64
	Percent          float64
}

// ProgressFunc 进度回调，按数据块边界触发
type ProgressFunc func(Progress)

// progressReader 包装 Reader，在每次读取后上报进度
// 读取前检查上下文，取消时中止传输
type progressReader struct {
	ctx   context.Context
	r     io.Reader
	total int64
	read  int64
	fn    ProgressFunc
}

// NewProgressReader 创建带进度上报的 Reader
// total 未知时传 0，此时 Percent 恒为 0
func NewProgressReader(ctx context.Context, r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{
		ctx:   ctx,
		r:     r,
		total: total,
		fn:    fn,
	}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.fn(p.snapshot())
	}
	return n, err
}

func (p *progressReader) snapshot() Progress {
	snap := Progress{
		BytesTransferred: p.read,
		TotalBytes:       p.total,
	}
	if p.total > 0 {
		snap.Percent = float64(p.read) / float64(p.total) * 100
		if snap.Percent > 100 {
			snap.Percent = 100
		}
	}
	return snap
}
