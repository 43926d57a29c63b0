package types

// Cursor 游标分页：上一页最后一条的时间戳(纳秒)和ID，首页为零值
type Cursor struct {
	At int64  `form:"cursor"`
	ID uint64 `form:"cursor_id"`
}
