package dto

// ── 借阅模块 DTO ──

// BorrowResponse 借阅记录
type BorrowResponse struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Status     string `json:"status"`
	UserID     string `json:"user_id"`
	Username   string `json:"username,omitempty"`
	BookID     string `json:"book_id"`
	BookTitle  string `json:"book_title,omitempty"`
	BookAuthor string `json:"book_author,omitempty"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date,omitempty"`
	ReturnDate string `json:"return_date,omitempty"`
	IsLate     bool   `json:"is_late"`
}

// MyBorrowsResponse “我的借阅”页面数据
type MyBorrowsResponse struct {
	Pending          []BorrowResponse `json:"pending"`
	Active           []BorrowResponse `json:"active"`
	Returned         []BorrowResponse `json:"returned"`
	Overdue          []BorrowResponse `json:"overdue"`
	CountPending     int              `json:"count_pending"`
	CountActive      int              `json:"count_active"`
	CountReturned    int              `json:"count_returned"`
	CountOverdue     int              `json:"count_overdue"`
	RemindersCreated int              `json:"reminders_created"` // 本次查看新生成的到期提醒数
}

// 到期日快捷筛选
const (
	DueRangeToday     = "today"
	DueRange7Days     = "7days"
	DueRangeThisMonth = "thismonth"
	DueRangeNextMonth = "nextmonth"
)

// AdminBorrowListRequest 管理端借阅列表筛选
type AdminBorrowListRequest struct {
	Status   string `form:"status"    binding:"omitempty,oneof=pending active returned"`
	Search   string `form:"search"`
	DueRange string `form:"due_range" binding:"omitempty,oneof=today 7days thismonth nextmonth"`
	PaginationRequest
}

// AdminCreateBorrowRequest 馆员代为登记借阅
type AdminCreateBorrowRequest struct {
	UserID  string  `json:"user_id"  binding:"required,uuid"`
	BookID  string  `json:"book_id"  binding:"required,uuid"`
	DueDate *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateBorrowStatusRequest 按目标状态推进借阅
type UpdateBorrowStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending active returned"`
}

// TopBookStat 借阅中数量排行
type TopBookStat struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
	Total  int64  `json:"total"`
}

// BorrowStatisticsResponse 借阅统计
type BorrowStatisticsResponse struct {
	TopBooks []TopBookStat    `json:"top_books"`
	Overdue  []BorrowResponse `json:"overdue"`
}
