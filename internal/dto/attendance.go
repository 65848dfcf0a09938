package dto

// ── 签到模块 DTO ──

// 签到结果动作
const (
	AttendanceCheckIn   = "check_in"
	AttendanceCheckOut  = "check_out"
	AttendanceCompleted = "completed"
)

// AttendanceCodeResponse 生成签到码
type AttendanceCodeResponse struct {
	Code        string `json:"code"`
	QRImage     string `json:"qr_image"`     // data:image/png;base64,...
	GeneratedAt string `json:"generated_at"` // HH:MM:SS 本地时间
}

// AttendanceCheckRequest 提交签到码
type AttendanceCheckRequest struct {
	Code string `json:"code" form:"code" binding:"required"`
}

// AttendanceCheckResponse 签到结果
type AttendanceCheckResponse struct {
	Action  string `json:"action"` // check_in | check_out | completed
	Shift   string `json:"shift"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

// AttendanceHistoryRequest 签到历史筛选
type AttendanceHistoryRequest struct {
	Start string `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End   string `form:"end"   binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// EntryLogResponse 签到记录
type EntryLogResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Shift    string `json:"shift"`
	Date     string `json:"date"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
}

// ChartResponse 图表数据
type ChartResponse struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}
