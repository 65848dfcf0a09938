package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// PageSizeOr 获取每页数量；未指定时使用各列表约定的默认值
func (p *PaginationRequest) PageSizeOr(def int) int {
	if p.PageSize <= 0 {
		return def
	}
	return p.PageSize
}

// OffsetFor 计算偏移量
func (p *PaginationRequest) OffsetFor(pageSize int) int {
	return (p.GetPage() - 1) * pageSize
}

// PageResult 服务层分页结果
type PageResult[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// 日期显示格式（与馆内习惯一致）
const (
	DateLayout     = "02/01/2006"
	DateTimeLayout = "02/01/2006 15:04"
	ISODateLayout  = "2006-01-02"
)
