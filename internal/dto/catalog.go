package dto

// ── 馆藏模块 DTO ──

// CollectionResponse 集合及其分类
type CollectionResponse struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	ImageURL       *string                 `json:"image_url,omitempty"`
	SubCollections []SubCollectionResponse `json:"sub_collections"`
}

// SubCollectionResponse 分类简要信息
type SubCollectionResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CollectionID   string `json:"collection_id"`
	CollectionName string `json:"collection_name,omitempty"`
}

// BookResponse 图书信息
type BookResponse struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Author        string                 `json:"author"`
	Quantity      int                    `json:"quantity"`
	Available     bool                   `json:"available"`
	PublishYear   string                 `json:"publish_year"`
	Publisher     string                 `json:"publisher"`
	CoverURL      *string                `json:"cover_url,omitempty"`
	PDFURL        *string                `json:"pdf_url,omitempty"`
	SubCollection *SubCollectionResponse `json:"sub_collection,omitempty"`
}

// BookListRequest 图书检索参数
type BookListRequest struct {
	Query string `form:"q"`
	PaginationRequest
}

// OverdueAlert 逾期提醒横幅（每个会话只出现一次）
type OverdueAlert struct {
	Count   int      `json:"count"`
	Titles  []string `json:"titles"`
	Message string   `json:"message"`
}

// BookListResponse 图书首页：有检索词时返回图书分页，否则返回集合列表
type BookListResponse struct {
	Query        string                    `json:"query"`
	Books        *PageResult[BookResponse] `json:"books,omitempty"`
	Collections  []CollectionResponse      `json:"collections,omitempty"`
	OverdueAlert *OverdueAlert             `json:"overdue_alert,omitempty"`
}

// SubCollectionBooksResponse 分类下的图书
type SubCollectionBooksResponse struct {
	SubCollection SubCollectionResponse    `json:"sub_collection"`
	Books         PageResult[BookResponse] `json:"books"`
}

// CreateBookRequest 新增图书
type CreateBookRequest struct {
	Title           string  `json:"title"             binding:"required,max=200"`
	Author          string  `json:"author"            binding:"required,max=100"`
	Quantity        *int    `json:"quantity"          binding:"required,min=0"`
	SubCollectionID *string `json:"sub_collection_id" binding:"omitempty,uuid"`
	PublishYear     string  `json:"publish_year"      binding:"max=20"`
	Publisher       string  `json:"publisher"         binding:"max=255"`
	CoverURL        *string `json:"cover_url"         binding:"omitempty,url"`
	PDFURL          *string `json:"pdf_url"           binding:"omitempty,url"`
}

// UpdateBookRequest 修改图书（字段为空表示不修改）
type UpdateBookRequest struct {
	Title           *string `json:"title"             binding:"omitempty,max=200"`
	Author          *string `json:"author"            binding:"omitempty,max=100"`
	Quantity        *int    `json:"quantity"          binding:"omitempty,min=0"`
	SubCollectionID *string `json:"sub_collection_id" binding:"omitempty,uuid"`
	PublishYear     *string `json:"publish_year"      binding:"omitempty,max=20"`
	Publisher       *string `json:"publisher"         binding:"omitempty,max=255"`
	CoverURL        *string `json:"cover_url"         binding:"omitempty,url"`
	PDFURL          *string `json:"pdf_url"           binding:"omitempty,url"`
}
