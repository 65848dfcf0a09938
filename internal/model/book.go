package model

// Book 图书表，对应 books
// Quantity 为当前可借册数，激活借阅时减 1、归还时加 1，数据库约束保证不小于 0
type Book struct {
	BookID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"book_id"`
	Title           string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Author          string  `gorm:"type:varchar(100);not null"                     json:"author"`
	Quantity        int     `gorm:"not null;default:1"                             json:"quantity"`
	SubCollectionID *string `gorm:"type:uuid"                                      json:"sub_collection_id,omitempty"`
	PublishYear     string  `gorm:"type:varchar(20);not null;default:''"           json:"publish_year"`
	Publisher       string  `gorm:"type:varchar(255);not null;default:''"          json:"publisher"`
	CoverURL        *string `gorm:"type:varchar(500)"                              json:"cover_url,omitempty"`
	PDFURL          *string `gorm:"column:pdf_url;type:varchar(500)"               json:"pdf_url,omitempty"`
	SearchText      string  `gorm:"type:text;not null;default:''"                  json:"-"` // 去变音小写的 "书名 作者"
	BaseModel

	// 关联
	SubCollection *SubCollection `gorm:"foreignKey:SubCollectionID;references:SubCollectionID" json:"sub_collection,omitempty"`
}

// TableName 指定表名
func (Book) TableName() string { return "books" }
