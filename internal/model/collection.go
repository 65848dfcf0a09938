package model

// Collection 馆藏集合（教材、讲义、电子书……），对应 collections
type Collection struct {
	CollectionID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"collection_id"`
	Name         string  `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Description  string  `gorm:"type:text;not null;default:''"                  json:"description"`
	ImageURL     *string `gorm:"type:varchar(500)"                              json:"image_url,omitempty"`
	BaseModel

	// 关联
	SubCollections []SubCollection `gorm:"foreignKey:CollectionID;references:CollectionID" json:"sub_collections,omitempty"`
}

// TableName 指定表名
func (Collection) TableName() string { return "collections" }

// SubCollection 集合下的分类（按院系/专业），对应 sub_collections
type SubCollection struct {
	SubCollectionID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"sub_collection_id"`
	CollectionID    string `gorm:"type:uuid;not null"                             json:"collection_id"`
	Name            string `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel

	// 关联
	Collection *Collection `gorm:"foreignKey:CollectionID;references:CollectionID" json:"collection,omitempty"`
}

// TableName 指定表名
func (SubCollection) TableName() string { return "sub_collections" }
