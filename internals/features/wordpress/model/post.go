// internals/features/wordpress/model/post.go
package model

import "time"

/*
Subset of the wp_posts columns these tools read or write.
Table names are resolved at query time via Tables, so no TableName() here.
*/
type PostModel struct {
	ID              uint64    `gorm:"column:ID;primaryKey" json:"id"`
	PostAuthor      uint64    `gorm:"column:post_author" json:"post_author"`
	PostDate        time.Time `gorm:"column:post_date" json:"post_date"`
	PostDateGMT     time.Time `gorm:"column:post_date_gmt" json:"post_date_gmt"`
	PostTitle       string    `gorm:"column:post_title" json:"post_title"`
	PostStatus      string    `gorm:"column:post_status" json:"post_status"`
	PostModified    time.Time `gorm:"column:post_modified" json:"post_modified"`
	PostModifiedGMT time.Time `gorm:"column:post_modified_gmt" json:"post_modified_gmt"`
	PostParent      uint64    `gorm:"column:post_parent" json:"post_parent"`
	GUID            string    `gorm:"column:guid" json:"guid"`
	PostType        string    `gorm:"column:post_type" json:"post_type"`
	PostMimeType    string    `gorm:"column:post_mime_type" json:"post_mime_type"`
}

type PostMetaModel struct {
	MetaID    uint64  `gorm:"column:meta_id;primaryKey" json:"meta_id"`
	PostID    uint64  `gorm:"column:post_id" json:"post_id"`
	MetaKey   string  `gorm:"column:meta_key" json:"meta_key"`
	MetaValue *string `gorm:"column:meta_value" json:"meta_value,omitempty"`
}

type OptionModel struct {
	OptionID    uint64 `gorm:"column:option_id;primaryKey" json:"option_id"`
	OptionName  string `gorm:"column:option_name" json:"option_name"`
	OptionValue string `gorm:"column:option_value" json:"option_value"`
	Autoload    string `gorm:"column:autoload" json:"autoload"`
}

type UserModel struct {
	ID        uint64 `gorm:"column:ID;primaryKey" json:"id"`
	UserLogin string `gorm:"column:user_login" json:"user_login"`
	UserEmail string `gorm:"column:user_email" json:"user_email"`
}
