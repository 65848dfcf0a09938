package service

import (
	"time"

	"ptit-library/internal/dto"
	"ptit-library/internal/model"
)

// ── 模型 → DTO 转换 ──

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.UserID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func toSubCollectionResponse(sub *model.SubCollection) dto.SubCollectionResponse {
	resp := dto.SubCollectionResponse{
		ID:           sub.SubCollectionID,
		Name:         sub.Name,
		CollectionID: sub.CollectionID,
	}
	if sub.Collection != nil {
		resp.CollectionName = sub.Collection.Name
	}
	return resp
}

func toBookResponse(b *model.Book) dto.BookResponse {
	resp := dto.BookResponse{
		ID:          b.BookID,
		Title:       b.Title,
		Author:      b.Author,
		Quantity:    b.Quantity,
		Available:   b.Quantity > 0,
		PublishYear: b.PublishYear,
		Publisher:   b.Publisher,
		CoverURL:    b.CoverURL,
		PDFURL:      b.PDFURL,
	}
	if b.SubCollection != nil {
		sub := toSubCollectionResponse(b.SubCollection)
		resp.SubCollection = &sub
	}
	return resp
}

// toBorrowResponse is_late：借阅中看是否逾期，已归还看是否晚于到期日
func toBorrowResponse(b *model.Borrow, today time.Time) dto.BorrowResponse {
	resp := dto.BorrowResponse{
		ID:         b.BorrowID,
		Code:       b.BorrowCode,
		Status:     string(b.Status),
		UserID:     b.UserID,
		BookID:     b.BookID,
		BorrowDate: b.BorrowDate.Format(dto.DateLayout),
		DueDate:    formatDate(b.DueDate),
		ReturnDate: formatDate(b.ReturnDate),
	}
	switch b.Status {
	case model.BorrowActive:
		resp.IsLate = b.IsOverdue(today)
	case model.BorrowReturned:
		resp.IsLate = b.IsLateReturn()
	}
	if b.User != nil {
		resp.Username = b.User.Username
	}
	if b.Book != nil {
		resp.BookTitle = b.Book.Title
		resp.BookAuthor = b.Book.Author
	}
	return resp
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dto.DateLayout)
}
