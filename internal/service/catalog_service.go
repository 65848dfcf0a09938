package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ptit-library/config"
	"ptit-library/internal/dto"
	"ptit-library/internal/model"
	"ptit-library/internal/repository"
	"ptit-library/internal/session"
	"ptit-library/pkg/textnorm"
)

// ── 馆藏模块业务错误 ──

var (
	ErrBookNotFound          = errors.New("图书不存在")
	ErrSubCollectionNotFound = errors.New("分类不存在")
)

// 各列表的默认每页数量
const (
	subCollectionPageSize = 6
	searchPageSize        = 12
)

// CatalogService 馆藏浏览与图书维护
type CatalogService interface {
	ListCollections(ctx context.Context) ([]dto.CollectionResponse, error)
	// ListBooks 图书首页：q 为空返回集合列表，否则返回检索结果；同时附带本会话首次的逾期提醒
	ListBooks(ctx context.Context, userID, sessionID string, req *dto.BookListRequest) (*dto.BookListResponse, error)
	SubCollectionBooks(ctx context.Context, subCollectionID string, req *dto.PaginationRequest) (*dto.SubCollectionBooksResponse, error)
	GetBook(ctx context.Context, id string) (*dto.BookResponse, error)
	CreateBook(ctx context.Context, req *dto.CreateBookRequest) (*dto.BookResponse, error)
	UpdateBook(ctx context.Context, id string, req *dto.UpdateBookRequest) (*dto.BookResponse, error)
	SeedCollections(ctx context.Context) (*SeedResult, error)
}

type catalogService struct {
	repo       *repository.Repository
	sessions   session.Store
	sessionTTL time.Duration
	clock      clock
	logger     *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(cfg *config.Config, repo *repository.Repository, sessions session.Store, clk clock, logger *zap.Logger) CatalogService {
	return &catalogService{
		repo:       repo,
		sessions:   sessions,
		sessionTTL: cfg.Auth.SessionTTL,
		clock:      clk,
		logger:     logger,
	}
}

// ────────────────────── 浏览 ──────────────────────

func (s *catalogService) ListCollections(ctx context.Context) ([]dto.CollectionResponse, error) {
	collections, err := s.repo.Collection.ListWithSubCollections(ctx)
	if err != nil {
		s.logger.Error("查询集合失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CollectionResponse, 0, len(collections))
	for i := range collections {
		c := &collections[i]
		subs := make([]dto.SubCollectionResponse, 0, len(c.SubCollections))
		for j := range c.SubCollections {
			sub := toSubCollectionResponse(&c.SubCollections[j])
			sub.CollectionName = c.Name
			subs = append(subs, sub)
		}
		result = append(result, dto.CollectionResponse{
			ID:             c.CollectionID,
			Name:           c.Name,
			Description:    c.Description,
			ImageURL:       c.ImageURL,
			SubCollections: subs,
		})
	}
	return result, nil
}

func (s *catalogService) ListBooks(ctx context.Context, userID, sessionID string, req *dto.BookListRequest) (*dto.BookListResponse, error) {
	query := strings.TrimSpace(req.Query)
	resp := &dto.BookListResponse{
		Query:        query,
		OverdueAlert: s.overdueAlert(ctx, userID, sessionID),
	}

	if query == "" {
		collections, err := s.ListCollections(ctx)
		if err != nil {
			return nil, err
		}
		resp.Collections = collections
		return resp, nil
	}

	pageSize := req.PageSizeOr(searchPageSize)
	books, total, err := s.repo.Book.Search(ctx, textnorm.Fold(query), req.OffsetFor(pageSize), pageSize)
	if err != nil {
		s.logger.Error("检索图书失败", zap.String("q", query), zap.Error(err))
		return nil, err
	}
	resp.Books = &dto.PageResult[dto.BookResponse]{
		List:     toBookResponses(books),
		Total:    total,
		Page:     req.GetPage(),
		PageSize: pageSize,
	}
	return resp, nil
}

// overdueAlert 每个会话只提示一次；会话存储或查询失败时不影响图书列表
func (s *catalogService) overdueAlert(ctx context.Context, userID, sessionID string) *dto.OverdueAlert {
	if userID == "" || sessionID == "" {
		return nil
	}

	_, shown, err := s.sessions.Get(ctx, sessionID, session.KeyOverdueAlertShown)
	if err != nil {
		s.logger.Warn("读取会话失败", zap.String("sid", sessionID), zap.Error(err))
		return nil
	}
	if shown {
		return nil
	}

	overdue, err := s.repo.Borrow.ListOverdueByUser(ctx, userID, s.clock.Today())
	if err != nil {
		s.logger.Warn("查询逾期借阅失败", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if len(overdue) == 0 {
		return nil
	}

	if err := s.sessions.Set(ctx, sessionID, session.KeyOverdueAlertShown, "1", s.sessionTTL); err != nil {
		s.logger.Warn("写入会话失败", zap.String("sid", sessionID), zap.Error(err))
	}

	titles := make([]string, 0, len(overdue))
	for _, b := range overdue {
		if b.Book != nil {
			titles = append(titles, b.Book.Title)
		}
	}
	return &dto.OverdueAlert{
		Count:   len(overdue),
		Titles:  titles,
		Message: fmt.Sprintf("你有 %d 本图书已逾期，请尽快到图书馆归还！", len(overdue)),
	}
}

func (s *catalogService) SubCollectionBooks(ctx context.Context, subCollectionID string, req *dto.PaginationRequest) (*dto.SubCollectionBooksResponse, error) {
	sub, err := s.repo.Collection.GetSubCollection(ctx, subCollectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubCollectionNotFound
		}
		return nil, err
	}

	pageSize := req.PageSizeOr(subCollectionPageSize)
	books, total, err := s.repo.Book.ListBySubCollection(ctx, subCollectionID, req.OffsetFor(pageSize), pageSize)
	if err != nil {
		s.logger.Error("查询分类图书失败", zap.String("sub_collection_id", subCollectionID), zap.Error(err))
		return nil, err
	}

	return &dto.SubCollectionBooksResponse{
		SubCollection: toSubCollectionResponse(sub),
		Books: dto.PageResult[dto.BookResponse]{
			List:     toBookResponses(books),
			Total:    total,
			Page:     req.GetPage(),
			PageSize: pageSize,
		},
	}, nil
}

func (s *catalogService) GetBook(ctx context.Context, id string) (*dto.BookResponse, error) {
	book, err := s.repo.Book.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	resp := toBookResponse(book)
	return &resp, nil
}

// ────────────────────── 维护 ──────────────────────

func (s *catalogService) CreateBook(ctx context.Context, req *dto.CreateBookRequest) (*dto.BookResponse, error) {
	if err := s.checkSubCollection(ctx, req.SubCollectionID); err != nil {
		return nil, err
	}

	book := &model.Book{
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		Quantity:        *req.Quantity,
		SubCollectionID: req.SubCollectionID,
		PublishYear:     req.PublishYear,
		Publisher:       req.Publisher,
		CoverURL:        req.CoverURL,
		PDFURL:          req.PDFURL,
	}
	book.SearchText = textnorm.SearchText(book.Title, book.Author)

	if err := s.repo.Book.Create(ctx, book); err != nil {
		s.logger.Error("创建图书失败", zap.Error(err))
		return nil, err
	}
	s.logger.Info("新增图书", zap.String("book_id", book.BookID), zap.String("title", book.Title))
	return s.GetBook(ctx, book.BookID)
}

func (s *catalogService) UpdateBook(ctx context.Context, id string, req *dto.UpdateBookRequest) (*dto.BookResponse, error) {
	book, err := s.repo.Book.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		book.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		book.Author = strings.TrimSpace(*req.Author)
	}
	if req.SubCollectionID != nil {
		if err := s.checkSubCollection(ctx, req.SubCollectionID); err != nil {
			return nil, err
		}
		book.SubCollectionID = req.SubCollectionID
	}
	if req.PublishYear != nil {
		book.PublishYear = *req.PublishYear
	}
	if req.Publisher != nil {
		book.Publisher = *req.Publisher
	}
	if req.CoverURL != nil {
		book.CoverURL = req.CoverURL
	}
	if req.PDFURL != nil {
		book.PDFURL = req.PDFURL
	}
	book.SearchText = textnorm.SearchText(book.Title, book.Author)

	// 未指定库存时不写 quantity，避免覆盖期间发生的借出与归还
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Book.Update(ctx, book); err != nil {
			return err
		}
		if req.Quantity != nil {
			return tx.Book.SetQuantity(ctx, id, *req.Quantity)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("更新图书失败", zap.String("book_id", id), zap.Error(err))
		return nil, err
	}
	return s.GetBook(ctx, id)
}

func (s *catalogService) checkSubCollection(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.Collection.GetSubCollection(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubCollectionNotFound
		}
		return err
	}
	return nil
}

func toBookResponses(books []model.Book) []dto.BookResponse {
	list := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		list = append(list, toBookResponse(&books[i]))
	}
	return list
}
