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
	pkgerrors "ptit-library/pkg/errors"
)

// ── 借阅模块业务错误 ──

var (
	ErrBookUnavailable         = errors.New("该图书暂无库存，请选择其他图书")
	ErrBorrowDuplicate         = errors.New("你已登记或正在借阅这本书")
	ErrBorrowLimitReached      = errors.New("待取与借阅中的图书已达上限")
	ErrBorrowNotFound          = errors.New("借阅记录不存在")
	ErrBorrowInvalidTransition = errors.New("当前借阅状态不允许此操作")
	ErrBorrowConflict          = errors.New("借阅记录已被其他操作修改，请刷新后重试")
	ErrInvalidDueDate          = errors.New("到期日不能早于借阅日")
)

// openStatuses 占用借阅名额的状态
var openStatuses = []model.BorrowStatus{model.BorrowPending, model.BorrowActive}

const (
	adminBorrowPageSize = 10
	topBooksLimit       = 10
)

// BorrowService 借阅生命周期：登记 → 激活 → 归还
type BorrowService interface {
	// ── 读者 ──
	Register(ctx context.Context, userID, bookID string) (*dto.BorrowResponse, error)
	Cancel(ctx context.Context, userID, borrowID string) error
	// ListMine 先生成到期提醒，再返回按状态分组的借阅
	ListMine(ctx context.Context, userID string) (*dto.MyBorrowsResponse, error)

	// ── 馆员 ──
	Activate(ctx context.Context, borrowID, operatorID string) (*dto.BorrowResponse, error)
	Return(ctx context.Context, borrowID, operatorID string) (*dto.BorrowResponse, error)
	Transition(ctx context.Context, borrowID string, target model.BorrowStatus, operatorID string) (*dto.BorrowResponse, error)
	AdminCreate(ctx context.Context, req *dto.AdminCreateBorrowRequest, operatorID string) (*dto.BorrowResponse, error)
	AdminList(ctx context.Context, req *dto.AdminBorrowListRequest) (*dto.PageResult[dto.BorrowResponse], error)
	Statistics(ctx context.Context) (*dto.BorrowStatisticsResponse, error)
}

type borrowService struct {
	cfg    *config.LibraryConfig
	repo   *repository.Repository
	clock  clock
	logger *zap.Logger
}

// NewBorrowService 创建 BorrowService 实例
func NewBorrowService(cfg *config.LibraryConfig, repo *repository.Repository, clk clock, logger *zap.Logger) BorrowService {
	return &borrowService{cfg: cfg, repo: repo, clock: clk, logger: logger}
}

// FormatBorrowCode 借阅码：BRC + 至少 4 位序号
func FormatBorrowCode(seq int64) string {
	return fmt.Sprintf("BRC%04d", seq)
}

// ═══════════════════════════════════════════════════════════
// 登记
// ═══════════════════════════════════════════════════════════

func (s *borrowService) Register(ctx context.Context, userID, bookID string) (*dto.BorrowResponse, error) {
	return s.create(ctx, userID, bookID, nil)
}

func (s *borrowService) AdminCreate(ctx context.Context, req *dto.AdminCreateBorrowRequest, operatorID string) (*dto.BorrowResponse, error) {
	var due *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		d, err := time.Parse(dto.ISODateLayout, *req.DueDate)
		if err != nil {
			return nil, ErrInvalidDueDate
		}
		if d.Before(s.clock.Today()) {
			return nil, ErrInvalidDueDate
		}
		due = &d
	}

	resp, err := s.create(ctx, req.UserID, req.BookID, due)
	if err != nil {
		return nil, err
	}
	s.logger.Info("馆员代登记借阅",
		zap.String("borrow_id", resp.ID),
		zap.String("user_id", req.UserID),
		zap.String("operator_id", operatorID),
	)
	return resp, nil
}

// create 准入检查依次为：图书存在、有库存、无重复、未超上限
// 同一用户的登记通过锁定用户行串行化，避免并发请求同时越过上限
func (s *borrowService) create(ctx context.Context, userID, bookID string, due *time.Time) (*dto.BorrowResponse, error) {
	var borrow *model.Borrow

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		book, err := tx.Book.GetByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if book.Quantity <= 0 {
			return ErrBookUnavailable
		}

		user, err := tx.User.GetByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		dup, err := tx.Borrow.ExistsByUserBookStatuses(ctx, userID, bookID, openStatuses)
		if err != nil {
			return err
		}
		if dup {
			return ErrBorrowDuplicate
		}

		open, err := tx.Borrow.CountByUserStatuses(ctx, userID, openStatuses)
		if err != nil {
			return err
		}
		if open >= int64(s.cfg.MaxActiveBorrows) {
			return ErrBorrowLimitReached
		}

		seq, err := tx.Borrow.NextCodeSeq(ctx)
		if err != nil {
			return err
		}

		borrow = &model.Borrow{
			UserID:     userID,
			BookID:     bookID,
			BorrowCode: FormatBorrowCode(seq),
			Status:     model.BorrowPending,
			BorrowDate: s.clock.Today(),
			DueDate:    due,
		}
		if err := tx.Borrow.Create(ctx, borrow); err != nil {
			return err
		}
		borrow.User = user
		borrow.Book = book
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("登记借阅失败", zap.String("user_id", userID), zap.String("book_id", bookID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("登记借阅",
		zap.String("borrow_id", borrow.BorrowID),
		zap.String("code", borrow.BorrowCode),
		zap.String("user_id", userID),
	)
	resp := toBorrowResponse(borrow, s.clock.Today())
	return &resp, nil
}

func (s *borrowService) Cancel(ctx context.Context, userID, borrowID string) error {
	deleted, err := s.repo.Borrow.DeletePending(ctx, borrowID, userID)
	if err != nil {
		s.logger.Error("取消借阅失败", zap.String("borrow_id", borrowID), zap.Error(err))
		return err
	}
	if !deleted {
		return ErrBorrowNotFound
	}
	s.logger.Info("取消借阅", zap.String("borrow_id", borrowID), zap.String("user_id", userID))
	return nil
}

// ═══════════════════════════════════════════════════════════
// 状态流转
// ═══════════════════════════════════════════════════════════

func (s *borrowService) Transition(ctx context.Context, borrowID string, target model.BorrowStatus, operatorID string) (*dto.BorrowResponse, error) {
	switch target {
	case model.BorrowActive:
		return s.Activate(ctx, borrowID, operatorID)
	case model.BorrowReturned:
		return s.Return(ctx, borrowID, operatorID)
	}

	// 其余目标状态均无对应流转，记录存在时一律拒绝
	if _, err := s.repo.Borrow.GetByID(ctx, borrowID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowNotFound
		}
		return nil, err
	}
	return nil, ErrBorrowInvalidTransition
}

// Activate 待取 → 借阅中：扣减库存（库存为 0 时不扣减但仍激活）、写入到期日、通知读者
func (s *borrowService) Activate(ctx context.Context, borrowID, operatorID string) (*dto.BorrowResponse, error) {
	var borrow *model.Borrow

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		b, err := s.lockForTransition(ctx, tx, borrowID, model.BorrowActive)
		if err != nil {
			return err
		}

		book, err := tx.Book.GetByID(ctx, b.BookID)
		if err != nil {
			return err
		}
		decremented, err := tx.Book.DecrementQuantity(ctx, b.BookID)
		if err != nil {
			return err
		}
		if decremented {
			book.Quantity--
		} else {
			s.logger.Warn("激活借阅时库存已为 0，未扣减", zap.String("borrow_id", borrowID), zap.String("book_id", b.BookID))
		}

		// 到期日只写一次；馆员预设的到期日保持不变
		if b.DueDate == nil {
			due := model.AddMonths(b.BorrowDate, s.cfg.LoanMonths)
			b.DueDate = &due
		}
		b.Status = model.BorrowActive
		if err := tx.Borrow.UpdateTransition(ctx, b, model.BorrowPending); err != nil {
			return err
		}

		if err := tx.Notification.Create(ctx, &model.Notification{
			UserID:   b.UserID,
			Type:     model.NotificationBorrowSuccess,
			Title:    "借阅成功",
			Message:  fmt.Sprintf("你已成功借阅《%s》，请于 %s 前归还。", book.Title, b.DueDate.Format(dto.DateLayout)),
			BookID:   &b.BookID,
			BorrowID: &b.BorrowID,
		}); err != nil {
			return err
		}

		b.Book = book
		borrow = b
		return nil
	})
	if err != nil {
		return nil, s.transitionError(borrowID, "激活借阅失败", err)
	}

	s.logger.Info("激活借阅",
		zap.String("borrow_id", borrowID),
		zap.String("operator_id", operatorID),
		zap.String("due_date", borrow.DueDate.Format(dto.ISODateLayout)),
	)
	resp := toBorrowResponse(borrow, s.clock.Today())
	return &resp, nil
}

// Return 借阅中 → 已归还：库存加 1、写入归还日、按是否逾期通知读者
func (s *borrowService) Return(ctx context.Context, borrowID, operatorID string) (*dto.BorrowResponse, error) {
	var borrow *model.Borrow

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		b, err := s.lockForTransition(ctx, tx, borrowID, model.BorrowReturned)
		if err != nil {
			return err
		}

		if err := tx.Book.IncrementQuantity(ctx, b.BookID); err != nil {
			return err
		}
		book, err := tx.Book.GetByID(ctx, b.BookID)
		if err != nil {
			return err
		}

		today := s.clock.Today()
		b.ReturnDate = &today
		b.Status = model.BorrowReturned
		if err := tx.Borrow.UpdateTransition(ctx, b, model.BorrowActive); err != nil {
			return err
		}

		if err := tx.Notification.Create(ctx, &model.Notification{
			UserID:   b.UserID,
			Type:     model.NotificationReturnSuccess,
			Title:    "归还成功",
			Message:  returnMessage(b, book.Title),
			BookID:   &b.BookID,
			BorrowID: &b.BorrowID,
		}); err != nil {
			return err
		}

		b.Book = book
		borrow = b
		return nil
	})
	if err != nil {
		return nil, s.transitionError(borrowID, "归还失败", err)
	}

	s.logger.Info("归还借阅",
		zap.String("borrow_id", borrowID),
		zap.String("operator_id", operatorID),
		zap.Bool("late", borrow.IsLateReturn()),
	)
	resp := toBorrowResponse(borrow, s.clock.Today())
	return &resp, nil
}

func returnMessage(b *model.Borrow, title string) string {
	if b.IsLateReturn() {
		return fmt.Sprintf("你于 %s 归还了《%s》，已超过应还日期 %s。请下次按时归还。",
			b.ReturnDate.Format(dto.DateLayout), title, b.DueDate.Format(dto.DateLayout))
	}
	return fmt.Sprintf("你已按时归还《%s》，感谢配合！", title)
}

// lockForTransition 加行锁读取借阅并校验能否流转到 target
func (s *borrowService) lockForTransition(ctx context.Context, tx *repository.Repository, borrowID string, target model.BorrowStatus) (*model.Borrow, error) {
	b, err := tx.Borrow.GetByIDForUpdate(ctx, borrowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowNotFound
		}
		return nil, err
	}
	if !b.Status.CanTransitionTo(target) {
		return nil, ErrBorrowInvalidTransition
	}
	return b, nil
}

func (s *borrowService) transitionError(borrowID, msg string, err error) error {
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		return ErrBorrowConflict
	}
	if !isBusinessError(err) {
		s.logger.Error(msg, zap.String("borrow_id", borrowID), zap.Error(err))
	}
	return err
}

// ═══════════════════════════════════════════════════════════
// 我的借阅 + 到期提醒
// ═══════════════════════════════════════════════════════════

func (s *borrowService) ListMine(ctx context.Context, userID string) (*dto.MyBorrowsResponse, error) {
	today := s.clock.Today()

	created, err := s.createDueReminders(ctx, userID, today)
	if err != nil {
		s.logger.Error("生成到期提醒失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	borrows, err := s.repo.Borrow.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询借阅失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.MyBorrowsResponse{
		Pending:          []dto.BorrowResponse{},
		Active:           []dto.BorrowResponse{},
		Returned:         []dto.BorrowResponse{},
		Overdue:          []dto.BorrowResponse{},
		RemindersCreated: created,
	}
	for i := range borrows {
		b := &borrows[i]
		item := toBorrowResponse(b, today)
		switch b.Status {
		case model.BorrowPending:
			resp.Pending = append(resp.Pending, item)
		case model.BorrowActive:
			resp.Active = append(resp.Active, item)
			if b.IsOverdue(today) {
				resp.Overdue = append(resp.Overdue, item)
			}
		case model.BorrowReturned:
			resp.Returned = append(resp.Returned, item)
		}
	}
	resp.CountPending = len(resp.Pending)
	resp.CountActive = len(resp.Active)
	resp.CountReturned = len(resp.Returned)
	resp.CountOverdue = len(resp.Overdue)
	return resp, nil
}

// createDueReminders 为 0~ReminderDays 天内到期的借阅生成提醒
// 去重键为 (用户, 图书, due_reminder) 的未读通知：读者读过之后下次查看会再次提醒
func (s *borrowService) createDueReminders(ctx context.Context, userID string, today time.Time) (int, error) {
	created := 0
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.User.GetByIDForUpdate(ctx, userID); err != nil {
			return err
		}

		borrows, err := tx.Borrow.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		for i := range borrows {
			b := &borrows[i]
			if b.Status != model.BorrowActive || b.DueDate == nil {
				continue
			}
			days := model.DaysBetween(today, *b.DueDate)
			if days < 0 || days > s.cfg.ReminderDays {
				continue
			}

			exists, err := tx.Notification.ExistsUnread(ctx, userID, model.NotificationDueReminder, b.BookID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			title := b.BookID
			if b.Book != nil {
				title = b.Book.Title
			}
			msg := fmt.Sprintf("你借阅的《%s》将于 %s 到期，请按时归还以免产生罚款。", title, b.DueDate.Format(dto.DateLayout))
			if err := tx.Notification.Create(ctx, &model.Notification{
				UserID:   userID,
				Type:     model.NotificationDueReminder,
				Title:    "即将到期提醒",
				Message:  msg,
				BookID:   &b.BookID,
				BorrowID: &b.BorrowID,
			}); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// ═══════════════════════════════════════════════════════════
// 管理端列表与统计
// ═══════════════════════════════════════════════════════════

func (s *borrowService) AdminList(ctx context.Context, req *dto.AdminBorrowListRequest) (*dto.PageResult[dto.BorrowResponse], error) {
	today := s.clock.Today()
	filter := repository.BorrowFilter{
		Status: model.BorrowStatus(req.Status),
		Search: strings.TrimSpace(req.Search),
	}
	filter.DueFrom, filter.DueTo = DueRangeBounds(req.DueRange, today)

	pageSize := req.PageSizeOr(adminBorrowPageSize)
	borrows, total, err := s.repo.Borrow.List(ctx, filter, req.OffsetFor(pageSize), pageSize)
	if err != nil {
		s.logger.Error("查询借阅列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.BorrowResponse, 0, len(borrows))
	for i := range borrows {
		list = append(list, toBorrowResponse(&borrows[i], today))
	}
	return &dto.PageResult[dto.BorrowResponse]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: pageSize,
	}, nil
}

// DueRangeBounds 把到期日快捷筛选换算成闭区间；未知取值不筛选
func DueRangeBounds(dueRange string, today time.Time) (*time.Time, *time.Time) {
	today = model.DateOf(today)
	var from, to time.Time
	switch dueRange {
	case dto.DueRangeToday:
		from, to = today, today
	case dto.DueRange7Days:
		from, to = today, today.AddDate(0, 0, 7)
	case dto.DueRangeThisMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, -1)
	case dto.DueRangeNextMonth:
		from = time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, -1)
	default:
		return nil, nil
	}
	return &from, &to
}

func (s *borrowService) Statistics(ctx context.Context) (*dto.BorrowStatisticsResponse, error) {
	today := s.clock.Today()

	top, err := s.repo.Borrow.TopActiveBooks(ctx, topBooksLimit)
	if err != nil {
		s.logger.Error("统计热门图书失败", zap.Error(err))
		return nil, err
	}
	overdue, err := s.repo.Borrow.ListOverdue(ctx, today)
	if err != nil {
		s.logger.Error("查询逾期借阅失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.BorrowStatisticsResponse{
		TopBooks: make([]dto.TopBookStat, 0, len(top)),
		Overdue:  make([]dto.BorrowResponse, 0, len(overdue)),
	}
	for _, t := range top {
		resp.TopBooks = append(resp.TopBooks, dto.TopBookStat{BookID: t.BookID, Title: t.Title, Total: t.Total})
	}
	for i := range overdue {
		resp.Overdue = append(resp.Overdue, toBorrowResponse(&overdue[i], today))
	}
	return resp, nil
}

// isBusinessError 业务错误由调用方直接映射为响应，无需记录错误日志
func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrBookNotFound, ErrBookUnavailable, ErrBorrowDuplicate, ErrBorrowLimitReached,
		ErrBorrowNotFound, ErrBorrowInvalidTransition, ErrUserNotFound, ErrInvalidDueDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
