package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"ptit-library/internal/model"
	"ptit-library/internal/repository"
	pkgerrors "ptit-library/pkg/errors"
)

// mockRepos 一组相互关联的内存 Repository，模拟预加载关联
type mockRepos struct {
	user         *mockUserRepo
	collection   *mockCollectionRepo
	book         *mockBookRepo
	borrow       *mockBorrowRepo
	notification *mockNotificationRepo
	entryLog     *mockEntryLogRepo
}

// newMockRepository 未绑定数据库的聚合：Transaction 直接以自身执行回调
func newMockRepository() (*repository.Repository, *mockRepos) {
	m := &mockRepos{}
	m.user = newMockUserRepo()
	m.collection = newMockCollectionRepo()
	m.book = newMockBookRepo(m)
	m.borrow = newMockBorrowRepo(m)
	m.notification = newMockNotificationRepo()
	m.entryLog = newMockEntryLogRepo(m)

	return &repository.Repository{
		User:         m.user,
		Collection:   m.collection,
		Book:         m.book,
		Borrow:       m.borrow,
		Notification: m.notification,
		EntryLog:     m.entryLog,
	}, m
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.User, error) {
	// 在 mock 中与 GetByID 行为一致
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// ── Mock CollectionRepository ──

type mockCollectionRepo struct {
	collections []*model.Collection
	subs        []*model.SubCollection
}

func newMockCollectionRepo() *mockCollectionRepo {
	return &mockCollectionRepo{}
}

func (m *mockCollectionRepo) ListWithSubCollections(_ context.Context) ([]model.Collection, error) {
	var result []model.Collection
	for _, c := range m.collections {
		cp := *c
		cp.SubCollections = nil
		for _, sub := range m.subs {
			if sub.CollectionID == c.CollectionID {
				cp.SubCollections = append(cp.SubCollections, *sub)
			}
		}
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockCollectionRepo) GetSubCollection(_ context.Context, id string) (*model.SubCollection, error) {
	for _, sub := range m.subs {
		if sub.SubCollectionID == id {
			cp := *sub
			for _, c := range m.collections {
				if c.CollectionID == sub.CollectionID {
					cc := *c
					cp.Collection = &cc
				}
			}
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCollectionRepo) EnsureCollection(_ context.Context, name string) (*model.Collection, bool, error) {
	for _, c := range m.collections {
		if c.Name == name {
			return c, false, nil
		}
	}
	c := &model.Collection{CollectionID: fmt.Sprintf("col-%d", len(m.collections)+1), Name: name}
	m.collections = append(m.collections, c)
	return c, true, nil
}

func (m *mockCollectionRepo) EnsureSubCollection(_ context.Context, collectionID, name string) (*model.SubCollection, bool, error) {
	for _, sub := range m.subs {
		if sub.CollectionID == collectionID && sub.Name == name {
			return sub, false, nil
		}
	}
	sub := &model.SubCollection{
		SubCollectionID: fmt.Sprintf("sub-%d", len(m.subs)+1),
		CollectionID:    collectionID,
		Name:            name,
	}
	m.subs = append(m.subs, sub)
	return sub, true, nil
}

// ── Mock BookRepository ──

type mockBookRepo struct {
	root  *mockRepos
	books map[string]*model.Book
	// beforeUpdate 在写回前执行，模拟读取与写回之间的并发借还
	beforeUpdate func()
}

func newMockBookRepo(root *mockRepos) *mockBookRepo {
	return &mockBookRepo{root: root, books: make(map[string]*model.Book)}
}

func (m *mockBookRepo) Create(_ context.Context, book *model.Book) error {
	if book.BookID == "" {
		book.BookID = fmt.Sprintf("book-%d", len(m.books)+1)
	}
	cp := *book
	cp.SubCollection = nil
	m.books[book.BookID] = &cp
	return nil
}

func (m *mockBookRepo) Update(_ context.Context, book *model.Book) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	stored, ok := m.books[book.BookID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *book
	cp.SubCollection = nil
	cp.Quantity = stored.Quantity
	m.books[book.BookID] = &cp
	return nil
}

func (m *mockBookRepo) SetQuantity(_ context.Context, id string, quantity int) error {
	b, ok := m.books[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Quantity = quantity
	return nil
}

func (m *mockBookRepo) GetByID(ctx context.Context, id string) (*model.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	if b.SubCollectionID != nil {
		if sub, err := m.root.collection.GetSubCollection(ctx, *b.SubCollectionID); err == nil {
			cp.SubCollection = sub
		}
	}
	return &cp, nil
}

func (m *mockBookRepo) sorted(match func(*model.Book) bool) []model.Book {
	var result []model.Book
	for _, b := range m.books {
		if match(b) {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result
}

func (m *mockBookRepo) ListBySubCollection(_ context.Context, subCollectionID string, offset, limit int) ([]model.Book, int64, error) {
	all := m.sorted(func(b *model.Book) bool {
		return b.SubCollectionID != nil && *b.SubCollectionID == subCollectionID
	})
	page, total := paginate(all, offset, limit)
	return page, total, nil
}

func (m *mockBookRepo) Search(_ context.Context, folded string, offset, limit int) ([]model.Book, int64, error) {
	all := m.sorted(func(b *model.Book) bool {
		return strings.Contains(b.SearchText, folded)
	})
	page, total := paginate(all, offset, limit)
	return page, total, nil
}

func (m *mockBookRepo) DecrementQuantity(_ context.Context, id string) (bool, error) {
	b, ok := m.books[id]
	if !ok || b.Quantity <= 0 {
		return false, nil
	}
	b.Quantity--
	return true, nil
}

func (m *mockBookRepo) IncrementQuantity(_ context.Context, id string) error {
	b, ok := m.books[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Quantity++
	return nil
}

// ── Mock BorrowRepository ──

type mockBorrowRepo struct {
	root    *mockRepos
	borrows map[string]*model.Borrow
	seq     int64
}

func newMockBorrowRepo(root *mockRepos) *mockBorrowRepo {
	return &mockBorrowRepo{root: root, borrows: make(map[string]*model.Borrow)}
}

// withRelations 返回带 User / Book 关联的副本
func (m *mockBorrowRepo) withRelations(b *model.Borrow) model.Borrow {
	cp := *b
	if u, ok := m.root.user.users[b.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	if bk, ok := m.root.book.books[b.BookID]; ok {
		bc := *bk
		cp.Book = &bc
	}
	return cp
}

func (m *mockBorrowRepo) filter(match func(*model.Borrow) bool) []model.Borrow {
	var result []model.Borrow
	for _, b := range m.borrows {
		if match(b) {
			result = append(result, m.withRelations(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].BorrowDate.Equal(result[j].BorrowDate) {
			return result[i].BorrowDate.After(result[j].BorrowDate)
		}
		return result[i].BorrowCode > result[j].BorrowCode
	})
	return result
}

func (m *mockBorrowRepo) NextCodeSeq(_ context.Context) (int64, error) {
	m.seq++
	return m.seq, nil
}

func (m *mockBorrowRepo) Create(_ context.Context, borrow *model.Borrow) error {
	if borrow.BorrowID == "" {
		borrow.BorrowID = fmt.Sprintf("borrow-%d", len(m.borrows)+1)
	}
	if borrow.Version == 0 {
		borrow.Version = 1
	}
	cp := *borrow
	cp.User, cp.Book = nil, nil
	m.borrows[borrow.BorrowID] = &cp
	return nil
}

func (m *mockBorrowRepo) GetByID(_ context.Context, id string) (*model.Borrow, error) {
	b, ok := m.borrows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withRelations(b)
	return &cp, nil
}

func (m *mockBorrowRepo) GetByIDForUpdate(_ context.Context, id string) (*model.Borrow, error) {
	b, ok := m.borrows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBorrowRepo) UpdateTransition(_ context.Context, borrow *model.Borrow, from model.BorrowStatus) error {
	stored, ok := m.borrows[borrow.BorrowID]
	if !ok || stored.Status != from || stored.Version != borrow.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = borrow.Status
	stored.DueDate = borrow.DueDate
	stored.ReturnDate = borrow.ReturnDate
	stored.Version++
	borrow.Version++
	return nil
}

func (m *mockBorrowRepo) DeletePending(_ context.Context, id, userID string) (bool, error) {
	b, ok := m.borrows[id]
	if !ok || b.UserID != userID || b.Status != model.BorrowPending {
		return false, nil
	}
	delete(m.borrows, id)
	return true, nil
}

func hasStatus(statuses []model.BorrowStatus, s model.BorrowStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (m *mockBorrowRepo) CountByUserStatuses(_ context.Context, userID string, statuses []model.BorrowStatus) (int64, error) {
	var n int64
	for _, b := range m.borrows {
		if b.UserID == userID && hasStatus(statuses, b.Status) {
			n++
		}
	}
	return n, nil
}

func (m *mockBorrowRepo) ExistsByUserBookStatuses(_ context.Context, userID, bookID string, statuses []model.BorrowStatus) (bool, error) {
	for _, b := range m.borrows {
		if b.UserID == userID && b.BookID == bookID && hasStatus(statuses, b.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBorrowRepo) ListByUser(_ context.Context, userID string) ([]model.Borrow, error) {
	return m.filter(func(b *model.Borrow) bool { return b.UserID == userID }), nil
}

func (m *mockBorrowRepo) List(_ context.Context, f repository.BorrowFilter, offset, limit int) ([]model.Borrow, int64, error) {
	search := strings.ToLower(f.Search)
	all := m.filter(func(b *model.Borrow) bool {
		if f.Status != "" && b.Status != f.Status {
			return false
		}
		if f.DueFrom != nil && (b.DueDate == nil || b.DueDate.Before(*f.DueFrom)) {
			return false
		}
		if f.DueTo != nil && (b.DueDate == nil || b.DueDate.After(*f.DueTo)) {
			return false
		}
		if search != "" {
			rel := m.withRelations(b)
			hay := strings.ToLower(b.BorrowCode)
			if rel.User != nil {
				hay += " " + strings.ToLower(rel.User.Username)
			}
			if rel.Book != nil {
				hay += " " + strings.ToLower(rel.Book.Title)
			}
			if !strings.Contains(hay, search) {
				return false
			}
		}
		return true
	})
	page, total := paginate(all, offset, limit)
	return page, total, nil
}

func (m *mockBorrowRepo) ListOverdue(_ context.Context, today time.Time) ([]model.Borrow, error) {
	return m.filter(func(b *model.Borrow) bool { return b.IsOverdue(today) }), nil
}

func (m *mockBorrowRepo) ListOverdueByUser(_ context.Context, userID string, today time.Time) ([]model.Borrow, error) {
	return m.filter(func(b *model.Borrow) bool { return b.UserID == userID && b.IsOverdue(today) }), nil
}

func (m *mockBorrowRepo) TopActiveBooks(_ context.Context, limit int) ([]repository.BookBorrowCount, error) {
	counts := make(map[string]int64)
	for _, b := range m.borrows {
		if b.Status == model.BorrowActive {
			counts[b.BookID]++
		}
	}
	var result []repository.BookBorrowCount
	for id, n := range counts {
		title := ""
		if bk, ok := m.root.book.books[id]; ok {
			title = bk.Title
		}
		result = append(result, repository.BookBorrowCount{BookID: id, Title: title, Total: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].Title < result[j].Title
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ── Mock NotificationRepository ──

var mockEpoch = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

type mockNotificationRepo struct {
	items []*model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("notif-%d", len(m.items)+1)
	}
	if n.CreatedAt.IsZero() {
		// 按插入顺序递增，保证排序稳定
		n.CreatedAt = mockEpoch.Add(time.Duration(len(m.items)) * time.Minute)
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockNotificationRepo) byType(userID, notificationType string) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID && n.Type == notificationType {
			result = append(result, n)
		}
	}
	return result
}

func (m *mockNotificationRepo) ExistsUnread(_ context.Context, userID, notificationType, bookID string) (bool, error) {
	for _, n := range m.byType(userID, notificationType) {
		if !n.IsRead && n.BookID != nil && *n.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Notification, error) {
	var all []model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			all = append(all, *n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	page, _ := paginate(all, offset, limit)
	return page, nil
}

func (m *mockNotificationRepo) GetByIDForUser(_ context.Context, id, userID string) (*model.Notification, error) {
	for _, n := range m.items {
		if n.NotificationID == id && n.UserID == userID {
			cp := *n
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	for _, n := range m.items {
		if n.NotificationID == id && n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

// ── Mock EntryLogRepository ──

type mockEntryLogRepo struct {
	root *mockRepos
	logs []*model.EntryLog
}

func newMockEntryLogRepo(root *mockRepos) *mockEntryLogRepo {
	return &mockEntryLogRepo{root: root}
}

func (m *mockEntryLogRepo) find(id string) *model.EntryLog {
	for _, l := range m.logs {
		if l.EntryLogID == id {
			return l
		}
	}
	return nil
}

func (m *mockEntryLogRepo) GetOrCreateForUpdate(_ context.Context, userID string, shift model.Shift, logDate time.Time) (*model.EntryLog, error) {
	day := model.DateOf(logDate)
	for _, l := range m.logs {
		if l.UserID == userID && l.Shift == shift && l.LogDate.Equal(day) {
			cp := *l
			return &cp, nil
		}
	}
	l := &model.EntryLog{
		EntryLogID: fmt.Sprintf("log-%d", len(m.logs)+1),
		UserID:     userID,
		Shift:      shift,
		LogDate:    day,
	}
	m.logs = append(m.logs, l)
	cp := *l
	return &cp, nil
}

func (m *mockEntryLogRepo) MarkCheckIn(_ context.Context, id string, at time.Time) (bool, error) {
	l := m.find(id)
	if l == nil || l.CheckIn != nil {
		return false, nil
	}
	l.CheckIn = &at
	return true, nil
}

func (m *mockEntryLogRepo) MarkCheckOut(_ context.Context, id string, at time.Time) (bool, error) {
	l := m.find(id)
	if l == nil || l.CheckIn == nil || l.CheckOut != nil {
		return false, nil
	}
	l.CheckOut = &at
	return true, nil
}

func (m *mockEntryLogRepo) List(_ context.Context, f repository.EntryLogFilter, offset, limit int) ([]model.EntryLog, int64, error) {
	var all []model.EntryLog
	for _, l := range m.logs {
		if l.UserID != f.UserID {
			continue
		}
		if f.Start != nil && l.LogDate.Before(model.DateOf(*f.Start)) {
			continue
		}
		if f.End != nil && l.LogDate.After(model.DateOf(*f.End)) {
			continue
		}
		cp := *l
		if u, ok := m.root.user.users[l.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LogDate.After(all[j].LogDate) })
	page, total := paginate(all, offset, limit)
	return page, total, nil
}

func (m *mockEntryLogRepo) MonthlyCounts(_ context.Context, userID string, months int) ([]repository.MonthCount, error) {
	counts := make(map[string]int64)
	for _, l := range m.logs {
		if l.UserID == userID && l.CheckIn != nil {
			counts[l.LogDate.Format("2006-01")]++
		}
	}
	var result []repository.MonthCount
	for month, n := range counts {
		result = append(result, repository.MonthCount{Month: month, Total: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month > result[j].Month })
	if len(result) > months {
		result = result[:months]
	}
	return result, nil
}

func (m *mockEntryLogRepo) TopUsers(_ context.Context, limit int) ([]repository.UserCount, error) {
	counts := make(map[string]int64)
	for _, l := range m.logs {
		counts[l.UserID]++
	}
	var result []repository.UserCount
	for id, n := range counts {
		name := id
		if u, ok := m.root.user.users[id]; ok {
			name = u.Username
		}
		result = append(result, repository.UserCount{UserID: id, Username: name, Total: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].Username < result[j].Username
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ── 测试辅助 ──

func paginate[T any](all []T, offset, limit int) ([]T, int64) {
	total := int64(len(all))
	if offset > len(all) {
		return nil, total
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total
}

// testZone 固定 UTC+7，避免依赖系统时区数据库
var testZone = time.FixedZone("ICT", 7*3600)

// fixedClock 固定在某一时刻的时钟
func fixedClock(t time.Time) clock {
	return clock{loc: testZone, now: func() time.Time { return t }}
}

// movableClock 可在测试中推进的时钟
func movableClock(now *time.Time) clock {
	return clock{loc: testZone, now: func() time.Time { return *now }}
}

func seedUser(m *mockRepos, id, username string) *model.User {
	u := &model.User{UserID: id, Username: username, Name: "测试用户 " + username, Role: model.RoleStudent}
	m.user.users[id] = u
	return u
}

func seedBook(m *mockRepos, id, title string, quantity int) *model.Book {
	b := &model.Book{BookID: id, Title: title, Author: "Tác giả", Quantity: quantity}
	m.book.books[id] = b
	return b
}

// seedBorrow 直接写入一条借阅（绕过准入检查）
func seedBorrow(m *mockRepos, id, userID, bookID string, status model.BorrowStatus, borrowDate time.Time, due *time.Time) *model.Borrow {
	m.borrow.seq++
	b := &model.Borrow{
		BorrowID:   id,
		UserID:     userID,
		BookID:     bookID,
		BorrowCode: FormatBorrowCode(m.borrow.seq),
		Status:     status,
		BorrowDate: model.DateOf(borrowDate),
		DueDate:    due,
	}
	b.Version = 1
	m.borrow.borrows[id] = b
	return b
}

func datePtr(y int, mo time.Month, d int) *time.Time {
	t := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	return &t
}
