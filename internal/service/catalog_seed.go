package service

import (
	"context"

	"go.uber.org/zap"
)

// SeedResult 初始化集合的结果统计
type SeedResult struct {
	CollectionsCreated    int
	SubCollectionsCreated int
}

type seedCollection struct {
	name string
	subs []string
}

var (
	seedFaculties = []string{
		"Công nghệ thông tin", "An toàn thông tin", "Viễn thông", "Điện tử",
		"Cơ bản", "Đa phương tiện", "Kế toán", "Quản trị kinh doanh",
	}
	seedPostgraduate = []string{
		"Hệ thống thông tin", "Khoa học máy tính", "Kỹ thuật viễn thông",
		"Kỹ thuật điện tử", "Quản trị kinh doanh",
	}

	// defaultCollections 馆内默认的 9 个集合及其分类
	defaultCollections = []seedCollection{
		{name: "Bài giảng", subs: seedFaculties},
		{name: "Giáo trình", subs: seedFaculties},
		{name: "E-book chuyên ngành", subs: seedFaculties[:4]},
		{name: "Khoá luận tốt nghiệp", subs: seedFaculties},
		{name: "Luận văn thạc sĩ", subs: seedPostgraduate},
		{name: "Luận án tiến sĩ", subs: seedPostgraduate},
		{name: "Sách danh nhân", subs: []string{"Danh nhân Việt Nam", "Danh nhân thế giới"}},
		{name: "Sách tâm lý - kỹ năng", subs: []string{
			"Kỹ năng quản lý thời gian", "Kỹ năng lãnh đạo", "Cẩm nang kinh doanh - làm giàu",
		}},
		{name: "Sách giải trí - giáo dục", subs: []string{"Truyện ngắn", "Tiểu thuyết"}},
	}
)

// SeedCollections 幂等地创建默认集合与分类，已存在的跳过
func (s *catalogService) SeedCollections(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}
	for _, sc := range defaultCollections {
		collection, created, err := s.repo.Collection.EnsureCollection(ctx, sc.name)
		if err != nil {
			s.logger.Error("创建集合失败", zap.String("name", sc.name), zap.Error(err))
			return nil, err
		}
		if created {
			result.CollectionsCreated++
			s.logger.Info("创建集合", zap.String("name", sc.name))
		}

		for _, name := range sc.subs {
			_, created, err := s.repo.Collection.EnsureSubCollection(ctx, collection.CollectionID, name)
			if err != nil {
				s.logger.Error("创建分类失败", zap.String("collection", sc.name), zap.String("name", name), zap.Error(err))
				return nil, err
			}
			if created {
				result.SubCollectionsCreated++
			}
		}
	}
	return result, nil
}
