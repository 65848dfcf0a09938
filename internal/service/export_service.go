package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/width"

	"ptit-library/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// OverdueSheetName 逾期借阅导出的工作表名
const OverdueSheetName = "Overdue borrows"

var overdueHeaders = []string{"借阅码", "用户", "书名", "作者", "借阅日期", "到期日期"}

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportOverdue 导出全部逾期借阅；返回内容与建议文件名
	ExportOverdue(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	clock  clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, clk clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, clock: clk, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportOverdue 逾期借阅导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单个 Sheet "Overdue borrows"
//   - 第 1 行表头：借阅码 | 用户 | 书名 | 作者 | 借阅日期 | 到期日期
//   - 日期为 dd/mm/yyyy，列宽按内容自适应

func (s *exportService) ExportOverdue(ctx context.Context) (*bytes.Buffer, string, error) {
	today := s.clock.Today()
	borrows, err := s.repo.Borrow.ListOverdue(ctx, today)
	if err != nil {
		s.logger.Error("查询逾期借阅失败", zap.Error(err))
		return nil, "", err
	}

	rows := make([][]string, 0, len(borrows))
	for i := range borrows {
		b := toBorrowResponse(&borrows[i], today)
		rows = append(rows, []string{b.Code, b.Username, b.BookTitle, b.BookAuthor, b.BorrowDate, b.DueDate})
	}

	buf, err := buildOverdueWorkbook(rows)
	if err != nil {
		s.logger.Error("生成逾期借阅 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("导出逾期借阅", zap.Int("count", len(rows)))
	filename := fmt.Sprintf("overdue_borrows_%s.xlsx", today.Format("20060102"))
	return buf, filename, nil
}

// buildOverdueWorkbook 写入表头与数据行，任一单元格写入失败即返回错误
func buildOverdueWorkbook(rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(OverdueSheetName)
	if err != nil {
		return nil, fmt.Errorf("创建工作表: %w", err)
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("删除默认工作表: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C00000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("创建表头样式: %w", err)
	}

	widths := make([]int, len(overdueHeaders))
	writeRow := func(row int, values []string) error {
		for i, v := range values {
			if err := f.SetCellValue(OverdueSheetName, cell(colName(i), row), v); err != nil {
				return fmt.Errorf("写入单元格 %s: %w", cell(colName(i), row), err)
			}
			if w := cellWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
		return nil
	}

	if err := writeRow(1, overdueHeaders); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(OverdueSheetName, "A1", cell(colName(len(overdueHeaders)-1), 1), headerStyle); err != nil {
		return nil, fmt.Errorf("设置表头样式: %w", err)
	}
	for i, r := range rows {
		if err := writeRow(i+2, r); err != nil {
			return nil, err
		}
	}

	// 列宽自适应，不超过 Excel 上限
	for i, w := range widths {
		col := colName(i)
		if err := f.SetColWidth(OverdueSheetName, col, col, columnWidth(w)); err != nil {
			return nil, fmt.Errorf("设置列宽 %s: %w", col, err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("写入 Excel: %w", err)
	}
	return buf, nil
}

func columnWidth(textWidth int) float64 {
	return math.Min(float64(textWidth+2), excelize.MaxColumnWidth)
}

// colName 0 起始的列号转列名（0 → A）
func colName(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// cellWidth 估算显示宽度：东亚宽字符按 2 计
func cellWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}
