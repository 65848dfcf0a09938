package service

import (
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"ptit-library/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *mockRepos) {
	repo, mocks := newMockRepository()
	svc := NewExportService(repo, fixedClock(localTime(2024, 5, 20, 9, 0)), zap.NewNop())
	return svc, mocks
}

// ── ExportOverdue 测试 ──

func TestExportService_ExportOverdue(t *testing.T) {
	svc, mocks := setupTestExportService()
	seedUser(mocks, "u1", "B21DCCN001")
	seedBook(mocks, "b1", "Giải tích 1", 1)
	seedBook(mocks, "b2", "Vật lý đại cương", 1)
	seedBorrow(mocks, "br1", "u1", "b1", model.BorrowActive, localTime(2023, 12, 1, 0, 0), datePtr(2024, 5, 1))
	seedBorrow(mocks, "br2", "u1", "b2", model.BorrowActive, localTime(2024, 1, 1, 0, 0), datePtr(2024, 6, 1))
	seedBorrow(mocks, "br3", "u1", "b2", model.BorrowReturned, localTime(2023, 1, 1, 0, 0), datePtr(2023, 6, 1))

	buf, filename, err := svc.ExportOverdue(context.Background())
	if err != nil {
		t.Fatalf("ExportOverdue 失败: %v", err)
	}
	if filename != "overdue_borrows_20240520.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != OverdueSheetName {
		t.Errorf("工作表不符: %v", sheets)
	}

	rows, err := f.GetRows(OverdueSheetName)
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 行逾期记录，实际 %d 行", len(rows))
	}
	for i, h := range overdueHeaders {
		if rows[0][i] != h {
			t.Errorf("表头第 %d 列期望 %s，实际 %s", i+1, h, rows[0][i])
		}
	}
	want := []string{"BRC0001", "B21DCCN001", "Giải tích 1", "Tác giả", "01/12/2023", "01/05/2024"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("第 %d 列期望 %s，实际 %s", i+1, v, rows[1][i])
		}
	}
}

func TestExportService_ExportOverdue_Empty(t *testing.T) {
	svc, _ := setupTestExportService()

	buf, _, err := svc.ExportOverdue(context.Background())
	if err != nil {
		t.Fatalf("没有逾期记录时也应导出表头: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(OverdueSheetName)
	if len(rows) != 1 {
		t.Errorf("期望仅表头 1 行，实际 %d", len(rows))
	}
}

func TestExportService_ExportOverdue_LongTitleWidthCapped(t *testing.T) {
	svc, mocks := setupTestExportService()
	seedUser(mocks, "u1", "B21DCCN001")
	title := strings.Repeat("Lập trình hướng đối tượng ", 20) + "Java"
	seedBook(mocks, "b1", title, 1)
	seedBorrow(mocks, "br1", "u1", "b1", model.BorrowActive, localTime(2024, 1, 1, 0, 0), datePtr(2024, 5, 1))

	buf, _, err := svc.ExportOverdue(context.Background())
	if err != nil {
		t.Fatalf("超长书名也应能导出: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	w, err := f.GetColWidth(OverdueSheetName, "C")
	if err != nil {
		t.Fatalf("读取列宽失败: %v", err)
	}
	if w != excelize.MaxColumnWidth {
		t.Errorf("书名列宽应封顶为 %d，实际 %v", excelize.MaxColumnWidth, w)
	}
	if v, _ := f.GetCellValue(OverdueSheetName, "C2"); v != title {
		t.Error("书名内容不应被截断")
	}
}

func TestBuildOverdueWorkbook_HeaderOnly(t *testing.T) {
	buf, err := buildOverdueWorkbook(nil)
	if err != nil {
		t.Fatalf("buildOverdueWorkbook 失败: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != OverdueSheetName {
		t.Errorf("默认工作表应被删除: %v", sheets)
	}
	if w, _ := f.GetColWidth(OverdueSheetName, "A"); w <= 0 {
		t.Errorf("表头列宽应已设置，实际 %v", w)
	}
}

func TestCellWidth(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"BRC0001", 7},
		{"借阅码", 6},
		{"Giải tích", 9},
	}
	for _, tc := range cases {
		if got := cellWidth(tc.in); got != tc.want {
			t.Errorf("cellWidth(%q) = %d，期望 %d", tc.in, got, tc.want)
		}
	}
}

func TestColName(t *testing.T) {
	if colName(0) != "A" || colName(5) != "F" || colName(26) != "AA" {
		t.Errorf("列名转换不符: %s %s %s", colName(0), colName(5), colName(26))
	}
}
