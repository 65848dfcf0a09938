package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"ptit-library/config"
	"ptit-library/internal/dto"
	"ptit-library/internal/model"
	"ptit-library/internal/session"
)

func testAttendanceConfig(codeTTL time.Duration) *config.Config {
	return &config.Config{
		Auth:       config.AuthConfig{SessionTTL: time.Hour},
		Attendance: config.AttendanceConfig{CodeTTL: codeTTL, QRSize: 128},
	}
}

// setupAttendanceService 返回可推进的时钟指针；签到码固定为 code
func setupAttendanceService(now *time.Time, code string) (*attendanceService, session.Store, *mockRepos) {
	repo, mocks := newMockRepository()
	store := session.NewMemoryStore()
	svc := NewAttendanceService(testAttendanceConfig(0), repo, store, movableClock(now), zap.NewNop()).(*attendanceService)
	svc.newCode = func() (string, error) { return code, nil }
	return svc, store, mocks
}

func TestGenerateCode_StoresInSession(t *testing.T) {
	now := localTime(2024, 5, 6, 8, 59)
	svc, store, _ := setupAttendanceService(&now, "482913")

	resp, err := svc.GenerateCode(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("GenerateCode 失败: %v", err)
	}
	if resp.Code != "482913" {
		t.Errorf("期望签到码 482913，实际 %s", resp.Code)
	}
	if !strings.HasPrefix(resp.QRImage, "data:image/png;base64,") {
		t.Errorf("二维码应为 PNG data URI，实际前缀 %.30s", resp.QRImage)
	}
	if resp.GeneratedAt != "08:59:00" {
		t.Errorf("期望生成时间 08:59:00，实际 %s", resp.GeneratedAt)
	}

	saved, ok, _ := store.Get(context.Background(), "sid-1", session.KeyAttendanceCode)
	if !ok || saved != "482913" {
		t.Errorf("签到码应写入会话，实际 %q (%v)", saved, ok)
	}
}

func TestGenerateCode_ReplacesPrevious(t *testing.T) {
	now := localTime(2024, 5, 6, 8, 59)
	svc, store, _ := setupAttendanceService(&now, "111111")

	if _, err := svc.GenerateCode(context.Background(), "sid-1"); err != nil {
		t.Fatal(err)
	}
	svc.newCode = func() (string, error) { return "222222", nil }
	if _, err := svc.GenerateCode(context.Background(), "sid-1"); err != nil {
		t.Fatal(err)
	}

	saved, _, _ := store.Get(context.Background(), "sid-1", session.KeyAttendanceCode)
	if saved != "222222" {
		t.Errorf("新码应覆盖旧码，实际 %s", saved)
	}
	if _, err := svc.CheckCode(context.Background(), "sid-1", "u1", "111111"); !errors.Is(err, ErrAttendanceCodeInvalid) {
		t.Errorf("旧码应失效，实际 %v", err)
	}
}

func TestCodeTTL_DefaultsToSessionLifetime(t *testing.T) {
	repo, _ := newMockRepository()
	clk := fixedClock(time.Now())

	svc := NewAttendanceService(testAttendanceConfig(0), repo, session.NewMemoryStore(), clk, zap.NewNop()).(*attendanceService)
	if svc.codeTTL != time.Hour {
		t.Errorf("未配置时应使用会话 TTL，实际 %s", svc.codeTTL)
	}

	svc = NewAttendanceService(testAttendanceConfig(5*time.Minute), repo, session.NewMemoryStore(), clk, zap.NewNop()).(*attendanceService)
	if svc.codeTTL != 5*time.Minute {
		t.Errorf("应使用独立配置的 TTL，实际 %s", svc.codeTTL)
	}
}

func TestRandomCode_SixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := randomCode()
		if err != nil {
			t.Fatalf("randomCode 失败: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("签到码应为 6 位，实际 %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 100000 || n > 999999 {
			t.Fatalf("签到码超出范围: %q", code)
		}
	}
}

// ── 签到 / 签退 ──

func TestCheckCode_MorningToggle(t *testing.T) {
	now := localTime(2024, 5, 6, 8, 55)
	svc, _, mocks := setupAttendanceService(&now, "482913")
	seedUser(mocks, "u1", "B21DCCN001")
	ctx := context.Background()

	if _, err := svc.GenerateCode(ctx, "sid-1"); err != nil {
		t.Fatal(err)
	}

	now = localTime(2024, 5, 6, 9, 0)
	first, err := svc.CheckCode(ctx, "sid-1", "u1", "482913")
	if err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	if first.Action != dto.AttendanceCheckIn || first.Shift != string(model.ShiftMorning) {
		t.Errorf("期望上午签到，实际 %s/%s", first.Shift, first.Action)
	}
	if first.Time != "09:00:00" {
		t.Errorf("期望时间 09:00:00，实际 %s", first.Time)
	}

	now = localTime(2024, 5, 6, 9, 5)
	second, err := svc.CheckCode(ctx, "sid-1", "u1", "482913")
	if err != nil {
		t.Fatalf("签退失败: %v", err)
	}
	if second.Action != dto.AttendanceCheckOut {
		t.Errorf("期望签退，实际 %s", second.Action)
	}

	now = localTime(2024, 5, 6, 9, 10)
	third, err := svc.CheckCode(ctx, "sid-1", "u1", "482913")
	if err != nil {
		t.Fatalf("第三次提交失败: %v", err)
	}
	if third.Action != dto.AttendanceCompleted {
		t.Errorf("期望 completed，实际 %s", third.Action)
	}

	if len(mocks.entryLog.logs) != 1 {
		t.Fatalf("同一班次只应有 1 条记录，实际 %d", len(mocks.entryLog.logs))
	}
	log := mocks.entryLog.logs[0]
	if log.CheckIn == nil || !log.CheckIn.Equal(localTime(2024, 5, 6, 9, 0)) {
		t.Errorf("签到时间不符: %v", log.CheckIn)
	}
	if log.CheckOut == nil || !log.CheckOut.Equal(localTime(2024, 5, 6, 9, 5)) {
		t.Errorf("签退时间不应被第三次提交覆盖: %v", log.CheckOut)
	}
}

func TestCheckCode_ShiftBoundary(t *testing.T) {
	now := localTime(2024, 5, 6, 11, 59)
	svc, _, mocks := setupAttendanceService(&now, "482913")
	seedUser(mocks, "u1", "B21DCCN001")
	ctx := context.Background()
	if _, err := svc.GenerateCode(ctx, "sid-1"); err != nil {
		t.Fatal(err)
	}

	morning, err := svc.CheckCode(ctx, "sid-1", "u1", "482913")
	if err != nil {
		t.Fatal(err)
	}
	now = localTime(2024, 5, 6, 12, 0)
	afternoon, err := svc.CheckCode(ctx, "sid-1", "u1", "482913")
	if err != nil {
		t.Fatal(err)
	}

	if morning.Shift != string(model.ShiftMorning) || afternoon.Shift != string(model.ShiftAfternoon) {
		t.Errorf("班次划分不符: %s, %s", morning.Shift, afternoon.Shift)
	}
	if afternoon.Action != dto.AttendanceCheckIn {
		t.Errorf("下午班应重新签到，实际 %s", afternoon.Action)
	}
	if len(mocks.entryLog.logs) != 2 {
		t.Errorf("上下午应各有 1 条记录，实际 %d", len(mocks.entryLog.logs))
	}
}

func TestCheckCode_NextDayStartsOver(t *testing.T) {
	now := localTime(2024, 5, 6, 9, 0)
	svc, _, mocks := setupAttendanceService(&now, "482913")
	seedUser(mocks, "u1", "B21DCCN001")
	ctx := context.Background()
	if _, err := svc.GenerateCode(ctx, "sid-1"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CheckCode(ctx, "sid-1", "u1", "482913"); err != nil {
		t.Fatal(err)
	}
	now = localTime(2024, 5, 7, 9, 0)
	resp, err := svc.CheckCode(ctx, "sid-1", "u1", "482913")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != dto.AttendanceCheckIn {
		t.Errorf("次日同一班次应重新签到，实际 %s", resp.Action)
	}
}

func TestCheckCode_Invalid(t *testing.T) {
	now := localTime(2024, 5, 6, 9, 0)
	svc, _, mocks := setupAttendanceService(&now, "482913")
	seedUser(mocks, "u1", "B21DCCN001")
	ctx := context.Background()

	// 会话中尚未生成签到码
	if _, err := svc.CheckCode(ctx, "sid-1", "u1", "482913"); !errors.Is(err, ErrAttendanceCodeInvalid) {
		t.Errorf("未生成签到码时应拒绝，实际 %v", err)
	}

	if _, err := svc.GenerateCode(ctx, "sid-1"); err != nil {
		t.Fatal(err)
	}
	for _, code := range []string{"000000", "48291", "", "4829130"} {
		if _, err := svc.CheckCode(ctx, "sid-1", "u1", code); !errors.Is(err, ErrAttendanceCodeInvalid) {
			t.Errorf("%q: 期望 ErrAttendanceCodeInvalid，实际 %v", code, err)
		}
	}
	// 签到码只在生成它的会话内有效
	if _, err := svc.CheckCode(ctx, "sid-2", "u1", "482913"); !errors.Is(err, ErrAttendanceCodeInvalid) {
		t.Errorf("其他会话应拒绝，实际 %v", err)
	}

	if len(mocks.entryLog.logs) != 0 {
		t.Errorf("无效签到码不应产生记录，实际 %d", len(mocks.entryLog.logs))
	}
}

// ── 历史与统计 ──

func seedEntryLog(m *mockRepos, id, userID string, shift model.Shift, checkIn time.Time) *model.EntryLog {
	in := checkIn
	l := &model.EntryLog{
		EntryLogID: id,
		UserID:     userID,
		Shift:      shift,
		LogDate:    model.DateOf(checkIn),
		CheckIn:    &in,
	}
	m.entryLog.logs = append(m.entryLog.logs, l)
	return l
}

func TestHistory_FiltersAndFormats(t *testing.T) {
	now := localTime(2024, 5, 20, 9, 0)
	svc, _, mocks := setupAttendanceService(&now, "482913")
	seedUser(mocks, "u1", "B21DCCN001")
	seedEntryLog(mocks, "l1", "u1", model.ShiftMorning, localTime(2024, 4, 30, 8, 30))
	seedEntryLog(mocks, "l2", "u1", model.ShiftAfternoon, localTime(2024, 5, 2, 13, 15))
	seedEntryLog(mocks, "l3", "u2", model.ShiftMorning, localTime(2024, 5, 2, 7, 45))

	page, err := svc.History(context.Background(), "u1", &dto.AttendanceHistoryRequest{Start: "2024-05-01", End: "2024-05-31"})
	if err != nil {
		t.Fatalf("History 失败: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("期望 1 条记录，实际 %d", page.Total)
	}
	item := page.List[0]
	if item.Date != "02/05/2024" || item.CheckIn != "13:15:00" || item.CheckOut != "" {
		t.Errorf("记录格式不符: %+v", item)
	}
	if page.PageSize != attendanceHistoryPageSize {
		t.Errorf("默认每页 %d 条，实际 %d", attendanceHistoryPageSize, page.PageSize)
	}

	all, _ := svc.History(context.Background(), "u1", &dto.AttendanceHistoryRequest{})
	if all.Total != 2 {
		t.Errorf("不筛选时期望 2 条，实际 %d", all.Total)
	}
}

func TestHistory_InvalidDate(t *testing.T) {
	now := localTime(2024, 5, 20, 9, 0)
	svc, _, _ := setupAttendanceService(&now, "482913")

	_, err := svc.History(context.Background(), "u1", &dto.AttendanceHistoryRequest{Start: "20/05/2024"})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("期望 ErrInvalidDateRange，实际 %v", err)
	}
}

func TestMonthlyStatistics_Chronological(t *testing.T) {
	now := localTime(2024, 5, 20, 9, 0)
	svc, _, mocks := setupAttendanceService(&now, "482913")
	seedUser(mocks, "u1", "B21DCCN001")
	seedEntryLog(mocks, "l1", "u1", model.ShiftMorning, localTime(2024, 3, 4, 8, 0))
	seedEntryLog(mocks, "l2", "u1", model.ShiftMorning, localTime(2024, 5, 2, 8, 0))
	seedEntryLog(mocks, "l3", "u1", model.ShiftAfternoon, localTime(2024, 5, 2, 14, 0))

	chart, err := svc.MonthlyStatistics(context.Background(), "u1")
	if err != nil {
		t.Fatalf("MonthlyStatistics 失败: %v", err)
	}
	if len(chart.Labels) != 2 || chart.Labels[0] != "03/2024" || chart.Labels[1] != "05/2024" {
		t.Errorf("月份应按时间正序: %v", chart.Labels)
	}
	if chart.Values[0] != 1 || chart.Values[1] != 2 {
		t.Errorf("月度计数不符: %v", chart.Values)
	}
}

func TestTopAttendees(t *testing.T) {
	now := localTime(2024, 5, 20, 9, 0)
	svc, _, mocks := setupAttendanceService(&now, "482913")
	seedUser(mocks, "u1", "B21DCCN001")
	seedUser(mocks, "u2", "B21DCCN002")
	seedEntryLog(mocks, "l1", "u1", model.ShiftMorning, localTime(2024, 5, 2, 8, 0))
	seedEntryLog(mocks, "l2", "u2", model.ShiftMorning, localTime(2024, 5, 2, 8, 0))
	seedEntryLog(mocks, "l3", "u2", model.ShiftAfternoon, localTime(2024, 5, 2, 14, 0))

	chart, err := svc.TopAttendees(context.Background())
	if err != nil {
		t.Fatalf("TopAttendees 失败: %v", err)
	}
	if len(chart.Labels) != 2 || chart.Labels[0] != "B21DCCN002" || chart.Values[0] != 2 {
		t.Errorf("排行不符: %v %v", chart.Labels, chart.Values)
	}
}
