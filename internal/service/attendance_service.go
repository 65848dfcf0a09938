package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"ptit-library/config"
	"ptit-library/internal/dto"
	"ptit-library/internal/model"
	"ptit-library/internal/repository"
	"ptit-library/internal/session"
	"ptit-library/pkg/qrimage"
)

// ── 签到模块业务错误 ──

var (
	ErrAttendanceCodeInvalid = errors.New("签到码无效或已过期")
	ErrInvalidDateRange      = errors.New("日期格式应为 YYYY-MM-DD")
)

const (
	attendanceHistoryPageSize = 10
	attendanceStatsMonths     = 10
	attendanceTopLimit        = 10

	clockLayout = "15:04:05"
)

// AttendanceService 二维码签到：会话内生成 6 位签到码，凭码在上午/下午班次签到、签退
type AttendanceService interface {
	GenerateCode(ctx context.Context, sessionID string) (*dto.AttendanceCodeResponse, error)
	CheckCode(ctx context.Context, sessionID, userID, code string) (*dto.AttendanceCheckResponse, error)
	History(ctx context.Context, userID string, req *dto.AttendanceHistoryRequest) (*dto.PageResult[dto.EntryLogResponse], error)
	MonthlyStatistics(ctx context.Context, userID string) (*dto.ChartResponse, error)
	TopAttendees(ctx context.Context) (*dto.ChartResponse, error)
}

type attendanceService struct {
	repo     *repository.Repository
	sessions session.Store
	codeTTL  time.Duration
	qrSize   int
	clock    clock
	newCode  func() (string, error)
	logger   *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(cfg *config.Config, repo *repository.Repository, sessions session.Store, clk clock, logger *zap.Logger) AttendanceService {
	// 未单独配置时签到码与会话同生命周期
	ttl := cfg.Attendance.CodeTTL
	if ttl <= 0 {
		ttl = cfg.Auth.SessionTTL
	}
	return &attendanceService{
		repo:     repo,
		sessions: sessions,
		codeTTL:  ttl,
		qrSize:   cfg.Attendance.QRSize,
		clock:    clk,
		newCode:  randomCode,
		logger:   logger,
	}
}

// randomCode 均匀分布于 [100000, 999999] 的 6 位数字
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ────────────────────── 签到码 ──────────────────────

func (s *attendanceService) GenerateCode(ctx context.Context, sessionID string) (*dto.AttendanceCodeResponse, error) {
	code, err := s.newCode()
	if err != nil {
		s.logger.Error("生成签到码失败", zap.Error(err))
		return nil, err
	}

	img, err := qrimage.DataURI(code, s.qrSize)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.Error(err))
		return nil, err
	}

	// 新码覆盖旧码
	if err := s.sessions.Set(ctx, sessionID, session.KeyAttendanceCode, code, s.codeTTL); err != nil {
		s.logger.Error("保存签到码失败", zap.String("sid", sessionID), zap.Error(err))
		return nil, err
	}

	return &dto.AttendanceCodeResponse{
		Code:        code,
		QRImage:     img,
		GeneratedAt: s.clock.Now().Format(clockLayout),
	}, nil
}

func (s *attendanceService) CheckCode(ctx context.Context, sessionID, userID, code string) (*dto.AttendanceCheckResponse, error) {
	if sessionID == "" || code == "" {
		return nil, ErrAttendanceCodeInvalid
	}

	saved, ok, err := s.sessions.Get(ctx, sessionID, session.KeyAttendanceCode)
	if err != nil {
		s.logger.Error("读取签到码失败", zap.String("sid", sessionID), zap.Error(err))
		return nil, err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(saved), []byte(code)) != 1 {
		return nil, ErrAttendanceCodeInvalid
	}

	now := s.clock.Now()
	shift := model.ShiftAt(now)
	action := dto.AttendanceCompleted

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		log, err := tx.EntryLog.GetOrCreateForUpdate(ctx, userID, shift, model.DateOf(now))
		if err != nil {
			return err
		}

		switch {
		case log.CheckIn == nil:
			done, err := tx.EntryLog.MarkCheckIn(ctx, log.EntryLogID, now)
			if err != nil {
				return err
			}
			if done {
				action = dto.AttendanceCheckIn
			}
		case log.CheckOut == nil:
			done, err := tx.EntryLog.MarkCheckOut(ctx, log.EntryLogID, now)
			if err != nil {
				return err
			}
			if done {
				action = dto.AttendanceCheckOut
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("签到失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("签到",
		zap.String("user_id", userID),
		zap.String("shift", string(shift)),
		zap.String("action", action),
	)
	return &dto.AttendanceCheckResponse{
		Action:  action,
		Shift:   string(shift),
		Time:    now.Format(clockLayout),
		Message: checkMessage(action, shift, now),
	}, nil
}

func shiftLabel(shift model.Shift) string {
	if shift == model.ShiftMorning {
		return "上午"
	}
	return "下午"
}

func checkMessage(action string, shift model.Shift, at time.Time) string {
	switch action {
	case dto.AttendanceCheckIn:
		return fmt.Sprintf("%s签到成功，时间 %s", shiftLabel(shift), at.Format(clockLayout))
	case dto.AttendanceCheckOut:
		return fmt.Sprintf("%s签退成功，时间 %s", shiftLabel(shift), at.Format(clockLayout))
	}
	return "你已完成本班次的签到与签退"
}

// ────────────────────── 历史与统计 ──────────────────────

func (s *attendanceService) History(ctx context.Context, userID string, req *dto.AttendanceHistoryRequest) (*dto.PageResult[dto.EntryLogResponse], error) {
	filter := repository.EntryLogFilter{UserID: userID}
	var err error
	if filter.Start, err = parseOptionalDate(req.Start); err != nil {
		return nil, err
	}
	if filter.End, err = parseOptionalDate(req.End); err != nil {
		return nil, err
	}

	pageSize := req.PageSizeOr(attendanceHistoryPageSize)
	logs, total, err := s.repo.EntryLog.List(ctx, filter, req.OffsetFor(pageSize), pageSize)
	if err != nil {
		s.logger.Error("查询签到历史失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.EntryLogResponse, 0, len(logs))
	for i := range logs {
		list = append(list, s.toEntryLogResponse(&logs[i]))
	}
	return &dto.PageResult[dto.EntryLogResponse]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: pageSize,
	}, nil
}

func (s *attendanceService) MonthlyStatistics(ctx context.Context, userID string) (*dto.ChartResponse, error) {
	rows, err := s.repo.EntryLog.MonthlyCounts(ctx, userID, attendanceStatsMonths)
	if err != nil {
		s.logger.Error("统计月度签到失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	// 仓库按月份倒序返回，图表按时间正序展示
	chart := &dto.ChartResponse{
		Labels: make([]string, 0, len(rows)),
		Values: make([]int64, 0, len(rows)),
	}
	for i := len(rows) - 1; i >= 0; i-- {
		label := rows[i].Month
		if m, err := time.Parse("2006-01", rows[i].Month); err == nil {
			label = m.Format("01/2006")
		}
		chart.Labels = append(chart.Labels, label)
		chart.Values = append(chart.Values, rows[i].Total)
	}
	return chart, nil
}

func (s *attendanceService) TopAttendees(ctx context.Context) (*dto.ChartResponse, error) {
	rows, err := s.repo.EntryLog.TopUsers(ctx, attendanceTopLimit)
	if err != nil {
		s.logger.Error("统计签到排行失败", zap.Error(err))
		return nil, err
	}

	chart := &dto.ChartResponse{
		Labels: make([]string, 0, len(rows)),
		Values: make([]int64, 0, len(rows)),
	}
	for _, r := range rows {
		chart.Labels = append(chart.Labels, r.Username)
		chart.Values = append(chart.Values, r.Total)
	}
	return chart, nil
}

func (s *attendanceService) toEntryLogResponse(l *model.EntryLog) dto.EntryLogResponse {
	resp := dto.EntryLogResponse{
		ID:    l.EntryLogID,
		Shift: string(l.Shift),
		Date:  l.LogDate.Format(dto.DateLayout),
	}
	if l.User != nil {
		resp.Username = l.User.Username
	}
	if l.CheckIn != nil {
		resp.CheckIn = s.clock.Local(*l.CheckIn).Format(clockLayout)
	}
	if l.CheckOut != nil {
		resp.CheckOut = s.clock.Local(*l.CheckOut).Format(clockLayout)
	}
	return resp
}

func parseOptionalDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(dto.ISODateLayout, v)
	if err != nil {
		return nil, ErrInvalidDateRange
	}
	return &d, nil
}
