package model

import "time"

// ── 日期工具 ──
// DATE 列统一以 UTC 零点的 time.Time 表示“本地日历日”，
// 避免时区换算导致同一天被比较成不同日期。

// DateOf 取 t 所在（其自身时区下）的日历日
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths 按日历月相加；目标月份天数不足时取该月最后一天（1 月 31 日 + 1 月 = 2 月 28/29 日）
func AddMonths(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween 返回 to - from 的整天数（两者均为日历日）
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
