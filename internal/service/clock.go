package service

import (
	"time"

	"ptit-library/internal/model"
)

// clock 以图书馆所在时区给出“现在”和“今天”
type clock struct {
	loc *time.Location
	now func() time.Time
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.UTC
	}
	return clock{loc: loc, now: time.Now}
}

// Now 当前本地时间
func (c clock) Now() time.Time { return c.now().In(c.loc) }

// Today 当前本地日历日（UTC 零点表示）
func (c clock) Today() time.Time { return model.DateOf(c.Now()) }

// Local 把任意时间转换到本地时区用于展示
func (c clock) Local(t time.Time) time.Time { return t.In(c.loc) }
