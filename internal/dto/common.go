package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout 接口层统一使用的日期格式
const DateLayout = "2006-01-02"

// ErrBadDate 日期字符串不符合 DateLayout
var ErrBadDate = errors.New("日期格式不正确，应为 YYYY-MM-DD")

// ParseDate 解析 YYYY-MM-DD 日期字符串
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return t, nil
}

// ParseDatePtr 解析可选日期，空串返回 nil
func ParseDatePtr(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDatePtr 格式化可选日期，nil 返回空串
func FormatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
