// Package metrics 提供业绩指标的纯函数计算，无任何 I/O。
// 导入流水线与看板聚合共用这里的公式。
package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SafeDiv 安全除法：任一操作数缺失或除数为零时返回 nil
func SafeDiv(n, d *float64) *float64 {
	if n == nil || d == nil {
		return nil
	}
	if *d == 0 {
		return nil
	}
	v := *n / *d
	return &v
}

// ComputeSPH 计算每小时销售额 = 销售额 / 实际工时
func ComputeSPH(salesAmount, actualHours *float64) *float64 {
	return SafeDiv(salesAmount, actualHours)
}

// ComputeConversionRate 计算转化率 = sold / (sold + retention + unlock)
// 三个输入全部缺失时返回 nil；缺失的单项按 0 计；分母为零返回 nil
func ComputeConversionRate(soldCount, retentionCount, unlockCount *int) *float64 {
	if soldCount == nil && retentionCount == nil && unlockCount == nil {
		return nil
	}
	sold := float64(intOrZero(soldCount))
	denom := sold + float64(intOrZero(retentionCount)) + float64(intOrZero(unlockCount))
	return SafeDiv(&sold, &denom)
}

// ComputeUnlockRatio 计算解锁率 = unlock / sold，任一输入缺失时返回 nil
func ComputeUnlockRatio(unlockCount, soldCount *int) *float64 {
	if unlockCount == nil || soldCount == nil {
		return nil
	}
	unlock := float64(*unlockCount)
	sold := float64(*soldCount)
	return SafeDiv(&unlock, &sold)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// artPattern 匹配 "3m 42s" / "58s" 这类自由文本：分钟段可选，秒段必须
var artPattern = regexp.MustCompile(`(?i)(?:(\d+)\s*m)?\s*(\d+)\s*s`)

// ParseARTInterval 从自由文本解析 ART 时长，无法匹配时返回 nil
func ParseARTInterval(text string) *time.Duration {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	m := artPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	minutes := 0
	if m[1] != "" {
		minutes, _ = strconv.Atoi(m[1])
	}
	seconds, _ := strconv.Atoi(m[2])
	d := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	return &d
}

// FormatInterval 将时长格式化为 "1h 2m 3s" / "2m 3s" / "3s"（负值按 0 处理）
func FormatInterval(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	minutes, seconds := total/60, total%60
	hours, minutes := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
