package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 自定义列类型 ──

// Seconds 以整数秒持久化的时长（对应 BIGINT 列），实现 GORM Scanner/Valuer 接口。
// 用于 ART（平均响应时长）等从自由文本解析出的 interval 值。
type Seconds time.Duration

// Scan 将数据库返回的秒数解析为时长。
func (s *Seconds) Scan(src interface{}) error {
	if src == nil {
		*s = 0
		return nil
	}
	switch v := src.(type) {
	case int64:
		*s = Seconds(time.Duration(v) * time.Second)
		return nil
	case float64:
		*s = Seconds(time.Duration(v * float64(time.Second)))
		return nil
	default:
		return fmt.Errorf("Seconds.Scan: unsupported type %T", src)
	}
}

// Value 将时长序列化为整数秒。
func (s Seconds) Value() (driver.Value, error) {
	return int64(time.Duration(s) / time.Second), nil
}

// Duration 转换为标准库时长
func (s Seconds) Duration() time.Duration { return time.Duration(s) }

// JSONMap 对应 PostgreSQL JSONB 列的任意对象，实现 GORM Scanner/Valuer 接口。
type JSONMap map[string]interface{}

// Scan 将 JSONB 文本反序列化为 map。
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("JSONMap.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, m)
}

// Value 将 map 序列化为 JSONB 文本。
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
