package dto

// SkippedRow 导入时被跳过行的样例诊断
type SkippedRow struct {
	Row    int    `json:"row"`
	Sheet  string `json:"sheet,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult 批量导入结果计数
type ImportResult struct {
	TeamsCreated       int          `json:"teams_created"`
	ChattersCreated    int          `json:"chatters_created"`
	PerformanceRecords int          `json:"performance_records"`
	PerformanceUpdates int          `json:"performance_updates"`
	ShiftRecords       int          `json:"shift_records"`
	ShiftUpdates       int          `json:"shift_updates"`
	RowsSkipped        int          `json:"rows_skipped"`
	SkippedSamples     []SkippedRow `json:"skipped_samples"`
}
