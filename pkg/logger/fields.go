package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldEntryID 日记条目 ID 字段
	FieldEntryID = "entryId"

	// FieldBlockID 块 ID 字段
	FieldBlockID = "blockId"

	// FieldDate 日记日期字段
	FieldDate = "date"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldRetry 重试次数字段
	FieldRetry = "retry"

	// FieldBlocks 块数量字段
	FieldBlocks = "blocks"

	// FieldChars 字符数量字段
	FieldChars = "chars"
)
