package registry

import "errors"

// 错误分类保持与 provider 实现解耦：注册表只按这几类哨兵错误分支，
// provider 内部的具体失败原因通过 %w 链附加在消息里。
var (
	// ErrInvalidIdentifier 表示 ontology id 或解析后的版本串包含路径分隔符等
	// 不能安全拼入文件路径的内容。
	ErrInvalidIdentifier = errors.New("invalid ontology identifier")

	// ErrMetadataUnavailable 表示 Latest 版本解析失败（网络、解析或缺失版本字段）。
	ErrMetadataUnavailable = errors.New("ontology metadata unavailable")

	// ErrFetchFailed 表示上游内容下载失败。
	ErrFetchFailed = errors.New("ontology fetch failed")

	// ErrUnsupportedFormat 表示上游无法为该本体提供请求的格式。
	ErrUnsupportedFormat = errors.New("unsupported ontology format")

	// ErrIoFailure 表示本地文件系统操作（建目录、写入、rename）失败。
	ErrIoFailure = errors.New("local storage failure")

	// ErrNotRegistered 表示缓存中不存在对应条目，仅由 Lookup/Unregister 返回。
	ErrNotRegistered = errors.New("ontology not registered")
)
