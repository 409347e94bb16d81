// Package model 定义持久化到关系数据库的 GORM 模型.
package model

// All 返回需要自动迁移的模型.
func All() []any {
	return []any{&Document{}, &OrphanBlob{}}
}
