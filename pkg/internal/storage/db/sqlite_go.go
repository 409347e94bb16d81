//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/docflow/pkg/configs"
)

// sqliteDialector 无 cgo 时使用 modernc 驱动，pragma 通过 _pragma 参数设置.
func sqliteDialector(cfg *configs.DBConfig) gorm.Dialector {
	return sqlite.Open(sqliteFile(cfg) + "&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
}

func init() {
	RegisterDialectorFactory(configs.SQLite, sqliteDialector)
}
