//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/docflow/pkg/configs"
)

// sqliteDialector 使用 mattn/go-sqlite3，参数写法与纯 Go 驱动不同.
func sqliteDialector(cfg *configs.DBConfig) gorm.Dialector {
	return sqlite.Open(sqliteFile(cfg) + "&_busy_timeout=5000&_foreign_keys=1")
}

func init() {
	RegisterDialectorFactory(configs.SQLite, sqliteDialector)
}
