//go:build !no_mysql

package db

import (
	"time"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/docflow/pkg/configs"
)

func mysqlDialector(cfg *configs.DBConfig) gorm.Dialector {
	dc := driver.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = configs.HostPort(cfg.Host, cfg.Port)
	dc.DBName = cfg.Database
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}

	return mysql.Open(dc.FormatDSN())
}

func init() {
	RegisterDialectorFactory(configs.MySQL, mysqlDialector)
}
