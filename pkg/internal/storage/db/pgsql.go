//go:build !no_postgres

package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/docflow/pkg/configs"
)

func postgresDialector(cfg *configs.DBConfig) gorm.Dialector {
	return postgres.Open(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode))
}

func init() {
	RegisterDialectorFactory(configs.PostgreSQL, postgresDialector)
}
