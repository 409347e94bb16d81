package configs

import (
	"github.com/spf13/viper"
)

// DBType 元数据库类型，postgre/pg 与 mariadb 为别名.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgre"
	Pg         DBType = "pg"
	MySQL      DBType = "mysql"
	MariaDB    DBType = "mariadb"
	SQLite     DBType = "sqlite"
)

// DBConfig 文档元数据库配置；SQLite 的 Database 为文件名（不含 .db），":memory:" 为内存库.
type DBConfig struct {
	Type         DBType `mapstructure:"type"           rule:"oneof=postgresql postgre pg mysql mariadb sqlite"`
	Host         string `mapstructure:"host"           rule:"hostname"`
	Port         int    `mapstructure:"port"           rule:"min=1,max=65535"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"       rule:"required"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" rule:"min=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" rule:"min=0"`
}

// Dialect 返回去掉别名后的类型.
func (c *DBConfig) Dialect() DBType {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return PostgreSQL
	case MySQL, MariaDB:
		return MySQL
	default:
		return c.Type
	}
}

// InMemory 报告是否使用 SQLite 内存库.
func (c *DBConfig) InMemory() bool {
	return c.Dialect() == SQLite && c.Database == ":memory:"
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.database", "docflow")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 0)
	v.SetDefault("db.max_idle_conns", 5)
}
