// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// SingleStoreResolver handles mysql:// and singlestore:// URLs. SingleStore
// speaks the MySQL wire protocol, so both schemes resolve to the same engine.
type SingleStoreResolver struct {
	syntax urlSyntax
}

// NewSingleStoreResolver creates a new SingleStore resolver.
func NewSingleStoreResolver() *SingleStoreResolver {
	return &SingleStoreResolver{syntax: urlSyntax{
		typ:         DBTypeSingleStore,
		schemes:     []string{"singlestore", "mysql"},
		defaultPort: SingleStoreDefaultPort,
	}}
}

// Parse parses a singlestore:// or mysql:// URL.
func (r *SingleStoreResolver) Parse(dsn string) (*DSNInfo, error) {
	return r.syntax.parse(dsn)
}

// Normalize renders info in go-sql-driver/mysql DSN form,
// user:password@tcp(host:port)/database?params.
func (r *SingleStoreResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	cfg := mysqlConfig(info.User, info.Password, net.JoinHostPort(info.Host, info.Port), info.Database)
	for k, v := range info.Params {
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[k] = v
	}
	return cfg.FormatDSN(), nil
}

func mysqlConfig(user, password, addr, database string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Timeout = 10 * time.Second
	return cfg
}
