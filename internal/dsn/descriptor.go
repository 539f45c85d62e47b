// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

const connectTimeoutSeconds = "10"

// Descriptor identifies the single database a gptsql process talks to.
// It is built once by Resolve (or the setup wizard) and not modified afterwards.
type Descriptor struct {
	Type     DBType
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// FromInfo converts parsed DSN info into a Descriptor.
func FromInfo(info *DSNInfo) (Descriptor, error) {
	port, err := strconv.Atoi(info.Port)
	if err != nil {
		return Descriptor{}, NewParseError(info.Original, fmt.Sprintf("invalid port number: %s", info.Port), "port must be numeric")
	}
	return Descriptor{
		Type:     info.Type,
		Host:     info.Host,
		Port:     port,
		User:     info.User,
		Password: info.Password,
		Database: info.Database,
	}, nil
}

func (d Descriptor) addr() string {
	port := d.Port
	if port == 0 {
		port = d.Type.DefaultPort()
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// URL renders the descriptor as a URL including the password. Pass it
// through logging.Mask before showing or logging it.
func (d Descriptor) URL() string {
	scheme := "singlestore"
	if d.Type == DBTypePostgreSQL {
		scheme = "postgresql"
	}
	u := url.URL{Scheme: scheme, Host: d.addr(), Path: "/" + d.Database}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	return u.String()
}

// ConnString renders the connection string the driver for d.Type opens:
// a postgresql:// URL for pgx, user:password@tcp(host:port)/db for MySQL.
func (d Descriptor) ConnString() (string, error) {
	r := resolverForType(d.Type)
	if r == nil {
		return "", fmt.Errorf("unsupported database type %q", d.Type)
	}
	port := d.Port
	if port == 0 {
		port = d.Type.DefaultPort()
	}
	info := &DSNInfo{
		Type:     d.Type,
		Host:     d.Host,
		Port:     strconv.Itoa(port),
		User:     d.User,
		Password: d.Password,
		Database: d.Database,
		Params:   map[string]string{},
	}
	if d.Type == DBTypePostgreSQL {
		info.Params["connect_timeout"] = connectTimeoutSeconds
	}
	return r.Normalize(info)
}

// Summary is the one-line, password-free description printed by the
// "connection" command.
func (d Descriptor) Summary() string {
	return fmt.Sprintf("Host: %s, Database: %s, User: %s", d.Host, d.Database, d.User)
}
