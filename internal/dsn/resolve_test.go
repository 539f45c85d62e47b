// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		saved Fields
		flags Fields
		env   Fields
		want  Descriptor
	}{
		{
			name:  "saved record wins",
			saved: Fields{Type: "PostgreSQL", Host: "saved", User: "alice", Database: "app"},
			flags: Fields{Host: "flag", User: "bob"},
			want:  Descriptor{Type: DBTypePostgreSQL, Host: "saved", Port: 5432, User: "alice", Database: "app"},
		},
		{
			name:  "saved without user falls through to flags",
			saved: Fields{Host: "saved"},
			flags: Fields{Type: "postgres", Host: "flag", User: "bob"},
			env:   Fields{Database: "envdb"},
			want:  Descriptor{Type: DBTypePostgreSQL, Host: "flag", Port: 5432, User: "bob", Database: "envdb"},
		},
		{
			name:  "flags override env per field",
			flags: Fields{Port: 3310},
			env:   Fields{Type: "SingleStore", Host: "envhost", User: "envuser", Password: "pw"},
			want:  Descriptor{Type: DBTypeSingleStore, Host: "envhost", Port: 3310, User: "envuser", Password: "pw"},
		},
		{
			name: "default singlestore port",
			env:  Fields{Host: "h", User: "u"},
			want: Descriptor{Type: DBTypeSingleStore, Host: "h", Port: 3306, User: "u"},
		},
		{
			name:  "env url with flag override",
			env:   Fields{URL: "postgres://u:p@envhost:6543/db"},
			flags: Fields{Database: "other"},
			want:  Descriptor{Type: DBTypePostgreSQL, Host: "envhost", Port: 6543, User: "u", Password: "p", Database: "other"},
		},
		{
			name: "nothing configured",
			want: Descriptor{Type: DBTypeSingleStore, Port: 3306},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.saved, tt.flags, tt.env)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	if _, err := Resolve(Fields{}, Fields{URL: "mongodb://x/y"}, Fields{}); err == nil {
		t.Error("expected error for unsupported URL")
	}
	if _, err := Resolve(Fields{}, Fields{Type: "oracle", Host: "h"}, Fields{}); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestSingleStoreConnString(t *testing.T) {
	// An empty DBTYPE resolves to SingleStore.
	d, err := Resolve(Fields{}, Fields{}, Fields{Host: "svc", User: "admin", Password: "x", Database: "sales"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if d.Type != DBTypeSingleStore {
		t.Fatalf("Type = %v, want %v", d.Type, DBTypeSingleStore)
	}
	conn, err := d.ConnString()
	if err != nil {
		t.Fatalf("ConnString() error = %v", err)
	}
	mc, err := mysql.ParseDSN(conn)
	if err != nil {
		t.Fatalf("mysql.ParseDSN(%q) error = %v", conn, err)
	}
	if mc.Addr != "svc:3306" || mc.DBName != "sales" || mc.User != "admin" || mc.Passwd != "x" {
		t.Errorf("mysql config = %+v", mc)
	}
	if !mc.ParseTime || mc.Timeout != 10*time.Second {
		t.Errorf("ParseTime = %v, Timeout = %v", mc.ParseTime, mc.Timeout)
	}
}

func TestConnStringRejectsUnknownType(t *testing.T) {
	if _, err := (Descriptor{Type: DBTypeUnknown, Host: "h"}).ConnString(); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestDescriptorDisplay(t *testing.T) {
	pg := Descriptor{Type: DBTypePostgreSQL, Host: "db", Port: 5432, User: "bob", Password: "p@ss:w/rd", Database: "app"}
	s2 := Descriptor{Type: DBTypeSingleStore, Host: "svc", Port: 3306, User: "admin", Password: "x", Database: "sales"}

	if u := s2.URL(); !strings.HasPrefix(u, "singlestore://admin:x@svc:3306/sales") {
		t.Errorf("URL() = %q", u)
	}
	if s := pg.Summary(); strings.Contains(s, "p@ss") {
		t.Errorf("Summary() leaks the password: %q", s)
	}
}
