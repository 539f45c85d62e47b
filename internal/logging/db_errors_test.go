// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ConnectionErrorType
	}{
		{name: "nil", err: nil, want: ConnErrorUnknown},
		{name: "postgres bad password", err: fmt.Errorf("connect: %w", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}), want: ConnErrorAuth},
		{name: "postgres missing database", err: &pgconn.PgError{Code: "3D000"}, want: ConnErrorNoDatabase},
		{name: "mysql access denied", err: &mysql.MySQLError{Number: 1045, Message: "Access denied for user"}, want: ConnErrorAuth},
		{name: "mysql unknown database", err: &mysql.MySQLError{Number: 1049}, want: ConnErrorNoDatabase},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "db.invalid"}, want: ConnErrorDNS},
		{name: "refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: ConnErrorRefused},
		{name: "deadline", err: fmt.Errorf("ping: %w", context.DeadlineExceeded), want: ConnErrorTimeout},
		{name: "tls text", err: errors.New("tls: failed to verify certificate"), want: ConnErrorTLS},
		{name: "other", err: errors.New("something odd"), want: ConnErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyConnectionError(tt.err); got != tt.want {
				t.Errorf("ClassifyConnectionError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatConnectionErrorMasksSecrets(t *testing.T) {
	err := errors.New("failed to connect to postgresql://app:hunter2@db:5432/shop: connection refused")
	out := FormatConnectionError("db", err)
	if strings.Contains(out, "hunter2") {
		t.Errorf("password leaked: %s", out)
	}
	if !strings.Contains(out, "refused the connection") {
		t.Errorf("unexpected text: %s", out)
	}
}
