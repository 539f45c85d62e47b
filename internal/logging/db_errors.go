// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
)

// ConnectionErrorType categorizes database connection failures.
type ConnectionErrorType int

const (
	ConnErrorUnknown ConnectionErrorType = iota
	ConnErrorTimeout
	ConnErrorDNS
	ConnErrorRefused
	ConnErrorTLS
	ConnErrorAuth
	ConnErrorNoDatabase
)

// ClassifyConnectionError inspects driver and network errors from opening a
// database connection.
func ClassifyConnectionError(err error) ConnectionErrorType {
	if err == nil {
		return ConnErrorUnknown
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28P01", "28000":
			return ConnErrorAuth
		case "3D000":
			return ConnErrorNoDatabase
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1045:
			return ConnErrorAuth
		case 1049:
			return ConnErrorNoDatabase
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ConnErrorDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ConnErrorRefused
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ConnErrorTimeout
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "password authentication failed"), strings.Contains(lower, "access denied"):
		return ConnErrorAuth
	case strings.Contains(lower, "connection refused"):
		return ConnErrorRefused
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return ConnErrorTimeout
	case strings.Contains(lower, "no such host"):
		return ConnErrorDNS
	case strings.Contains(lower, "tls"), strings.Contains(lower, "certificate"), strings.Contains(lower, "ssl"):
		return ConnErrorTLS
	}
	return ConnErrorUnknown
}

// FormatConnectionError explains why the database at host could not be reached.
func FormatConnectionError(host string, err error) string {
	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Connection failed"))
	b.WriteString("\n\n")

	switch ClassifyConnectionError(err) {
	case ConnErrorTimeout:
		b.WriteString(host + " did not answer in time.\n")
		b.WriteString("Check the host and port, and that no firewall drops the connection.\n")
	case ConnErrorDNS:
		b.WriteString("The host name " + host + " could not be resolved.\n")
	case ConnErrorRefused:
		b.WriteString(host + " refused the connection.\n")
		b.WriteString("Check that the database is running and listening on that port.\n")
	case ConnErrorTLS:
		b.WriteString("A secure connection to " + host + " could not be established.\n")
	case ConnErrorAuth:
		b.WriteString("The server rejected the user name or password.\n")
	case ConnErrorNoDatabase:
		b.WriteString("The server has no database with that name.\n")
	default:
		b.WriteString("Please check your database credentials and network connection.\n")
	}

	if err != nil {
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}
	return b.String()
}

// PresentConnectionError prints FormatConnectionError and logs the failure.
func PresentConnectionError(host string, err error) {
	log.Error().Str("host", host).Str("error", Mask(fmt.Sprint(err))).Msg("database connection failed")
	pterm.Println()
	pterm.Println(FormatConnectionError(host, err))
	pterm.Println()
}
