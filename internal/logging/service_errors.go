// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	openai "github.com/sashabaranov/go-openai"
)

// ServiceErrorType is the category of a failed call to the assistant service.
type ServiceErrorType int

const (
	ServiceErrorUnknown ServiceErrorType = iota
	ServiceErrorNetwork
	ServiceErrorAuth
	ServiceErrorRateLimit
	ServiceErrorTimeout
	ServiceErrorServer
	ServiceErrorTLS
)

// ClassifyServiceError categorizes an error returned by the assistant service client.
// HTTP status codes win over message text when the client exposes them.
func ClassifyServiceError(err error) ServiceErrorType {
	if err == nil {
		return ServiceErrorUnknown
	}

	if code := statusCode(err); code != 0 {
		switch {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return ServiceErrorAuth
		case code == http.StatusTooManyRequests:
			return ServiceErrorRateLimit
		case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
			return ServiceErrorTimeout
		case code >= 500:
			return ServiceErrorServer
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ServiceErrorTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return ServiceErrorNetwork
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "timeout"):
		return ServiceErrorTimeout
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host"):
		return ServiceErrorNetwork
	case strings.Contains(lower, "certificate") || strings.Contains(lower, "tls") ||
		strings.Contains(lower, "handshake"):
		return ServiceErrorTLS
	case strings.Contains(lower, "incorrect api key") || strings.Contains(lower, "unauthorized"):
		return ServiceErrorAuth
	}
	return ServiceErrorUnknown
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// FormatServiceError formats an assistant service error in a user-friendly way.
// context describes what gptsql was doing, e.g. "creating the thread".
func FormatServiceError(context string, err error) string {
	var b strings.Builder

	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("OpenAI request failed"))
	if context != "" {
		b.WriteString(pterm.NewStyle(pterm.FgRed).Sprint(" while " + context))
	}
	b.WriteString("\n\n")

	switch ClassifyServiceError(err) {
	case ServiceErrorNetwork:
		b.WriteString("The OpenAI API could not be reached.\n")
		b.WriteString("Check your internet connection and any proxy or firewall in the way.\n")
	case ServiceErrorAuth:
		b.WriteString("The OpenAI API rejected the API key.\n")
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run 'gptsql reset' and enter a valid key on the next start"))
		b.WriteString("\n")
	case ServiceErrorRateLimit:
		b.WriteString("The OpenAI API is rate limiting this key, or its quota is used up.\n")
		b.WriteString("Wait a moment and try again, or check the billing settings of the account.\n")
	case ServiceErrorTimeout:
		b.WriteString("The OpenAI API did not answer in time.\n")
		b.WriteString("Try again in a few moments.\n")
	case ServiceErrorServer:
		b.WriteString("The OpenAI API returned a server error.\n")
		b.WriteString("This is not a problem with your setup. Try again in a few minutes.\n")
	case ServiceErrorTLS:
		b.WriteString("A secure connection to the OpenAI API could not be established.\n")
		b.WriteString("Check the system clock and any HTTPS proxy settings.\n")
	default:
		b.WriteString("The request to the OpenAI API failed.\n")
	}

	if err != nil {
		details := Mask(err.Error())
		if len(details) > 300 {
			details = details[:300] + "..."
		}
		b.WriteString("\n")
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + details))
	}

	return b.String()
}

// PresentServiceError displays a formatted assistant service error.
func PresentServiceError(context string, err error) {
	fmt.Println()
	fmt.Println(FormatServiceError(context, err))
	fmt.Println()
}
