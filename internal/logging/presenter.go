// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// Warn shows a masked warning to the user and records it in the diagnostics log.
// The session keeps running after a warning.
func Warn(context string, err error) {
	if err == nil {
		return
	}
	msg := PresentError(context, err)
	log.Warn().Msg(msg)
	pterm.Warning.Println(msg)
}

// Fail shows a masked error to the user and records it in the diagnostics log.
func Fail(context string, err error) {
	if err == nil {
		return
	}
	msg := PresentError(context, err)
	log.Error().Msg(msg)
	pterm.Error.Println(msg)
}
