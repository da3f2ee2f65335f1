// helpdesk/utils/color/color.go
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor  = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	alertColor   = color.New(color.FgHiRed, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
)

func ColorPrompt(format string, a ...interface{}) {
	promptColor.Printf(format, a...)
}

func ColorInfo(format string, a ...interface{}) {
	infoColor.Printf(format, a...)
}

func ColorWarning(format string, a ...interface{}) {
	warningColor.Printf(format, a...)
}

func ColorError(format string, a ...interface{}) {
	errorColor.Printf(format, a...)
}

func ColorAlert(format string, a ...interface{}) {
	alertColor.Printf(format, a...)
}

func ColorSuccess(format string, a ...interface{}) {
	successColor.Printf(format, a...)
}
