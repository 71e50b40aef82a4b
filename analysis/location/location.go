// Package location defines the opaque building blocks of the abstract
// memory model: symbolic addresses, the allocator that mints them, access
// labels naming graph edges, and program variables.
package location

import (
	"github.com/plsem/stalecheck/utils"

	"github.com/fatih/color"
)

// colorize is used for pretty-printing.
var colorize = struct {
	Address  func(...interface{}) string
	Variable func(...interface{}) string
	Label    func(...interface{}) string
}{
	Address: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiGreen).SprintFunc())(is...)
	},
	Variable: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
	},
	Label: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiCyan).SprintFunc())(is...)
	},
}
