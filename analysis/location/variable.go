package location

import (
	"github.com/plsem/stalecheck/utils"
)

// Variable identifies a program variable by name.
type Variable string

func (v Variable) Equal(o Variable) bool {
	return v == o
}

func (v Variable) Hash() uint32 {
	return utils.HashString(string(v))
}

func (v Variable) String() string {
	return colorize.Variable(string(v))
}
