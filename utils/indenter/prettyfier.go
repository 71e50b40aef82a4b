package indenter

import (
	"fmt"
	"strings"
)

type indenter struct {
	buf string
}

func Indenter() indenter {
	return indenter{}
}

func (indenter) Start(str string) indenter {
	return indenter{buf: str}
}

// reindent shifts every line of a nested multi-line string one level deeper,
// so that nested Indenter dumps line up under their parent.
func reindent(str string) string {
	return strings.ReplaceAll(str, "\n", "\n  ")
}

func (i indenter) NestStrings(strs ...string) indenter {
	return i.NestStringsSep("", strs...)
}

func (i indenter) NestStringsSep(sep string, strs ...string) indenter {
	thunks := make([]func() string, len(strs))
	for j, s := range strs {
		s := s
		thunks[j] = func() string { return s }
	}
	return i.NestThunkedSep(sep, thunks...)
}

func (i indenter) Nest(strs ...fmt.Stringer) indenter {
	thunks := make([]func() string, len(strs))
	for j, s := range strs {
		s := s
		thunks[j] = s.String
	}
	return i.NestThunked(thunks...)
}

func (i indenter) NestThunked(strs ...func() string) indenter {
	return i.NestThunkedSep("", strs...)
}

func (i indenter) NestThunkedSep(sep string, strs ...func() string) indenter {
	switch len(strs) {
	case 0:
		return i
	case 1:
		i.buf += strs[0]()
		return i
	}

	for j, str := range strs {
		i.buf += "\n  " + reindent(str())
		if j < len(strs)-1 {
			i.buf += sep
		}
	}
	i.buf += "\n"
	return i
}

func (i indenter) End(str string) string {
	return i.buf + str
}
