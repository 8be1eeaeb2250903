package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider looks up the home directory used for "~" shortcuts.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites "~" and "~/..." workspace paths against a home directory looked up once.
type HomeExpander struct {
	lookupHome func() string
}

// NewHomeExpander uses os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(nil)
}

// NewHomeExpanderWithProvider constructs a HomeExpander; a nil provider falls back to os.UserHomeDir.
// A provider error leaves paths untouched.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{
		lookupHome: sync.OnceValue(func() string {
			homeDirectory, lookupError := provider()
			if lookupError != nil {
				return ""
			}
			return homeDirectory
		}),
	}
}

// Expand returns candidatePath with a leading home shortcut replaced. "~user" forms are not supported.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil {
		return candidatePath
	}
	remainder, hasShortcut := strings.CutPrefix(candidatePath, homeShortcutConstant)
	if !hasShortcut {
		return candidatePath
	}
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory := expander.lookupHome()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	if len(remainder) == 0 {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, remainder[1:])
}
