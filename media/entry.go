package media

import (
	"fmt"
	"strings"
)

// Entry is one validated playable file of the media directory.
type Entry struct {
	Name string
	Size int64
}

// Base is the file name without the extension.
func (e Entry) Base() string {
	base, _ := splitName(e.Name)
	return base
}

// Ext is the extension without the dot, case as stored.
func (e Entry) Ext() string {
	_, ext := splitName(e.Name)
	return ext
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (%d bytes)", e.Name, e.Size)
}

func splitName(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}
