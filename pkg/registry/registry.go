// Package registry synthesizes the Windows registry import document that
// makes a Spore installation visible to the ModAPI launcher kit inside a Wine
// prefix. The document format is regedit's .reg syntax, version 5.00.
package registry

import (
	"fmt"

	"github.com/sporeforge/sporeforge/pkg/winepath"
)

// The %CDKEY% placeholder is left literal on purpose: the ModAPI installer
// prompts the user for the key and rewrites these values itself.
const sporeTemplate = `Windows Registry Editor Version 5.00

[HKEY_LOCAL_MACHINE\Software\Wow6432Node\electronic arts\spore]
"appdir"="Spore"
"datadir"="%s"
"locale"="en-us"
"playerdir"="My Spore Creations"

[HKEY_LOCAL_MACHINE\Software\Wow6432Node\electronic arts\ea games\spore(tm)\ergc]
@="%%CDKEY%%"

[HKEY_LOCAL_MACHINE\Software\Wow6432Node\electronic arts\SPORE Creepy and Cute Parts Pack]
"AddOnID"=dword:00000001
"datadir"="%s\\\\"
"PackID"=dword:06f4b5d1

[HKEY_LOCAL_MACHINE\Software\Wow6432Node\electronic arts\SPORE_EP1]
"AddOnID"=dword:00000002
"datadir"="%s\\\\"
"PackID"=dword:07a7f786
"ProductKey"="%%CDKEY%%"
`

// BuildSporeRegistry renders the registry document for a Spore install rooted
// at installPath (a host absolute path). The result is deterministic and does
// no I/O; all embedded paths use the doubled-backslash registry escaping.
func BuildSporeRegistry(installPath string) string {
	base := winepath.RegistryPath(installPath)
	dataDir := base + "\\\\Data"
	dataEP1Dir := base + "\\\\DataEP1"
	bp1Dir := base + "\\\\bp1content"

	return fmt.Sprintf(sporeTemplate, dataDir, bp1Dir, dataEP1Dir)
}
