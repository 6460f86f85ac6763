package winepath

import (
	"strings"
	"testing"
)

func TestDisplayPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple path",
			in:   "/home/user/Games/Spore",
			want: "Z:\\\\home\\user\\Games\\Spore",
		},
		{
			name: "path with spaces",
			in:   "/home/user/.local/share/Steam/steamapps/common/Spore Galactic Adventures",
			want: "Z:\\\\home\\user\\.local\\share\\Steam\\steamapps\\common\\Spore Galactic Adventures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayPath(tt.in)
			if got != tt.want {
				t.Errorf("DisplayPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if strings.Contains(got, "\\\\\\") {
				t.Errorf("DisplayPath(%q) contains doubled separators: %q", tt.in, got)
			}
		})
	}
}

func TestRegistryPath(t *testing.T) {
	got := RegistryPath("/home/user/Games/Spore")
	want := "Z:\\\\\\\\home\\\\user\\\\Games\\\\Spore"
	if got != want {
		t.Errorf("RegistryPath = %q, want %q", got, want)
	}

	// Every separator must be a doubled backslash: stripping all doubled
	// backslashes must leave no single backslash behind.
	stripped := strings.ReplaceAll(got, "\\\\", "")
	if strings.Contains(stripped, "\\") {
		t.Errorf("RegistryPath output has an unescaped backslash: %q", got)
	}
}

func TestGuestPath(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		host   string
		want   string
	}{
		{
			name:   "inside drive_c",
			prefix: "/home/user/prefixes/spore_modloader/pfx",
			host:   "/home/user/prefixes/spore_modloader/pfx/drive_c/ProgramData/SPORE ModAPI Launcher Kit/Spore ModAPI Launcher.exe",
			want:   "C:\\ProgramData\\SPORE ModAPI Launcher Kit\\Spore ModAPI Launcher.exe",
		},
		{
			name:   "outside drive_c keeps host root",
			prefix: "/home/user/prefixes/spore_modloader/pfx",
			host:   "/tmp/installer.exe",
			want:   "\\tmp\\installer.exe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GuestPath(tt.prefix, tt.host)
			if got != tt.want {
				t.Errorf("GuestPath(%q, %q) = %q, want %q", tt.prefix, tt.host, got, tt.want)
			}
		})
	}
}
