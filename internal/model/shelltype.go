package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ShellType is the tagged variant describing what a Shim should spawn.
// Exactly one of the fields is meaningful, selected by Kind.
type ShellType struct {
	Kind ShellKind

	// Wsl
	Distribution string // optional, only for KindWsl

	// Custom
	Program string
	Args    []string
}

type ShellKind int

const (
	KindWindows ShellKind = iota
	KindPwsh
	KindCmd
	KindWsl
	KindCustom
)

// ParseShellType parses the shim's --shell-type argument string, the
// same grammar shim_client.rs's shell_type_to_shim_arg produces:
// "windows", "pwsh", "cmd", "wsl", "wsl:<distro>", "<prog>", or
// "<prog>:<args...>" (args space-joined).
func ParseShellType(s string) ShellType {
	switch {
	case s == "windows":
		return ShellType{Kind: KindWindows}
	case s == "pwsh":
		return ShellType{Kind: KindPwsh}
	case s == "cmd":
		return ShellType{Kind: KindCmd}
	case s == "wsl":
		return ShellType{Kind: KindWsl}
	case strings.HasPrefix(s, "wsl:"):
		return ShellType{Kind: KindWsl, Distribution: strings.TrimPrefix(s, "wsl:")}
	default:
		program, argStr, hasArgs := strings.Cut(s, ":")
		var args []string
		if hasArgs && argStr != "" {
			args = strings.Fields(argStr)
		}
		return ShellType{Kind: KindCustom, Program: program, Args: args}
	}
}

// String renders the shim-arg form, the inverse of ParseShellType.
func (s ShellType) String() string {
	switch s.Kind {
	case KindWindows:
		return "windows"
	case KindPwsh:
		return "pwsh"
	case KindCmd:
		return "cmd"
	case KindWsl:
		if s.Distribution == "" {
			return "wsl"
		}
		return "wsl:" + s.Distribution
	case KindCustom:
		if len(s.Args) == 0 {
			return s.Program
		}
		return fmt.Sprintf("%s:%s", s.Program, strings.Join(s.Args, " "))
	default:
		return "custom"
	}
}

// MarshalJSON renders the tagged-variant JSON form used in CreateSession
// requests and shim descriptors: {"kind":"wsl","distribution":"Ubuntu"}.
func (s ShellType) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind         string   `json:"kind"`
		Distribution string   `json:"distribution,omitempty"`
		Program      string   `json:"program,omitempty"`
		Args         []string `json:"args,omitempty"`
	}
	w := wire{Args: s.Args}
	switch s.Kind {
	case KindWindows:
		w.Kind = "windows"
	case KindPwsh:
		w.Kind = "pwsh"
	case KindCmd:
		w.Kind = "cmd"
	case KindWsl:
		w.Kind = "wsl"
		w.Distribution = s.Distribution
	case KindCustom:
		w.Kind = "custom"
		w.Program = s.Program
	}
	return json.Marshal(w)
}

func (s *ShellType) UnmarshalJSON(data []byte) error {
	type wire struct {
		Kind         string   `json:"kind"`
		Distribution string   `json:"distribution"`
		Program      string   `json:"program"`
		Args         []string `json:"args"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "windows":
		*s = ShellType{Kind: KindWindows}
	case "pwsh":
		*s = ShellType{Kind: KindPwsh}
	case "cmd":
		*s = ShellType{Kind: KindCmd}
	case "wsl":
		*s = ShellType{Kind: KindWsl, Distribution: w.Distribution}
	case "custom":
		*s = ShellType{Kind: KindCustom, Program: w.Program, Args: w.Args}
	default:
		return fmt.Errorf("unknown shell type kind %q", w.Kind)
	}
	return nil
}

// WslCwd translates a Windows path to its WSL mount-point form, e.g.
// `C:\Users\x` -> `/mnt/c/Users/x`.
func WslCwd(windowsPath string) string {
	if len(windowsPath) < 2 || windowsPath[1] != ':' {
		return windowsPath
	}
	drive := strings.ToLower(windowsPath[:1])
	rest := strings.ReplaceAll(windowsPath[2:], `\`, "/")
	return "/mnt/" + drive + rest
}
