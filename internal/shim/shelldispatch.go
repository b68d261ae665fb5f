package shim

import (
	"os/exec"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
	"github.com/google/shlex"
)

// resolveCommand turns a ShellType into an executable name and argument
// list, per the shim shell-type mapping table (§4.3).
func resolveCommand(st model.ShellType, cwd string) (program string, args []string, translatedCwd string, err error) {
	translatedCwd = cwd
	switch st.Kind {
	case model.KindWindows:
		return "powershell.exe", []string{"-NoLogo"}, cwd, nil
	case model.KindPwsh:
		return "pwsh.exe", []string{"-NoLogo"}, cwd, nil
	case model.KindCmd:
		return "cmd.exe", nil, cwd, nil
	case model.KindWsl:
		args := []string{}
		if st.Distribution != "" {
			args = append(args, "-d", st.Distribution)
		}
		if cwd != "" {
			translatedCwd = model.WslCwd(cwd)
		}
		return "wsl.exe", args, translatedCwd, nil
	case model.KindCustom:
		if len(st.Args) > 0 {
			return st.Program, st.Args, cwd, nil
		}
		// A custom "<prog>:<args>" form arrives pre-split via
		// model.ParseShellType; a caller handing us a raw combined
		// string instead falls back to shlex so quoting is honored.
		fields, err := shlex.Split(st.Program)
		if err != nil || len(fields) == 0 {
			return st.Program, nil, cwd, nil
		}
		return fields[0], fields[1:], cwd, nil
	default:
		return "", nil, cwd, nil
	}
}

// lookPath resolves program against PATH, returning the original
// string unchanged if it can't be found so exec.Command still
// produces the OS's own "file not found" error.
func lookPath(program string) string {
	if p, err := exec.LookPath(program); err == nil {
		return p
	}
	return program
}
