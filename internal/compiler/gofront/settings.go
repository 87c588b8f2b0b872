package gofront

import (
	"fmt"
	"os"
	"strings"
)

// settings is the per-invocation compiler configuration. It is parsed fresh
// from the argument list on every compile call so no state can leak between
// runs, sequential or concurrent.
type settings struct {
	classpath  []string
	outputDir  string
	verbose    bool
	sourcePath string
}

// parseArgs interprets a compiler argument list. The final positional
// argument is the source path; everything before it must be a recognized
// option.
func parseArgs(args []string) (settings, error) {
	var s settings

	i := 0
	for i < len(args) {
		arg := args[i]
		switch {
		case arg == "-cp" || arg == "-classpath":
			if i+1 >= len(args) {
				return settings{}, fmt.Errorf("option %s requires a value", arg)
			}
			s.classpath = splitList(args[i+1])
			i += 2
		case arg == "-d":
			if i+1 >= len(args) {
				return settings{}, fmt.Errorf("option -d requires a value")
			}
			s.outputDir = args[i+1]
			i += 2
		case arg == "-verbose":
			s.verbose = true
			i++
		case strings.HasPrefix(arg, "-"):
			return settings{}, fmt.Errorf("unknown compiler option %q", arg)
		default:
			if i != len(args)-1 {
				return settings{}, fmt.Errorf("unexpected argument %q before source path", arg)
			}
			s.sourcePath = arg
			i++
		}
	}

	if s.sourcePath == "" {
		return settings{}, fmt.Errorf("missing source path argument")
	}

	return s, nil
}

func splitList(list string) []string {
	parts := strings.Split(list, string(os.PathListSeparator))
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			entries = append(entries, part)
		}
	}
	return entries
}
