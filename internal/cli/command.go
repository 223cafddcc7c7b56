package cli

// PrintFlag switches the Claude CLI into non-interactive print mode: it reads
// the prompt from stdin, writes the answer to stdout and exits.
const PrintFlag = "--print"

// BuildArgs returns the CLI argument list: the print-mode flag followed by any
// operator-supplied extra arguments. A duplicate print flag in extra is dropped.
func BuildArgs(extra []string) []string {
	args := make([]string, 0, 1+len(extra))
	args = append(args, PrintFlag)

	for _, arg := range extra {
		if arg == "" || arg == PrintFlag || arg == "-p" {
			continue
		}

		args = append(args, arg)
	}

	return args
}
