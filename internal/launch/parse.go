package launch

// Unset is the value of every argument the command line does not bind.
const Unset = "NONE"

// Args are the cluster-provided values.
type Args struct {
	DataDir   string
	LogDir    string
	ConfigDir string
}

// DefaultArgs returns arguments with every value unset.
func DefaultArgs() Args {
	return Args{DataDir: Unset, LogDir: Unset, ConfigDir: Unset}
}

// Result is the outcome of one scan over the command line.
type Result struct {
	Args Args
	// Unknown lists unrecognized tokens in scan order.
	Unknown []string
	// Help is true if the scan stopped at a help flag.
	Help bool
}

type flagSpec struct {
	names []string
	// consumes is the number of tokens the cursor advances past,
	// including the flag itself.
	consumes int
	help     bool
	bind     func(a *Args, v string)
}

// flagTable returns the recognized flags.
// With fixLogDirShift false, "--log-dir" binds the following token
// but advances only past itself, so that token is scanned again as a key.
func flagTable(fixLogDirShift bool) []flagSpec {
	logDirConsumes := 1
	if fixLogDirShift {
		logDirConsumes = 2
	}
	return []flagSpec{
		{
			names:    []string{"-d", "--data-dir"},
			consumes: 2,
			bind:     func(a *Args, v string) { a.DataDir = v },
		},
		{
			names:    []string{"-p", "--config-file-dir"},
			consumes: 2,
			bind:     func(a *Args, v string) { a.ConfigDir = v },
		},
		{
			names:    []string{"-l", "--log-dir"},
			consumes: logDirConsumes,
			bind:     func(a *Args, v string) { a.LogDir = v },
		},
		{
			names:    []string{"-h", "--help"},
			consumes: 1,
			help:     true,
		},
	}
}

func lookup(table []flagSpec, tok string) (flagSpec, bool) {
	for _, f := range table {
		for _, n := range f.names {
			if n == tok {
				return f, true
			}
		}
	}
	return flagSpec{}, false
}

// Parse walks tokens left to right with an index cursor.
// A valued flag binds the token after it, or the empty string at the end of input.
// Unknown tokens are collected and the walk continues with the next token.
// The walk stops at a help flag.
func Parse(tokens []string, fixLogDirShift bool) Result {
	table := flagTable(fixLogDirShift)
	r := Result{Args: DefaultArgs()}
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		f, ok := lookup(table, tok)
		if !ok {
			r.Unknown = append(r.Unknown, tok)
			i++
			continue
		}
		if f.help {
			r.Help = true
			return r
		}
		v := ""
		if i+1 < len(tokens) {
			v = tokens[i+1]
		}
		f.bind(&r.Args, v)
		i += f.consumes
	}
	return r
}
