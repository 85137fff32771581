// Package flagx picks individual flags out of the command line without
// owning it, so the JSON file, .env file and flag layers of the server
// configuration can each read only what they need.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Supported forms:
//
//	-c conf.json
//	-config=conf.json
//
// A value is only taken from the next argument when it does not itself
// start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// lookupString returns the value of a string flag registered under every
// name in names. The last occurrence wins; "" when absent.
func lookupString(args []string, usage string, names ...string) string {
	allowed := make([]string, 0, len(names))
	for _, n := range names {
		allowed = append(allowed, "-"+n)
	}

	var v string
	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&v, n, "", usage)
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return v
}

// JSONConfigPath extracts the config file path given by -c or -config.
func JSONConfigPath(args []string) string {
	return lookupString(args, "Path to JSON config file", "config", "c")
}

// EnvFilePath extracts the dotenv file path given by -env-file.
func EnvFilePath(args []string) string {
	return lookupString(args, "Path to .env file", "env-file")
}
