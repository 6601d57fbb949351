// Package flagx contains helpers for components that parse their own subset
// of the command line: argument filtering, short/long flag aliases and the
// shared -c/-config lookup.
package flagx

import (
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
)

// Alias names one flag by its short and long spelling, e.g. {"u", "users"}.
// Either part may be empty.
type Alias struct {
	Short string
	Long  string
}

// Forms returns every spelling the standard flag package accepts for the
// given aliases: "-u", "--u", "-users", "--users".
func Forms(aliases ...Alias) []string {
	forms := make([]string, 0, len(aliases)*4)
	for _, a := range aliases {
		for _, name := range []string{a.Short, a.Long} {
			if name == "" {
				continue
			}
			forms = append(forms, "-"+name, "--"+name)
		}
	}
	return forms
}

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// A separate value is consumed when it does not look like a flag; negative
// numbers ("-1") are treated as values.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	// never nil, so callers can pass it straight to FlagSet.Parse
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && isValue(args[i+1]) {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

func isValue(arg string) bool {
	if !strings.HasPrefix(arg, "-") {
		return true
	}
	_, err := strconv.ParseFloat(arg, 64)
	return err == nil
}

// JsonConfigFlags inspects os.Args and extracts the config file path provided
// via -c or -config (single or double dash). Other arguments are ignored.
//
// If neither flag is present, an empty string is returned.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], Forms(Alias{Short: "c", Long: "config"}))

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
