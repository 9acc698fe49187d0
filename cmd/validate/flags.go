package main

import (
	"strings"

	"github.com/dgallion1/contentcheck/internal/config"
	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/urfave/cli/v2"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Usage: "source format: markdown or html (default markdown, env VALIDATE_FORMAT)"},
		&cli.BoolFlag{Name: "strict", Usage: "fail on warnings as well as errors"},
		&cli.StringFlag{Name: "ordering", Usage: "ordering file mapping categories to entries (YAML)"},
		&cli.StringSliceFlag{Name: "include", Usage: "glob of root-relative paths to scan (repeatable)"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "glob of root-relative paths to skip (repeatable)"},
		&cli.StringSliceFlag{Name: "ignore-link", Usage: "glob of link targets not to resolve (repeatable)"},
		&cli.StringFlag{Name: "base", Usage: "base path the site is served under, stripped from absolute links"},
		&cli.StringSliceFlag{Name: "require", Usage: "required frontmatter key (repeatable, replaces the defaults)"},
		&cli.StringSliceFlag{Name: "rule", Usage: "run only this rule (repeatable)"},
		&cli.StringSliceFlag{Name: "skip-rule", Usage: "skip this rule (repeatable)"},
		&cli.StringFlag{Name: "report", Usage: "report format: text, jsonl or yaml"},
		&cli.IntFlag{Name: "workers", Usage: "documents extracted in parallel"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		&cli.BoolFlag{Name: "verbose", Usage: "log debug detail"},
	}
}

func serveFlags() []cli.Flag {
	return append(runFlags(),
		&cli.StringFlag{Name: "port", Usage: "listen port (env PORT)"},
	)
}

// valueFlags names the flags that consume the following argument.
var valueFlags = map[string]bool{
	"format": true, "ordering": true, "include": true, "exclude": true,
	"ignore-link": true, "base": true, "require": true, "rule": true,
	"skip-rule": true, "report": true, "workers": true, "port": true,
}

// hoistFlags moves flags that follow positional arguments in front of them.
// Flag parsing stops at the first positional argument, and roots usually
// come first: validate content --strict.
func hoistFlags(args []string) []string {
	var flags, positional []string
	dashdash := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			dashdash = true
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) > 1 && strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			name := strings.TrimLeft(a, "-")
			if !strings.Contains(name, "=") && valueFlags[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}
		positional = append(positional, a)
	}
	if dashdash {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

// hoistArgs applies hoistFlags to the argument list of the invoked command.
// Flags given before "serve" are moved after it, since serve defines every
// run flag too.
func hoistArgs(args []string) []string {
	if len(args) < 2 {
		return args
	}
	rest := args[1:]
	if i := firstPositional(rest); i >= 0 && rest[i] == "serve" {
		sub := append(append([]string{}, rest[:i]...), rest[i+1:]...)
		return append([]string{args[0], "serve"}, hoistFlags(sub)...)
	}
	return append([]string{args[0]}, hoistFlags(rest)...)
}

// firstPositional returns the index of the first non-flag argument, or -1.
func firstPositional(args []string) int {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return -1
		}
		if len(a) > 1 && strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[strings.TrimLeft(a, "-")] {
				i++
			}
			continue
		}
		return i
	}
	return -1
}

// loadConfig layers set flags over the environment configuration.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Load()
	cfg.Roots = c.Args().Slice()

	if c.IsSet("format") {
		f, err := doctree.ParseFormat(c.String("format"))
		if err != nil {
			return cfg, err
		}
		cfg.Format = f
	}
	if c.IsSet("strict") {
		cfg.Strict = c.Bool("strict")
	}
	if c.IsSet("ordering") {
		cfg.OrderingFile = c.String("ordering")
	}
	if c.IsSet("include") {
		cfg.Include = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		cfg.Exclude = c.StringSlice("exclude")
	}
	if c.IsSet("ignore-link") {
		cfg.IgnoreLinks = c.StringSlice("ignore-link")
	}
	if c.IsSet("base") {
		cfg.BasePath = c.String("base")
	}
	if c.IsSet("require") {
		cfg.RequiredFrontmatter = c.StringSlice("require")
	}
	if c.IsSet("rule") {
		cfg.Rules = c.StringSlice("rule")
	}
	if c.IsSet("skip-rule") {
		cfg.SkipRules = c.StringSlice("skip-rule")
	}
	if c.IsSet("report") {
		cfg.ReportFormat = strings.ToLower(c.String("report"))
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}

	return cfg, cfg.Validate()
}
