package config

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
)

// FlagType represents the type of a flag value
type FlagType int

const (
	BoolType FlagType = iota
	StringType
	IntType
)

// FlagDef holds metadata for a single flag (short + long names, type, default, description)
type FlagDef struct {
	Short       string
	Long        string
	Type        FlagType
	Default     interface{}
	Description string
}

// FlagGroup is a named category containing related flags
type FlagGroup struct {
	Name  string
	Flags []FlagDef
}

// HelpFormatter holds the tool info and ordered flag groups for custom help rendering
type HelpFormatter struct {
	ToolName    string
	Description string
	Groups      []*FlagGroup
}

// addBoolFlag registers a bool flag with both short and long names and appends it to the group
func addBoolFlag(group *FlagGroup, p *bool, short, long string, value bool, usage string) {
	if short != "" {
		flag.BoolVar(p, short, value, usage)
	}
	if long != "" {
		flag.BoolVar(p, long, value, usage)
	}
	group.Flags = append(group.Flags, FlagDef{
		Short:       short,
		Long:        long,
		Type:        BoolType,
		Default:     value,
		Description: usage,
	})
}

// addStringFlag registers a string flag with both short and long names and appends it to the group
func addStringFlag(group *FlagGroup, p *string, short, long string, value string, usage string) {
	if short != "" {
		flag.StringVar(p, short, value, usage)
	}
	if long != "" {
		flag.StringVar(p, long, value, usage)
	}
	group.Flags = append(group.Flags, FlagDef{
		Short:       short,
		Long:        long,
		Type:        StringType,
		Default:     value,
		Description: usage,
	})
}

// addIntFlag registers an int flag with both short and long names and appends it to the group
func addIntFlag(group *FlagGroup, p *int, short, long string, value int, usage string) {
	if short != "" {
		flag.IntVar(p, short, value, usage)
	}
	if long != "" {
		flag.IntVar(p, long, value, usage)
	}
	group.Flags = append(group.Flags, FlagDef{
		Short:       short,
		Long:        long,
		Type:        IntType,
		Default:     value,
		Description: usage,
	})
}

// RegisterFlags creates all flag groups, registers every flag with the standard flag package,
// and returns a populated HelpFormatter.
func RegisterFlags(cfg *Config) *HelpFormatter {
	formatter := &HelpFormatter{
		ToolName:    "httpobs",
		Description: "HTTP response header security scanner",
	}

	// SCAN
	scan := &FlagGroup{Name: "SCAN"}
	addIntFlag(scan, &cfg.Timeout, "t", "timeout", cfg.Timeout, "Whole-scan timeout in seconds")
	addIntFlag(scan, &cfg.RequestTimeout, "rt", "request-timeout", cfg.RequestTimeout, "Per-probe timeout in seconds")
	addIntFlag(scan, &cfg.MaxRedirects, "maxr", "max-redirects", cfg.MaxRedirects, "Max redirects to follow")
	addIntFlag(scan, &cfg.MaxBodySize, "", "max-body-size", cfg.MaxBodySize, "Max response body bytes to read")
	addIntFlag(scan, &cfg.RateLimit, "rl", "rate-limit", cfg.RateLimit, "Probes per second per host")
	addBoolFlag(scan, &cfg.InsecureSkipVerify, "k", "insecure", false, "Skip TLS certificate verification")
	addBoolFlag(scan, &cfg.AllowPrivateTargets, "", "allow-private", false, "Allow scanning hosts that resolve to private addresses")
	addStringFlag(scan, &cfg.UserAgent, "ua", "user-agent", "", "Custom User-Agent header")
	addBoolFlag(scan, &cfg.TechDetect, "td", "tech-detect", false, "Enable technology detection using wappalyzer")
	formatter.Groups = append(formatter.Groups, scan)

	// OUTPUT
	output := &FlagGroup{Name: "OUTPUT"}
	addStringFlag(output, &cfg.OutputFile, "o", "output", "", "Output file (default: stdout)")
	addBoolFlag(output, &cfg.Pretty, "", "pretty", false, "Human-readable output (default on a terminal)")
	formatter.Groups = append(formatter.Groups, output)

	// DEBUG
	debug := &FlagGroup{Name: "DEBUG"}
	addBoolFlag(debug, &cfg.Debug, "d", "debug", false, "Debug mode (verbose logging to stderr)")
	addBoolFlag(debug, &cfg.Silent, "", "silent", false, "Silent mode (errors only to stderr)")
	formatter.Groups = append(formatter.Groups, debug)

	// MISCELLANEOUS
	misc := &FlagGroup{Name: "MISCELLANEOUS"}
	addBoolFlag(misc, &cfg.Version, "v", "version", false, "Show version information")
	formatter.Groups = append(formatter.Groups, misc)

	return formatter
}

// PrintUsage writes the grouped help output to w
func (h *HelpFormatter) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n\n", h.ToolName, h.Description)
	fmt.Fprintf(w, "Usage:\n  %s [flags] <host>\n\nFlags:\n", h.ToolName)

	for _, group := range h.Groups {
		fmt.Fprintf(w, "\n%s:\n", group.Name)

		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, f := range group.Flags {
			name := formatFlagName(f)
			typeSuffix := formatFlagType(f)
			defaultStr := formatFlagDefault(f)

			desc := f.Description
			if defaultStr != "" {
				desc += " " + defaultStr
			}

			fmt.Fprintf(tw, "   %s%s\t%s\n", name, typeSuffix, desc)
		}
		tw.Flush()
	}
}

// formatFlagName builds the "-short, -long" or just "-long" name string
func formatFlagName(f FlagDef) string {
	if f.Short != "" && f.Long != "" {
		return fmt.Sprintf("-%s, -%s", f.Short, f.Long)
	}
	if f.Short != "" {
		return fmt.Sprintf("-%s", f.Short)
	}
	return fmt.Sprintf("-%s", f.Long)
}

// formatFlagType returns the type suffix for non-bool flags
func formatFlagType(f FlagDef) string {
	switch f.Type {
	case StringType:
		return " string"
	case IntType:
		return " int"
	default:
		return ""
	}
}

// formatFlagDefault returns a parenthesized default value string for non-zero defaults
func formatFlagDefault(f FlagDef) string {
	switch f.Type {
	case BoolType:
		if v, ok := f.Default.(bool); ok && v {
			return "(default true)"
		}
	case IntType:
		if v, ok := f.Default.(int); ok && v != 0 {
			return fmt.Sprintf("(default %d)", v)
		}
	case StringType:
		if v, ok := f.Default.(string); ok && v != "" {
			return fmt.Sprintf("(default %q)", v)
		}
	}
	return ""
}
