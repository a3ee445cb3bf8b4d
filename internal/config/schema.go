package config

import "strings"

// schemaEntry documents one configuration key. schemaTable is the text
// SchemaHelp renders; Load does not read it, and its checks are written
// out separately in config.go.
type schemaEntry struct {
	Section string
	Key     string
	Doc     string
}

var schemaTable = []schemaEntry{
	{"", "xmltv", "file path or http(s) URL to the XMLTV program listing"},
	{"", "output", "required; udp://HOST:PORT or file://PATH"},
	{"", "onid", "u16, default 1"},
	{"", "codepage", "byte, default 0; one of 0-11, 13-15, 21"},
	{"", "eit-days", "1..=7, default 3"},
	{"", "eit-rate", "kbit/s, 15..=20000; optional"},
	{"multiplex", "tsid", "u16, 1..=65535, required"},
	{"multiplex", "codepage", "overrides the top-level codepage"},
	{"multiplex", "xmltv", "overrides the top-level xmltv source"},
	{"service", "pnr", "u16, 1..=65535, required"},
	{"service", "xmltv-id", "required; missing value logs a warning and skips the service"},
	{"service", "codepage", "overrides the owning multiplex's codepage"},
	{"service", "xmltv", "overrides the owning multiplex's xmltv source"},
	{"tdt-tot", "country", "3-letter ISO 3166-1 alpha-3 country code"},
	{"tdt-tot", "offset", "+MMM / -MMM / 0, minutes"},
}

// SchemaHelp renders the configuration schema documentation printed
// by the -H flag, per spec.md §6.
func SchemaHelp() string {
	var b strings.Builder
	section := "\x00" // sentinel unequal to any real section name
	for _, e := range schemaTable {
		if e.Section != section {
			section = e.Section
			if section == "" {
				b.WriteString("[top-level]\n")
			} else {
				b.WriteString("\n[" + section + "]\n")
			}
		}
		b.WriteString("  " + e.Key + ": " + e.Doc + "\n")
	}
	return b.String()
}
