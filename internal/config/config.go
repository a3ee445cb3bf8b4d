// Package config parses the INI-style configuration file described in
// spec.md §6. Grounded on original_source/src/config.rs's streaming
// multiplex/service association (a [service] section always belongs
// to the most recently seen [multiplex] section) and realized with
// gopkg.in/ini.v1, the teacher pack's INI library of choice.
package config

import (
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/cesbo/eit-stream/internal/eitstreamerr"
)

// ServiceConfig is one [service] entry, associated with the
// multiplex it appeared under.
type ServiceConfig struct {
	PNR      uint16
	XMLTVID  string
	Codepage byte
	XMLTV    string // override of the owning multiplex's xmltv source, if set.
}

// MultiplexConfig is one [multiplex] entry and the service entries
// nested under it in the file.
type MultiplexConfig struct {
	TSID     uint16
	Codepage byte
	XMLTV    string // override of the top-level xmltv source, if set.
	Services []ServiceConfig
}

// TdtTotConfig is the optional [tdt-tot] section.
type TdtTotConfig struct {
	Enabled bool
	Country string
	// OffsetMinutes is signed; spec.md §4.5 allows +0..+720, -0..-780.
	OffsetMinutes int
}

// Config is the fully parsed, schema-checked configuration.
type Config struct {
	XMLTV      string
	Output     string
	ONID       uint16
	Codepage   byte
	EitDays    int
	EitRateBps int // 0 means "unset": engine falls back to the default formula.
	Multiplex  []MultiplexConfig
	TdtTot     TdtTotConfig
}

const (
	defaultONID    = 1
	defaultEitDays = 3
	minEitDays     = 1
	maxEitDays     = 7
	minEitRateKbps = 15
	maxEitRateKbps = 20000
)

// Load reads and validates path, applying the defaults and warnings
// spec.md §6 names.
func Load(path string) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowNonUniqueSections: true}, path)
	if err != nil {
		return nil, eitstreamerr.Wrap(eitstreamerr.KindConfig, "reading config file", err)
	}

	cfg := &Config{
		ONID:    defaultONID,
		EitDays: defaultEitDays,
	}

	top := f.Section(ini.DefaultSection)
	cfg.XMLTV = top.Key("xmltv").String()
	cfg.Output = top.Key("output").String()
	if cfg.Output == "" {
		return nil, eitstreamerr.New(eitstreamerr.KindMissingOutput, "output is required")
	}

	if v := top.Key("onid").String(); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, eitstreamerr.Wrap(eitstreamerr.KindParseInt, "parsing onid", err)
		}
		cfg.ONID = uint16(n)
	}
	if v := top.Key("codepage").String(); v != "" {
		cp, err := parseCodepage(v)
		if err != nil {
			return nil, err
		}
		cfg.Codepage = cp
	}
	if v := top.Key("eit-days").String(); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, eitstreamerr.Wrap(eitstreamerr.KindParseInt, "parsing eit-days", err)
		}
		if n < minEitDays || n > maxEitDays {
			return nil, eitstreamerr.New(eitstreamerr.KindConfig, "eit-days out of range 1..=7")
		}
		cfg.EitDays = n
	}
	if v := top.Key("eit-rate").String(); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, eitstreamerr.Wrap(eitstreamerr.KindParseInt, "parsing eit-rate", err)
		}
		if n < minEitRateKbps || n > maxEitRateKbps {
			return nil, eitstreamerr.New(eitstreamerr.KindConfig, "eit-rate out of range 15..=20000")
		}
		cfg.EitRateBps = n * 1000
	}

	var current *MultiplexConfig
	for _, sec := range f.Sections() {
		switch sec.Name() {
		case "multiplex":
			mux := MultiplexConfig{TSID: 0, Codepage: cfg.Codepage}
			tsidStr := sec.Key("tsid").String()
			if tsidStr == "" {
				return nil, eitstreamerr.New(eitstreamerr.KindConfig, "multiplex missing required tsid")
			}
			n, err := strconv.ParseUint(tsidStr, 10, 16)
			if err != nil {
				return nil, eitstreamerr.Wrap(eitstreamerr.KindParseInt, "parsing tsid", err)
			}
			if n == 0 {
				return nil, eitstreamerr.New(eitstreamerr.KindConfig, "tsid out of range 1..=65535")
			}
			mux.TSID = uint16(n)
			if v := sec.Key("codepage").String(); v != "" {
				cp, err := parseCodepage(v)
				if err != nil {
					return nil, err
				}
				mux.Codepage = cp
			}
			mux.XMLTV = sec.Key("xmltv").String()

			cfg.Multiplex = append(cfg.Multiplex, mux)
			current = &cfg.Multiplex[len(cfg.Multiplex)-1]

		case "service":
			if current == nil {
				return nil, eitstreamerr.New(eitstreamerr.KindConfig, "service section with no preceding multiplex")
			}
			xmltvID := sec.Key("xmltv-id").String()
			if xmltvID == "" {
				logWarning("service missing xmltv-id, skipping")
				continue
			}
			svc := ServiceConfig{
				XMLTVID:  xmltvID,
				Codepage: current.Codepage,
				XMLTV:    sec.Key("xmltv").String(),
			}
			pnrStr := sec.Key("pnr").String()
			if pnrStr == "" {
				return nil, eitstreamerr.New(eitstreamerr.KindConfig, "service missing required pnr")
			}
			n, err := strconv.ParseUint(pnrStr, 10, 16)
			if err != nil {
				return nil, eitstreamerr.Wrap(eitstreamerr.KindParseInt, "parsing pnr", err)
			}
			if n == 0 {
				return nil, eitstreamerr.New(eitstreamerr.KindConfig, "pnr out of range 1..=65535")
			}
			svc.PNR = uint16(n)
			if v := sec.Key("codepage").String(); v != "" {
				cp, err := parseCodepage(v)
				if err != nil {
					return nil, err
				}
				svc.Codepage = cp
			}
			current.Services = append(current.Services, svc)

		case "tdt-tot":
			cfg.TdtTot.Enabled = true
			cfg.TdtTot.Country = sec.Key("country").String()
			if v := sec.Key("offset").String(); v != "" {
				minutes, err := parseOffset(v)
				if err != nil {
					return nil, err
				}
				cfg.TdtTot.OffsetMinutes = minutes
			}
		}
	}

	return cfg, nil
}

func parseCodepage(v string) (byte, error) {
	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return 0, eitstreamerr.Wrap(eitstreamerr.KindParseInt, "parsing codepage", err)
	}
	if n == 12 || n > 21 || (n > 15 && n < 21) {
		return 0, eitstreamerr.New(eitstreamerr.KindConfig, "codepage out of allowed set")
	}
	return byte(n), nil
}

// parseOffset parses "+MMM" / "-MMM" / "0" into signed minutes, per
// spec.md §8's boundary examples ("-30" -> polarity=1, offset 0030;
// "+120" -> polarity=0, 0200).
func parseOffset(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "0" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eitstreamerr.Wrap(eitstreamerr.KindParseInt, "parsing tdt-tot offset", err)
	}
	return n, nil
}

// logWarning is a seam for the application-layer zap logger; tests
// and command-line wiring override it via SetWarningFunc.
var logWarning = func(msg string) {}

// SetWarningFunc installs fn as the destination for config's
// non-fatal warnings (missing xmltv-id, etc.), per spec.md §7.
func SetWarningFunc(fn func(string)) { logWarning = fn }
