package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eit-stream.conf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMinimal(t *testing.T) {
	path := writeConfig(t, `
xmltv = http://example.invalid/epg.xml
output = file://out.ts
eit-days = 1

[multiplex]
tsid = 1

[service]
pnr = 100
xmltv-id = ch1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(1), cfg.ONID) // default
	assert.Equal(t, 1, cfg.EitDays)
	require.Len(t, cfg.Multiplex, 1)
	assert.Equal(t, uint16(1), cfg.Multiplex[0].TSID)
	require.Len(t, cfg.Multiplex[0].Services, 1)
	assert.Equal(t, uint16(100), cfg.Multiplex[0].Services[0].PNR)
	assert.Equal(t, "ch1", cfg.Multiplex[0].Services[0].XMLTVID)
}

func TestLoadMissingOutputIsFatal(t *testing.T) {
	path := writeConfig(t, `
xmltv = http://example.invalid/epg.xml

[multiplex]
tsid = 1
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadServiceMissingXmltvIDIsSkippedNotFatal(t *testing.T) {
	path := writeConfig(t, `
output = file://out.ts

[multiplex]
tsid = 1

[service]
pnr = 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Multiplex[0].Services)
}

func TestLoadMultipleMultiplexesAssociateServicesCorrectly(t *testing.T) {
	path := writeConfig(t, `
output = file://out.ts

[multiplex]
tsid = 1

[service]
pnr = 100
xmltv-id = ch1

[multiplex]
tsid = 2

[service]
pnr = 200
xmltv-id = ch2

[service]
pnr = 201
xmltv-id = ch3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Multiplex, 2)
	assert.Len(t, cfg.Multiplex[0].Services, 1)
	assert.Len(t, cfg.Multiplex[1].Services, 2)
	assert.Equal(t, "ch2", cfg.Multiplex[1].Services[0].XMLTVID)
}

func TestLoadTdtTotOffset(t *testing.T) {
	path := writeConfig(t, `
output = file://out.ts

[multiplex]
tsid = 1

[tdt-tot]
country = DEU
offset = +60
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.TdtTot.Enabled)
	assert.Equal(t, "DEU", cfg.TdtTot.Country)
	assert.Equal(t, 60, cfg.TdtTot.OffsetMinutes)
}

func TestLoadEitDaysOutOfRange(t *testing.T) {
	path := writeConfig(t, `
output = file://out.ts
eit-days = 9

[multiplex]
tsid = 1
`)

	_, err := Load(path)
	assert.Error(t, err)
}
