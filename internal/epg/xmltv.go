package epg

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// xmltvDocument, xmltvChannel and xmltvProgramme mirror the subset of
// the xmltv.org DTD this loader needs. Field shape is grounded on
// adamflott/vdr-epg-tool's Channel/Programme structs.
type xmltvDocument struct {
	XMLName    xml.Name          `xml:"tv"`
	Channels   []xmltvChannel    `xml:"channel"`
	Programmes []xmltvProgramme  `xml:"programme"`
}

type xmltvChannel struct {
	ID string `xml:"id,attr"`
}

type xmltvProgramme struct {
	Start       string `xml:"start,attr"`
	Stop        string `xml:"stop,attr"`
	Channel     string `xml:"channel,attr"`
	Title       xmltvTitle `xml:"title"`
	Description string     `xml:"desc"`
	Category    string     `xml:"category"`
}

// xmltvTitle is a programme's <title> element; its lang attribute
// supplies the event's language.
type xmltvTitle struct {
	Text string `xml:",chardata"`
	Lang string `xml:"lang,attr"`
}

// xmltvTimeLayout is the format xmltv.org uses for start/stop
// timestamps: "20060102150405 -0700".
const xmltvTimeLayout = "20060102150405 -0700"

// XMLTVLoader parses xmltv.org program listings, from either a local
// file path or an http(s) URL, per spec.md §6 ("xmltv (file path or
// http(s) URL)").
type XMLTVLoader struct {
	// HTTPClient is used for http(s):// sources; defaults to
	// http.DefaultClient when nil.
	HTTPClient *http.Client
}

func (l *XMLTVLoader) Load(path string) (*Store, error) {
	r, closeFn, err := l.open(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return parseXMLTV(r)
}

func (l *XMLTVLoader) open(path string) (io.Reader, func() error, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		client := l.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Get(path)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching xmltv %q: %w", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, nil, fmt.Errorf("fetching xmltv %q: status %s", path, resp.Status)
		}
		return bufio.NewReader(resp.Body), resp.Body.Close, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening xmltv %q: %w", path, err)
	}
	return bufio.NewReader(f), f.Close, nil
}

// parseXMLTV decodes the xmltv document and buckets events by channel
// id, sorted by start time the way spec.md §3 requires ("events for
// one channel are sorted by start").
func parseXMLTV(r io.Reader) (*Store, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var doc xmltvDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding xmltv: %w", err)
	}

	byChannel := make(map[string][]Event)
	for _, p := range doc.Programmes {
		start, err := time.Parse(xmltvTimeLayout, p.Start)
		if err != nil {
			continue
		}
		stop, err := time.Parse(xmltvTimeLayout, p.Stop)
		if err != nil {
			continue
		}
		if stop.Unix() <= start.Unix() {
			continue
		}

		byChannel[p.Channel] = append(byChannel[p.Channel], Event{
			Start:       start.Unix(),
			Stop:        stop.Unix(),
			Title:       p.Title.Text,
			Description: p.Description,
			Category:    p.Category,
			Language:    p.Title.Lang,
		})
	}

	store := NewStore()
	for id, events := range byChannel {
		slices.SortFunc(events, func(a, b Event) bool { return a.Start < b.Start })
		store.Add(id, events)
	}
	return store, nil
}

// charsetReader handles non-UTF-8 XMLTV feeds, most commonly
// ISO-8859-1. Ported from adamflott/vdr-epg-tool's CharsetReader,
// which notes the underlying trick comes from a 2011 Stack Overflow
// answer on decoding ISO-8859-1 XML with encoding/xml.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	if isISO88591(charset) {
		return newISO88591Reader(input), nil
	}
	return input, nil
}

func isISO88591(charset string) bool {
	switch strings.ToLower(charset) {
	case "iso_8859-1:1987", "iso-8859-1", "iso-ir-100", "iso_8859-1",
		"latin1", "l1", "ibm819", "cp819", "csisolatin1":
		return true
	default:
		return false
	}
}

type iso88591Reader struct {
	r   io.ByteReader
	buf bytes.Buffer
}

func newISO88591Reader(r io.Reader) *iso88591Reader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &iso88591Reader{r: br}
}

func (cs *iso88591Reader) Read(p []byte) (int, error) {
	for range p {
		b, err := cs.r.ReadByte()
		if err != nil {
			break
		}
		cs.buf.WriteRune(rune(b))
	}
	if cs.buf.Len() == 0 {
		return 0, io.EOF
	}
	return cs.buf.Read(p)
}
