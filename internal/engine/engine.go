// Package engine implements the scheduler/pacer loop: the component
// that ties the service state machine, the PSI demuxer, and the
// output sink together into the steady-state emission cycle described
// in spec.md §4.3. Grounded on original_source/src/main.rs's run loop
// and the teacher's muxer.go pattern of pre-generating fixed tables
// once (generatePAT/generatePMT) before the steady loop begins.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cesbo/eit-stream/internal/clock"
	"github.com/cesbo/eit-stream/internal/config"
	"github.com/cesbo/eit-stream/internal/epg"
	"github.com/cesbo/eit-stream/internal/psi"
	"github.com/cesbo/eit-stream/internal/service"
	"github.com/cesbo/eit-stream/internal/sink"
)

const (
	defaultServiceRateKbps = 30
	minTotalRateKbps       = 15
)

// tdtTotState is the optional TDT/TOT emitter's own continuity
// counter and configuration, kept separate from the EIT continuity
// counter since TDT/TOT share PID 0x14, distinct from EIT's PID 0x12
// (spec.md §4.5).
type tdtTotState struct {
	cc            uint8
	country       [3]byte
	offsetMinutes int
}

// Engine owns everything the scheduler/pacer loop touches: the EPG
// store, the ordered service list, the shared EIT continuity counter,
// the optional TDT/TOT state, the output sink, and pacing parameters.
// It is the single point of global state named in spec.md §9.
type Engine struct {
	store    *epg.Store
	services []*service.Service
	clock    clock.Clock
	sink     sink.Sink

	cc             uint8 // shared continuity counter, PID 0x12
	scheduleCursor int

	tdtTot *tdtTotState

	rateBps int // eit emission rate, bits per second
}

// New builds an Engine from a parsed Config: it constructs every
// service named by the config's multiplex/service entries and
// materializes each one's initial schedule table via buildService
// (spec.md §4.1), once, before the steady-state loop ever runs.
func New(cfg *config.Config, store *epg.Store, out sink.Sink, clk clock.Clock) *Engine {
	e := &Engine{
		store: store,
		clock: clk,
		sink:  out,
	}

	now := clk.Now()
	for _, mux := range cfg.Multiplex {
		for _, svcCfg := range mux.Services {
			svc := service.New(cfg.ONID, mux.TSID, svcCfg.PNR, svcCfg.Codepage, svcCfg.XMLTVID)
			buildService(svc, store, now, cfg.EitDays)
			e.services = append(e.services, svc)
		}
	}

	if cfg.TdtTot.Enabled {
		e.tdtTot = &tdtTotState{offsetMinutes: cfg.TdtTot.OffsetMinutes}
		copy(e.tdtTot.country[:], cfg.TdtTot.Country)
	}

	e.rateBps = cfg.EitRateBps
	if e.rateBps == 0 {
		e.rateBps = defaultRateBps(len(e.services))
	}

	return e
}

func defaultRateBps(serviceCount int) int {
	kbps := defaultServiceRateKbps * serviceCount
	if kbps < minTotalRateKbps {
		kbps = minTotalRateKbps
	}
	return kbps * 1000
}

// Run drives the scheduler/pacer loop until ctx is cancelled. ctx
// cancellation is observed at the start of each cycle and at the two
// suspension points spec.md §5 names (the per-block pacing sleep, the
// idle sleep); no in-flight work is drained or flushed on cancellation.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		buf, err := e.buildCycle()
		if err != nil {
			return err
		}

		if buf.Len() == 0 {
			if sleepOrDone(ctx, time.Second) {
				return nil
			}
			continue
		}

		if done, err := e.drain(ctx, buf.Bytes()); done || err != nil {
			return err
		}
	}
}

// buildCycle runs one full population pass (TDT/TOT, present pass,
// schedule pass) and returns the accumulated TS bytes.
func (e *Engine) buildCycle() (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	now := e.clock.Now()

	if e.tdtTot != nil {
		if err := e.emitTdtTot(buf, now); err != nil {
			return nil, err
		}
	}

	for _, svc := range e.services {
		svc.Tick(now)
		if len(svc.Present.Items) == 0 {
			continue
		}

		pkts, err := svc.Present.Demux(&e.cc)
		if err != nil {
			return nil, fmt.Errorf("demuxing present/following for pnr=%d: %w", svc.PNR, err)
		}
		buf.Write(pkts)
		if err := psi.PadToBlockBoundary(buf); err != nil {
			return nil, err
		}
	}

	if err := e.runSchedulePass(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

func (e *Engine) emitTdtTot(buf *bytes.Buffer, now int64) error {
	ts := time.Unix(now, 0).UTC()

	tdt := &psi.Tdt{Time: ts}
	tdtBytes, err := tdt.Demux(&e.tdtTot.cc)
	if err != nil {
		return fmt.Errorf("demuxing tdt: %w", err)
	}
	buf.Write(tdtBytes)

	offset := e.tdtTot.offsetMinutes
	polarity := offset < 0
	if polarity {
		offset = -offset
	}

	tot := &psi.Tot{
		Time: ts,
		Offsets: psi.LocalTimeOffsetDescriptor{{
			CountryCode:    e.tdtTot.country,
			OffsetPolarity: polarity,
			Offset:         time.Duration(offset) * time.Minute,
		}},
	}
	totBytes, err := tot.Demux(&e.tdtTot.cc)
	if err != nil {
		return fmt.Errorf("demuxing tot: %w", err)
	}
	buf.Write(totBytes)

	return psi.PadToBlockBoundary(buf)
}

// runSchedulePass continues from e.scheduleCursor, serializing each
// service's schedule table until the buffer reaches the byte-rate
// window, per spec.md §4.3 step 3.
func (e *Engine) runSchedulePass(buf *bytes.Buffer) error {
	n := len(e.services)
	if n == 0 {
		return nil
	}

	rateLimit := e.rateBps / 8

	for i := 0; i < n; i++ {
		idx := (e.scheduleCursor + i) % n
		svc := e.services[idx]
		e.scheduleCursor = (idx + 1) % n

		if len(svc.Schedule.Items) == 0 {
			continue
		}

		pkts, err := svc.Schedule.Demux(&e.cc)
		if err != nil {
			return fmt.Errorf("demuxing schedule for pnr=%d: %w", svc.PNR, err)
		}
		buf.Write(pkts)
		if err := psi.PadToBlockBoundary(buf); err != nil {
			return err
		}

		if buf.Len() >= rateLimit {
			break
		}
	}

	return nil
}

// drain partitions data into 7-packet (1316-byte) blocks and sends
// each to the sink, sleeping between blocks to pace at the configured
// byte rate (spec.md §4.3 step 4). Returns done=true if ctx was
// cancelled mid-drain.
func (e *Engine) drain(ctx context.Context, data []byte) (bool, error) {
	const block = 7 * psi.PacketSize
	rateLimit := e.rateBps / 8
	pps := time.Duration(int64(time.Second) * block / int64(rateLimit))

	for off := 0; off < len(data); off += block {
		end := off + block
		if end > len(data) {
			end = len(data)
		}

		if err := e.sink.Send(data[off:end]); err != nil {
			return false, fmt.Errorf("sink send: %w", err)
		}

		if sleepOrDone(ctx, pps) {
			return true, nil
		}
	}

	return false, nil
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d):
		return false
	}
}
