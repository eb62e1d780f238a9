package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	rferrors "github.com/reflow-dev/reflow/internal/errors"
	"github.com/reflow-dev/reflow/pkg/host"
	"github.com/reflow-dev/reflow/pkg/server"
)

type benchCounters struct {
	eventsSent   atomic.Uint64
	patchFrames  atomic.Uint64
	patchOps     atomic.Uint64
	bytesIn      atomic.Uint64
	errorFrames  atomic.Uint64
	clientErrors atomic.Uint64
}

func benchCmd() *cobra.Command {
	var (
		clients  int
		duration time.Duration
		rps      float64
		listSize int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load-test the session wire protocol",
		Long: `Start an in-process server hosting the demo app, connect a swarm of
WebSocket clients, and drive click events at a fixed rate. Reports event
round-trip latency and patch throughput.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(clients, duration, rps, listSize)
		},
	}

	cmd.Flags().IntVarP(&clients, "clients", "c", 50, "Concurrent clients")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second, "Benchmark duration")
	cmd.Flags().Float64Var(&rps, "rps", 5, "Events per second per client")
	cmd.Flags().IntVar(&listSize, "list-size", 20, "Demo list length")

	return cmd
}

func runBench(clients int, duration time.Duration, rps float64, listSize int) error {
	if clients < 1 || rps <= 0 {
		return rferrors.Newf(rferrors.CategoryCLI, "clients and rps must be positive")
	}

	cfg := server.DefaultConfig()
	cfg.CheckOrigin = func(*http.Request) bool { return true }
	srv := server.New(demoApp(listSize), cfg)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return rferrors.FromError(err, "R121")
	}
	httpServer := &http.Server{Handler: srv.Handler()}
	go httpServer.Serve(ln)
	defer httpServer.Shutdown(context.Background())
	defer srv.Shutdown(context.Background())

	wsURL := "ws://" + ln.Addr().String() + "/live"
	fmt.Printf("Benchmarking %s: %d clients, %.1f events/s each, for %s\n\n",
		wsURL, clients, rps, duration)

	sampleSize := clients * int(rps*duration.Seconds())
	if sampleSize < 1000 {
		sampleSize = 1000
	} else if sampleSize > 100000 {
		sampleSize = 100000
	}
	meter := tachymeter.New(&tachymeter.Config{Size: sampleSize})
	var counters benchCounters

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(clients)
	for i := 0; i < clients; i++ {
		go func() {
			defer wg.Done()
			if err := runBenchClient(ctx, wsURL, rps, meter, &counters); err != nil {
				counters.clientErrors.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	report(meter, &counters, clients, elapsed)
	return nil
}

// runBenchClient drives one session: handshake, then one click per tick,
// measuring the time from event write to patch receipt.
func runBenchClient(ctx context.Context, wsURL string, rps float64, meter *tachymeter.Tachymeter, counters *benchCounters) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(&server.Frame{Type: server.FrameHello}); err != nil {
		return err
	}

	var button uint64
	for button == 0 {
		f, n, err := readBenchFrame(conn, counters)
		if err != nil {
			return err
		}
		counters.bytesIn.Add(uint64(n))
		if f.Type != server.FramePatch {
			continue
		}
		counters.patchFrames.Add(1)
		counters.patchOps.Add(uint64(len(f.Ops)))
		for _, op := range f.Ops {
			if op.Kind == host.OpCreateElement && op.Tag == "button" {
				button = op.Node
			}
		}
	}

	interval := time.Duration(float64(time.Second) / rps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteJSON(&server.Frame{Type: server.FrameClose})
			return nil
		case <-ticker.C:
		}

		sent := time.Now()
		if err := conn.WriteJSON(&server.Frame{Type: server.FrameEvent, Node: button, Event: "click"}); err != nil {
			return err
		}
		counters.eventsSent.Add(1)

		// Drain frames until the patch for this event arrives.
		for {
			f, n, err := readBenchFrame(conn, counters)
			if err != nil {
				return err
			}
			counters.bytesIn.Add(uint64(n))
			if f.Type == server.FramePatch {
				counters.patchFrames.Add(1)
				counters.patchOps.Add(uint64(len(f.Ops)))
				meter.AddTime(time.Since(sent))
				break
			}
		}
	}
}

func readBenchFrame(conn *websocket.Conn, counters *benchCounters) (*server.Frame, int, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var f server.Frame
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, 0, err
	}
	if err := json.Unmarshal(msg, &f); err != nil {
		return nil, 0, err
	}
	switch f.Type {
	case server.FramePing:
		conn.WriteJSON(&server.Frame{Type: server.FramePong})
	case server.FrameError:
		counters.errorFrames.Add(1)
	}
	return &f, len(msg), nil
}

func report(meter *tachymeter.Tachymeter, counters *benchCounters, clients int, elapsed time.Duration) {
	metrics := meter.Calc()
	events := counters.eventsSent.Load()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Clients", humanize.Comma(int64(clients))},
		{"Elapsed", elapsed.Round(time.Millisecond)},
		{"Events sent", humanize.Comma(int64(events))},
		{"Events/sec", fmt.Sprintf("%.1f", float64(events)/elapsed.Seconds())},
		{"Patch frames", humanize.Comma(int64(counters.patchFrames.Load()))},
		{"Patch ops", humanize.Comma(int64(counters.patchOps.Load()))},
		{"Bytes received", humanize.Bytes(counters.bytesIn.Load())},
		{"Error frames", humanize.Comma(int64(counters.errorFrames.Load()))},
		{"Client errors", humanize.Comma(int64(counters.clientErrors.Load()))},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Latency avg", metrics.Time.Avg},
		{"Latency p50", metrics.Time.P50},
		{"Latency p95", metrics.Time.P95},
		{"Latency p99", metrics.Time.P99},
		{"Latency max", metrics.Time.Max},
	})
	t.Render()
}
