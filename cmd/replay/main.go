package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/quantfold/wavetrend/internal/config"
	"github.com/quantfold/wavetrend/internal/engine"
	"github.com/quantfold/wavetrend/internal/observ"
	"github.com/quantfold/wavetrend/internal/orders"
)

// paperBroker fills market orders at the bar's close. Fills are queued at
// submit and delivered after the bar completes, matching the asynchronous
// callback the live host gives us (and keeping out of the manager's lock).
type paperBroker struct {
	mgr     *orders.Manager
	last    float64
	pending []pendingFill
}

type pendingFill struct {
	orderID string
	price   float64
	qty     int
}

func (b *paperBroker) Submit(ords ...*orders.Order) error {
	for _, o := range ords {
		observ.Log("paper_submit", map[string]any{
			"id": o.ID, "kind": o.Kind.String(), "action": o.Action.String(),
			"qty": o.Quantity, "price": o.Price,
		})
		if o.Kind == orders.Market {
			b.pending = append(b.pending, pendingFill{orderID: o.ID, price: b.last, qty: o.Quantity})
		}
	}
	return nil
}

func (b *paperBroker) flush() {
	fills := b.pending
	b.pending = nil
	for _, f := range fills {
		b.mgr.OnOrderFilled(f.orderID, f.price, f.qty)
	}
}

func (b *paperBroker) CloseAtMarket(instrument string) error {
	observ.Log("paper_close", map[string]any{"instrument": instrument, "price": b.last})
	return nil
}

// closeSeries is the PriceSource over the loaded CSV closes.
type closeSeries []float64

func (s closeSeries) Close(index int) (float64, bool) {
	if index < 0 || index >= len(s) {
		return 0, false
	}
	return s[index], true
}

// printSink prints each emitted value as one JSON line.
type printSink struct{}

func (printSink) Emit(name string, barIndex int, value float64) {
	fmt.Printf("{\"bar\":%d,\"name\":%q,\"value\":%g}\n", barIndex, name, value)
}

func loadCloses(path string) (closeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	var out closeSeries
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		// close is the last column; header rows just fail to parse
		v, err := strconv.ParseFloat(row[len(row)-1], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func main() {
	log.SetFlags(0)
	cfgPath := flag.String("config", "config.yaml", "engine configuration")
	barsPath := flag.String("bars", "fixtures/bars.csv", "CSV of closes, close in the last column")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config %s: %v", *cfgPath, err)
	}
	closes, err := loadCloses(*barsPath)
	if err != nil {
		log.Fatalf("bars %s: %v", *barsPath, err)
	}

	journal, err := orders.NewJournal(cfg.Journal.Path, cfg.Journal.DedupeWindowSecs)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}

	broker := &paperBroker{}
	mgr := orders.NewManager(cfg.Instrument, broker, journal)
	broker.mgr = mgr

	eng, err := engine.New(cfg, mgr)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	for bar := range closes {
		broker.last = closes[bar]
		if err := eng.Calculate(bar, closes, printSink{}); err != nil {
			// a bad bar is logged and skipped, never fatal
			observ.Log("bar_skipped", map[string]any{"bar": bar, "error": err.Error()})
		}
		broker.flush()
	}

	observ.Log("replay_done", map[string]any{
		"bars":    observ.CounterValue("bars_processed_total", nil),
		"entries": observ.CounterValue("positions_opened_total", map[string]string{"side": "long"}) + observ.CounterValue("positions_opened_total", map[string]string{"side": "short"}),
	})
}
