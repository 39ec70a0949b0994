// Package engine wires the full pipeline for one instrument: tick assembly,
// multi-period aggregation, rolling windows, signal evaluation, the position
// state machine and the order lifecycle. Everything runs strictly
// sequentially; one tick is fully processed before the next is read.
package engine

import (
	"go.uber.org/zap"

	"github.com/toriphy/cta-engine/internal/aggregator"
	"github.com/toriphy/cta-engine/internal/assembler"
	"github.com/toriphy/cta-engine/internal/execution"
	"github.com/toriphy/cta-engine/internal/indicator"
	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/series"
	"github.com/toriphy/cta-engine/internal/signal"
	"github.com/toriphy/cta-engine/internal/store"
	"github.com/toriphy/cta-engine/internal/strategy"
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// Engine replays a tick stream through the trading pipeline against a
// simulated execution venue.
//
// Warm-up mode runs the identical pipeline with order flow suppressed, so
// the rolling windows and the trend flag are hot before live decisions
// start. Decisions computed during warm-up are discarded, never submitted.
type Engine struct {
	config Config

	assembler  *assembler.Assembler
	aggregator *aggregator.Aggregator

	tradingSeries   *series.BarSeries
	longCycleSeries *series.BarSeries
	trendFilter     *signal.TrendFilter

	evaluator    *signal.Evaluator
	stateMachine *strategy.StateMachine

	sim     *execution.SimulatedExecutor
	manager *execution.Manager
	results *store.ResultStore

	warmup         bool
	recordedTrades int

	log *logger.Logger
}

// NewEngine builds the pipeline from a validated config.
func NewEngine(config Config, results *store.ResultStore, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	barAssembler, err := assembler.New(config.BasePeriod, config.VolumeMode)
	if err != nil {
		return nil, err
	}

	periods := []aggregator.PeriodConfig{config.TradingPeriod}
	if config.LongCyclePeriod.IsSome() {
		periods = append(periods, config.LongCyclePeriod.Unwrap())
	}

	barAggregator, err := aggregator.New(config.BasePeriod, periods)
	if err != nil {
		return nil, err
	}

	tradingSeries, err := series.NewBarSeries(config.WindowCapacity)
	if err != nil {
		return nil, err
	}

	registry := indicator.NewRegistry()

	var (
		longCycleSeries *series.BarSeries
		trendFilter     *signal.TrendFilter
	)

	if config.LongCyclePeriod.IsSome() {
		longCycleSeries, err = series.NewBarSeries(config.WindowCapacity)
		if err != nil {
			return nil, err
		}

		if config.Signal.TrendFilterEnabled {
			trendFilter, err = signal.NewTrendFilter(registry, config.TrendShortPeriod, config.TrendLongPeriod)
			if err != nil {
				return nil, err
			}
		}
	}

	evaluator, err := signal.NewEvaluator(config.Signal, registry, log)
	if err != nil {
		return nil, err
	}

	stateMachine, err := strategy.NewStateMachine(config.Symbol, config.Strategy, log)
	if err != nil {
		return nil, err
	}

	sim := execution.NewSimulatedExecutor()

	return &Engine{
		config:          config,
		assembler:       barAssembler,
		aggregator:      barAggregator,
		tradingSeries:   tradingSeries,
		longCycleSeries: longCycleSeries,
		trendFilter:     trendFilter,
		evaluator:       evaluator,
		stateMachine:    stateMachine,
		sim:             sim,
		manager:         execution.NewManager(config.Symbol, sim, log),
		results:         results,
		warmup:          false,
		recordedTrades:  0,
		log:             log,
	}, nil
}

// SetWarmup toggles warm-up mode. While enabled the pipeline updates all
// windows but never touches the execution boundary.
func (e *Engine) SetWarmup(warmup bool) {
	if e.warmup == warmup {
		return
	}

	e.warmup = warmup
	e.log.Info("warmup mode changed", zap.Bool("warmup", warmup))
}

// Position returns the state machine's tracked position.
func (e *Engine) Position() types.Position {
	return e.stateMachine.Position()
}

// Halted reports whether the instrument has been halted by a lifecycle
// divergence.
func (e *Engine) Halted() bool {
	return e.manager.Halted()
}

// SignalEvents returns the evaluator's append-only signal log.
func (e *Engine) SignalEvents() []types.SignalEvent {
	return e.evaluator.Events()
}

// OnTick feeds one tick through the pipeline. Ticks must arrive in
// non-decreasing time order; a tick from an unexpected symbol is an error.
func (e *Engine) OnTick(tick types.Tick) error {
	if err := tick.Validate(); err != nil {
		return err
	}

	if tick.Symbol != e.config.Symbol {
		return errors.Newf(errors.ErrCodeInvalidTick,
			"tick symbol %s does not match configured %s", tick.Symbol, e.config.Symbol)
	}

	closed, err := e.assembler.OnTick(tick)
	if err != nil {
		return err
	}

	if closed.IsNone() {
		return nil
	}

	return e.onBaseBar(closed.Unwrap())
}

// Finalize flushes the signal log to the result store after the stream ends.
func (e *Engine) Finalize() error {
	if e.results == nil {
		return nil
	}

	return e.results.RecordSignals(e.evaluator.Events())
}

func (e *Engine) onBaseBar(bar types.Bar) error {
	// Orders issued on earlier bars rest at the venue and can only trade
	// against price action that happens afterwards, i.e. this bar.
	if !e.warmup {
		e.sim.MatchBar(bar)

		if err := e.applyEvents(); err != nil {
			return err
		}
	}

	for _, periodBar := range e.aggregator.OnBar(bar) {
		if err := e.onPeriodBar(periodBar); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) onPeriodBar(periodBar aggregator.PeriodBar) error {
	if e.longCycleSeries != nil && e.config.LongCyclePeriod.Unwrap().N == periodBar.Period {
		e.longCycleSeries.PushBar(periodBar.Bar)

		if e.trendFilter != nil {
			if err := e.trendFilter.Update(e.longCycleSeries); err != nil {
				return err
			}
		}
	}

	if e.config.TradingPeriod.N != periodBar.Period {
		return nil
	}

	e.tradingSeries.PushBar(periodBar.Bar)

	// No intents before the window is warm.
	if !e.tradingSeries.Warm() {
		return nil
	}

	trend := signal.TrendNeutral
	if e.trendFilter != nil {
		trend = e.trendFilter.State()
	}

	evaluation, err := e.evaluator.Evaluate(periodBar.Bar, e.tradingSeries, trend)
	if err != nil {
		return err
	}

	if e.warmup || e.manager.Halted() {
		return nil
	}

	// Stale orders from the previous bar go first, then this bar's intents.
	if err := e.manager.CancelStale(periodBar.Bar.Start); err != nil {
		return err
	}

	if err := e.applyEvents(); err != nil {
		return err
	}

	decision := e.stateMachine.OnBar(periodBar.Bar, evaluation)

	submitted, err := e.manager.Submit(decision, periodBar.Bar.Start)
	if err != nil {
		return err
	}

	if e.results != nil {
		for _, order := range submitted {
			if err := e.results.RecordOrder(order); err != nil {
				return err
			}
		}
	}

	return nil
}

// applyEvents drains the venue's event queue and applies every outcome in
// arrival order: statuses to the lifecycle manager, fills to the manager and
// then the state machine.
func (e *Engine) applyEvents() error {
	for _, event := range e.sim.DrainEvents() {
		switch event.Kind {
		case execution.EventKindStatus:
			if err := e.manager.OnOrderEvent(event.Status); err != nil {
				return err
			}

			if e.results != nil {
				if err := e.results.UpdateOrderStatus(event.Status.OrderID, event.Status.Status); err != nil {
					return err
				}
			}
		case execution.EventKindFill:
			filled, err := e.manager.OnFill(event.Fill)
			if err != nil {
				// The manager halted the instrument and refuses further
				// submissions. The replay itself keeps running so the
				// results up to the divergence remain available.
				e.log.Error("instrument halted",
					zap.String("symbol", e.config.Symbol),
					zap.Error(err),
				)

				continue
			}

			e.stateMachine.OnFill(event.Fill)

			if e.results != nil {
				if err := e.results.UpdateOrderStatus(filled.ID, types.OrderStatusFilled); err != nil {
					return err
				}
			}
		}
	}

	if e.results != nil {
		trades := e.sim.Trades()
		for _, trade := range trades[e.recordedTrades:] {
			if err := e.results.RecordTrade(trade); err != nil {
				return err
			}
		}

		e.recordedTrades = len(trades)
	}

	return nil
}
