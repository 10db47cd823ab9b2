package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/cmd/common"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/config"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/adapters"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/monitoring"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/reporting"
)

const appName = "exchange-cli"

type options struct {
	common *common.CommonFlags

	exchange    string
	operation   string
	symbol      string
	code        string
	timeframe   string
	limit       int
	since       string
	until       string
	dataRoot    string
	format      string
	output      string
	keepInfo    bool
	sandbox     bool
	interval    time.Duration
	metricsAddr string
}

func parseOptions(fs *flag.FlagSet, args []string) (*options, error) {
	o := &options{common: common.RegisterCommonFlags(fs)}
	fs.StringVar(&o.exchange, "exchange", "", "Exchange id ("+strings.Join(adapters.NewFactory(nil).GetSupportedExchanges(), ", ")+")")
	fs.StringVar(&o.operation, "op", "markets", "Operation ("+strings.Join(operationNames(), ", ")+")")
	fs.StringVar(&o.symbol, "symbol", "", "Unified symbol, e.g. BTC/EUR (comma separated for tickers)")
	fs.StringVar(&o.code, "code", "", "Currency code for deposits, withdrawals and ledger")
	fs.StringVar(&o.timeframe, "timeframe", "1h", "Candle timeframe for ohlcv")
	fs.IntVar(&o.limit, "limit", 0, "Maximum number of records, 0 for the exchange default")
	fs.StringVar(&o.since, "since", "", "Start time: milliseconds, RFC 3339, YYYY-MM-DD or a duration like 7d")
	fs.StringVar(&o.until, "until", "", "End time for history, same forms as -since; default now")
	fs.StringVar(&o.dataRoot, "data-root", "data", "Directory where history stores candle files")
	fs.StringVar(&o.format, "format", "table", "Output format ("+strings.Join(reporting.Formats, ", ")+")")
	fs.StringVar(&o.output, "output", "", "Output file, csv and xlsx default to results/<exchange>_<op>/")
	fs.BoolVar(&o.keepInfo, "info", false, "Keep the raw exchange payload in json output")
	fs.BoolVar(&o.sandbox, "sandbox", false, "Use the exchange sandbox")
	fs.DurationVar(&o.interval, "interval", 0, "Repeat the operation at this interval until interrupted")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address, e.g. :9090")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *options) validate() *common.FlagValidator {
	v := common.NewFlagValidator()
	if *o.common.Version || *o.common.Help {
		return v
	}
	v.ValidateRequired("exchange", o.exchange)
	v.ValidateChoice("op", o.operation, operationNames())
	v.ValidateChoice("format", strings.ToLower(o.format), reporting.Formats)
	v.ValidateInt("limit", o.limit, 0, 100000)
	if o.interval < 0 {
		v.AddError("interval must not be negative")
	}
	if op, ok := operations[o.operation]; ok && op.needsSymbol && o.symbol == "" {
		v.AddError(fmt.Sprintf("symbol is required for %s", o.operation))
	}
	for _, t := range []string{o.since, o.until} {
		if _, err := common.ParseSince(t, time.Now()); err != nil {
			v.AddError(err.Error())
		}
	}
	return v
}

func main() {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	opts, err := parseOptions(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	usage := common.NewUsageFormatter(appName, "Query crypto exchanges through unified adapters").
		AddExample(appName+" -exchange coinmetro -op ohlcv -symbol BTC/EUR -timeframe 1h -since 2d", "Hourly candles for two days").
		AddExample(appName+" -exchange bitbns -op tickers -format csv", "All tickers as CSV under results/").
		AddExample(appName+" -exchange coinmetro -op history -symbol BTC/EUR -timeframe 1m -since 30d", "Store a month of candles under data/").
		AddExample(appName+" -exchange alpaca -op capabilities", "What the adapter supports")
	if common.CheckHelpAndVersion(appName, opts.common, usage, fs) {
		return
	}
	if v := opts.validate(); v.HasErrors() {
		v.PrintErrors(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		common.Error("%v", err)
		os.Exit(1)
	}
}

// run loads configuration, builds the adapter and executes the operation,
// once or every -interval until ctx is done
func run(ctx context.Context, opts *options, stdout io.Writer) error {
	if err := common.LoadEnvFile(*opts.common.EnvFile); err != nil {
		return err
	}
	cfg, err := config.Load(*opts.common.ConfigFile)
	if err != nil {
		return err
	}

	log := logger.Default()
	log.SetLevelString(cfg.LogLevel)
	common.SetupLogger(opts.common)
	if cfg.Log.File {
		if err := log.EnableFile(logger.FileConfig{
			Dir:        cfg.Log.Dir,
			Name:       cfg.Log.Name,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}); err != nil {
			return fmt.Errorf("failed to enable file logging: %w", err)
		}
		defer log.Close()
	}

	health := monitoring.NewHealthChecker()
	factory := adapters.NewFactory(health)

	if opts.metricsAddr != "" {
		srv := startMonitoring(opts.metricsAddr, health)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	exCfg := cfg.Exchange(opts.exchange)
	if opts.sandbox {
		exCfg.Client.Sandbox = true
	}
	exCfg.Client.Logger = log.WithComponent(exCfg.Name)

	format, err := reporting.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	manager := reporting.NewReportingManager(reporting.ReportingConfig{
		Format:   format,
		Output:   opts.output,
		KeepInfo: opts.keepInfo,
	})
	manager.SetOutput(stdout)

	var ex exchange.Exchange
	if opts.operation != "capabilities" {
		ex, err = factory.CreateExchange(exCfg)
		if err != nil {
			return err
		}
		common.Info("Using %s (%s)", ex.Describe().Name, common.GetFullVersion())
	}

	for {
		if err := execute(ctx, factory, ex, exCfg.Name, opts, manager); err != nil {
			if opts.interval == 0 {
				return err
			}
			common.Warn("%v", err)
		}
		if opts.interval == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			common.Info("Stopped")
			return nil
		case <-time.After(opts.interval):
		}
	}
}

func execute(ctx context.Context, factory *adapters.Factory, ex exchange.Exchange, name string, opts *options, manager *reporting.ReportingManager) error {
	now := time.Now()
	since, err := common.ParseSince(opts.since, now)
	if err != nil {
		return err
	}
	until, err := common.ParseSince(opts.until, now)
	if err != nil {
		return err
	}
	req := request{
		symbol:    opts.symbol,
		code:      opts.code,
		timeframe: opts.timeframe,
		since:     since,
		until:     until,
		limit:     opts.limit,
		dataRoot:  opts.dataRoot,
	}

	common.Header(name + " " + opts.operation)
	common.Debug("symbol=%q code=%q timeframe=%s since=%d until=%d limit=%d",
		req.symbol, req.code, req.timeframe, req.since, req.until, req.limit)

	var res result
	if opts.operation == "capabilities" {
		res, err = capabilities(factory, name)
	} else {
		if _, err := ex.LoadMarkets(ctx, false); err != nil {
			return fmt.Errorf("failed to load markets: %w", err)
		}
		res, err = runOperation(ctx, ex, opts.operation, req)
	}
	if err != nil {
		return err
	}

	path, err := manager.Report(name, opts.operation, opts.symbol, res.table, res.raw)
	if err != nil {
		return err
	}
	if path != "" {
		common.Success("Wrote %s", path)
	}
	return nil
}

func startMonitoring(addr string, health *monitoring.HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithComponent("monitoring").WithError(err).Error("metrics server stopped")
		}
	}()
	common.Info("Serving /metrics and /health on %s", addr)
	return srv
}
