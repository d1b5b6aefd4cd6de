package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obsidiansystems/hw-app-kda/internal/config"
	"github.com/obsidiansystems/hw-app-kda/internal/history"
	"github.com/obsidiansystems/hw-app-kda/pkg/apdu"
	"github.com/obsidiansystems/hw-app-kda/pkg/kda"
	"github.com/obsidiansystems/hw-app-kda/pkg/log"
	"github.com/obsidiansystems/hw-app-kda/pkg/sign"
	"github.com/obsidiansystems/hw-app-kda/pkg/transport/ledgerhid"
	"github.com/obsidiansystems/hw-app-kda/pkg/transport/zondax"
)

const metricsEndpoint = "/metrics"

var (
	errUsage          = errors.New("invalid usage")
	errUnknownCommand = errors.New("unknown command")
)

// deviceOpener connects to the device selected by the configuration.
type deviceOpener func(cfg *config.Config) (apdu.Exchanger, error)

// deviceLister describes the connected devices as table rows.
type deviceLister func(cfg *config.Config) ([][]string, error)

// App wires configuration, device access, history and metrics together.
// Devices are opened for each command and closed afterwards.
type App struct {
	cfg   *config.Config
	lg    log.Logger
	store *history.Store

	registry    *prometheus.Registry
	apduMetrics *apdu.Metrics
	kdaMetrics  *kda.Metrics

	openDevice  deviceOpener
	listDevices deviceLister
	out         io.Writer
}

func NewApp(cfg *config.Config, lg log.Logger) (*App, error) {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		cfg:         cfg,
		lg:          lg,
		store:       store,
		registry:    registry,
		apduMetrics: apdu.NewMetricsWithRegistry(registry),
		kdaMetrics:  kda.NewMetricsWithRegistry(registry),
		openDevice:  openDevice,
		listDevices: listDevices,
		out:         os.Stdout,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

// MetricsServer returns an HTTP server exposing the app's registry.
func (a *App) MetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle(metricsEndpoint, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run executes one command given as command line arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "sign":
		req, err := parseSignArgs(args[1:])
		if err != nil {
			return err
		}
		return a.Sign(ctx, req)
	case "devices":
		return a.Devices()
	case "history":
		limit := history.DefaultListLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: history limit must be a positive number, got %q", errUsage, args[1])
			}
			limit = n
		}
		return a.History(limit)
	case "accounts":
		return a.Accounts()
	case "help", "-h", "--help":
		printUsage(a.out)
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, args[0])
	}
}

// signRequest is a parsed sign command.
type signRequest struct {
	Target string // Account name or derivation path
	Hash   string
	Format outputFormat
}

// parseSignArgs reads "<path|account> <hash> [-o format]".
func parseSignArgs(args []string) (signRequest, error) {
	req := signRequest{Format: formatText}

	var positional []string
	for i := 0; i < len(args); i++ {
		var value string
		switch arg := args[i]; {
		case arg == "-o" || arg == "--output":
			if i+1 >= len(args) {
				return signRequest{}, fmt.Errorf("%w: %s needs a value", errUsage, arg)
			}
			i++
			value = args[i]
		case strings.HasPrefix(arg, "-o="):
			value = strings.TrimPrefix(arg, "-o=")
		case strings.HasPrefix(arg, "--output="):
			value = strings.TrimPrefix(arg, "--output=")
		default:
			positional = append(positional, arg)
			continue
		}

		format, err := parseOutputFormat(value)
		if err != nil {
			return signRequest{}, err
		}
		req.Format = format
	}

	if len(positional) != 2 {
		return signRequest{}, fmt.Errorf("%w: sign <path|account> <hash> [-o text|json|yaml|table]", errUsage)
	}
	req.Target, req.Hash = positional[0], positional[1]
	return req, nil
}

// Sign signs the hash with the key at the requested path or account.
func (a *App) Sign(ctx context.Context, req signRequest) error {
	requestID := uuid.NewString()
	lg := a.lg.WithKV("requestId", requestID)
	ctx = log.SetContextLogger(ctx, lg)

	path, isAccount := a.cfg.Accounts().Resolve(req.Target)
	account := ""
	if isAccount {
		account = req.Target
	}

	rawHash, err := kda.NormalizeHash(req.Hash)
	if err != nil {
		return err
	}

	dev, err := a.openDevice(a.cfg)
	if err != nil {
		return err
	}
	tr, err := apdu.NewTransport(dev,
		apdu.TransportConfig{ChunkSize: a.cfg.ChunkSize, AcceptedStatus: []apdu.StatusWord{apdu.StatusOK}},
		apdu.WithMetrics(a.apduMetrics),
	)
	if err != nil {
		closeExchanger(dev)
		return err
	}
	defer func() {
		if err := tr.Close(); err != nil {
			lg.Warn("failed to close device", "error", err)
		}
	}()

	opts := []kda.Option{kda.WithLogger(lg), kda.WithMetrics(a.kdaMetrics)}
	if a.cfg.LenientPaths {
		opts = append(opts, kda.WithLenientPaths())
	}
	client, err := kda.New(tr, opts...)
	if err != nil {
		return err
	}

	var signer sign.Signer = kda.NewPathSigner(client, path)
	lg.Info("confirm the signature on the device", "path", path, "account", account)
	sig, err := signer.Sign(ctx, rawHash)
	if err != nil {
		return err
	}

	hashHex := hex.EncodeToString(rawHash)
	if len(sig) > 0 {
		if _, err := a.store.Record(requestID, account, path, hashHex, sig.String()); err != nil {
			lg.Warn("failed to record signature", "error", err)
		}
	}

	return writeSignResult(a.out, req.Format, signOutput{
		RequestID: requestID,
		Account:   account,
		Path:      path,
		Hash:      hashHex,
		Signature: sig.String(),
	})
}

// Devices lists connected devices for the configured transport.
func (a *App) Devices() error {
	rows, err := a.listDevices(a.cfg)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No Ledger devices found.")
		return nil
	}
	renderDevices(a.out, rows)
	return nil
}

// History prints the most recent signatures.
func (a *App) History(limit int) error {
	records, err := a.store.List(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No signatures recorded yet.")
		return nil
	}
	renderHistory(a.out, records)
	return nil
}

// Accounts prints the accounts configured in accounts.yaml.
func (a *App) Accounts() error {
	accounts := a.cfg.Accounts().Accounts
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts configured.")
		return nil
	}
	renderAccounts(a.out, accounts)
	return nil
}

func openDevice(cfg *config.Config) (apdu.Exchanger, error) {
	switch cfg.Transport {
	case config.TransportZondax:
		dev, err := zondax.Open(cfg.DeviceIndex)
		if err != nil {
			return nil, err
		}
		return dev, nil
	default:
		dev, err := ledgerhid.Open(cfg.DeviceIndex)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}

func listDevices(cfg *config.Config) ([][]string, error) {
	switch cfg.Transport {
	case config.TransportZondax:
		names, err := zondax.List()
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(names))
		for i, name := range names {
			rows = append(rows, []string{strconv.Itoa(i), name, "", ""})
		}
		return rows, nil
	default:
		infos, err := ledgerhid.List()
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(infos))
		for i, info := range infos {
			rows = append(rows, []string{strconv.Itoa(i), info.Product, fmt.Sprintf("0x%04x", info.ProductID), info.Path})
		}
		return rows, nil
	}
}

func closeExchanger(dev apdu.Exchanger) {
	if c, ok := dev.(io.Closer); ok {
		c.Close()
	}
}
