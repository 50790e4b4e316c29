package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/tessellate-io/flume/adapter"
	adapterredis "github.com/tessellate-io/flume/adapter/redis"
	"github.com/tessellate-io/flume/adapter/webhook"
	"github.com/tessellate-io/flume/capture"
	"github.com/tessellate-io/flume/cli/config"
	"github.com/tessellate-io/flume/cli/render"
	"github.com/tessellate-io/flume/iox"
	"github.com/tessellate-io/flume/log"
	"github.com/tessellate-io/flume/metrics"
	"github.com/tessellate-io/flume/runtime"
	"github.com/tessellate-io/flume/store"
	"github.com/tessellate-io/flume/types"
	"github.com/tessellate-io/flume/worker"
)

// Exit codes for the run command. A decode or launch failure is
// distinct from a worker that ran and exited nonzero; the worker's own
// exit code is propagated so wrappers can act on it.
const (
	exitSuccess        = 0
	exitSessionFailure = 2
)

// RunCommand returns the run command, the only command that executes work.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a worker and collect its result stream",
		ArgsUsage: "-- <worker command> [args...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "session-id",
				Usage: "Session ID (generated if omitted)",
			},
			&cli.StringFlag{
				Name:  "worker",
				Usage: "Worker label recorded in results and events",
				Value: "worker",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to flume.yaml config file",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Worker working directory",
			},
			&cli.StringSliceFlag{
				Name:  "search-path",
				Usage: "Directory prepended to the worker's search-path variable (repeatable)",
			},
			&cli.StringFlag{
				Name:  "search-path-var",
				Usage: "Search-path variable name (default PYTHONPATH)",
			},
			&cli.StringSliceFlag{
				Name:  "env",
				Usage: "Additional KEY=VALUE for the worker (repeatable)",
			},
			&cli.StringFlag{
				Name:  "address-prefix",
				Usage: "Channel address prefix",
			},
			&cli.DurationFlag{
				Name:  "accept-timeout",
				Usage: "Listener reconnect-accept timeout",
			},
			&cli.BoolFlag{
				Name:  "shim",
				Usage: "Run the embedded reference shim instead of an explicit worker command",
			},
			&cli.StringFlag{
				Name:  "interpreter",
				Usage: "Interpreter for the embedded shim",
				Value: "python3",
			},
			// Capture storage flags
			&cli.StringFlag{
				Name:  "capture-backend",
				Usage: "Capture storage backend: file or s3 (empty disables capture)",
			},
			&cli.StringFlag{
				Name:  "capture-path",
				Usage: "Capture storage path (file: directory, s3: bucket/prefix)",
			},
			&cli.StringFlag{
				Name:  "capture-region",
				Usage: "AWS region for the s3 backend (optional, uses default chain)",
			},
			&cli.StringFlag{
				Name:  "capture-endpoint",
				Usage: "Custom S3 endpoint URL for S3-compatible providers",
			},
			&cli.BoolFlag{
				Name:  "capture-s3-path-style",
				Usage: "Force path-style S3 addressing",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Completion event adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint URL",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel name",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
			FormatFlag,
			NoColorFlag,
		},
		Action: runAction,
	}
}

// SessionSummary is the rendered result of a run.
type SessionSummary struct {
	SessionID     string          `json:"session_id"`
	Worker        string          `json:"worker"`
	ExitCode      int             `json:"exit_code"`
	Payloads      []types.Payload `json:"payloads"`
	BytesReceived int64           `json:"bytes_received"`
	Reconnects    int             `json:"reconnects"`
	DurationMs    int64           `json:"duration_ms"`
	CaptureKey    string          `json:"capture_key,omitempty"`
}

func runAction(c *cli.Context) error {
	var fileCfg config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		fileCfg = *loaded
	}

	argv := c.Args().Slice()
	if c.Bool("shim") {
		if len(argv) > 0 {
			return cli.Exit("--shim and an explicit worker command are mutually exclusive", exitSessionFailure)
		}
		shimArgv, err := worker.ShimArgv(c.String("interpreter"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("embedded shim unavailable: %v", err), exitSessionFailure)
		}
		argv = shimArgv
	}
	if len(argv) == 0 {
		return cli.Exit("a worker command is required (pass it after --, or use --shim)", exitSessionFailure)
	}

	sessionID := c.String("session-id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	workerName := firstOf(c.String("worker"), fileCfg.Worker.Name, "worker")

	meta := &types.SessionMeta{
		SessionID: sessionID,
		Worker:    workerName,
	}

	collector := metrics.NewCollector(transportName(), workerName, sessionID)

	sessionConfig := &runtime.SessionConfig{
		Argv:          argv,
		Dir:           firstOf(c.String("dir"), fileCfg.Worker.Dir),
		SearchPaths:   firstSlice(c.StringSlice("search-path"), fileCfg.Worker.SearchPaths),
		SearchPathVar: firstOf(c.String("search-path-var"), fileCfg.Worker.SearchPathVar),
		ExtraEnv:      firstSlice(c.StringSlice("env"), fileCfg.Worker.Env),
		Meta:          meta,
		AddressPrefix: firstOf(c.String("address-prefix"), fileCfg.Channel.AddressPrefix),
		AcceptTimeout: firstDuration(c.Duration("accept-timeout"), fileCfg.Channel.AcceptTimeout.Duration),
		Collector:     collector,
	}

	coordinator, err := runtime.NewSessionCoordinator(sessionConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid session config: %v", err), exitSessionFailure)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := coordinator.Execute(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("session failed: %v", err), exitSessionFailure)
	}

	captureKey, err := persistCapture(ctx, c, &fileCfg, result)
	if err != nil {
		return cli.Exit(fmt.Sprintf("capture failed: %v", err), exitSessionFailure)
	}

	if err := publishCompletion(ctx, c, &fileCfg, result, captureKey); err != nil {
		// The session itself succeeded; a notification failure is
		// reported but does not change the exit code.
		log.NewLogger(meta).Sugar().Warnf("completion event not delivered: %v", err)
	}

	if !c.Bool("quiet") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		summary := &SessionSummary{
			SessionID:     sessionID,
			Worker:        workerName,
			ExitCode:      result.ExitCode,
			Payloads:      result.Payloads,
			BytesReceived: result.BytesReceived,
			Reconnects:    result.Reconnects,
			DurationMs:    result.Duration.Milliseconds(),
			CaptureKey:    captureKey,
		}
		if err := r.Render(summary); err != nil {
			return err
		}
	}

	return cli.Exit("", result.ExitCode)
}

// persistCapture writes the session capture when a storage backend is
// configured. Returns the storage key, or "" when capture is disabled.
func persistCapture(ctx context.Context, c *cli.Context, fileCfg *config.Config, result *types.SessionResult) (string, error) {
	backend := firstOf(c.String("capture-backend"), fileCfg.Storage.Backend)
	if backend == "" {
		return "", nil
	}
	path := firstOf(c.String("capture-path"), fileCfg.Storage.Path)

	var (
		st  store.Store
		err error
	)
	switch backend {
	case "file":
		st, err = store.NewFileStore(path)
	case "s3":
		bucket, prefix := store.ParseS3Path(path)
		st, err = store.NewS3Store(ctx, store.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       firstOf(c.String("capture-region"), fileCfg.Storage.Region),
			Endpoint:     firstOf(c.String("capture-endpoint"), fileCfg.Storage.Endpoint),
			UsePathStyle: c.Bool("capture-s3-path-style") || fileCfg.Storage.S3PathStyle,
		})
	default:
		return "", fmt.Errorf("unknown capture backend: %s (must be file or s3)", backend)
	}
	if err != nil {
		return "", err
	}

	rec := capture.FromResult(result)
	data, err := rec.Encode()
	if err != nil {
		return "", err
	}

	key := store.CaptureKey(rec.Worker, rec.SessionID, time.Now())
	if err := st.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// publishCompletion sends the completion event when an adapter is
// configured.
func publishCompletion(ctx context.Context, c *cli.Context, fileCfg *config.Config, result *types.SessionResult, captureKey string) error {
	adapterType := firstOf(c.String("adapter"), fileCfg.Adapter.Type)
	if adapterType == "" {
		return nil
	}
	url := firstOf(c.String("adapter-url"), fileCfg.Adapter.URL)

	var (
		a   adapter.Adapter
		err error
	)
	switch adapterType {
	case "webhook":
		cfg := webhook.Config{
			URL:     url,
			Headers: fileCfg.Adapter.Headers,
			Timeout: fileCfg.Adapter.Timeout.Duration,
		}
		if fileCfg.Adapter.Retries != nil {
			cfg.Retries = *fileCfg.Adapter.Retries
		} else {
			cfg.Retries = webhook.DefaultRetries
		}
		a, err = webhook.New(cfg)
	case "redis":
		cfg := adapterredis.Config{
			URL:     url,
			Channel: firstOf(c.String("adapter-channel"), fileCfg.Adapter.Channel),
			Timeout: fileCfg.Adapter.Timeout.Duration,
		}
		if fileCfg.Adapter.Retries != nil {
			cfg.Retries = *fileCfg.Adapter.Retries
		} else {
			cfg.Retries = adapterredis.DefaultRetries
		}
		a, err = adapterredis.New(cfg)
	default:
		return fmt.Errorf("unknown adapter: %s (must be webhook or redis)", adapterType)
	}
	if err != nil {
		return err
	}
	defer iox.DiscardClose(a)

	return a.Publish(ctx, adapter.FromResult(result, captureKey))
}

func transportName() string {
	if os.PathSeparator == '\\' {
		return "pipe"
	}
	return "unix"
}

// firstOf returns the first non-empty string.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstSlice(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func firstDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
