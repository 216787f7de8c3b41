// Command connector performs one request through the connector client and
// prints the response envelope as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ambiyansyah-risyal/connector"
)

type headerFlags map[string]string

func (h headerFlags) String() string {
	parts := make([]string, 0, len(h))
	for k, v := range h {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, ", ")
}

func (h headerFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("header %q must look like Name: value", s)
	}
	h[strings.TrimSpace(k)] = strings.TrimSpace(v)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("connector", flag.ContinueOnError)
	fs.SetOutput(stderr)

	headers := headerFlags{}
	method := fs.String("X", "GET", "request method")
	fs.Var(headers, "H", "request header `Name: value` (repeatable)")
	data := fs.String("d", "", "request body")
	form := fs.Bool("form", false, "send -d (k=v&k=v) as an urlencoded form")
	timeout := fs.Duration("timeout", 0, "request timeout")
	cacheTTL := fs.Duration("cache", 0, "cache TTL (needs CONNECTOR_CACHE_DIR to outlive the process)")
	query := fs.String("query", "", "query string to append")
	output := fs.String("o", "", "save the body to this file instead of printing it")
	field := fs.String("field", "", "print only this gjson path of the envelope")
	logFile := fs.String("log-file", "", "write logs to this file (rotated)")
	debug := fs.Bool("debug", false, "log the request lifecycle")
	version := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, connector.GetVersion())
		return 0
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: connector [flags] URL")
		fs.PrintDefaults()
		return 2
	}

	cfg, err := connector.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	level, err := cfg.Level()
	if err != nil {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}

	var logOut io.Writer = zerolog.ConsoleWriter{Out: stderr}
	if *logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		defer rotator.Close()
		logOut = rotator
	}
	logger := zerolog.New(logOut).Level(level).With().Timestamp().Str("component", "connector").Logger()

	opts := []connector.Option{
		connector.WithConfig(cfg),
		connector.WithLogger(connector.NewZerologLogger(logger)),
		connector.WithOnError(func(err error) {
			logger.Error().Err(err).Int("code", connector.ErrorCode(err)).Msg("request failed")
		}),
	}
	if *debug {
		opts = append(opts, connector.WithDebug())
	}
	if *output != "" {
		opts = append(opts, connector.WithDownloader(&connector.DirDownloader{
			Dir:    filepath.Dir(*output),
			Logger: connector.NewZerologLogger(logger),
		}))
	}
	client := connector.New(opts...)
	if !client.IsValid() {
		fmt.Fprintf(stderr, "config: %v\n", client.ValidationError())
		return 2
	}

	if _, ok := headers["User-Agent"]; !ok {
		headers["User-Agent"] = connector.UserAgent()
	}
	reqCfg := &connector.RequestConfig{
		Method:   strings.ToUpper(*method),
		Headers:  headers,
		Timeout:  *timeout,
		CacheTTL: *cacheTTL,
	}
	if *output != "" {
		reqCfg.Download = filepath.Base(*output)
	}
	if *query != "" {
		reqCfg.Query = *query
	}
	if *data != "" {
		if *form {
			reqCfg.Body = parseForm(*data)
			if _, ok := headers["Content-Type"]; !ok {
				headers["Content-Type"] = "application/x-www-form-urlencoded"
			}
		} else {
			reqCfg.Body = *data
		}
	}

	start := time.Now()
	resp, err := client.Request(ctx, fs.Arg(0), reqCfg)
	if err != nil {
		fmt.Fprintf(stderr, "error (code %d): %v\n", connector.ErrorCode(err), err)
		return 1
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Int("status", resp.Status).Msg("request done")

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "encode response: %v\n", err)
		return 1
	}
	if *field != "" {
		fmt.Fprintln(stdout, gjson.GetBytes(out, *field).String())
		return 0
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

// parseForm splits k=v&k=v keeping the order given on the command line.
// Values may already be percent-encoded; they are decoded so the client
// encodes them exactly once.
func parseForm(s string) *connector.Values {
	v := connector.NewValues()
	for _, part := range strings.Split(s, "&") {
		if part == "" {
			continue
		}
		k, val, _ := strings.Cut(part, "=")
		if decoded, err := url.QueryUnescape(val); err == nil {
			val = decoded
		}
		v.Set(k, val)
	}
	return v
}
