package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"BPOrganizer.api/internal/client"
)

const usage = `usage: bpctl [flags] <command> [args]

commands:
  upload <image>    upload an image and wait for the summary
  status            print the current status
  summary           print the current summary
  export [file]     download the readings as CSV (stdout by default)

flags:
`

func main() {
	server := flag.String("server", envOr("BP_SERVER", "http://localhost:8000"), "API base URL")
	token := flag.String("token", os.Getenv("BP_TOKEN"), "bearer token for uploads")
	interval := flag.Duration("interval", 500*time.Millisecond, "status poll interval")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, client.New(*server, *token), *interval, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "bpctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, interval time.Duration, args []string) error {
	switch args[0] {
	case "upload":
		if len(args) != 2 {
			return fmt.Errorf("upload takes exactly one image path")
		}
		view, err := c.UploadFile(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "uploaded %s as %s\n", view.FileName, view.UploadID)
		if _, err := c.WaitForResult(ctx, interval); err != nil {
			return err
		}
		summary, err := c.Summary(ctx)
		if err != nil {
			return err
		}
		return printJSON(summary)
	case "status":
		view, err := c.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(view)
	case "summary":
		summary, err := c.Summary(ctx)
		if err != nil {
			return err
		}
		return printJSON(summary)
	case "export":
		var out io.Writer = os.Stdout
		if len(args) > 1 {
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return c.ExportCSV(ctx, out)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
