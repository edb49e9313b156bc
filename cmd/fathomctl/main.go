// fathomctl starts a research session against a running Fathom worker and
// waits for the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"

	"github.com/fathomlabs/fathom/internal/synthesis"
	"github.com/fathomlabs/fathom/internal/workflows"
)

func main() {
	var (
		topic     = flag.String("topic", "", "research topic (required)")
		mode      = flag.String("mode", "balanced", "research mode: speed, balanced, or quality")
		hostPort  = flag.String("temporal", "localhost:7233", "Temporal server host:port")
		namespace = flag.String("namespace", "default", "Temporal namespace")
		timeout   = flag.Duration("timeout", 30*time.Minute, "overall session timeout")
		format    = flag.String("format", "summary", "output format: summary, json, or yaml")
	)
	flag.Parse()

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "usage: fathomctl -topic \"your topic\" [-mode balanced] [-format json]")
		os.Exit(2)
	}

	c, err := client.Dial(client.Options{HostPort: *hostPort, Namespace: *namespace})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial temporal: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "research-" + uuid.NewString(),
		TaskQueue: workflows.TaskQueue,
	}, "ResearchWorkflow", workflows.ResearchInput{
		Topic: *topic,
		Mode:  *mode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start workflow: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "started %s (run %s)\n", run.GetID(), run.GetRunID())

	var report synthesis.Report
	if err := run.Get(ctx, &report); err != nil {
		fmt.Fprintf(os.Stderr, "workflow failed: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
			os.Exit(1)
		}
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
	default:
		fmt.Println(report.Summary)
	}
}
