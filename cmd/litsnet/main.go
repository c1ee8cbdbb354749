// Command litsnet exports, inspects and queries LITSNet models.
//
// Usage:
//
//	litsnet [-v=N] export  [-config f] [-out path] [-seed n] [-format born|onnx] [-reproducible] [-upload loc]
//	litsnet [-v=N] inspect -model path|gs://bucket/key
//	litsnet [-v=N] predict -model path|gs://bucket/key [-board notation] [-to-move X|O] [-top n] [-temperature t] [-seed n]
//	litsnet version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, flag.Args())
	stop()
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: litsnet [flags] <command> [command flags]

Commands:
  export   build a freshly initialized network and write the template artifact
  inspect  print the header, tensors and graph of an artifact
  predict  rank the legal moves of a position
  version  print the version

Flags:
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "export":
		return runExport(ctx, rest)
	case "inspect":
		return runInspect(ctx, rest)
	case "predict":
		return runPredict(ctx, rest)
	case "version":
		return runVersion()
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
