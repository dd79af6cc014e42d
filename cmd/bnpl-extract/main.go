package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/schema"
)

func main() {
	var (
		modeStr = flag.String("mode", string(constants.ModeScored), "extraction mode: legacy or scored")
		pretty  = flag.Bool("pretty", false, "indent the JSON output")
		verbose = flag.Bool("v", false, "log at debug level to stderr")
	)
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := common.NewLogger(common.LoggingConfig{Level: level, Format: "text"}, os.Stderr)

	mode, ok := constants.ParseMode(*modeStr)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: --mode must be one of %v\n", constants.Modes)
		os.Exit(2)
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read stdin: %v\n", err)
		os.Exit(1)
	}

	res, err := core.NewProcessor(logger).Process(context.Background(), string(raw), mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(res, "", "  ")
	} else {
		out, err = json.Marshal(res)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode result: %v\n", err)
		os.Exit(1)
	}
	if err := schema.Validate(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: result does not match schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
