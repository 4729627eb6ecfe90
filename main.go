package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/pkg/errors"

	"gemsweep/console"
	"gemsweep/record"
	"gemsweep/report"
	"gemsweep/sweep"
)

var (
	// FlagConfig is a YAML sweep plan
	FlagConfig = flag.String("config", "", "sweep plan (yaml)")
	// FlagPreset is a built-in plan, mmd or wasserstein
	FlagPreset = flag.String("preset", "", "built-in plan: mmd or wasserstein")
	FlagData   = flag.String("data", "", "override the data csv")
	FlagOutput = flag.String("output", "", "override the results jsonl")
	FlagLabels = flag.String("labels", "", "override the labels directory")
	// FlagReport renders an existing results file instead of sweeping
	FlagReport = flag.String("report", "", "results jsonl to render")
	FlagOut    = flag.String("out", "report", "directory for -report output")
	FlagDebug  = flag.Bool("debug", false, "debug logging")
)

func plan() (sweep.Plan, error) {
	var (
		p   sweep.Plan
		err error
	)
	switch {
	case *FlagConfig != "" && *FlagPreset != "":
		return p, errors.New("-config and -preset are exclusive")
	case *FlagConfig != "":
		p, err = sweep.LoadPlan(*FlagConfig)
	case *FlagPreset != "":
		p, err = sweep.Preset(*FlagPreset)
	default:
		return p, errors.New("one of -config, -preset or -report is required")
	}
	if err != nil {
		return p, err
	}
	if *FlagData != "" {
		p.Data = *FlagData
	}
	if *FlagOutput != "" {
		p.Output = *FlagOutput
	}
	if *FlagLabels != "" {
		p.LabelsDir = *FlagLabels
	}
	return p, p.Validate()
}

func main() {
	flag.Parse()

	log := console.Default()
	log.SetDebug(*FlagDebug)

	if *FlagReport != "" {
		results, err := record.ReadResults(*FlagReport)
		if err != nil {
			log.Error("%v", err)
			os.Exit(1)
		}
		if err := report.Render(results, *FlagOut, os.Stdout); err != nil {
			log.Error("%v", err)
			os.Exit(1)
		}
		log.Saved("Report written to: %s", *FlagOut)
		return
	}

	p, err := plan()
	if err != nil {
		log.Error("%v", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if _, err := sweep.Run(ctx, p, sweep.WithLogger(log)); err != nil {
		log.Error("sweep aborted: %v", err)
		stop()
		os.Exit(1)
	}
}
