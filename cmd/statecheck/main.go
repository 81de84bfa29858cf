// Command statecheck loads a persisted ticketdesk dataset without modifying
// it and evaluates every domain rule over the whole dataset. It exits with
// status 1 when a blocking violation is found and 2 on usage or load errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"ticketdesk/internal/config"
	"ticketdesk/internal/core"
	"ticketdesk/internal/docstore"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// readOnlyMedium drops writes so that load-time migrations never reach the
// inspected dataset.
type readOnlyMedium struct {
	docstore.Medium
}

func (readOnlyMedium) Set(context.Context, string, []byte) error { return nil }

func (readOnlyMedium) Delete(context.Context, string) error { return nil }

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("statecheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var envFile, driver, fsRoot string
	var warnings bool
	fs.StringVar(&envFile, "env", "", "optional .env file to load before reading the environment")
	fs.StringVar(&driver, "driver", "", "storage driver override (memory, fs, sqlite, postgres, s3, redis)")
	fs.StringVar(&fsRoot, "fs-root", "", "document directory override for the fs driver")
	fs.BoolVar(&warnings, "warnings", true, "also print non-blocking violations")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			fmt.Fprintf(stderr, "statecheck: %v\n", err)
			return 2
		}
	}
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		fmt.Fprintf(stderr, "statecheck: %v\n", err)
		return 2
	}
	if driver != "" {
		cfg.Storage.Driver = driver
	}
	if fsRoot != "" {
		cfg.Storage.FSRoot = fsRoot
	}
	cfg.Storage.QuotaBytes = 0
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "statecheck: %v\n", err)
		return 2
	}

	res, err := check(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(stderr, "statecheck: %v\n", err)
		return 2
	}
	return report(res, warnings, stdout)
}

func check(ctx context.Context, cfg config.Config) (core.Result, error) {
	medium, err := docstore.Open(ctx, cfg.Storage, zap.NewNop())
	if err != nil {
		return core.Result{}, fmt.Errorf("open storage: %w", err)
	}
	defer medium.Close()

	engine := core.NewDefaultRulesEngine()
	store := core.NewStore(engine,
		core.WithAdapter(docstore.NewAdapter(readOnlyMedium{medium})),
		core.WithPasswordHasher(core.NewPasswordHasher(cfg.Auth.BcryptCost)),
	)
	if err := store.Load(ctx); err != nil {
		return core.Result{}, fmt.Errorf("load state: %w", err)
	}
	var res core.Result
	err = store.View(ctx, func(view core.TransactionView) error {
		var evalErr error
		res, evalErr = engine.Evaluate(ctx, view, core.FullScanChanges(view))
		return evalErr
	})
	return res, err
}

func report(res core.Result, warnings bool, out io.Writer) int {
	violations := append([]core.Violation(nil), res.Violations...)
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Rule != violations[j].Rule {
			return violations[i].Rule < violations[j].Rule
		}
		return violations[i].EntityID < violations[j].EntityID
	})
	blocking := 0
	for _, v := range violations {
		if v.Severity == core.SeverityBlock {
			blocking++
		} else if !warnings {
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s/%s\t%s\n", v.Severity, v.Rule, v.Entity, v.EntityID, v.Message)
	}
	fmt.Fprintf(out, "%d violation(s), %d blocking\n", len(violations), blocking)
	if blocking > 0 {
		return 1
	}
	return 0
}
