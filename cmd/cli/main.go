package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/spendsense/infra"
	infra_repository "github.com/amirasaad/spendsense/infra/repository"
	"github.com/amirasaad/spendsense/infra/repository/memory"
	"github.com/amirasaad/spendsense/internal/fixtures/dataset"
	"github.com/amirasaad/spendsense/pkg/app"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/guardrail"
	"github.com/amirasaad/spendsense/pkg/middleware"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/amirasaad/spendsense/pkg/service/insight"
	log "github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

const usage = `Usage: cli [flags] <command> [user_id]
Commands:
  personas            assign a persona to every demo user
  profile <user_id>   show persona, rationale and decision trace
  offers <user_id>    check the demo offer catalog against the user
  recommend <user_id> persist the eligible demo offers for the user
  token <user_id>     print a JWT for the user (needs AUTH_JWT_SECRET)
Flags:
`

var (
	title   = color.New(color.FgCyan, color.Bold)
	pass    = color.New(color.FgGreen)
	fail    = color.New(color.FgRed)
	muted   = color.New(color.FgHiBlack)
	warning = color.New(color.FgYellow)
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fail.Fprintln(os.Stderr, "Error:", err) //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	driver := fs.String("driver", infra.DriverMemory, "storage driver: memory, sqlite or postgres")
	url := fs.String("url", "", "database url for sqlite or postgres")
	jsonOut := fs.Bool("json", false, "print the decision trace as JSON")
	verbose := fs.Bool("v", false, "log analyzer activity to stderr")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage) //nolint:errcheck
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	level := log.WarnLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := slog.New(log.NewWithOptions(stderr, log.Options{Level: level, Prefix: "[spendsense]"}))

	store, err := openStore(ctx, *driver, *url)
	if err != nil {
		return err
	}
	cfg := &config.App{Analysis: config.DefaultAnalysis(), Guardrail: &config.Guardrail{}}
	svc := app.New(&app.Deps{Store: store, Logger: logger}, cfg).InsightService

	cmd := fs.Arg(0)
	if cmd == "personas" {
		return personas(ctx, svc, stdout)
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%s needs a user id", cmd)
	}
	userID, err := uuid.Parse(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", fs.Arg(1), err)
	}

	switch cmd {
	case "profile":
		return profile(ctx, svc, userID, *jsonOut, stdout)
	case "offers":
		return offers(ctx, svc, userID, stdout)
	case "recommend":
		return recommend(ctx, svc, userID, stdout)
	case "token":
		jwtCfg := &config.Jwt{Secret: os.Getenv("AUTH_JWT_SECRET"), Expiry: 24 * time.Hour}
		token, err := middleware.GenerateToken(jwtCfg, userID, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, token) //nolint:errcheck
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func openStore(ctx context.Context, driver, url string) (repository.Store, error) {
	if strings.EqualFold(driver, infra.DriverMemory) {
		store := memory.New()
		if _, err := dataset.Load(ctx, store, time.Now()); err != nil {
			return nil, fmt.Errorf("load demo dataset: %w", err)
		}
		return store, nil
	}
	db, err := infra.NewDBConnection(&config.DB{Driver: driver, Url: url}, "production")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return infra_repository.New(db), nil
}

func personas(ctx context.Context, svc *insight.Service, w io.Writer) error {
	users := []uuid.UUID{
		dataset.HighUtilizationUser,
		dataset.VariableIncomeUser,
		dataset.SubscriptionUser,
		dataset.SavingsBuilderUser,
		dataset.NewUser,
	}
	for _, id := range users {
		a, err := svc.AssignPersonaToUser(ctx, id)
		if err != nil {
			return err
		}
		title.Fprintf(w, "%-36s ", id)          //nolint:errcheck
		fmt.Fprintln(w, a.Persona.Name)         //nolint:errcheck
		muted.Fprintf(w, "  %s\n", a.Rationale) //nolint:errcheck
	}
	return nil
}

func profile(ctx context.Context, svc *insight.Service, userID uuid.UUID, asJSON bool, w io.Writer) error {
	a, err := svc.AssignPersonaToUser(ctx, userID)
	if err != nil {
		return err
	}
	if asJSON {
		raw, err := a.Trace.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(raw)) //nolint:errcheck
		return nil
	}
	title.Fprintf(w, "%s (%s)\n", a.Persona.Name, a.Persona.ID) //nolint:errcheck
	fmt.Fprintln(w, a.Rationale)                                //nolint:errcheck
	fmt.Fprintln(w, a.Trace.SelectionReason)                    //nolint:errcheck
	for _, s := range a.Trace.Signals {
		state := pass.Sprint("meets threshold")
		if !s.MeetsThreshold {
			state = muted.Sprint("below threshold")
		}
		if !s.Available {
			state = warning.Sprintf("unavailable: %s", s.Error)
		}
		fmt.Fprintf(w, "  %-13s %s\n", s.Family, state) //nolint:errcheck
	}
	if !a.Consent {
		warning.Fprintln(w, "consent not granted; recommendations are disabled") //nolint:errcheck
	}
	return nil
}

func offers(ctx context.Context, svc *insight.Service, userID uuid.UUID, w io.Writer) error {
	catalog, err := dataset.Offers()
	if err != nil {
		return err
	}
	for _, o := range catalog {
		res, err := svc.CheckOfferEligibility(ctx, userID, o)
		if err != nil {
			return err
		}
		printEligibility(w, o.Title, res)
	}
	return nil
}

func printEligibility(w io.Writer, name string, res *guardrail.EligibilityResult) {
	if res.IsEligible {
		pass.Fprintf(w, "✓ %s\n", name) //nolint:errcheck
		return
	}
	fail.Fprintf(w, "✗ %s\n", name) //nolint:errcheck
	for _, d := range res.Disqualifiers {
		muted.Fprintf(w, "    %s\n", d) //nolint:errcheck
	}
}

func recommend(ctx context.Context, svc *insight.Service, userID uuid.UUID, w io.Writer) error {
	catalog, err := dataset.Offers()
	if err != nil {
		return err
	}
	out, err := svc.Recommend(ctx, userID, catalog)
	if err != nil {
		return err
	}
	title.Fprintf(w, "%s\n", out.Persona.Name) //nolint:errcheck
	for _, rec := range out.Saved {
		pass.Fprintf(w, "saved %s (%s)\n", rec.Title, rec.OfferID) //nolint:errcheck
	}
	for _, r := range out.Rejected {
		printEligibility(w, r.OfferID, r)
	}
	return nil
}
