package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/oauth2"

	tea "github.com/charmbracelet/bubbletea"

	"climb-pacer/internal/auth"
	"climb-pacer/internal/config"
	"climb-pacer/internal/service"
	"climb-pacer/internal/store"
	"climb-pacer/internal/strava"
	"climb-pacer/internal/tui"
)

const usage = `usage: climb-pacer [command] [flags]

commands:
  tui            interactive planner (default)
  plan           print a pacing plan and optionally export it
  history        list or show saved plans
  login          connect a Strava account
  import-strava  copy FTP and weight from your Strava profile
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	ctx := context.Background()

	cmd := "tui"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	switch cmd {
	case "tui":
		return runTUI(ctx, cfg, db, args)
	case "plan":
		return runPlan(ctx, cfg, db, args)
	case "history":
		return runHistory(cfg, db, args)
	case "login":
		return authenticate(ctx, db, cfg)
	case "import-strava":
		return runImport(ctx, cfg, db)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// loadConfig reads the config file, creating an example one on first run
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Created a default config at %s/config.json\n", configDir)
		defaults := config.DefaultConfig()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, fmt.Errorf("%w\n\nPlease edit the config file at:\n  %s/config.json", err, configDir)
	}
	return cfg, nil
}

func runTUI(ctx context.Context, cfg *config.Config, db *store.DB, args []string) error {
	source := cfg.Course.Source
	if len(args) > 0 {
		source = args[0]
	}

	// The alternate screen owns stdout, so diagnostics go to a file
	if dir, err := config.GetConfigDir(); err == nil {
		if f, err := tea.LogToFile(dir+"/climb-pacer.log", ""); err == nil {
			defer f.Close()
		}
	}

	plans, err := newPlanService(ctx, cfg, db, log.Default(), source)
	if err != nil {
		return err
	}
	profile := service.NewProfileService(db, cfg.Rider)

	c, err := plans.ResolveCourse(ctx, source)
	if err != nil {
		return fmt.Errorf("loading course: %w", err)
	}
	rider, _, err := profile.Rider()
	if err != nil {
		return err
	}

	app := tui.NewApp(plans, profile, c, rider, tui.NewUnits(cfg.Display))
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// newPlanService creates the plan service, connecting Strava when the
// course is a Strava segment
func newPlanService(ctx context.Context, cfg *config.Config, db *store.DB, logger *log.Logger, source string) (*service.PlanService, error) {
	plans := service.NewPlanService(db, cfg, logger)
	if !strings.HasPrefix(source, service.StravaSegmentPrefix) {
		return plans, nil
	}

	client, err := stravaClient(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	return plans.WithSegments(client), nil
}

func oauthConfig(cfg *config.Config) *oauth2.Config {
	return auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
	})
}

// stravaClient builds an API client from the stored tokens, persisting
// refreshed tokens as they are issued
func stravaClient(ctx context.Context, cfg *config.Config, db *store.DB) (*strava.Client, error) {
	if err := cfg.ValidateStrava(); err != nil {
		return nil, err
	}

	storedAuth, err := db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		return nil, errors.New("not connected to Strava - run 'climb-pacer login' first")
	}
	if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  storedAuth.AccessToken,
		RefreshToken: storedAuth.RefreshToken,
		Expiry:       storedAuth.ExpiresAt,
	}
	tokenSource := auth.NewTokenSource(ctx, oauthConfig(cfg), token, func(newToken *oauth2.Token) error {
		return db.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
	})

	if _, err := tokenSource.Token(); err != nil {
		return nil, fmt.Errorf("stored Strava token is no longer valid, run 'climb-pacer login': %w", err)
	}
	return strava.NewClient(tokenSource), nil
}

func authenticate(ctx context.Context, db *store.DB, cfg *config.Config) error {
	if err := cfg.ValidateStrava(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Add your Strava API credentials to %s/config.json\n", configDir)
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return err
	}

	// The athlete is imported with the new token and stored with it, so the
	// callback page can show the FTP and weight that will be used
	profile := service.NewProfileService(db, cfg.Rider)
	connect := func(ctx context.Context, result *auth.AuthResult) (*auth.ImportedRider, error) {
		login := &store.Auth{
			AthleteID:    result.AthleteID,
			AccessToken:  result.Token.AccessToken,
			RefreshToken: result.Token.RefreshToken,
			ExpiresAt:    result.Token.Expiry,
		}
		client := strava.NewClient(oauth2.StaticTokenSource(result.Token))
		athlete, _, err := profile.ConnectStrava(ctx, client, login)
		if err != nil {
			return nil, fmt.Errorf("importing athlete: %w", err)
		}
		return &auth.ImportedRider{
			AthleteName: strings.TrimSpace(athlete.Firstname + " " + athlete.Lastname),
			FTP:         athlete.FTP,
			Weight:      athlete.Weight,
		}, nil
	}

	result, err := auth.Authenticate(ctx, oauthConfig(cfg), os.Stdout, connect)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Successfully authenticated as athlete %d!\n", result.AthleteID)
	rider, _, err := profile.Rider()
	if err != nil {
		return err
	}
	if r := result.Rider; r == nil || (r.FTP <= 0 && r.Weight <= 0) {
		fmt.Println("Your Strava profile has no FTP or weight set; keeping your current rider.")
	}
	fmt.Printf("Rider: FTP %.0f W, weight %.1f kg, W′ %.0f J\n", rider.FTP, rider.BodyMass, rider.WPrime)
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, db *store.DB) error {
	client, err := stravaClient(ctx, cfg, db)
	if err != nil {
		return err
	}

	profile := service.NewProfileService(db, cfg.Rider)
	rider, err := profile.ImportFromStrava(ctx, client)
	if errors.Is(err, service.ErrNoStravaData) {
		fmt.Println("Your Strava profile has no FTP or weight set. Nothing imported.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("importing from Strava: %w", err)
	}

	fmt.Printf("Imported rider: FTP %.0f W, weight %.1f kg, W′ %.0f J\n", rider.FTP, rider.BodyMass, rider.WPrime)
	return nil
}
