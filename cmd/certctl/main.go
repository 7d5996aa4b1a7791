package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/app"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/apperr"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/audit"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/auth"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/certificate"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/config"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/logger"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/render"
)

var (
	configPath string
	cfg        config.App
)

var rootCmd = &cobra.Command{
	Use:   "certctl",
	Short: "Certificate issuance and verification tool",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := os.Setenv("CONFIG_FILE", configPath); err != nil {
				return err
			}
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a certificate and write the PDF",
	RunE:  issueCertificate,
}

var verifyCmd = &cobra.Command{
	Use:   "verify CODE [CODE...]",
	Short: "Verify certificate codes, marking found ones as verified",
	Args:  cobra.MinimumNArgs(1),
	RunE:  verifyCodes,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup CODE",
	Short: "Show a stored record without verifying it",
	Args:  cobra.ExactArgs(1),
	RunE:  lookupCode,
}

var eventsCmd = &cobra.Command{
	Use:   "events CODE",
	Short: "List recorded events for a code",
	Args:  cobra.ExactArgs(1),
	RunE:  listEvents,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin API token",
	RunE:  issueToken,
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Check that the template and font are reachable",
	RunE:  checkAssets,
}

var (
	applicant  certificate.Applicant
	outPath    string
	subject    string
	tokenTTL   time.Duration
	eventLimit int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file path")

	issueCmd.Flags().StringVar(&applicant.Name, "name", "", "Full name (required)")
	issueCmd.Flags().StringVar(&applicant.Email, "email", "", "Email address (required)")
	issueCmd.Flags().StringVar(&applicant.Phone, "phone", "", "Ten digit phone number (required)")
	issueCmd.Flags().StringVar(&applicant.College, "college", "", "College name (required)")
	issueCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (defaults to the configured filename)")
	issueCmd.MarkFlagRequired("name")
	issueCmd.MarkFlagRequired("email")
	issueCmd.MarkFlagRequired("phone")
	issueCmd.MarkFlagRequired("college")

	tokenCmd.Flags().StringVar(&subject, "subject", "admin", "Token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to ADMIN_TOKEN_TTL)")

	eventsCmd.Flags().IntVar(&eventLimit, "limit", 50, "Maximum number of events")

	rootCmd.AddCommand(issueCmd, verifyCmd, lookupCmd, eventsCmd, tokenCmd, assetsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initApp(ctx context.Context) (*app.App, error) {
	zlog, err := logger.New(cfg.Env, "warn")
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, zlog)
}

func issueCertificate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	issued, err := a.Service.Issue(ctx, applicant)
	if err != nil {
		if v, ok := certificate.AsValidation(err); ok {
			for field, msg := range v.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
			return fmt.Errorf("validation failed")
		}
		return fmt.Errorf("%s: %w", apperr.UserMessage(err), err)
	}

	path := outPath
	if path == "" {
		path = cfg.CertificateFilename
	}
	if err := os.WriteFile(path, issued.Document.Bytes, 0o644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}

	fmt.Printf("Code:  %s\n", issued.Record.Code)
	fmt.Printf("File:  %s (%s)\n", path, issued.Document.Mode)
	if issued.Document.FontFallback {
		fmt.Println("Font:  fallback")
	}
	return nil
}

func verifyCodes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	session := certificate.NewVerifySession(a.Service)
	failed := 0
	for _, code := range args {
		state, err := session.Submit(ctx, code)
		res, _ := session.Result()
		switch state {
		case certificate.StateValid:
			fmt.Printf("%s  %s\n", code, res)
		case certificate.StateError:
			failed++
			fmt.Printf("%s  error: %s\n", code, apperr.MsgVerifyFailed)
			fmt.Fprintln(os.Stderr, err)
		default:
			failed++
			fmt.Printf("%s  %s\n", code, state)
		}
		session.Reset()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d codes did not verify", failed, len(args))
	}
	return nil
}

func lookupCode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Service.Lookup(ctx, args[0])
	switch res.Status {
	case certificate.StatusFound:
		r := res.Record
		fmt.Printf("Code:      %s\nName:      %s\nEmail:     %s\nPhone:     %s\nCollege:   %s\nGenerated: %s\nVerified:  %t\n",
			r.Code, r.Name, r.Email, r.Phone, r.College, r.GeneratedDate.Format(time.RFC3339), r.Verified)
		if r.VerifiedDate != nil {
			fmt.Printf("Checked:   %s\n", r.VerifiedDate.Format(time.RFC3339))
		}
		return nil
	case certificate.StatusNotFound:
		return fmt.Errorf("certificate %s not found", args[0])
	default:
		return fmt.Errorf("lookup failed: %w", res.Err)
	}
}

func listEvents(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	db, err := a.OpenDB(ctx)
	if err != nil {
		return err
	}
	events, err := audit.NewRepository(db.Client).ListByCode(ctx, args[0], eventLimit)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	if len(events) == 0 {
		fmt.Println("No events found")
		return nil
	}
	fmt.Printf("%-25s %-22s %s\n", "WHEN", "TYPE", "DETAIL")
	for _, e := range events {
		fmt.Printf("%-25s %-22s %s\n", e.At.Format(time.RFC3339), e.Type, e.Detail)
	}
	return nil
}

func issueToken(cmd *cobra.Command, args []string) error {
	ttl := tokenTTL
	if ttl == 0 {
		ttl = cfg.AdminTokenTTL
	}
	tok, err := auth.Issue(subject, auth.RoleAdmin, cfg.JWTIssuer, cfg.JWTSigningKey, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	fmt.Println(tok.Value)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.ExpiresAt.Format(time.RFC3339))
	return nil
}

func checkAssets(cmd *cobra.Command, args []string) error {
	client := render.NewHTTPClient(cfg.AssetTimeout)
	r := render.New(render.Options{
		Template: render.NewSource(cfg.TemplateURL, client),
		Font:     render.NewSource(cfg.FontURL, client),
	})
	statuses := r.CheckAssets(cmd.Context())
	for _, st := range statuses {
		mark := "ok"
		if !st.Accessible {
			mark = "FAILED: " + st.Error
		}
		fmt.Printf("%-13s %-40s %s\n", st.Name, st.Location, mark)
	}
	if missing := render.Inaccessible(statuses); len(missing) > 0 {
		return fmt.Errorf("%d asset(s) not accessible, certificates will use fallback mode", len(missing))
	}
	return nil
}
