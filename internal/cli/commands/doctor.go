package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/cli/output"
	"github.com/onehub-labs/onehub/internal/config"
	"github.com/onehub-labs/onehub/internal/store"
	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a comprehensive setup health check",
		Long: `Check the OneHub setup for problems.

The doctor command inspects the configuration, the metadata store, the
registered database backends and every stored connection, and reports:
- Health checks grouped by category (config, store, plugins, connections)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  onehub doctor

  # Output as JSON
  onehub doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         SetupSummary  `json:"summary"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// SetupSummary contains store-level statistics.
type SetupSummary struct {
	Workspaces  int   `json:"workspaces"`
	Connections int   `json:"connections"`
	Queries     int   `json:"queries"`
	Providers   int   `json:"providers"`
	Plugins     int   `json:"plugins"`
	SchemaVer   int64 `json:"schema_version"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	doctorOutput := buildDoctorOutput(cmd.Context(), cmdCtx)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

func buildDoctorOutput(ctx context.Context, cmdCtx *CommandContext) *DoctorOutput {
	var (
		summary SetupSummary
		checks  []HealthCheck
	)

	checks = append(checks, checkConfig(cmdCtx.Cfg)...)

	storeChecks, st := checkStore(cmdCtx)
	checks = append(checks, storeChecks...)

	checks = append(checks, checkPlugins())
	summary.Plugins = len(plugin.ListPlugins())

	if st != nil {
		defer func() { _ = st.Close() }()
		fillSummary(ctx, st, &summary)
		checks = append(checks, checkConnections(ctx, cmdCtx, st)...)
	}

	issueCount := 0
	for _, c := range checks {
		issueCount += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issueCount,
	}
}

func checkConfig(cfg *config.Config) []HealthCheck {
	var checks []HealthCheck

	fileCheck := HealthCheck{Name: "Config file", Group: "config", Status: "pass"}
	if path := config.ConfigFileUsed(); path != "" {
		fileCheck.Details = []string{path}
	} else {
		fileCheck.Status = "warn"
		fileCheck.IssueCount = 1
		fileCheck.Details = []string{"no onehub.yaml found, running on defaults"}
	}
	checks = append(checks, fileCheck)

	valueCheck := HealthCheck{Name: "Config values", Group: "config", Status: "pass"}
	if err := cfg.Validate(); err != nil {
		valueCheck.Status = "error"
		valueCheck.IssueCount = 1
		valueCheck.Details = []string{err.Error()}
	}
	checks = append(checks, valueCheck)

	return checks
}

// checkStore opens the metadata store; the handle is returned so the
// connection checks can reuse it, nil when opening failed.
func checkStore(cmdCtx *CommandContext) ([]HealthCheck, *store.Store) {
	check := HealthCheck{Name: "Metadata store", Group: "store", Status: "pass"}

	st, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		check.Status = "error"
		check.IssueCount = 1
		check.Details = []string{err.Error()}
		return []HealthCheck{check}, nil
	}
	check.Details = []string{cmdCtx.Cfg.StorePath}

	schemaCheck := HealthCheck{Name: "Schema version", Group: "store", Status: "pass"}
	version, err := st.MigrationVersion()
	if err != nil {
		schemaCheck.Status = "error"
		schemaCheck.IssueCount = 1
		schemaCheck.Details = []string{err.Error()}
	} else {
		schemaCheck.Details = []string{fmt.Sprintf("version %d", version)}
	}

	return []HealthCheck{check, schemaCheck}, st
}

func checkPlugins() HealthCheck {
	check := HealthCheck{Name: "Database backends", Group: "plugins", Status: "pass"}
	plugins := plugin.ListPlugins()
	if len(plugins) == 0 {
		check.Status = "error"
		check.IssueCount = 1
		check.Details = []string{"no backends registered"}
		return check
	}
	check.Details = []string{strings.Join(plugins, ", ")}
	return check
}

// checkConnections dial-tests every stored database connection.
func checkConnections(ctx context.Context, cmdCtx *CommandContext, st *store.Store) []HealthCheck {
	conns, err := st.ListConnections(ctx)
	if err != nil {
		return []HealthCheck{{
			Name: "Stored connections", Group: "connections",
			Status: "error", IssueCount: 1, Details: []string{err.Error()},
		}}
	}
	if len(conns) == 0 {
		return []HealthCheck{{
			Name: "Stored connections", Group: "connections",
			Status:  "pass",
			Details: []string{"none stored"},
		}}
	}

	checks := make([]HealthCheck, 0, len(conns))
	for _, rec := range conns {
		check := HealthCheck{Name: rec.Name, Group: "connections", Status: "pass"}

		cfg, err := databaseConfig(rec)
		if err != nil {
			check.Status = "warn"
			check.IssueCount = 1
			check.Details = []string{err.Error()}
			checks = append(checks, check)
			continue
		}

		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		start := time.Now()
		err = dialAndPing(dialCtx, cmdCtx, cfg)
		cancel()
		if err != nil {
			check.Status = "error"
			check.IssueCount = 1
			check.Details = []string{err.Error()}
		} else {
			check.Details = []string{fmt.Sprintf("%s, %s", cfg.Type, time.Since(start).Round(time.Millisecond))}
		}
		checks = append(checks, check)
	}
	return checks
}

func fillSummary(ctx context.Context, st *store.Store, summary *SetupSummary) {
	if ws, err := st.ListWorkspaces(ctx); err == nil {
		summary.Workspaces = len(ws)
	}
	if conns, err := st.ListConnections(ctx); err == nil {
		summary.Connections = len(conns)
	}
	if queries, err := st.ListQueries(ctx); err == nil {
		summary.Queries = len(queries)
	}
	if providers, err := st.ListProviders(ctx); err == nil {
		summary.Providers = len(providers)
	}
	if version, err := st.MigrationVersion(); err == nil {
		summary.SchemaVer = version
	}
}

// calculateHealthScore computes a health score from 0-100. Errors count
// double; the score never goes below zero.
func calculateHealthScore(checks []HealthCheck) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * 20
		case "warn":
			score -= float64(check.IssueCount) * 10
		}
	}

	if score < 0 {
		score = 0
	}
	return int(score)
}

// generateRecommendations creates actionable recommendations based on
// findings, at most one per category.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		rec := getRecommendation(check)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

func getRecommendation(check HealthCheck) string {
	switch check.Group {
	case "config":
		if check.Name == "Config file" {
			return "Create an onehub.yaml to pin the store path and server address"
		}
		return "Fix the invalid config values reported above"
	case "store":
		return "Check that the store path is writable and not corrupted"
	case "plugins":
		return "Import the backend packages so they register themselves"
	case "connections":
		return "Verify host, port and credentials of the failing connections (onehub connections test <name>)"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("OneHub Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Summary"))
	r.Printf("   Workspaces: %d | Connections: %d | Queries: %d | Providers: %d\n",
		out.Summary.Workspaces, out.Summary.Connections, out.Summary.Queries, out.Summary.Providers)
	r.Printf("   Backends: %d | Schema version: %d\n", out.Summary.Plugins, out.Summary.SchemaVer)
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		}

		r.Println(fmt.Sprintf("   %s %s", icon, check.Name))
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# OneHub Health Report")
	r.Println("")

	r.Println("## Summary")
	r.Println("")
	r.Printf("- **Workspaces**: %d\n", out.Summary.Workspaces)
	r.Printf("- **Connections**: %d\n", out.Summary.Connections)
	r.Printf("- **Queries**: %d\n", out.Summary.Queries)
	r.Printf("- **Providers**: %d\n", out.Summary.Providers)
	r.Printf("- **Backends**: %d\n", out.Summary.Plugins)
	r.Printf("- **Schema version**: %d\n", out.Summary.SchemaVer)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s", status, check.Name)
		r.Println("")
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

// dialAndPing round-trips one connection through its backend.
func dialAndPing(ctx context.Context, cmdCtx *CommandContext, cfg core.Config) error {
	p, err := plugin.New(cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	conn, err := p.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return conn.Ping(ctx)
}
