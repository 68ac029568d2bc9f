package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/cli/output"
	"github.com/onehub-labs/onehub/internal/llm"
	"github.com/onehub-labs/onehub/internal/store"
)

// NewProvidersCommand creates the providers command group.
func NewProvidersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Manage LLM provider configurations",
		Long: `Manage the LLM provider configurations the chat features use.

Only the configuration is handled here; no provider is ever called.`,
	}

	cmd.AddCommand(newProvidersListCommand())
	cmd.AddCommand(newProvidersAddCommand())
	cmd.AddCommand(newProvidersRemoveCommand())
	cmd.AddCommand(newProvidersEnableCommand(true))
	cmd.AddCommand(newProvidersEnableCommand(false))

	return cmd
}

func newProvidersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			providers, err := cmdCtx.Store.ListProviders(cmd.Context())
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				// API keys stay out of machine output.
				redacted := make([]*store.Provider, 0, len(providers))
				for _, p := range providers {
					cp := *p
					if cp.APIKey != nil && *cp.APIKey != "" {
						masked := "********"
						cp.APIKey = &masked
					}
					redacted = append(redacted, &cp)
				}
				return r.JSON(redacted)
			}

			r.Header(1, fmt.Sprintf("LLM providers (%d total)", len(providers)))
			if len(providers) == 0 {
				r.Muted("No providers configured.")
				return nil
			}
			for _, p := range providers {
				state := "enabled"
				if !p.Enabled {
					state = "disabled"
				}
				t, err := llm.ParseProviderType(p.ProviderType)
				display := p.ProviderType
				if err == nil {
					display = t.DisplayName()
				}
				r.Printf("  %-24s %s\n", p.Name,
					r.Styles().Muted.Render(fmt.Sprintf("%s / %s (%s)", display, p.Model, state)))
			}
			return nil
		},
	}
}

func newProvidersAddCommand() *cobra.Command {
	var (
		providerType string
		model        string
		apiKey       string
		apiBase      string
		maxTokens    int
		temperature  float64
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a provider configuration",
		Example: `  onehub providers add work --type deepseek --model deepseek-chat --api-key sk-...
  onehub providers add local --type ollama --model llama3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := llm.ParseProviderType(providerType)
			if err != nil {
				return err
			}

			rec := &store.Provider{
				Name:         args[0],
				ProviderType: string(t),
				Model:        model,
				Enabled:      true,
			}
			if apiKey != "" {
				rec.APIKey = &apiKey
			}
			if apiBase != "" {
				rec.APIBase = &apiBase
			}
			if cmd.Flags().Changed("max-tokens") {
				rec.MaxTokens = &maxTokens
			}
			if cmd.Flags().Changed("temperature") {
				rec.Temperature = &temperature
			}

			cfg, err := llm.ConfigFromRecord(rec)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := cmdCtx.Store.CreateProvider(cmd.Context(), rec); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Added provider %q (%s, %s)", rec.Name, t.DisplayName(), rec.Model))
			return nil
		},
	}

	typeNames := make([]string, 0, len(llm.ProviderTypes()))
	for _, t := range llm.ProviderTypes() {
		typeNames = append(typeNames, string(t))
	}

	cmd.Flags().StringVarP(&providerType, "type", "t", "", "Provider type ("+strings.Join(typeNames, "|")+")")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&apiBase, "api-base", "", "API base URL (overrides the provider default)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Response token limit")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature (0-2)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("model")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return typeNames, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newProvidersRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a provider configuration",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			rec, err := findProviderByName(cmd, cmdCtx, args[0])
			if err != nil {
				return err
			}
			if err := cmdCtx.Store.DeleteProvider(ctx, rec.ID); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Removed provider %q", rec.Name))
			return nil
		},
	}
}

func newProvidersEnableCommand(enable bool) *cobra.Command {
	use, short, done := "enable <name>", "Enable a provider", "Enabled"
	if !enable {
		use, short, done = "disable <name>", "Disable a provider", "Disabled"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := findProviderByName(cmd, cmdCtx, args[0])
			if err != nil {
				return err
			}
			if err := cmdCtx.Store.SetProviderEnabled(cmd.Context(), rec.ID, enable); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("%s provider %q", done, rec.Name))
			return nil
		},
	}
}

// findProviderByName resolves a provider by name, falling back to ID.
// Provider names are not unique in the schema, so the first match wins.
func findProviderByName(cmd *cobra.Command, cmdCtx *CommandContext, ref string) (*store.Provider, error) {
	ctx := cmd.Context()
	providers, err := cmdCtx.Store.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range providers {
		if p.Name == ref {
			return p, nil
		}
	}
	rec, err := cmdCtx.Store.GetProvider(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", ref, err)
	}
	return rec, nil
}
