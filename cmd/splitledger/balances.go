package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/identity"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
)

func balancesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "balances <group-id>",
		Short: "Print a group's balances and suggested settlements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.New(a.cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			group, err := store.GetGroup(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load group %s: %w", args[0], err)
			}

			resolver := identity.NewResolver(store, identity.WithLogger(a.logger))
			resp, err := service.BuildGroupBalances(cmd.Context(), group, resolver)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			renderBalances(cmd.OutOrStdout(), group, resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}

func renderBalances(w io.Writer, group *models.Group, resp *api.GetGroupBalancesResponse) {
	var b strings.Builder

	b.WriteString(titleStyle.Render(group.Name))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  %d expenses, %s total", len(group.Expenses), resp.TotalSpentFormatted)))
	b.WriteString("\n\n")

	width := 0
	for _, e := range resp.Balances {
		width = max(width, lipgloss.Width(e.DisplayName))
	}
	for _, e := range resp.Balances {
		b.WriteString(nameStyle.Width(width + 2).Render(e.DisplayName))
		b.WriteString(balanceStyle(e.Status).Render(e.Formatted))
		if e.Pending {
			b.WriteString(subtleStyle.Render("  (invited)"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if resp.AllSettled {
		b.WriteString(owedStyle.Render("Everyone is settled up."))
		b.WriteString("\n")
	} else {
		for _, s := range resp.Suggestions {
			fmt.Fprintf(&b, "%s %s\n", s.Text, s.Formatted)
		}
	}

	if len(resp.SkippedExpenses) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("%d expenses reference unknown participants and were skipped", len(resp.SkippedExpenses))))
		b.WriteString("\n")
	}

	_, _ = io.WriteString(w, b.String())
}

func balanceStyle(status string) lipgloss.Style {
	switch status {
	case api.StatusOwed:
		return owedStyle
	case api.StatusOwes:
		return owesStyle
	default:
		return subtleStyle
	}
}
