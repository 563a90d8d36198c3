package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/dkeye/Desk/internal/domain"
)

func sessionsCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List public sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			hc := &http.Client{Timeout: 5 * time.Second}
			resp, err := hc.Get(strings.TrimRight(server, "/") + "/api/sessions")
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("list sessions: %s", resp.Status)
			}

			var body struct {
				Sessions []domain.SessionSummary `json:"sessions"`
			}
			if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("decode sessions: %w", err)
			}
			for _, s := range body.Sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%-44s %-24s users=%d host=%s\n", s.ID, s.Name, s.UserCount, s.HostID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "Server base URL")
	return cmd
}
