package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newHealthCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the AI services",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := newClient(v).AIHealth(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overall: %s\n", report.OverallStatus)

			names := make([]string, 0, len(report.Services))
			for name := range report.Services {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				svc := report.Services[name]
				fmt.Fprintf(out, "  %s (%s): %s", name, svc.URL, svc.Status)
				if svc.Error != "" {
					fmt.Fprintf(out, " - %s", svc.Error)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
