package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pomodoro/timerd/internal/model"
)

type statsReport struct {
	Email   string             `json:"email" yaml:"email"`
	Day     model.DailyStats   `json:"day" yaml:"day"`
	Week    []model.DailyStats `json:"week" yaml:"week"`
	AllTime model.AllTimeStats `json:"allTime" yaml:"all_time"`
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	var email, date, format string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print focus statistics for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q, want json or yaml", format)
			}

			a, err := openApp(root.load())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			user, apiErr := a.auth.UserByEmail(ctx, email)
			if apiErr != nil {
				return apiErr
			}
			day, apiErr := a.stats.ParseDate(date)
			if apiErr != nil {
				return apiErr
			}

			report := statsReport{Email: user.Email}
			daily, apiErr := a.stats.Daily(ctx, user.ID, day)
			if apiErr != nil {
				return apiErr
			}
			report.Day = *daily
			if report.Week, apiErr = a.stats.Weekly(ctx, user.ID, day); apiErr != nil {
				return apiErr
			}
			allTime, apiErr := a.stats.AllTime(ctx, user.ID)
			if apiErr != nil {
				return apiErr
			}
			report.AllTime = *allTime

			return writeReport(cmd.OutOrStdout(), format, report)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&date, "date", "", "day to report, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func writeReport(w io.Writer, format string, report statsReport) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
