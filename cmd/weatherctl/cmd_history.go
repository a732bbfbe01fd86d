package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simp-lee/weatherlog/internal/domain"
)

func parseRecordID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid record id %q", arg)
	}
	return uint(id), nil
}

func (c *cli) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the change log of one observation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			entries, err := c.svc.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			if c.output == "json" {
				return formatJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					formatTimestamp(e.ChangedAt),
					e.FieldName,
					formatOptional(e.OldValue),
					formatOptional(e.NewValue),
					e.Username,
					e.UpdateID,
				}
			}
			formatTable(cmd.OutOrStdout(), []string{"CHANGED_AT", "FIELD", "OLD", "NEW", "EDITOR", "UPDATE"}, rows)
			return nil
		},
	}
}

// clearable names the optional fields --clear accepts.
var clearable = map[string]func(*domain.WeatherSearch){
	"current_temp": func(r *domain.WeatherSearch) { r.CurrentTemp = nil },
	"condition":    func(r *domain.WeatherSearch) { r.Condition = nil },
	"wind_speed":   func(r *domain.WeatherSearch) { r.WindSpeed = nil },
	"wind_deg":     func(r *domain.WeatherSearch) { r.WindDeg = nil },
}

type editFlags struct {
	editor      uint
	humidity    int
	tempMin     float64
	tempMax     float64
	currentTemp float64
	condition   string
	windSpeed   float64
	windDeg     int
	clear       []string
}

// candidate overlays the flags that were set onto the stored record.
func (f *editFlags) candidate(cmd *cobra.Command, stored *domain.WeatherSearch) (*domain.WeatherSearch, error) {
	next := *stored
	flags := cmd.Flags()
	if flags.Changed("humidity") {
		next.Humidity = f.humidity
	}
	if flags.Changed("temp-min") {
		next.TempMin = f.tempMin
	}
	if flags.Changed("temp-max") {
		next.TempMax = f.tempMax
	}
	if flags.Changed("current-temp") {
		next.CurrentTemp = &f.currentTemp
	}
	if flags.Changed("condition") {
		next.Condition = &f.condition
	}
	if flags.Changed("wind-speed") {
		next.WindSpeed = &f.windSpeed
	}
	if flags.Changed("wind-deg") {
		next.WindDeg = &f.windDeg
	}
	for _, name := range f.clear {
		apply, ok := clearable[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("cannot clear %q: must be one of current_temp, condition, wind_speed, wind_deg", name)
		}
		apply(&next)
	}
	return &next, nil
}

func (c *cli) newEditCmd() *cobra.Command {
	f := &editFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of one observation and record the changes",
		Long: "Change fields of one observation. Unset flags keep their stored value. " +
			"Each changed field is written and logged separately under one update id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			if f.editor == 0 {
				return errors.New("--editor must be a positive user id")
			}

			stored, err := c.svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			next, err := f.candidate(cmd, stored)
			if err != nil {
				return err
			}
			result, err := c.svc.ApplyUpdate(cmd.Context(), next, f.editor)
			if err != nil {
				return err
			}

			if c.output == "json" {
				return formatJSON(cmd.OutOrStdout(), result)
			}
			if !result.Found {
				fmt.Fprintf(cmd.OutOrStdout(), "record %d not found\n", id)
				return nil
			}
			if len(result.Changes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return nil
			}
			rows := make([][]string, len(result.Changes))
			for i, ch := range result.Changes {
				rows[i] = []string{string(ch.Field), formatOptional(ch.OldValue), formatOptional(ch.NewValue)}
			}
			formatTable(cmd.OutOrStdout(), []string{"FIELD", "OLD", "NEW"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "update %s: %d field(s) changed\n", result.UpdateID, len(result.Changes))
			return nil
		},
	}
	cmd.Flags().UintVar(&f.editor, "editor", 0, "id of the user making the change (required)")
	cmd.Flags().IntVar(&f.humidity, "humidity", 0, "relative humidity in percent")
	cmd.Flags().Float64Var(&f.tempMin, "temp-min", 0, "minimum temperature")
	cmd.Flags().Float64Var(&f.tempMax, "temp-max", 0, "maximum temperature")
	cmd.Flags().Float64Var(&f.currentTemp, "current-temp", 0, "current temperature")
	cmd.Flags().StringVar(&f.condition, "condition", "", "condition phrase or label")
	cmd.Flags().Float64Var(&f.windSpeed, "wind-speed", 0, "wind speed")
	cmd.Flags().IntVar(&f.windDeg, "wind-deg", 0, "wind direction in degrees")
	cmd.Flags().StringSliceVar(&f.clear, "clear", nil, "optional fields to clear (current_temp,condition,wind_speed,wind_deg)")
	_ = cmd.MarkFlagRequired("editor")
	return cmd
}
