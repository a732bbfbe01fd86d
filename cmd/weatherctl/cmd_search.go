package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/simp-lee/weatherlog/internal/change"
	"github.com/simp-lee/weatherlog/internal/domain"
)

type searchFlags struct {
	city      string
	condition string
	username  string
	userID    uint
	from      string
	to        string
	page      int
	pageSize  int
	sort      string
}

// filter builds the search predicates from the flags that were set.
func (f *searchFlags) filter(cmd *cobra.Command) (domain.SearchFilter, error) {
	var filter domain.SearchFilter
	if cmd.Flags().Changed("city") {
		filter.City = &f.city
	}
	if cmd.Flags().Changed("condition") {
		filter.Condition = &f.condition
	}
	if cmd.Flags().Changed("user") {
		filter.Username = &f.username
	}
	if cmd.Flags().Changed("user-id") {
		filter.UserID = &f.userID
	}
	var err error
	if filter.From, err = parseDateFlag("from", f.from); err != nil {
		return filter, err
	}
	if filter.To, err = parseDateFlag("to", f.to); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", name, value)
	}
	return &t, nil
}

func (c *cli) newSearchCmd() *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search saved observations with filters and paging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := f.filter(cmd)
			if err != nil {
				return err
			}
			page, err := c.svc.Search(cmd.Context(), filter, domain.PageRequest{
				Page:     f.page,
				PageSize: f.pageSize,
				Sort:     f.sort,
			})
			if err != nil {
				return err
			}
			if c.output == "json" {
				return formatJSON(cmd.OutOrStdout(), page)
			}
			printRecordTable(cmd, page.Items)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d total\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.city, "city", "", "exact city")
	cmd.Flags().StringVar(&f.condition, "condition", "", "condition phrase or label")
	cmd.Flags().StringVar(&f.username, "user", "", "username of the saver")
	cmd.Flags().UintVar(&f.userID, "user-id", 0, "id of the saver")
	cmd.Flags().StringVar(&f.from, "from", "", "earliest search date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "latest search date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.page, "page", 1, "1-based page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "rows per page (0 uses the configured default)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort as field:asc|desc")
	return cmd
}

func printRecordTable(cmd *cobra.Command, records []domain.WeatherSearch) {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			strconv.FormatUint(uint64(r.ID), 10),
			formatDate(r.SearchDate),
			r.City,
			formatOptional(change.FormatOptionalString(r.Condition)),
			strconv.Itoa(r.Humidity),
			change.FormatFloat(r.TempMin),
			change.FormatFloat(r.TempMax),
			formatOptional(change.FormatOptionalFloat(r.CurrentTemp)),
			formatOptional(change.FormatOptionalFloat(r.WindSpeed)),
			formatOptional(change.FormatOptionalInt(r.WindDeg)),
			r.Username,
		}
	}
	formatTable(cmd.OutOrStdout(),
		[]string{"ID", "DATE", "CITY", "CONDITION", "HUMIDITY", "MIN", "MAX", "CURRENT", "WIND", "DEG", "USER"},
		rows)
}

func (c *cli) newCitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the distinct cities with saved observations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cities, err := c.svc.Cities(cmd.Context())
			if err != nil {
				return err
			}
			if c.output == "json" {
				return formatJSON(cmd.OutOrStdout(), cities)
			}
			formatList(cmd.OutOrStdout(), "CITY", cities)
			return nil
		},
	}
}

func (c *cli) newConditionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conditions",
		Short: "List the distinct stored conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conditions, err := c.svc.Conditions(cmd.Context())
			if err != nil {
				return err
			}
			if c.output == "json" {
				return formatJSON(cmd.OutOrStdout(), conditions)
			}
			formatList(cmd.OutOrStdout(), "CONDITION", conditions)
			return nil
		},
	}
}
