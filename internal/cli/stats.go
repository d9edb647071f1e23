package cli

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/internal/repository"
	"github.com/spf13/cobra"
)

func newStatsCommand(app *App) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print marketplace totals and the most discussed listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var roles []struct {
				Role  models.Role
				Total int64
			}
			if err := app.DB.Model(&models.User{}).Select("role, count(*) as total").Group("role").Scan(&roles).Error; err != nil {
				return err
			}
			var listings, available int64
			if err := app.DB.Model(&models.Product{}).Count(&listings).Error; err != nil {
				return err
			}
			if err := app.DB.Model(&models.Product{}).Where("available = ?", true).Count(&available).Error; err != nil {
				return err
			}

			counts, err := repository.NewChatMessages(app.DB, nil).CountByListing(cmd.Context())
			if err != nil {
				return err
			}
			var messages int64
			for _, n := range counts {
				messages += n
			}

			fmt.Fprintln(out, "Users")
			for _, r := range roles {
				fmt.Fprintf(out, "  %-8s %s\n", r.Role, humanize.Comma(r.Total))
			}
			fmt.Fprintf(out, "Listings  %s (%s available)\n", humanize.Comma(listings), humanize.Comma(available))
			fmt.Fprintf(out, "Messages  %s across %d listings\n", humanize.Comma(messages), len(counts))

			if len(counts) == 0 || top <= 0 {
				return nil
			}

			ids := make([]uint, 0, len(counts))
			for id := range counts {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				if counts[ids[i]] == counts[ids[j]] {
					return ids[i] < ids[j]
				}
				return counts[ids[i]] > counts[ids[j]]
			})
			if len(ids) > top {
				ids = ids[:top]
			}

			products, err := repository.NewProducts(app.DB).FindByIDs(cmd.Context(), ids)
			if err != nil {
				return err
			}
			names := make(map[uint]string, len(products))
			for _, p := range products {
				names[p.ID] = p.Name
			}

			fmt.Fprintln(out, "Most discussed")
			for _, id := range ids {
				name, ok := names[id]
				if !ok {
					name = faint.Sprint("(removed)")
				}
				fmt.Fprintf(out, "  #%-5d %-30s %s\n", id, name, humanize.Comma(counts[id]))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "how many listings to rank")
	return cmd
}
