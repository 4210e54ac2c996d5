package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"campus-enrollment/internal/config"
	"campus-enrollment/pkg/logger"

	"github.com/spf13/cobra"
)

var auditTimeout time.Duration

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare seat counters with enrollment records",
	Long: `Report every activity whose available seats differ from
capacity minus enrolled records, or fall outside [0, capacity].
Exits with status 2 when drift is found.`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runAudit())
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", 30*time.Second, "Query timeout")
}

func runAudit() int {
	store, err := openStorage(config.Get(), false)
	if err != nil {
		logger.Error("Failed to open store: %v", err)
		return 1
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	drift, err := store.reports.SeatDrift(ctx)
	if err != nil {
		logger.Error("Seat audit failed: %v", err)
		return 1
	}

	if len(drift) == 0 {
		fmt.Println("All seat counters match enrollment records.")
		return 0
	}

	fmt.Printf("Seat counter drift on %d activities:\n", len(drift))
	for _, s := range drift {
		fmt.Printf("  %s %q capacity=%d available=%d enrolled=%d expected_available=%d\n",
			s.ActivityID, s.Title, s.Capacity, s.AvailableSeats, s.Enrolled, s.Capacity-s.Enrolled)
	}
	return 2
}
