package macwincontrol

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frank2889/MacWinControl/internal/screens"
)

var screensCmd = &cobra.Command{
	Use:   "screens",
	Short: "Print the enumerated monitor layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rects, err := screens.NewEnumerator().Screens()
		if err != nil {
			return fmt.Errorf("enumerate screens: %w", err)
		}

		for i, r := range rects {
			primary := ""
			if r.Primary {
				primary = " (primary)"
			}
			fmt.Printf("screen %d: %dx%d at (%d,%d)%s\n", i, r.Width, r.Height, r.X, r.Y, primary)
		}
		b := screens.CombinedBounds(rects)
		fmt.Printf("combined bounds: (%d,%d)-(%d,%d)\n", b.MinX, b.MinY, b.MaxX, b.MaxY)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(screensCmd)
}
