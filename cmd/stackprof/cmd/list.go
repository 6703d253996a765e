package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/stackprof/pkg/store"
)

var listDim = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists saved sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := store.List(cfg.SessionDir)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(w, listDim.Render("No saved sessions in "+cfg.SessionDir))
			return nil
		}
		for _, name := range names {
			s, err := store.Load(name, cfg.SessionDir)
			if err != nil {
				logger.WithError(err).WithField("name", name).Warn("Skipping unreadable session")
				continue
			}
			fmt.Fprintf(w, "%-24s %s\n", name, listDim.Render(fmt.Sprintf("%s  %d samples  %v",
				s.Start().Format("2006-01-02 15:04:05"), s.SampleCount(), s.Duration())))
		}
		logger.WithFields(logrus.Fields{"dir": cfg.SessionDir, "count": len(names)}).Debug("Listed sessions")
		return nil
	},
}
