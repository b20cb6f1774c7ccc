package main

import (
	"fmt"
	"os"
)

func main() {
	clCmd.AddCommand(accountCmd)
	clCmd.AddCommand(initCmd)
	clCmd.AddCommand(versionCmd)
	clCmd.AddCommand(pubkeyCmd)
	clCmd.AddCommand(signCmd)
	clCmd.AddCommand(createProjectCmd)
	clCmd.AddCommand(projectsCmd)
	clCmd.AddCommand(fundCmd)
	clCmd.AddCommand(scheduleRoundCmd)
	clCmd.AddCommand(cancelRoundCmd)
	clCmd.AddCommand(finalizeRoundCmd)
	clCmd.AddCommand(contributeCmd)
	clCmd.AddCommand(approveCmd)
	clCmd.AddCommand(withdrawCmd)
	clCmd.AddCommand(cancelProposalCmd)
	clCmd.AddCommand(setParamCmd)
	if err := clCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
