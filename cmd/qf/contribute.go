package main

import (
	"github.com/calehh/qf-app/tx"
	"github.com/spf13/cobra"
)

type contributeArguments struct {
	txArguments
	Project uint64
	Value   uint64
}

var contributeArgs contributeArguments

var contributeCmd = &cobra.Command{
	Use:   "contribute",
	Short: "Contribute to a project in the active round",
	Long:  ``,
	Run:   contributeRun,
}

func init() {
	txFlags(contributeCmd, &contributeArgs.txArguments)
	contributeCmd.Flags().Uint64VarP(&contributeArgs.Project, "project", "p", 0, "project index")
	contributeCmd.Flags().Uint64VarP(&contributeArgs.Value, "value", "v", 0, "contribution value")
}

func contributeRun(cmd *cobra.Command, args []string) {
	stx := &tx.ContributeTx{
		ProjectIndex: contributeArgs.Project,
		Value:        contributeArgs.Value,
	}
	signAndBroadcast(&contributeArgs.txArguments, tx.QFTxTypeContribute, stx)
}
