package main

import (
	"github.com/calehh/qf-app/tx"
	"github.com/spf13/cobra"
)

type fundArguments struct {
	txArguments
	Amount uint64
}

var fundArgs fundArguments

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Deposit into the matching pool",
	Long:  ``,
	Run:   fundRun,
}

func init() {
	txFlags(fundCmd, &fundArgs.txArguments)
	fundCmd.Flags().Uint64VarP(&fundArgs.Amount, "amount", "a", 0, "amount to deposit")
}

func fundRun(cmd *cobra.Command, args []string) {
	signAndBroadcast(&fundArgs.txArguments, tx.QFTxTypeFund, &tx.FundTx{Amount: fundArgs.Amount})
}
