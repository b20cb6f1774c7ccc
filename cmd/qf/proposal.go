package main

import (
	"github.com/calehh/qf-app/tx"
	"github.com/spf13/cobra"
)

type proposalArguments struct {
	txArguments
	Round   uint64
	Project uint64
}

var approveArgs proposalArguments

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a proposal for withdrawal (authority only)",
	Long:  ``,
	Run:   approveRun,
}

func init() {
	txFlags(approveCmd, &approveArgs.txArguments)
	approveCmd.Flags().Uint64VarP(&approveArgs.Round, "round", "r", 0, "round index")
	approveCmd.Flags().Uint64VarP(&approveArgs.Project, "project", "p", 0, "project index")
}

func approveRun(cmd *cobra.Command, args []string) {
	stx := &tx.ApproveTx{
		RoundIndex:   approveArgs.Round,
		ProjectIndex: approveArgs.Project,
	}
	signAndBroadcast(&approveArgs.txArguments, tx.QFTxTypeApprove, stx)
}

var withdrawArgs proposalArguments

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw matched funds and contributions (project owner)",
	Long:  ``,
	Run:   withdrawRun,
}

func init() {
	txFlags(withdrawCmd, &withdrawArgs.txArguments)
	withdrawCmd.Flags().Uint64VarP(&withdrawArgs.Round, "round", "r", 0, "round index")
	withdrawCmd.Flags().Uint64VarP(&withdrawArgs.Project, "project", "p", 0, "project index")
}

func withdrawRun(cmd *cobra.Command, args []string) {
	stx := &tx.WithdrawTx{
		RoundIndex:   withdrawArgs.Round,
		ProjectIndex: withdrawArgs.Project,
	}
	signAndBroadcast(&withdrawArgs.txArguments, tx.QFTxTypeWithdraw, stx)
}

var cancelProposalArgs proposalArguments

var cancelProposalCmd = &cobra.Command{
	Use:   "cancelproposal",
	Short: "Cancel a proposal within a round (authority only)",
	Long:  ``,
	Run:   cancelProposalRun,
}

func init() {
	txFlags(cancelProposalCmd, &cancelProposalArgs.txArguments)
	cancelProposalCmd.Flags().Uint64VarP(&cancelProposalArgs.Round, "round", "r", 0, "round index")
	cancelProposalCmd.Flags().Uint64VarP(&cancelProposalArgs.Project, "project", "p", 0, "project index")
}

func cancelProposalRun(cmd *cobra.Command, args []string) {
	stx := &tx.CancelProposalTx{
		RoundIndex:   cancelProposalArgs.Round,
		ProjectIndex: cancelProposalArgs.Project,
	}
	signAndBroadcast(&cancelProposalArgs.txArguments, tx.QFTxTypeCancelProposal, stx)
}
