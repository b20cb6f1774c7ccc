package main

import (
	"fmt"

	"github.com/calehh/qf-app/tx"
	"github.com/spf13/cobra"
)

type setParamArguments struct {
	txArguments
	MaxProposals uint32
	Expiration   uint64
	Identity     string
}

var setParamArgs setParamArguments

var setParamCmd = &cobra.Command{
	Use:   "setparam",
	Short: "Update an admin parameter (authority only)",
	Long: `Set exactly one of --max-proposals, --expiration or --identity.
Each flag maps to its own parameter transaction.`,
	Run: setParamRun,
}

func init() {
	txFlags(setParamCmd, &setParamArgs.txArguments)
	setParamCmd.Flags().Uint32VarP(&setParamArgs.MaxProposals, "max-proposals", "", 0, "max proposals per round")
	setParamCmd.Flags().Uint64VarP(&setParamArgs.Expiration, "expiration", "", 0, "withdrawal window in blocks")
	setParamCmd.Flags().StringVarP(&setParamArgs.Identity, "identity", "", "", "require identity attestation (true|false)")
}

func setParamRun(cmd *cobra.Command, args []string) {
	if setParamArgs.MaxProposals != 0 {
		stx := &tx.SetMaxProposalCountTx{Count: setParamArgs.MaxProposals}
		signAndBroadcast(&setParamArgs.txArguments, tx.QFTxTypeSetMaxProposalCount, stx)
		return
	}
	if setParamArgs.Expiration != 0 {
		stx := &tx.SetWithdrawalExpirationTx{Expiration: setParamArgs.Expiration}
		signAndBroadcast(&setParamArgs.txArguments, tx.QFTxTypeSetWithdrawalExpiration, stx)
		return
	}
	switch setParamArgs.Identity {
	case "true":
		signAndBroadcast(&setParamArgs.txArguments, tx.QFTxTypeSetIdentityRequired, &tx.SetIdentityRequiredTx{Required: true})
	case "false":
		signAndBroadcast(&setParamArgs.txArguments, tx.QFTxTypeSetIdentityRequired, &tx.SetIdentityRequiredTx{Required: false})
	case "":
		fmt.Println("nothing to set")
	default:
		fmt.Printf("invalid identity flag:%v\n", setParamArgs.Identity)
	}
}
