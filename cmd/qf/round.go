package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/calehh/qf-app/tx"
	"github.com/spf13/cobra"
)

type scheduleRoundArguments struct {
	txArguments
	Start        uint64
	End          uint64
	MatchingFund uint64
	Projects     string
}

var scheduleRoundArgs scheduleRoundArguments

var scheduleRoundCmd = &cobra.Command{
	Use:   "scheduleround",
	Short: "Schedule a funding round (authority only)",
	Long:  ``,
	Run:   scheduleRoundRun,
}

func init() {
	txFlags(scheduleRoundCmd, &scheduleRoundArgs.txArguments)
	scheduleRoundCmd.Flags().Uint64VarP(&scheduleRoundArgs.Start, "start", "", 0, "start height")
	scheduleRoundCmd.Flags().Uint64VarP(&scheduleRoundArgs.End, "end", "", 0, "end height")
	scheduleRoundCmd.Flags().Uint64VarP(&scheduleRoundArgs.MatchingFund, "fund", "f", 0, "matching fund")
	scheduleRoundCmd.Flags().StringVarP(&scheduleRoundArgs.Projects, "projects", "p", "", "comma separated project indexes")
}

func scheduleRoundRun(cmd *cobra.Command, args []string) {
	indexes := make([]uint64, 0)
	for _, s := range strings.Split(scheduleRoundArgs.Projects, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		index, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			fmt.Printf("invalid project index:%v\n", s)
			return
		}
		indexes = append(indexes, index)
	}
	stx := &tx.ScheduleRoundTx{
		Start:          scheduleRoundArgs.Start,
		End:            scheduleRoundArgs.End,
		MatchingFund:   scheduleRoundArgs.MatchingFund,
		ProjectIndexes: indexes,
	}
	signAndBroadcast(&scheduleRoundArgs.txArguments, tx.QFTxTypeScheduleRound, stx)
}

type roundIndexArguments struct {
	txArguments
	Round uint64
}

var cancelRoundArgs roundIndexArguments

var cancelRoundCmd = &cobra.Command{
	Use:   "cancelround",
	Short: "Cancel a round before it starts (authority only)",
	Long:  ``,
	Run:   cancelRoundRun,
}

func init() {
	txFlags(cancelRoundCmd, &cancelRoundArgs.txArguments)
	cancelRoundCmd.Flags().Uint64VarP(&cancelRoundArgs.Round, "round", "r", 0, "round index")
}

func cancelRoundRun(cmd *cobra.Command, args []string) {
	signAndBroadcast(&cancelRoundArgs.txArguments, tx.QFTxTypeCancelRound, &tx.CancelRoundTx{RoundIndex: cancelRoundArgs.Round})
}

var finalizeRoundArgs roundIndexArguments

var finalizeRoundCmd = &cobra.Command{
	Use:   "finalizeround",
	Short: "Finalize an ended round and fix matching shares (authority only)",
	Long:  ``,
	Run:   finalizeRoundRun,
}

func init() {
	txFlags(finalizeRoundCmd, &finalizeRoundArgs.txArguments)
	finalizeRoundCmd.Flags().Uint64VarP(&finalizeRoundArgs.Round, "round", "r", 0, "round index")
}

func finalizeRoundRun(cmd *cobra.Command, args []string) {
	signAndBroadcast(&finalizeRoundArgs.txArguments, tx.QFTxTypeFinalizeRound, &tx.FinalizeRoundTx{RoundIndex: finalizeRoundArgs.Round})
}
