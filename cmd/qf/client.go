package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/calehh/qf-app/crypto"
	"github.com/calehh/qf-app/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

// txArguments are the flags shared by every transaction command.
type txArguments struct {
	Url    string
	Index  uint64
	Nonce  uint64
	Skey   string
	NoSend bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().Uint64VarP(&args.Index, "index", "i", 0, "account index")
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "account nonce")
	cmd.Flags().StringVarP(&args.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "not send transaction but print signature")
}

// signAndBroadcast wraps payload in the signed envelope and submits it
// over the comet RPC. The nonce is fetched from the chain when left zero.
func signAndBroadcast(args *txArguments, txType tx.QFTxType, payload any) {
	cli, err := http.New(args.Url, "/websocket")
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		fmt.Printf("get chain genesis err:%v\n", err)
		return
	}
	chainId := gres.Genesis.ChainID
	nonce := args.Nonce
	if nonce == 0 {
		act, err := queryAccount(args.Url, args.Index, "")
		if err != nil {
			return
		}
		nonce = act.Nonce
	}
	btx := tx.QFTx{
		Version: tx.QFTxVersion1,
		Type:    txType,
		Nonce:   nonce,
		Sender:  args.Index,
		Tx:      payload,
	}
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		fmt.Printf("tx sign data err:%v\n", err)
		return
	}
	pv := crypto.LoadFilePV(args.Skey)
	sig, err := pv.Sign(dat)
	if err != nil {
		fmt.Printf("sign tx err:%v\n", err)
		return
	}
	println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	println("address:", pv.Address())
	sigs := [][]byte{sig}
	if args.NoSend {
		fmt.Println("transaction signatures:")
		for _, sig := range sigs {
			fmt.Println(hex.EncodeToString(sig))
		}
		return
	}
	btx.Sig = sigs
	dat, err = tx.MarshalQFTx(&btx)
	if err != nil {
		fmt.Printf("marshal tx err:%v\n", err)
		return
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	dat, _ = json.Marshal(res)
	fmt.Printf("%v\n", string(dat))
}
