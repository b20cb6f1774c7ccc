package main

import (
	"context"
	"encoding/json"
	"fmt"

	qf_types "github.com/calehh/qf-app/types"
	"github.com/calehh/qf-app/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type createProjectArguments struct {
	txArguments
	Name        string
	Logo        string
	Description string
	Website     string
}

var createProjectArgs createProjectArguments

var createProjectCmd = &cobra.Command{
	Use:   "createproject",
	Short: "Register a project for funding rounds",
	Long:  ``,
	Run:   createProjectRun,
}

func init() {
	txFlags(createProjectCmd, &createProjectArgs.txArguments)
	createProjectCmd.Flags().StringVarP(&createProjectArgs.Name, "name", "", "", "project name")
	createProjectCmd.Flags().StringVarP(&createProjectArgs.Logo, "logo", "", "", "project logo url")
	createProjectCmd.Flags().StringVarP(&createProjectArgs.Description, "description", "", "", "project description")
	createProjectCmd.Flags().StringVarP(&createProjectArgs.Website, "website", "", "", "project website url")
}

func createProjectRun(cmd *cobra.Command, args []string) {
	stx := &tx.CreateProjectTx{
		Name:        []byte(createProjectArgs.Name),
		Logo:        []byte(createProjectArgs.Logo),
		Description: []byte(createProjectArgs.Description),
		Website:     []byte(createProjectArgs.Website),
	}
	signAndBroadcast(&createProjectArgs.txArguments, tx.QFTxTypeCreateProject, stx)
}

type projectsArguments struct {
	Url string
}

var projectsArgs projectsArguments

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List registered projects",
	Long:  ``,
	Run:   projectsRun,
}

func init() {
	urlFlag(projectsCmd, &projectsArgs.Url)
}

func projectsRun(cmd *cobra.Command, args []string) {
	cli, err := http.New(projectsArgs.Url, "/websocket")
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	res, err := cli.ABCIQuery(context.Background(), "/projects/", nil)
	if err != nil {
		fmt.Printf("request err:%v\n", err)
		return
	}
	if res.Response.Code != 0 {
		fmt.Printf("%#v\n", res)
		return
	}
	var projects []qf_types.Project
	if err := json.Unmarshal(res.Response.Value, &projects); err != nil {
		fmt.Printf("decode err:%v\n", err)
		return
	}
	for _, p := range projects {
		fmt.Printf("index:%v name:%s owner:%x height:%v\n", p.Index, p.Name, p.Owner, p.CreateHeight)
	}
}
