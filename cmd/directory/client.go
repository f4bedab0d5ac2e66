package main

import (
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/directory/rpc"
)

type clientOptions struct {
	addr string
}

func newClientCmds(a *app) []*cobra.Command {
	opts := &clientOptions{}

	var (
		nickname string
		fields   map[string]string
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create the calling agent's record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client(a).CreateRecord(cmd.Context(), &rpc.CreateRecordRequest{Nickname: nickname, Fields: fields})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Replace the calling agent's record with a new version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client(a).UpdateRecord(cmd.Context(), &rpc.UpdateRecordRequest{Nickname: nickname, Fields: fields})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	for _, c := range []*cobra.Command{create, update} {
		c.Flags().StringVar(&nickname, "nickname", "", "Nickname to publish")
		c.Flags().StringToStringVar(&fields, "field", nil, "Record field as key=value (repeatable)")
		c.MarkFlagRequired("nickname")
	}

	me := &cobra.Command{
		Use:   "me",
		Short: "Show the calling agent's current record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client(a).GetMyRecord(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every record the node knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client(a).GetAllRecords(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	get := &cobra.Command{
		Use:   "get <agent>...",
		Short: "Show the records of the given agents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client(a).GetRecordsForAgents(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	search := &cobra.Command{
		Use:   "search <prefix>",
		Short: "Find records whose nickname starts with prefix, ignoring case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client(a).SearchRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	cmds := []*cobra.Command{create, update, me, list, get, search}
	for _, c := range cmds {
		c.Flags().StringVar(&opts.addr, "addr", "http://127.0.0.1:8080", "Base URL of the node to call")
	}
	return cmds
}

func (o *clientOptions) client(a *app) *rpc.Client {
	return rpc.NewClient(http.DefaultClient, o.addr, connect.WithInterceptors(rpc.NewLoggingInterceptor(a.logger)))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
