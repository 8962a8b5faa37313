package main

import (
	"github.com/dalemusser/stratashelter/internal/app/system/recordview"
	"github.com/dalemusser/stratashelter/internal/app/system/rescue"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
)

func (c *cli) createCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Insert one animal record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := recordview.ParseDocument("data", []byte(data))
			if err != nil {
				return err
			}
			ctx, cancel := c.callContext(cmd)
			defer cancel()

			ok, err := c.client.Create(ctx, doc)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]bool{"created": ok})
		},
	}
	cmd.Flags().StringVar(&data, "data", "", `record to insert, e.g. '{"animal_id":"A9","name":"Bolt"}'`)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func (c *cli) readCmd() *cobra.Command {
	var filter, preset string
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Find animal records by filter or rescue preset",
		Long: `Find animal records. With neither --filter nor --rescue every record is
returned. --rescue takes a preset name (see "shelterctl presets") or "reset".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter != "" && preset != "" {
				return errors.New("--filter and --rescue are mutually exclusive")
			}

			var q bson.M
			var err error
			switch {
			case preset != "":
				q, err = rescue.Filter(preset)
			case filter != "":
				q, err = recordview.ParseDocument("filter", []byte(filter))
			default:
				q = bson.M{}
			}
			if err != nil {
				return err
			}

			ctx, cancel := c.callContext(cmd)
			defer cancel()

			docs, err := c.client.Read(ctx, q)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), c.output, recordview.StripIDs(docs))
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", `record filter, e.g. '{"animal_type":"Dog"}'`)
	cmd.Flags().StringVar(&preset, "rescue", "", "rescue preset name")
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var filter, changes string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set fields on every record matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := recordview.ParseDocument("filter", []byte(filter))
			if err != nil {
				return err
			}
			set, err := recordview.ParseDocument("changes", []byte(changes))
			if err != nil {
				return err
			}
			ctx, cancel := c.callContext(cmd)
			defer cancel()

			res, err := c.client.Update(ctx, q, set)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "records to change")
	cmd.Flags().StringVar(&changes, "changes", "", `fields to set, e.g. '{"outcome_type":"Adoption"}'`)
	_ = cmd.MarkFlagRequired("filter")
	_ = cmd.MarkFlagRequired("changes")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove every record matching a non-empty filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := recordview.ParseDocument("filter", []byte(filter))
			if err != nil {
				return err
			}
			ctx, cancel := c.callContext(cmd)
			defer cancel()

			res, err := c.client.Delete(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "records to remove")
	_ = cmd.MarkFlagRequired("filter")
	return cmd
}

func (c *cli) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "presets",
		Short:       "List the rescue presets accepted by read --rescue",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]bson.M, 0)
			for _, p := range rescue.All() {
				out = append(out, bson.M{"name": p.Name, "label": p.Label, "filter": p.Filter()})
			}
			return printRecords(cmd.OutOrStdout(), c.output, out)
		},
	}
}
