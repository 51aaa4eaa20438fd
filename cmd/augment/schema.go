package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	augment "github.com/goliatone/go-augment"
	"github.com/goliatone/go-augment/pkg/blueprints"
	"github.com/goliatone/go-augment/schema/openapi"
)

func newSchemaCmd() *cobra.Command {
	var (
		dir    string
		handle string
		format string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema of a blueprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, err := schemaGenerator(format)
			if err != nil {
				return err
			}
			registry, err := blueprints.LoadDir(dir)
			if err != nil {
				return err
			}
			resolver := augment.NewResolver(augment.WithSchemaRegistry(registry))
			doc, err := resolver.Schema(handle, generator)
			if err != nil {
				return err
			}
			return writeJSON(cmd, doc.Document)
		},
	}
	cmd.Flags().StringVar(&dir, "blueprints", "", "Directory of blueprint documents")
	cmd.Flags().StringVar(&handle, "handle", "", "Blueprint handle")
	cmd.Flags().StringVar(&format, "format", string(augment.SchemaFormatDescriptors), "Output format: descriptors or openapi")
	_ = cmd.MarkFlagRequired("blueprints")
	_ = cmd.MarkFlagRequired("handle")
	return cmd
}

func schemaGenerator(format string) (augment.SchemaGenerator, error) {
	switch augment.SchemaFormat(strings.ToLower(strings.TrimSpace(format))) {
	case augment.SchemaFormatDescriptors:
		return augment.DefaultSchemaGenerator(), nil
	case augment.SchemaFormatOpenAPI:
		return openapi.NewGenerator(openapi.WithInfo("", "", openapi.WithInfoDescription("Resolved record shape"))), nil
	default:
		return nil, fmt.Errorf("unknown schema format %q", format)
	}
}
