package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/hyperengineering/okrpulse/internal/validation"
	"github.com/spf13/cobra"
)

// defaultDepartments is the set created by "department seed".
var defaultDepartments = []types.CreateDepartmentRequest{
	{ID: "product", Name: "Product"},
	{ID: "design", Name: "Design"},
	{ID: "engineering", Name: "Engineering"},
	{ID: "gtm", Name: "GTM"},
	{ID: "operations", Name: "Operations"},
}

var departmentCmd = &cobra.Command{
	Use:   "department",
	Short: "Manage departments",
	Long:  "List, create, and seed departments without running the server.",
}

var departmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all departments",
	Args:  cobra.NoArgs,
	RunE:  runDepartmentList,
}

var departmentCreateCmd = &cobra.Command{
	Use:   "create <id> <name>",
	Short: "Create or rename a department",
	Long:  "Create a department. IDs are lowercase alphanumeric with hyphens. An existing ID is renamed.",
	Args:  cobra.ExactArgs(2),
	RunE:  runDepartmentCreate,
}

var departmentSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default departments",
	Args:  cobra.NoArgs,
	RunE:  runDepartmentSeed,
}

func init() {
	addStoreFlags(departmentCmd)

	departmentCmd.AddCommand(departmentListCmd)
	departmentCmd.AddCommand(departmentCreateCmd)
	departmentCmd.AddCommand(departmentSeedCmd)
}

func runDepartmentList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	depts, err := db.ListDepartments(ctx)
	if err != nil {
		return fmt.Errorf("list departments: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"departments": depts,
			"total":       len(depts),
		})
	}

	if len(depts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No departments found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tLEADER\tMEMBERS")
	for _, d := range depts {
		leader := d.LeaderName
		if leader == "" {
			leader = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", d.ID, d.Name, leader, d.MemberCount)
	}
	return w.Flush()
}

func runDepartmentCreate(cmd *cobra.Command, args []string) error {
	req := types.CreateDepartmentRequest{ID: args[0], Name: args[1]}
	if errs := validation.ValidateCreateDepartment(req); len(errs) > 0 {
		return fmt.Errorf("invalid department: %s %s", errs[0].Field, errs[0].Message)
	}

	ctx := context.Background()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	d, err := db.UpsertDepartment(ctx, req.ID, req.Name)
	if err != nil {
		return fmt.Errorf("create department: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), d)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created department %q (%s)\n", d.ID, d.Name)
	return nil
}

func runDepartmentSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, req := range defaultDepartments {
		if _, err := db.UpsertDepartment(ctx, req.ID, req.Name); err != nil {
			return fmt.Errorf("seed department %s: %w", req.ID, err)
		}
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"seeded": len(defaultDepartments)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d departments\n", len(defaultDepartments))
	return nil
}
