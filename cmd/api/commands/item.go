package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/infrastructure/config"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// NewItemCommand creates the item management command
func NewItemCommand() *cobra.Command {
	itemCmd := &cobra.Command{
		Use:   "item",
		Short: "Item management commands",
		Long:  "List, add, update and delete inventory items directly in the configured storage",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally filtered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			asJSON, _ := cmd.Flags().GetBool("json")

			return withInventory(cmd, func(ctx context.Context, svc ports.ItemService) error {
				items := svc.ListItems(ctx, query)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(ports.ItemListResponse{Items: items, Query: query, Summary: entities.Summarize(items)})
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}
	listCmd.Flags().StringP("query", "q", "", "Case-insensitive name keyword")
	listCmd.Flags().Bool("json", false, "Print items as JSON")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			stock, _ := cmd.Flags().GetInt("stock")
			price, _ := cmd.Flags().GetInt("price")

			return withInventory(cmd, func(ctx context.Context, svc ports.ItemService) error {
				item, err := svc.CreateItem(ctx, ports.CreateItemRequest{Name: name, Stock: stock, Price: price})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item created: %d\n", item.ID)
				return nil
			})
		},
	}
	addItemFlags(addCmd)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change name, stock or price of an item",
		Long:  "Change name, stock or price of an item. Fields whose flag is not given keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("stock") && !flags.Changed("price") {
				return fmt.Errorf("nothing to update: pass --name, --stock or --price")
			}

			return withInventory(cmd, func(ctx context.Context, svc ports.ItemService) error {
				current, err := svc.GetItem(ctx, id)
				if err != nil {
					return err
				}

				req := ports.UpdateItemRequest{Name: current.Name, Stock: current.Stock, Price: current.Price}
				if flags.Changed("name") {
					req.Name, _ = flags.GetString("name")
				}
				if flags.Changed("stock") {
					req.Stock, _ = flags.GetInt("stock")
				}
				if flags.Changed("price") {
					req.Price, _ = flags.GetInt("price")
				}

				item, err := svc.UpdateItem(ctx, id, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item updated: %d\n", item.ID)
				return nil
			})
		},
	}
	updateCmd.Flags().String("name", "", "New item name")
	updateCmd.Flags().Int("stock", 0, "New units in stock, 0 or greater")
	updateCmd.Flags().Int("price", 0, "New unit price, 0 or greater")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			return withInventory(cmd, func(ctx context.Context, svc ports.ItemService) error {
				if err := svc.DeleteItem(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item deleted: %d\n", id)
				return nil
			})
		},
	}

	itemCmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd)
	return itemCmd
}

func addItemFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Item name (required)")
	cmd.Flags().Int("stock", 0, "Units in stock, 0 or greater")
	cmd.Flags().Int("price", 0, "Unit price, 0 or greater")
	_ = cmd.MarkFlagRequired("name")
}

// withInventory opens the configured storage for the duration of fn. Logs go
// to stderr so stdout stays machine readable.
func withInventory(cmd *cobra.Command, fn func(ctx context.Context, svc ports.ItemService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Logger.Output != "file" {
		cfg.Logger.Output = "stderr"
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	inv, err := openInventory(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer inv.close()

	return fn(ctx, inv.service)
}

func printItems(w io.Writer, items []entities.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTOCK\tPRICE\t")
	for _, item := range items {
		flag := ""
		if item.IsLowStock() {
			flag = "low stock"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", item.ID, item.Name, item.Stock, item.Price, flag)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := entities.Summarize(items)
	_, err := fmt.Fprintf(w, "\n%d item(s), %d low on stock\n", summary.TotalItems, summary.LowStockItems)
	return err
}
