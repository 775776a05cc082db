package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proteomecore/internal/core"
	"proteomecore/internal/filterlist"
)

var (
	listQuery  filterlist.Query
	listRemote bool
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage curated filter lists",
}

var listsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List filter lists from the local catalog (or the remote with --remote)",
	Args:  cobra.NoArgs,
	RunE:  runListsList,
}

var listsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror remote filter lists into the local catalog",
	Args:  cobra.NoArgs,
	RunE:  runListsSync,
}

var listsSeedCmd = &cobra.Command{
	Use:   "seed <file.csv>",
	Short: "Load filter lists from a CSV with columns id,name,category,default,data",
	Args:  cobra.ExactArgs(1),
	RunE:  runListsSeed,
}

func init() {
	for _, c := range []*cobra.Command{listsListCmd, listsSyncCmd} {
		c.Flags().StringVar(&listQuery.Name, "name", "", "Name substring")
		c.Flags().StringVar(&listQuery.Category, "category", "", "Category substring")
		c.Flags().StringVar(&listQuery.NameExact, "name-exact", "", "Exact name")
		c.Flags().StringVar(&listQuery.CategoryExact, "category-exact", "", "Exact category")
		c.Flags().IntVar(&listQuery.Limit, "limit", 0, "Maximum number of lists (0 for no limit)")
	}
	listsListCmd.Flags().BoolVar(&listRemote, "remote", false, "Query the remote service instead of the local catalog")

	listsCmd.AddCommand(listsListCmd)
	listsCmd.AddCommand(listsSyncCmd)
	listsCmd.AddCommand(listsSeedCmd)
}

func remoteClient() *filterlist.Client {
	return filterlist.NewClient(cfg.FilterLists.RemoteURL, &http.Client{Timeout: timeout})
}

func runListsList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var catalog filterlist.Catalog
	if listRemote {
		catalog = remoteClient()
	} else {
		store, err := core.OpenFilterListStore(ctx, cfg.StorageOptions())
		if err != nil {
			return fmt.Errorf("open filter list store: %w", err)
		}
		defer store.Close()
		catalog = store
	}
	lists, err := catalog.List(ctx, listQuery)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), lists)
}

func runListsSync(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := core.OpenFilterListStore(ctx, cfg.StorageOptions())
	if err != nil {
		return fmt.Errorf("open filter list store: %w", err)
	}
	defer store.Close()

	client := remoteClient()
	res, err := filterlist.Sync(ctx, client, store, listQuery)
	if err != nil {
		return err
	}
	logger.Info("filter lists synced",
		zap.String("remote", client.BaseURL()),
		zap.Int("fetched", res.Fetched),
		zap.Int("stored", res.Stored),
	)
	return printJSON(cmd.OutOrStdout(), res)
}

func runListsSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	store, err := core.OpenFilterListStore(ctx, cfg.StorageOptions())
	if err != nil {
		return fmt.Errorf("open filter list store: %w", err)
	}
	defer store.Close()

	n, err := filterlist.Seed(ctx, store, f)
	if err != nil {
		return err
	}
	logger.Info("filter lists seeded", zap.String("file", args[0]), zap.Int("stored", n))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d filter lists\n", n)
	return nil
}
