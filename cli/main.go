package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aqua777/krait"

	"github.com/aqua777/go-fireorm/config"
)

func main() {
	getCmd := krait.New("get", "Get documents", "Print the documents with the given ids, skipping ids that do not exist").
		WithMinimumNArgs(2).
		WithRun(func(args []string) error {
			return withStore(func(ctx context.Context, c *StoreCommand) error {
				return c.Get(ctx, args[0], args[1:])
			})
		})

	listCmd := krait.New("list", "List documents", "Print one page of the documents of a collection in id order").
		WithExactArgs(1).
		WithIntP(KeyPage, "Page number, starting at 1", "page", "p", "FIREORM_PAGE", DefaultPage).
		WithIntP(KeyPageSize, "Documents per page", "page-size", "n", "FIREORM_PAGE_SIZE", DefaultPageSize).
		WithStringToStringP(KeyWhere, "Equality filters, field=value", "where", "w", "").
		WithStringToString(KeyContains, "Array membership filters, field=value", "contains", "").
		WithRun(func(args []string) error {
			q, err := queryFromFlags()
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, c *StoreCommand) error {
				return c.List(ctx, args[0], q, krait.GetInt(KeyPage), krait.GetInt(KeyPageSize))
			})
		})

	countCmd := krait.New("count", "Count documents", "Print the number of documents of a collection matching the filters").
		WithExactArgs(1).
		WithStringToStringP(KeyWhere, "Equality filters, field=value", "where", "w", "").
		WithStringToString(KeyContains, "Array membership filters, field=value", "contains", "").
		WithRun(func(args []string) error {
			q, err := queryFromFlags()
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, c *StoreCommand) error {
				return c.Count(ctx, args[0], q)
			})
		})

	deleteCmd := krait.New("delete", "Delete documents", "Delete documents by id; missing ids are ignored").
		WithMinimumNArgs(2).
		WithRun(func(args []string) error {
			return withStore(func(ctx context.Context, c *StoreCommand) error {
				return c.Delete(ctx, args[0], args[1:])
			})
		})

	seedCmd := krait.New("seed", "Load fixtures", "Merge the documents of YAML fixture files into the store").
		WithMinimumNArgs(1).
		WithRun(func(args []string) error {
			return withStore(func(ctx context.Context, c *StoreCommand) error {
				return c.Seed(ctx, args)
			})
		})

	dumpCmd := krait.New("dump", "Dump fixtures", "Write collections as a YAML fixture file; all collections when none are named").
		WithArbitraryArgs().
		WithStringP(KeyOutput, "Output file, - for stdout", "output", "o", "", "-").
		WithRun(func(args []string) error {
			return withStore(func(ctx context.Context, c *StoreCommand) error {
				return c.Dump(ctx, args, krait.GetString(KeyOutput))
			})
		})

	collectionsCmd := krait.New("collections", "List collections", "Print the names of the collections that hold documents").
		WithNoArgs().
		WithRun(func(args []string) error {
			return withStore(func(ctx context.Context, c *StoreCommand) error {
				return c.Collections(ctx)
			})
		})

	app := krait.App(FireORMCli, "Firestore document tool", "Inspect and seed Firestore collections or the offline test store").
		WithConfig("", "config", "", "FIREORM_CONFIG").
		WithBoolP(config.KeyTestMode, "Use the offline store", "test-mode", "t", "FIREORM_TEST_MODE", false).
		WithString(config.KeyProjectID, "Google Cloud project", "project", "FIREORM_PROJECT_ID", "").
		WithString(config.KeyDatabaseID, "Firestore database, default when empty", "database", "FIREORM_DATABASE_ID", "").
		WithString(config.KeyCredentialsFile, "Service account key file", "credentials", "FIREORM_CREDENTIALS_FILE", "").
		WithStringP(config.KeyBackend, "Offline engine: memory, file, sqlite or redis", "backend", "b", "FIREORM_OFFLINE_BACKEND", config.BackendMemory).
		WithString(config.KeyPath, "Offline file or SQLite database path", "path", "FIREORM_OFFLINE_PATH", "").
		WithString(config.KeyRedisAddr, "Offline Redis address", "redis-addr", "FIREORM_OFFLINE_REDIS_ADDR", "").
		WithString(config.KeyRedisPassword, "Offline Redis password", "redis-password", "FIREORM_OFFLINE_REDIS_PASSWORD", "").
		WithInt(config.KeyRedisDB, "Offline Redis database", "redis-db", "FIREORM_OFFLINE_REDIS_DB", 0).
		WithString(config.KeyRedisPrefix, "Offline Redis key prefix", "redis-prefix", "FIREORM_OFFLINE_REDIS_PREFIX", "").
		WithString(config.KeyFixtures, "Fixture file loaded into the offline store", "fixtures", "FIREORM_OFFLINE_FIXTURES", "").
		WithBoolP(KeyVerbose, "Log store activity to stderr", "verbose", "v", "FIREORM_VERBOSE", false).
		WithCommand(getCmd).
		WithCommand(listCmd).
		WithCommand(countCmd).
		WithCommand(deleteCmd).
		WithCommand(seedCmd).
		WithCommand(dumpCmd).
		WithCommand(collectionsCmd).
		WithRun(func(args []string) error {
			fmt.Println("fireorm - use 'fireorm --help' to list commands")
			return nil
		})

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
