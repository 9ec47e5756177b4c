// Command propertyctl runs the property maintenance tools from a shell or a
// system cron, against the same WordPress database as the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"propertytools_backend/internals/configs"
	database "propertytools_backend/internals/databases"
	mediaRepo "propertytools_backend/internals/features/properties/media/repository"
	mediaSvc "propertytools_backend/internals/features/properties/media/service"
	notifRoute "propertytools_backend/internals/features/properties/notifications/route"
	notifSvc "propertytools_backend/internals/features/properties/notifications/service"
	statusRepo "propertytools_backend/internals/features/properties/statuses/repository"
	statusSvc "propertytools_backend/internals/features/properties/statuses/service"
	wpModel "propertytools_backend/internals/features/wordpress/model"
	"propertytools_backend/internals/helpers/batch"
	helperOSS "propertytools_backend/internals/helpers/oss"
)

func main() {
	app := cli.NewApp()
	app.Name = "propertyctl"
	app.Usage = "listing status batches, orphaned media cleanup and notification digests"

	delay := cli.DurationFlag{
		Name:  "delay",
		Usage: "pause between batches",
		Value: 2 * time.Second,
	}
	batchSize := cli.IntFlag{
		Name:  "batch-size",
		Usage: "listings per batch (0 uses the configured size)",
	}
	slugs := cli.StringFlag{
		Name:  "slugs",
		Usage: "comma separated es_status slugs (default: configured vocabulary)",
	}
	once := cli.BoolFlag{
		Name:  "once",
		Usage: "run a single batch and print the continuation",
	}

	app.Commands = []cli.Command{
		{
			Name:   "draft",
			Usage:  "Move published listings with a closed-out status to draft",
			Flags:  []cli.Flag{delay, batchSize, slugs, once},
			Action: withDB(runDraft),
		},
		{
			Name:   "delete",
			Usage:  "Permanently delete draft listings with a closed-out status",
			Flags:  []cli.Flag{delay, batchSize, slugs, once},
			Action: withDB(runDelete),
		},
		{
			Name:  "orphans",
			Usage: "List orphaned image attachments",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "delete", Usage: "permanently delete every orphan found"},
			},
			Action: withDB(runOrphans),
		},
		{
			Name:  "notify",
			Usage: "Notification digests",
			Subcommands: []cli.Command{
				{Name: "check", Usage: "Mail new properties from the last 24h", Action: withDB(notifyCheck)},
				{Name: "flush", Usage: "Mail and clear the change queue", Action: withDB(notifyFlush)},
				{Name: "run", Usage: "check, then flush", Action: withDB(notifyRun)},
				{Name: "test", Usage: "Send a sample digest", Action: withDB(notifyTest)},
			},
		},
		{
			Name:  "env",
			Usage: "Print the resolved tools configuration",
			Action: func(clictx *cli.Context) error {
				configs.LoadEnv()
				conf := configs.LoadTools()
				fmt.Printf("table prefix:     %s\n", configs.TablePrefix())
				fmt.Printf("status slugs:     %s\n", strings.Join(conf.StatusSlugs, ", "))
				fmt.Printf("batch sizes:      draft=%d delete=%d max=%d\n", conf.DraftBatchSize, conf.DeleteBatchSize, conf.MaxBatchSize)
				fmt.Printf("media meta keys:  %s\n", strings.Join(conf.MediaMetaKeys, ", "))
				fmt.Printf("orphans strict:   %v\n", conf.OrphansStrict)
				fmt.Printf("queue ttl:        %s\n", conf.QueueTTLDuration())
				fmt.Printf("digest cron:      %s\n", conf.DigestCron)
				fmt.Printf("change poll:      %s (enabled=%v)\n", conf.ChangePollCron, conf.ChangePollEnable)
				fmt.Printf("media store:      %s\n", helperOSS.NewMediaStoreFromEnv().Name())
				return nil
			},
		},
	}

	app.Action = func(clictx *cli.Context) error {
		fmt.Printf("Must specify command. Run `%s help` for info\n", app.Name)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type command func(ctx context.Context, clictx *cli.Context, conf configs.ToolsConfig) error

// withDB loads env, connects, and cancels the context on SIGINT/SIGTERM.
func withDB(run command) func(*cli.Context) error {
	return func(clictx *cli.Context) error {
		configs.LoadEnv()
		database.ConnectDB()
		defer database.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, clictx, configs.LoadTools())
	}
}

func tables() wpModel.Tables { return wpModel.NewTables(configs.TablePrefix()) }

func statusService(conf configs.ToolsConfig) *statusSvc.StatusService {
	repo := statusRepo.NewStatusRepository(database.DB, tables(), configs.SiteLocation())
	return statusSvc.NewStatusService(repo, conf)
}

func batchRequest(clictx *cli.Context) statusSvc.Request {
	req := statusSvc.Request{Page: 1, Limit: clictx.Int("batch-size")}
	if s := clictx.String("slugs"); s != "" {
		req.Slugs = configs.SplitCSV(s)
	}
	return req
}

func printBatch(verb string) func(batch.Result) {
	return func(r batch.Result) {
		next := "-"
		if r.Next != nil {
			next = fmt.Sprint(*r.Next)
		}
		fmt.Printf("batch %d: %s %d of %d, has_more=%v next=%s cursor=%d\n",
			r.Page, verb, r.Processed, r.Attempted, r.HasMore, next, r.Cursor)
	}
}

func runDraft(ctx context.Context, clictx *cli.Context, conf configs.ToolsConfig) error {
	svc := statusService(conf)
	req := batchRequest(clictx)
	if clictx.Bool("once") {
		res, err := svc.DraftBatch(ctx, req)
		if err != nil {
			return err
		}
		printBatch("drafted")(res)
		return nil
	}
	t, err := svc.DrainDraft(ctx, req, clictx.Duration("delay"), printBatch("drafted"))
	fmt.Printf("done: %d batches, %d listings drafted\n", t.Batches, t.Processed)
	return err
}

func runDelete(ctx context.Context, clictx *cli.Context, conf configs.ToolsConfig) error {
	svc := statusService(conf)
	req := batchRequest(clictx)
	if clictx.Bool("once") {
		res, err := svc.DeleteBatch(ctx, req)
		if err != nil {
			return err
		}
		printBatch("deleted")(res)
		return nil
	}
	t, err := svc.DrainDelete(ctx, req, clictx.Duration("delay"), printBatch("deleted"))
	fmt.Printf("done: %d batches, %d listings deleted\n", t.Batches, t.Processed)
	return err
}

func runOrphans(ctx context.Context, clictx *cli.Context, conf configs.ToolsConfig) error {
	repo := mediaRepo.NewMediaRepository(database.DB, tables())
	svc := mediaSvc.NewMediaService(repo, helperOSS.NewMediaStoreFromEnv(), conf)

	if clictx.Bool("delete") {
		rep, err := svc.PurgeOrphans(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d orphaned image(s) deleted, %d file(s) removed, %d failed\n", rep.Deleted, rep.FilesRemoved, len(rep.Failed))
		return nil
	}

	rows, err := svc.FindOrphans(ctx)
	if err != nil {
		return err
	}
	for _, a := range rows {
		fmt.Printf("%d\t%s\t%s\n", a.ID, a.PostTitle, a.GUID)
	}
	fmt.Printf("%d orphaned image(s) found\n", len(rows))
	return nil
}

func notifyService(conf configs.ToolsConfig) *notifSvc.NotificationService {
	return notifRoute.NewService(database.DB, conf)
}

func notifyCheck(ctx context.Context, _ *cli.Context, conf configs.ToolsConfig) error {
	n, err := notifyService(conf).CheckRecentUnnotified(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d new properties were processed for notifications\n", n)
	return nil
}

func notifyFlush(ctx context.Context, _ *cli.Context, conf configs.ToolsConfig) error {
	n, err := notifyService(conf).FlushDigest(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d queued change(s) sent\n", n)
	return nil
}

func notifyRun(ctx context.Context, _ *cli.Context, conf configs.ToolsConfig) error {
	sum, err := notifyService(conf).RunAllDigests(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("checked=%d flushed=%d\n", sum.Checked, sum.Flushed)
	return nil
}

func notifyTest(ctx context.Context, _ *cli.Context, conf configs.ToolsConfig) error {
	n, err := notifyService(conf).SendTestEmail(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("test digest sent to %d recipient(s)\n", n)
	return nil
}
