package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var (
	webhook = cli.Command{
		Name:  "webhook",
		Usage: "add or remove webhooks",
		Subcommands: []*cli.Command{
			webhookAddCmd, webhookRemoveCmd,
		},
	}
	listwebhooks = cli.Command{
		Name:  "webhooks",
		Usage: "list all webhooks, optionally filtered by target event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "topic",
				Usage: "list only the webhooks notified for the given event",
			},
		},
		Action: listWebhooksAction,
	}

	webhookAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add a (secured) webhook endpoint called whenever a target event occurs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "the webhook endpoint to be called whenever the target event occurs",
				Required: true,
			},
			&cli.StringFlag{
				Name: "secret",
				Usage: "the eventual secret to use to generate an OAuth token for " +
					"authenticating requests to the webhook endpoint",
			},
			&cli.StringFlag{
				Name:  "topic",
				Usage: "the target event, ie. plan-execution-complete, or * for any event",
				Value: "*",
			},
		},
		Action: addWebhookAction,
	}

	webhookRemoveCmd = &cli.Command{
		Name:  "remove",
		Usage: "remove a webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "the id of the webhook to remove",
				Required: true,
			},
		},
		Action: removeWebhookAction,
	}
)

func addWebhookAction(ctx *cli.Context) error {
	topic := ctx.String("topic")
	if !isTopic(topic) {
		return fmt.Errorf("unknown event %s", topic)
	}

	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := svc.AddWebhook(
		ctx.Context, topic, ctx.String("endpoint"), ctx.String("secret"),
	)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("webhook id:", id)
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.RemoveWebhook(ctx.Context, ctx.String("id")); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("webhook removed")
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	hooks, err := svc.ListWebhooks(ctx.Context, ctx.String("topic"))
	if err != nil {
		return err
	}

	list := make([]map[string]interface{}, 0, len(hooks))
	for _, h := range hooks {
		list = append(list, map[string]interface{}{
			"id":         h.ID,
			"topic":      h.Topic,
			"endpoint":   h.Endpoint,
			"is_secured": h.IsSecured(),
		})
	}

	printJSON(list)
	return nil
}
