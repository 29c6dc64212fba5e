package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/teamcheck/internal/e2etest"
	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/logging"
)

// TestTeamBuilder picks a full team through the forms of the front page.
//
// The first option of every slot is picked.
func TestTeamBuilder(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for ready")
	}

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get front page")
	}
	for slot := 1; slot <= 3; slot++ {
		selector := fmt.Sprintf("form[action='/team/pick'][data-slot='%d'] button[name=character_id]", slot)
		id, ok := doc.Find(selector).First().Attr("value")
		if !ok {
			return errors.New("no options for slot", slog.Int("slot", slot))
		}
		if doc, err = client.Pick(ctx, slot, id); err != nil {
			return errors.Wrap(err, "pick", slog.Int("slot", slot), slog.String("character_id", id))
		}
	}
	if doc.Find("#validation").Length() != 1 {
		return errors.New("validation panel missing after picking a full team")
	}
	if _, err = client.Reset(ctx, 1); err != nil {
		return errors.Wrap(err, "reset team")
	}
	return nil
}

func main() {
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug, "")
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		url    = "https://" + os.Args[1]
		client *e2etest.Client
		err    error
		doc    *goquery.Document
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if doc, err = client.GetDoc(ctx, "/"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error loading front page", errors.SlogError(err))
		os.Exit(1)
	}
	if doc.Find(".unavailable").Length() > 0 {
		logger.LogAttrs(ctx, slog.LevelError, "roster unavailable")
		os.Exit(1)
	}
	if err = TestTeamBuilder(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing team builder", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
}
