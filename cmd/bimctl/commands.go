package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"bimsight/internal/config"
	"bimsight/internal/feed"
	"bimsight/internal/loader"
	"bimsight/internal/render"
	"bimsight/internal/repository"
	"bimsight/internal/repository/sqlite"
	"bimsight/internal/service"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if p := c.String(flagConfig); p != "" {
		cfg, path, err = config.LoadFromPath(p)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded config", zap.String("path", path))
	return cfg, nil
}

// newService builds a compliance service over the model named by --model or the config
func newService(ctx context.Context, c *cli.Context, cfg *config.Config, repo repository.Repository) (*service.ComplianceService, error) {
	modelPath := c.String(flagModel)
	if modelPath == "" {
		modelPath = cfg.Model.Path
	}
	source := loader.New(modelPath, func(err error) {
		fmt.Fprintf(os.Stderr, "Warning: %v; using the simulated model\n", err)
	})

	svc, err := service.NewComplianceService(service.Options{
		Params:   cfg.Engine.Params,
		Keywords: cfg.KeywordTable(),
		Source:   source,
		Repo:     repo,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	if _, err := svc.Reload(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func openRepo(c *cli.Context, cfg *config.Config) (*sqlite.Repository, error) {
	path := c.String(flagDB)
	if path == "" {
		path = cfg.Database.Path
	}
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "database %s", path)
		}
	}
	return sqlite.New(path)
}

func evaluateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var repo repository.Repository
	if path := c.String(flagDB); path != "" {
		r, err := sqlite.New(path)
		if err != nil {
			return err
		}
		defer r.Close()
		repo = r
	}

	svc, err := newService(c.Context, c, cfg, repo)
	if err != nil {
		return err
	}

	replay, err := feed.OpenReplay(c.String(flagDetections), feed.ReplayOptions{
		MinConfidence: c.Float64(flagMinConf),
	})
	if err != nil {
		return err
	}

	session := c.String(flagSession)
	out := c.App.Writer
	for {
		frame, err := replay.Next(c.Context)
		if errors.Is(err, feed.ErrExhausted) {
			break
		}
		if err != nil {
			return err
		}

		var eval *service.Evaluation
		if repo != nil {
			_, eval, err = svc.Capture(c.Context, session, frame.Detections)
		} else {
			eval, err = svc.Evaluate(c.Context, session, frame.Detections)
		}
		if err != nil {
			return errors.Wrapf(err, "frame %d", frame.Index)
		}
		fmt.Fprintln(out, render.Evaluation(eval))
		fmt.Fprintln(out)
	}

	summary, err := svc.Summary(c.Context, session)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d frames, %d alerts, smoothed score %.1f (%s)\n",
		summary.Frames, summary.Alerts, summary.SmoothedScore, summary.SmoothedStatus.Label())
	return nil
}

func modelAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := newService(c.Context, c, cfg, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, render.Model(svc.Model()))
	return nil
}

func modelExportAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := newService(c.Context, c, cfg, nil)
	if err != nil {
		return err
	}
	return svc.ExportModel(c.String(flagFormat), c.App.Writer)
}

func sessionsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	repo, err := openRepo(c, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	sessions, err := repo.ListSessions(c.Context)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(c.App.Writer, "No sessions stored")
		return nil
	}
	fmt.Fprintln(c.App.Writer, render.Sessions(sessions))
	return nil
}

func summaryAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	repo, err := openRepo(c, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	session := c.String(flagSession)
	summary, err := repo.Summary(c.Context, session)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, render.Summary(summary))

	if limit := c.Int(flagLimit); limit > 0 {
		samples, err := repo.ListSamples(c.Context, session, limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, render.Samples(samples))
	}
	return nil
}

func configShowAction(c *cli.Context) error {
	path := c.String(flagConfig)
	if path == "" {
		path = config.FindConfigPath()
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if path == "" {
		path = "(defaults)"
	}
	fmt.Fprintf(c.App.Writer, "Config: %s\n%s\n", path, cfg.Summary())
	return nil
}

func configInitAction(c *cli.Context) error {
	path := c.String(flagOutput)
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("config %s already exists", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}
