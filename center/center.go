package center

import (
	"context"
	"fmt"

	"github.com/operis/vigil/center/cstats"
	centerrt "github.com/operis/vigil/center/router"
	"github.com/operis/vigil/conf"
	"github.com/operis/vigil/models"
	"github.com/operis/vigil/models/migrate"
	"github.com/operis/vigil/pkg/ctx"
	"github.com/operis/vigil/pkg/httpx"
	"github.com/operis/vigil/pkg/logx"
	"github.com/operis/vigil/storage"
	"github.com/operis/vigil/vigilance"
)

func Initialize(configDir string) (func(), error) {
	config, err := conf.InitConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init config: %v", err)
	}

	logxClean, err := logx.Init(config.Log)
	if err != nil {
		return nil, err
	}

	cstats.Init()

	db, err := storage.New(config.DB)
	if err != nil {
		return nil, err
	}

	ctx := ctx.NewContext(context.Background(), db)
	migrate.Migrate(db)

	if err := models.InitSalt(ctx); err != nil {
		return nil, err
	}
	models.InitRoot(ctx)

	redis, err := storage.NewRedis(config.Redis)
	if err != nil {
		return nil, err
	}

	engine := vigilance.NewEngine(ctx)

	router := centerrt.New(config.HTTP, redis, ctx, engine)

	r := httpx.GinEngine(config.Global.RunMode, config.HTTP)
	router.Config(r)

	httpClean := httpx.Init(config.HTTP, r)

	return func() {
		httpClean()
		logxClean()
	}, nil
}
