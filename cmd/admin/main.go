package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/accountd/internal/admin"
	"github.com/dmitrijs2005/accountd/internal/server"
	"github.com/dmitrijs2005/accountd/internal/server/config"
)

type appBackend struct {
	*server.App
}

func (b appBackend) Accounts() admin.Accounts {
	return b.App.Users()
}

func open(ctx context.Context, cfg *config.Config) (admin.Backend, error) {
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return appBackend{App: app}, nil
}

func main() {
	if err := admin.NewRootCommand(open).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
