package cmd

import (
	"fmt"

	"github.com/franciscotobar/rif-relay-server/core/services"
	"github.com/franciscotobar/rif-relay-server/core/store"
	"github.com/franciscotobar/rif-relay-server/core/web"

	"github.com/gin-gonic/gin"
	clipkg "github.com/urfave/cli"
)

// Client is the CLI entry: it builds the application from config and
// runs the chosen command.
type Client struct {
	Config     store.Config
	AppFactory AppFactory
	Runner     Runner
}

func (cli *Client) errorOut(err error) error {
	if err != nil {
		return clipkg.NewExitError(err.Error(), 1)
	}
	return nil
}

type AppFactory interface {
	NewApplication(store.Config) *services.Application
}

type RelayAppFactory struct{}

func (f RelayAppFactory) NewApplication(config store.Config) *services.Application {
	return services.NewApplication(config)
}

type Runner interface {
	Run(*services.Application) error
}

type RelayRunner struct{}

func (r RelayRunner) Run(app *services.Application) error {
	config := app.Store.Config
	if !config.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return web.Router(app).Run(":" + config.Port)
}

// RunNode starts the relay: store, tx manager, confirmation loop and
// the HTTP surface.
func (cli *Client) RunNode(c *clipkg.Context) error {
	app := cli.AppFactory.NewApplication(cli.Config)
	if err := app.Start(); err != nil {
		return cli.errorOut(err)
	}
	defer app.Stop()
	return cli.errorOut(cli.Runner.Run(app))
}

// ListAccounts prints the manager and worker addresses the relay signs
// with.
func (cli *Client) ListAccounts(c *clipkg.Context) error {
	app := cli.AppFactory.NewApplication(cli.Config)
	defer app.Stop()
	for _, account := range app.Store.ManagerKeys.Accounts() {
		fmt.Println("manager:", account.Address.Hex())
	}
	for _, account := range app.Store.WorkerKeys.Accounts() {
		fmt.Println("worker: ", account.Address.Hex())
	}
	return nil
}
