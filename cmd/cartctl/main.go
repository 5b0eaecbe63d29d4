// cartctl drives a storefront cart from the command line. It keeps its cart
// handle in a state file, so successive invocations operate on the same cart
// the way a browser session would.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"storefront/internal/cartapi"
	"storefront/internal/cartstate"
	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "cartctl",
		Usage: "inspect and mutate a storefront cart",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "storefront API base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"STOREFRONT_API_URL"},
			},
			&cli.StringFlag{
				Name:    "state",
				Usage:   "path of the cart state file",
				Value:   defaultStatePath(),
				EnvVars: []string{"CARTCTL_STATE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the current cart",
				Action: withManager(func(ctx context.Context, mgr *cartstate.Manager, c *cli.Context) error {
					return printCart(mgr)
				}),
			},
			{
				Name:  "add",
				Usage: "add a product to the cart",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "product", Required: true, Usage: "product id"},
					&cli.IntFlag{Name: "qty", Value: 1, Usage: "quantity"},
					&cli.Int64Flag{Name: "variant", Usage: "variant id"},
				},
				Action: withManager(func(ctx context.Context, mgr *cartstate.Manager, c *cli.Context) error {
					if err := mgr.AddToCart(ctx, c.Int64("product"), c.Int("qty"), c.Int64("variant")); err != nil {
						return err
					}
					return printCart(mgr)
				}),
			},
			{
				Name:  "update",
				Usage: "change a line item's quantity (0 removes it)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "item", Required: true, Usage: "line item id"},
					&cli.IntFlag{Name: "qty", Required: true, Usage: "new quantity"},
				},
				Action: withManager(func(ctx context.Context, mgr *cartstate.Manager, c *cli.Context) error {
					if err := mgr.UpdateQuantity(ctx, c.String("item"), c.Int("qty")); err != nil {
						return err
					}
					return printCart(mgr)
				}),
			},
			{
				Name:  "remove",
				Usage: "remove a line item",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "item", Required: true, Usage: "line item id"},
				},
				Action: withManager(func(ctx context.Context, mgr *cartstate.Manager, c *cli.Context) error {
					if err := mgr.RemoveItem(ctx, c.String("item")); err != nil {
						return err
					}
					return printCart(mgr)
				}),
			},
			{
				Name:  "clear",
				Usage: "empty the cart",
				Action: withManager(func(ctx context.Context, mgr *cartstate.Manager, c *cli.Context) error {
					if err := mgr.Clear(ctx); err != nil {
						return err
					}
					fmt.Println("cart cleared")
					return nil
				}),
			},
			{
				Name:  "checkout",
				Usage: "print the checkout handoff URL",
				Action: withManager(func(ctx context.Context, mgr *cartstate.Manager, c *cli.Context) error {
					url, err := mgr.CheckoutURL(ctx)
					if err != nil {
						return err
					}
					if url == "" {
						return cli.Exit("no checkout URL: the cart may be empty or expired", 1)
					}
					fmt.Println(url)
					return nil
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withManager builds the cart manager from the global flags and initializes
// it before handing control to the command.
func withManager(fn func(context.Context, *cartstate.Manager, *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		log := logrus.New()
		log.SetLevel(logrus.WarnLevel)

		api := cartapi.New(c.String("api"))
		handles := kvstore.NewFile(c.String("state"))
		mgr := cartstate.New(api, handles, log)

		ctx := c.Context
		if err := mgr.Initialize(ctx); err != nil {
			return err
		}
		return fn(ctx, mgr, c)
	}
}

func printCart(mgr *cartstate.Manager) error {
	switch mgr.Status() {
	case cartstate.StatusEmpty:
		fmt.Println("cart is empty")
		return nil
	case cartstate.StatusExpired:
		fmt.Println("cart expired; add an item to start a new one")
		return nil
	}

	cart := mgr.Cart()
	if cart == nil {
		fmt.Println("cart is empty")
		return nil
	}

	fmt.Printf("cart %s (%s)\n", cart.ID, cart.Currency)
	for _, item := range cart.Items {
		printLine(item)
	}
	fmt.Printf("items: %d  subtotal: %.2f\n", mgr.TotalItems(), mgr.Subtotal())
	return nil
}

func printLine(item domain.LineItem) {
	fmt.Printf("  %-36s  %-30s x%-3d  %8.2f\n", item.ID, item.Name, item.Quantity, item.ExtendedSalePrice)
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cartctl-state.json"
	}
	return filepath.Join(home, ".config", "storefront", "cart.json")
}
